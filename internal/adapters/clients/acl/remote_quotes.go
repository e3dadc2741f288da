package acl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// DefaultRemoteCategory is assigned to fetched quotes when none is configured.
const DefaultRemoteCategory = "Server"

// RemoteQuotesConfig contains the settings of the remote quote source.
type RemoteQuotesConfig struct {
	// Client reaches the remote. Required.
	Client *clients.Client

	// FetchPath is read with GET and must answer a JSON array of posts.
	FetchPath string

	// PushPath receives local quotes with POST.
	PushPath string

	// Category is given to every fetched quote.
	Category string

	// UserID is sent as userId on pushed records.
	UserID int

	Logger *slog.Logger
}

// RemoteQuotes implements ports.QuoteSource over a posts-style JSON API.
// Posts become quotes through the projection title → text, with the
// configured category; every other field is ignored.
type RemoteQuotes struct {
	BaseAdapter

	fetchPath string
	pushPath  string
	category  string
	userID    int
	logger    *slog.Logger
}

// NewRemoteQuotes creates the remote quote source.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewRemoteQuotes(cfg RemoteQuotesConfig) *RemoteQuotes {
	if cfg.Client == nil {
		panic("RemoteQuotes: Client is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if strings.TrimSpace(cfg.Category) == "" {
		cfg.Category = DefaultRemoteCategory
	}

	if cfg.FetchPath == "" {
		cfg.FetchPath = "/posts"
	}

	if cfg.PushPath == "" {
		cfg.PushPath = cfg.FetchPath
	}

	return &RemoteQuotes{
		BaseAdapter: NewBaseAdapter(cfg.Client, ""),
		fetchPath:   cfg.FetchPath,
		pushPath:    cfg.PushPath,
		category:    strings.TrimSpace(cfg.Category),
		userID:      cfg.UserID,
		logger:      cfg.Logger,
	}
}

// remotePost is the record served by the remote. Never leaves this package.
type remotePost struct {
	ID     int    `json:"id,omitempty"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// FetchQuotes reads the remote collection and projects it onto quotes.
// Posts with a blank title are dropped. A body that is not a JSON array of
// objects yields a *domain.SyncError wrapping a *domain.ParseError.
func (r *RemoteQuotes) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	const operation = "fetch quotes"

	logger := logging.FromContextOr(ctx, r.logger)
	logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", r.fetchPath))

	body, err := r.Get(ctx, r.fetchPath, operation)
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]remotePost](body, r.ServiceName())
	if err != nil {
		return nil, domain.NewSyncErrorWithCause(r.ServiceName(), operation+": malformed response", err)
	}

	quotes, dropped, err := TranslateSlice(posts, r.translateToDomain)
	if err != nil {
		return nil, domain.NewSyncErrorWithCause(r.ServiceName(), operation+": "+err.Error(), err)
	}

	logger.DebugContext(ctx, "fetched remote quotes",
		slog.Int("received", len(posts)),
		slog.Int("dropped", dropped),
	)

	return quotes, nil
}

// translateToDomain is the projection from a remote post to a quote.
func (r *RemoteQuotes) translateToDomain(post *remotePost) (domain.Quote, error) {
	text := strings.TrimSpace(post.Title)
	if text == "" {
		return domain.Quote{}, ErrDropped
	}

	return domain.Quote{Text: text, Category: r.category}, nil
}

// translateToRemote is the inverse projection used when pushing.
func (r *RemoteQuotes) translateToRemote(q domain.Quote) remotePost {
	return remotePost{Title: q.Text, Body: q.Category, UserID: r.userID}
}

// PushQuotes posts every quote as {title, body, userId}. The response body is
// discarded; only the status matters.
func (r *RemoteQuotes) PushQuotes(ctx context.Context, quotes []domain.Quote) error {
	const operation = "push quotes"

	records := make([]remotePost, 0, len(quotes))
	for _, q := range quotes {
		records = append(records, r.translateToRemote(q))
	}

	body, err := r.PostJSON(ctx, r.pushPath, records, operation)
	if err != nil {
		return err
	}

	_ = body.Close()

	logging.FromContextOr(ctx, r.logger).DebugContext(ctx, "pushed quotes to remote",
		slog.Int("count", len(records)),
	)

	return nil
}

// Name returns the health check name.
// Implements ports.HealthChecker.
func (r *RemoteQuotes) Name() string {
	return r.ServiceName()
}

// Check reports the remote as unhealthy while the circuit breaker is open.
// It does not send a request, so readiness checks never add load to the remote.
// Implements ports.HealthChecker.
func (r *RemoteQuotes) Check(_ context.Context) error {
	snap := r.Client().Circuit()
	if snap.State == clients.StateOpen {
		return fmt.Errorf("circuit breaker open since %s", snap.LastFailure.Format("15:04:05"))
	}

	return nil
}
