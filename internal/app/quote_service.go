package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/metrics"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// QuoteService orchestrates the user-facing quote use cases.
// Presentation adapters call it and receive events through the publisher;
// it never renders anything itself.
type QuoteService struct {
	display

	reconciler *Reconciler
	metrics    *metrics.Metrics
}

// QuoteServiceConfig contains the dependencies of the quote service.
type QuoteServiceConfig struct {
	Store      *QuoteStore
	Categories *CategoryIndex
	Filter     *FilterState
	Publisher  ports.EventPublisher

	// Reconciler enables Sync and Push. Optional.
	Reconciler *Reconciler

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil || cfg.Categories == nil || cfg.Filter == nil {
		panic("app: QuoteService requires a store, category index and filter")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &QuoteService{
		display: display{
			store:      cfg.Store,
			categories: cfg.Categories,
			filter:     cfg.Filter,
			publisher:  cfg.Publisher,
			logger:     cfg.Logger,
		},
		reconciler: cfg.Reconciler,
		metrics:    cfg.Metrics,
	}

	cfg.Store.SetPersistErrorHandler(s.persistFailed)

	return s
}

// Start loads the store, restores the filter and shows the first quote.
func (s *QuoteService) Start(ctx context.Context) ViewModel {
	quotes := s.store.Load(ctx)
	filter := s.filter.Restore(ctx)

	s.metrics.SetStoredQuotes(len(quotes))
	s.refreshCategories(ctx)
	s.showRandom(ctx)

	s.logger.InfoContext(ctx, "quote service started",
		slog.Int("quotes", len(quotes)),
		slog.String("filter", filter),
	)

	return s.View(ctx)
}

// RandomQuote shows a random quote under the active filter.
// Returns a NotFoundError when the filter matches nothing.
func (s *QuoteService) RandomQuote(ctx context.Context) (domain.Quote, error) {
	q, ok := s.showRandom(ctx)
	if !ok {
		return domain.Quote{}, domain.NewNotFoundError("quote in category", s.filter.Get())
	}

	return q, nil
}

// AddQuote validates and stores a user quote, announcing a new category.
func (s *QuoteService) AddQuote(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := s.store.Add(ctx, text, category)
	if err != nil {
		s.logger.InfoContext(ctx, "quote rejected", slog.Any("error", err))

		return domain.Quote{}, err
	}

	s.metrics.QuotesAdded(metrics.SourceUser, 1)
	s.metrics.SetStoredQuotes(s.store.Len())
	s.refreshCategories(ctx)

	s.logger.InfoContext(ctx, "quote added", slog.String("category", q.Category))

	return q, nil
}

// SelectCategory changes the filter and shows a matching quote if one exists.
// A failed persist is announced as a warning; the selection still applies.
func (s *QuoteService) SelectCategory(ctx context.Context, category string) ViewModel {
	selected, err := s.filter.Set(ctx, category)
	if err != nil {
		s.logger.WarnContext(ctx, "persisting selected category failed", slog.Any("error", err))
		s.status(ctx, domain.SyncStatus{
			Message: "Selected category could not be saved.",
			Level:   domain.StatusWarning,
		})
	}

	if _, ok := s.showRandom(ctx); !ok {
		s.logger.DebugContext(ctx, "no quote in selected category", slog.String("category", selected))
	}

	return s.View(ctx)
}

// Import appends every valid quote of a JSON array payload without any
// duplicate check. A payload that is not a JSON array changes nothing.
func (s *QuoteService) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	quotes, skipped, err := DecodeImport(r)
	if err != nil {
		s.status(ctx, domain.SyncStatus{Message: "Import failed: " + err.Error(), Level: domain.StatusError})

		return ImportReport{}, err
	}

	n, err := s.store.Append(ctx, quotes)
	if err != nil {
		s.persistFailed(ctx, err)
	}

	s.metrics.QuotesAdded(metrics.SourceImport, n)
	s.metrics.SetStoredQuotes(s.store.Len())
	s.refreshCategories(ctx)

	report := ImportReport{Imported: n, Skipped: skipped}
	s.status(ctx, domain.SyncStatus{Message: importMessage(report), Level: domain.StatusInfo})

	s.logger.InfoContext(ctx, "quotes imported",
		slog.Int("imported", report.Imported),
		slog.Int("skipped", report.Skipped),
	)

	return report, nil
}

func importMessage(r ImportReport) string {
	if r.Skipped == 0 {
		return fmt.Sprintf("Imported %d quote(s).", r.Imported)
	}

	return fmt.Sprintf("Imported %d quote(s), skipped %d invalid item(s).", r.Imported, r.Skipped)
}

// Export serializes every stored quote.
func (s *QuoteService) Export(_ context.Context) (Export, error) {
	quotes := s.store.All()

	data, err := EncodeQuotes(quotes)
	if err != nil {
		return Export{}, err
	}

	return Export{FileName: ExportFileName, Data: data, Count: len(quotes)}, nil
}

// View returns the current render model. The displayed quote is the last one
// shown, provided it still matches the filter.
func (s *QuoteService) View(_ context.Context) ViewModel {
	var displayed *domain.Quote

	if q, ok := s.store.LastViewed(); ok && q.InCategory(s.filter.Get()) {
		displayed = &q
	}

	return Render(displayed, s.categories.Current(), s.filter.Get())
}

// Quotes returns every stored quote.
func (s *QuoteService) Quotes() []domain.Quote {
	return s.store.All()
}

// Categories returns the current category list, without AllCategories.
func (s *QuoteService) Categories() []string {
	return s.categories.Current()
}

// Filter returns the active filter value.
func (s *QuoteService) Filter() string {
	return s.filter.Get()
}

// Sync runs a reconciliation now.
func (s *QuoteService) Sync(ctx context.Context) (SyncReport, error) {
	if s.reconciler == nil {
		return SyncReport{}, domain.NewSyncError("", "remote sync is not configured")
	}

	return s.reconciler.Reconcile(ctx)
}

// Push sends local quotes to the remote.
func (s *QuoteService) Push(ctx context.Context) error {
	if s.reconciler == nil {
		return domain.NewSyncError("", "remote sync is not configured")
	}

	return s.reconciler.Push(ctx)
}

func (s *QuoteService) persistFailed(ctx context.Context, err error) {
	s.status(ctx, domain.SyncStatus{
		Message: "Quotes could not be saved: " + err.Error(),
		Level:   domain.StatusWarning,
	})
}
