// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// QuoteStore is the authoritative in-memory sequence of quotes, mirrored to
// the durable slot after every mutation.
//
// Quotes are append-only: nothing here edits or removes an entry.
type QuoteStore struct {
	mu         sync.RWMutex
	quotes     []domain.Quote
	lastViewed *domain.Quote

	durable ports.KeyValueStore
	session ports.KeyValueStore
	logger  *slog.Logger
	intn    func(n int) int

	onPersistError func(ctx context.Context, err error)
}

// QuoteStoreConfig contains the dependencies of a QuoteStore.
type QuoteStoreConfig struct {
	// Durable holds the quotes and filter slots. Required.
	Durable ports.KeyValueStore

	// Session holds the last viewed quote. Optional.
	Session ports.KeyValueStore

	Logger *slog.Logger

	// Intn returns a uniform int in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int

	// OnPersistError is called when a write to the durable slot fails
	// during Add. The in-memory state is kept either way.
	OnPersistError func(ctx context.Context, err error)
}

// NewQuoteStore creates an empty store. Call Load before use.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Durable == nil {
		panic("app: QuoteStore requires a durable store")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Intn == nil {
		cfg.Intn = rand.IntN
	}

	return &QuoteStore{
		durable:        cfg.Durable,
		session:        cfg.Session,
		logger:         cfg.Logger,
		intn:           cfg.Intn,
		onPersistError: cfg.OnPersistError,
	}
}

// Load reads the durable slot and replaces the in-memory sequence.
// Falls back to the seed quotes when the slot is absent, empty, unreadable or malformed.
func (s *QuoteStore) Load(ctx context.Context) []domain.Quote {
	quotes := s.read(ctx)

	s.mu.Lock()
	s.quotes = quotes
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "quotes loaded", slog.Int("count", len(quotes)))

	return cloneQuotes(quotes)
}

func (s *QuoteStore) read(ctx context.Context) []domain.Quote {
	raw, err := s.durable.Get(ctx, ports.SlotQuotes)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WarnContext(ctx, "reading stored quotes failed, using seed quotes",
				slog.Any("error", domain.NewStorageError("read", ports.SlotQuotes, err)),
			)
		}

		return domain.SeedQuotes()
	}

	var quotes []domain.Quote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		s.logger.WarnContext(ctx, "stored quotes are malformed, using seed quotes",
			slog.Any("error", domain.NewParseError("storage", "quotes slot is not a JSON array", err)),
		)

		return domain.SeedQuotes()
	}

	valid := quotes[:0]
	for _, q := range quotes {
		if q.Validate() == nil {
			valid = append(valid, q)
		}
	}

	if dropped := len(quotes) - len(valid); dropped > 0 {
		s.logger.WarnContext(ctx, "dropped invalid stored quotes",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(valid)),
		)
	}

	if len(valid) == 0 {
		return domain.SeedQuotes()
	}

	return valid
}

// All returns a copy of the current sequence.
func (s *QuoteStore) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneQuotes(s.quotes)
}

// Len returns the number of stored quotes.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Add validates and appends a user-supplied quote, then persists.
// A persist failure is reported through OnPersistError, not returned.
func (s *QuoteStore) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	s.quotes = append(s.quotes, q)
	err = s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		s.reportPersistError(ctx, err)
	}

	return q, nil
}

// Append adds quotes without any duplicate check and persists.
// Returns the number appended and any persist error; memory keeps the append.
func (s *QuoteStore) Append(ctx context.Context, quotes []domain.Quote) (int, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes = append(s.quotes, quotes...)

	return len(quotes), s.persistLocked(ctx)
}

// Merge appends the quotes of batch whose text is not already stored.
// The comparison runs against the current contents under the store lock, and
// repeated texts within batch collapse to their first occurrence.
// Returns the appended delta in batch order.
func (s *QuoteStore) Merge(ctx context.Context, batch []domain.Quote) ([]domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.quotes)+len(batch))
	for _, q := range s.quotes {
		seen[q.Text] = struct{}{}
	}

	var delta []domain.Quote

	for _, q := range batch {
		if _, ok := seen[q.Text]; ok {
			continue
		}

		seen[q.Text] = struct{}{}
		delta = append(delta, q)
	}

	if len(delta) == 0 {
		return nil, nil
	}

	s.quotes = append(s.quotes, delta...)

	return cloneQuotes(delta), s.persistLocked(ctx)
}

// Persist writes the current sequence to the durable slot.
func (s *QuoteStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.persistLocked(ctx)
}

// persistLocked must be called with s.mu held.
func (s *QuoteStore) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.quotes)
	if err != nil {
		return domain.NewStorageError("encode", ports.SlotQuotes, err)
	}

	if err := s.durable.Set(ctx, ports.SlotQuotes, raw); err != nil {
		if domain.IsStorage(err) {
			return err
		}

		return domain.NewStorageError("write", ports.SlotQuotes, err)
	}

	return nil
}

func (s *QuoteStore) reportPersistError(ctx context.Context, err error) {
	s.logger.ErrorContext(ctx, "persisting quotes failed, keeping in-memory state",
		slog.Any("error", err),
	)

	s.mu.RLock()
	hook := s.onPersistError
	s.mu.RUnlock()

	if hook != nil {
		hook(ctx, err)
	}
}

// PickRandom returns a uniformly chosen quote among those matching pred.
// A nil pred matches everything. Reports false when nothing matches.
func (s *QuoteStore) PickRandom(pred func(domain.Quote) bool) (domain.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.quotes
	if pred != nil {
		candidates = make([]domain.Quote, 0, len(s.quotes))

		for _, q := range s.quotes {
			if pred(q) {
				candidates = append(candidates, q)
			}
		}
	}

	if len(candidates) == 0 {
		return domain.Quote{}, false
	}

	return candidates[s.intn(len(candidates))], true
}

// RecordViewed remembers q as displayed and writes it to the session slot.
// Failures are logged only.
func (s *QuoteStore) RecordViewed(ctx context.Context, q domain.Quote) {
	s.mu.Lock()
	s.lastViewed = &q
	s.mu.Unlock()

	if s.session == nil {
		return
	}

	raw, err := json.Marshal(q)
	if err == nil {
		err = s.session.Set(ctx, ports.SlotLastViewedQuote, raw)
	}

	if err != nil {
		s.logger.WarnContext(ctx, "recording last viewed quote failed",
			slog.Any("error", domain.NewStorageError("write", ports.SlotLastViewedQuote, err)),
		)
	}
}

// LastViewed returns the quote most recently passed to RecordViewed.
func (s *QuoteStore) LastViewed() (domain.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastViewed == nil {
		return domain.Quote{}, false
	}

	return *s.lastViewed, true
}

// SetPersistErrorHandler replaces the OnPersistError hook.
func (s *QuoteStore) SetPersistErrorHandler(fn func(ctx context.Context, err error)) {
	s.mu.Lock()
	s.onPersistError = fn
	s.mu.Unlock()
}

func cloneQuotes(quotes []domain.Quote) []domain.Quote {
	if quotes == nil {
		return []domain.Quote{}
	}

	out := make([]domain.Quote, len(quotes))
	copy(out, quotes)

	return out
}
