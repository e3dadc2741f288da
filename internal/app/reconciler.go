package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/metrics"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// SyncReport summarises one reconciliation run.
type SyncReport struct {
	RunID string `json:"runId,omitempty"`

	// Fetched is the number of usable records the remote returned.
	Fetched int `json:"fetched"`

	// Added holds the quotes appended by this run, in remote order.
	Added []domain.Quote `json:"added"`

	// Skipped is true when another run was already in flight.
	Skipped bool `json:"skipped,omitempty"`

	Status domain.SyncStatus `json:"status"`
}

// Reconciler merges the remote quote collection into the local store.
// The merge is additive: local quotes are never removed or replaced, and a
// remote quote is new only when no stored quote has the same text.
type Reconciler struct {
	display

	source   ports.QuoteSource
	executor *Executor
	metrics  *metrics.Metrics
	timeout  time.Duration
	service  string

	inFlight atomic.Bool
}

// ReconcilerConfig contains the dependencies of a Reconciler.
type ReconcilerConfig struct {
	Store      *QuoteStore
	Categories *CategoryIndex
	Filter     *FilterState
	Source     ports.QuoteSource
	Publisher  ports.EventPublisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Timeout bounds a single remote fetch or push. Zero means no bound.
	Timeout time.Duration

	// ServiceName labels sync errors. Defaults to "remote-quotes".
	ServiceName string
}

// NewReconciler creates a reconciler with the provided dependencies.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.Store == nil || cfg.Categories == nil || cfg.Filter == nil {
		panic("app: Reconciler requires a store, category index and filter")
	}

	if cfg.Source == nil {
		panic("app: Reconciler requires a quote source")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "remote-quotes"
	}

	r := &Reconciler{
		display: display{
			store:      cfg.Store,
			categories: cfg.Categories,
			filter:     cfg.Filter,
			publisher:  cfg.Publisher,
			logger:     cfg.Logger,
		},
		source:  cfg.Source,
		metrics: cfg.Metrics,
		timeout: cfg.Timeout,
		service: cfg.ServiceName,
	}

	r.executor = NewExecutor(cfg.Logger).WithObserver(func(op string, stage Stage, elapsed time.Duration, err error) {
		r.metrics.ObserveStage(op, string(stage), elapsed, err)
	})

	return r
}

// InFlight reports whether a reconciliation is running.
func (r *Reconciler) InFlight() bool {
	return r.inFlight.Load()
}

type syncRun struct {
	id string
}

// Reconcile fetches the remote collection and appends the quotes whose text
// is not yet stored. At most one run is in flight; an overlapping call returns
// a skipped report and a ConflictError without touching anything.
func (r *Reconciler) Reconcile(ctx context.Context) (SyncReport, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.metrics.SyncRun(metrics.ResultSkipped)

		return SyncReport{Skipped: true}, domain.NewConflictError("sync", "a reconciliation is already in flight")
	}
	defer r.inFlight.Store(false)

	run := syncRun{id: uuid.NewString()}
	ctx = logging.WithContext(ctx, logging.FromContextOr(ctx, r.logger))
	ctx = logging.WithSyncRunID(ctx, run.id)

	var fetched int

	op := Operation[syncRun, []domain.Quote, []domain.Quote, SyncReport]{
		Name: "reconcile",
		Guard: func(ctx context.Context, _ syncRun) error {
			return ctx.Err()
		},
		Fetch: func(ctx context.Context, _ syncRun) ([]domain.Quote, error) {
			ctx, cancel := r.withTimeout(ctx)
			defer cancel()

			quotes, err := r.source.FetchQuotes(ctx)
			if err != nil {
				return nil, r.asSyncError(err)
			}

			return quotes, nil
		},
		Diff: func(_ context.Context, _ syncRun, remote []domain.Quote) ([]domain.Quote, error) {
			candidates := make([]domain.Quote, 0, len(remote))

			for _, q := range remote {
				if q.Validate() != nil {
					continue
				}

				candidates = append(candidates, q)
			}

			fetched = len(candidates)

			return candidates, nil
		},
		Apply: func(ctx context.Context, _ syncRun, candidates []domain.Quote) ([]domain.Quote, error) {
			delta, err := r.store.Merge(ctx, candidates)
			if err != nil {
				r.logger.ErrorContext(ctx, "persisting merged quotes failed, keeping in-memory state",
					slog.Any("error", err),
				)
				r.status(ctx, domain.SyncStatus{
					Message: "Synced quotes could not be saved: " + err.Error(),
					Level:   domain.StatusWarning,
				})
			}

			return delta, nil
		},
		Report: func(ctx context.Context, run syncRun, delta []domain.Quote) (SyncReport, error) {
			r.refreshCategories(ctx)

			if len(delta) > 0 {
				r.showRandom(ctx)
			}

			return SyncReport{
				RunID:   run.id,
				Fetched: fetched,
				Added:   cloneQuotes(delta),
				Status:  domain.SyncedStatus(len(delta)),
			}, nil
		},
	}

	report, err := Execute(ctx, r.executor, op, run)
	if err != nil {
		status := domain.SyncFailedStatus(failureReason(err))
		r.status(ctx, status)
		r.metrics.SyncRun(metrics.ResultFailed)

		r.logger.WarnContext(ctx, "reconciliation failed", slog.Any("error", err))

		return SyncReport{RunID: run.id, Added: []domain.Quote{}, Status: status}, err
	}

	r.status(ctx, report.Status)
	r.metrics.QuotesAdded(metrics.SourceSync, len(report.Added))
	r.metrics.SetStoredQuotes(r.store.Len())

	if len(report.Added) > 0 {
		r.metrics.SyncRun(metrics.ResultAdded)
	} else {
		r.metrics.SyncRun(metrics.ResultUpToDate)
	}

	logging.FromContext(ctx).InfoContext(ctx, "reconciliation completed",
		slog.Int("fetched", report.Fetched),
		slog.Int("added", len(report.Added)),
	)

	return report, nil
}

// Push sends every local quote to the remote. The response is ignored and
// local state is never changed. Failures are announced as a SyncStatus error.
func (r *Reconciler) Push(ctx context.Context) error {
	quotes := r.store.All()

	pushCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.source.PushQuotes(pushCtx, quotes)
	r.metrics.Push(err)

	if err != nil {
		err = r.asSyncError(err)
		r.status(ctx, domain.SyncFailedStatus(failureReason(err)))
		r.logger.WarnContext(ctx, "pushing quotes failed", slog.Any("error", err))

		return err
	}

	r.logger.InfoContext(ctx, "quotes pushed", slog.Int("count", len(quotes)))

	return nil
}

func (r *Reconciler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.timeout)
}

func (r *Reconciler) asSyncError(err error) error {
	if domain.IsSync(err) {
		return err
	}

	return domain.NewSyncErrorWithCause(r.service, err.Error(), err)
}

// failureReason extracts the user-facing reason from a pipeline error.
func failureReason(err error) string {
	var syncErr *domain.SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Reason
	}

	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}

	return err.Error()
}
