package dto

import (
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// AddQuoteRequest is the body of POST /api/v1/quotes.
// Emptiness is checked by the domain so the error matches every other entry point.
type AddQuoteRequest struct {
	Text     string `json:"text" validate:"max=2000"`
	Category string `json:"category" validate:"max=100"`
}

// FilterRequest is the body of PUT /api/v1/filter.
type FilterRequest struct {
	Category string `json:"category" validate:"notblank,max=100"`
}

// QuoteResponse is a single quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// CategoriesResponse lists the categories in first-seen order.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// SyncResponse reports one reconciliation run.
type SyncResponse struct {
	RunID   string          `json:"runId"`
	Fetched int             `json:"fetched"`
	Added   []QuoteResponse `json:"added"`
	Message string          `json:"message"`
}

// ToQuoteResponse converts a domain quote.
func ToQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// ToQuoteResponses converts a list of domain quotes, never returning nil.
func ToQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ToQuoteResponse(q))
	}

	return out
}

// ToSyncResponse converts a reconciliation report.
func ToSyncResponse(r app.SyncReport) SyncResponse {
	return SyncResponse{
		RunID:   r.RunID,
		Fetched: r.Fetched,
		Added:   ToQuoteResponses(r.Added),
		Message: r.Status.Message,
	}
}
