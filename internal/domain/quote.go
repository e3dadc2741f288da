// Package domain contains core business entities and rules.
package domain

import "strings"

// AllCategories is the filter sentinel that matches every quote.
// It is never stored in the category index itself.
const AllCategories = "all"

// Quote is a short text tagged with a category.
// Quotes have no identity beyond their fields and are immutable once stored.
type Quote struct {
	// Text is the body of the quote.
	Text string `json:"text"`

	// Category is a free-form tag used for filtering.
	Category string `json:"category"`
}

// NewQuote trims and validates the fields of a user-supplied quote.
// Returns a ValidationError naming the first empty field.
func NewQuote(text, category string) (Quote, error) {
	q := Quote{
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
	}

	if err := q.Validate(); err != nil {
		return Quote{}, err
	}

	return q, nil
}

// Validate reports whether both fields are present.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "must not be empty")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "must not be empty")
	}

	return nil
}

// SameAs reports whether two quotes are the same for merge purposes.
// Only the text is compared; category is informative.
func (q Quote) SameAs(other Quote) bool {
	return q.Text == other.Text
}

// InCategory reports whether the quote matches a filter value.
// The AllCategories sentinel matches everything.
func (q Quote) InCategory(category string) bool {
	return category == AllCategories || q.Category == category
}

// SeedQuotes returns the quotes used when nothing has been stored yet.
func SeedQuotes() []Quote {
	return []Quote{
		{Text: "The only limit to our realization of tomorrow is our doubts of today.", Category: "Motivation"},
		{Text: "In the middle of every difficulty lies opportunity.", Category: "Inspiration"},
		{Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
	}
}
