package app

import (
	"slices"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// ViewModel is everything a presentation needs to draw the current screen.
type ViewModel struct {
	// Quote is the displayed quote, nil when nothing matches the filter.
	Quote *domain.Quote `json:"quote"`

	// Options are the filter choices, AllCategories first.
	Options []string `json:"options"`

	// Selected is the active filter value.
	Selected string `json:"selected"`

	// Empty is true when the active filter matches no quote.
	Empty bool `json:"empty"`
}

// Render builds the view model. It has no side effects.
func Render(quote *domain.Quote, categories []string, filter string) ViewModel {
	options := make([]string, 0, len(categories)+1)
	options = append(options, domain.AllCategories)

	for _, c := range categories {
		if c != domain.AllCategories {
			options = append(options, c)
		}
	}

	if filter == "" {
		filter = domain.AllCategories
	}

	vm := ViewModel{
		Options:  options,
		Selected: filter,
		Empty:    quote == nil,
	}

	if quote != nil {
		q := *quote
		vm.Quote = &q
	}

	return vm
}

// HasOption reports whether value is one of the filter choices.
func (v ViewModel) HasOption(value string) bool {
	return slices.Contains(v.Options, value)
}
