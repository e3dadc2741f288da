package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

func TestRender(t *testing.T) {
	quote := q("A", "X")

	vm := Render(&quote, []string{"X", "Y"}, "X")

	require.NotNil(t, vm.Quote)
	assert.Equal(t, quote, *vm.Quote)
	assert.Equal(t, []string{"all", "X", "Y"}, vm.Options)
	assert.Equal(t, "X", vm.Selected)
	assert.False(t, vm.Empty)
	assert.True(t, vm.HasOption("Y"))
	assert.False(t, vm.HasOption("Z"))

	quote.Text = "mutated"
	assert.Equal(t, "A", vm.Quote.Text, "view model holds its own copy")
}

func TestRender_EmptyState(t *testing.T) {
	vm := Render(nil, nil, "")

	assert.Nil(t, vm.Quote)
	assert.True(t, vm.Empty)
	assert.Equal(t, []string{domain.AllCategories}, vm.Options)
	assert.Equal(t, domain.AllCategories, vm.Selected)
}

func TestRender_SentinelNotDuplicated(t *testing.T) {
	vm := Render(nil, []string{"X", domain.AllCategories}, "Nonexistent")

	assert.Equal(t, []string{domain.AllCategories, "X"}, vm.Options)
	assert.Equal(t, "Nonexistent", vm.Selected)
}
