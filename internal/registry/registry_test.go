package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clob/internal/book"
)

func TestGetOrCreateLazilyCreatesOnce(t *testing.T) {
	r := New()

	b1 := r.GetOrCreate("AAPL")
	require.NotNil(t, b1)
	assert.Equal(t, "AAPL", b1.Symbol)

	b2 := r.GetOrCreate("AAPL")
	assert.Same(t, b1, b2)
}

func TestGetDoesNotCreate(t *testing.T) {
	r := New()

	_, ok := r.Get("AAPL")
	assert.False(t, ok)

	r.GetOrCreate("AAPL")
	b, ok := r.Get("AAPL")
	assert.True(t, ok)
	assert.NotNil(t, b)
}

func TestSymbolsListsEveryAdmittedSymbol(t *testing.T) {
	r := New()
	r.GetOrCreate("AAPL")
	r.GetOrCreate("MSFT")

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, r.Symbols())
}

func TestEachVisitsEveryBook(t *testing.T) {
	r := New()
	r.GetOrCreate("AAPL")
	r.GetOrCreate("MSFT")

	seen := make(map[string]bool)
	r.Each(func(symbol string, b *book.Book) {
		seen[symbol] = true
	})
	assert.Len(t, seen, 2)
}
