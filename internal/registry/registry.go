// Package registry maps symbol to Book, admitting new symbols on first
// sight. A Registry is exclusively mutated by the matcher goroutine — see
// internal/matching — and must never be touched concurrently.
package registry

import "clob/internal/book"

// Registry owns every per-symbol Book for the process.
type Registry struct {
	books map[string]*book.Book
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{books: make(map[string]*book.Book)}
}

// GetOrCreate returns the Book for symbol, lazily creating it on first
// sight. Must only be called from the matcher goroutine.
func (r *Registry) GetOrCreate(symbol string) *book.Book {
	b, ok := r.books[symbol]
	if !ok {
		b = book.New(symbol)
		r.books[symbol] = b
	}
	return b
}

// Get returns the Book for symbol without creating it.
func (r *Registry) Get(symbol string) (*book.Book, bool) {
	b, ok := r.books[symbol]
	return b, ok
}

// Symbols returns every symbol admitted so far, in no particular order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.books))
	for s := range r.books {
		out = append(out, s)
	}
	return out
}

// Each calls fn once per book currently registered. Must only be called
// from the matcher goroutine.
func (r *Registry) Each(fn func(symbol string, b *book.Book)) {
	for s, b := range r.books {
		fn(s, b)
	}
}
