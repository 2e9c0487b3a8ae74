package paging

import (
	"context"
	"errors"
	"sync"
)

// Status describes where an incremental "load more" list stands.
type Status string

const (
	LoadingFirstPage Status = "LoadingFirstPage"
	CanLoadMore      Status = "CanLoadMore"
	LoadingMore      Status = "LoadingMore"
	Exhausted        Status = "Exhausted"
)

// ErrBusy is returned by LoadMore while a fetch is already in flight.
var ErrBusy = errors.New("paging: load already in progress")

// FetchFunc loads the page that precedes cursor ("" for the newest page).
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Feed accumulates pages of a reverse-chronological list for a caller that
// drives "load more" interactions. Each LoadMore fetches only the page older
// than everything already loaded; pages are never re-fetched.
type Feed[T any] struct {
	mu       sync.Mutex
	fetch    FetchFunc[T]
	items    []T
	cursor   string
	status   Status
	loaded   bool
	inFlight bool
}

// NewFeed returns a Feed in the LoadingFirstPage state.
func NewFeed[T any](fetch FetchFunc[T]) *Feed[T] {
	return &Feed[T]{fetch: fetch, status: LoadingFirstPage}
}

// Status returns the current state.
func (f *Feed[T]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Items returns a copy of everything loaded so far, newest first.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// LoadMore fetches the next older page. It is a no-op once the feed is
// Exhausted. On error the feed returns to its previous state so the caller
// can retry.
func (f *Feed[T]) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.status == Exhausted {
		f.mu.Unlock()
		return nil
	}
	if f.inFlight {
		f.mu.Unlock()
		return ErrBusy
	}
	prev := f.status
	if f.loaded {
		f.status = LoadingMore
	}
	f.inFlight = true
	cursor := f.cursor
	f.mu.Unlock()

	page, err := f.fetch(ctx, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		f.status = prev
		return err
	}
	f.items = append(f.items, page.Items...)
	f.cursor = page.Cursor
	f.loaded = true
	if page.Cursor == "" {
		f.status = Exhausted
	} else {
		f.status = CanLoadMore
	}
	return nil
}
