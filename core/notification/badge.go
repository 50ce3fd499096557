package notification

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// CountFunc fetches the unread notifications count.
type CountFunc func(ctx context.Context) (int, error)

// Badge is the unread count shared by every screen's header.
// Writes are last-writer-wins: the latest Set or Refresh result is what everyone sees.
type Badge struct {
	fetch CountFunc

	mu      sync.RWMutex
	count   int
	loaded  bool
	subs    map[int]func(int)
	nextSub int
}

func NewBadge(fetch CountFunc) *Badge {
	return &Badge{fetch: fetch, subs: make(map[int]func(int))}
}

// Count returns the last known count and whether one was ever loaded.
func (b *Badge) Count() (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count, b.loaded
}

func (b *Badge) Set(n int) {
	if n < 0 {
		n = 0
	}

	b.mu.Lock()
	b.count, b.loaded = n, true
	fns := make([]func(int), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// Refresh refetches the count. On failure the previous count is kept.
func (b *Badge) Refresh(ctx context.Context) (int, error) {
	if b.fetch == nil {
		n, _ := b.Count()
		return n, nil
	}
	n, err := b.fetch(ctx)
	if err != nil {
		prev, _ := b.Count()
		return prev, errors.Wrap(err, "refreshing unread count")
	}
	b.Set(n)
	return n, nil
}

func (b *Badge) Subscribe(fn func(int)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
