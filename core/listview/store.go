// Package listview keeps the client-side view of a remote collection consistent with the backend:
// a Store holding the fetched records, a pure Pipeline deriving filtered/sorted/grouped views,
// a Selection tracking the record under focus, and a Coordinator issuing mutations.
package listview

import (
	"context"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

var (
	ErrSuperseded = errors.New("load superseded by a newer request")
	ErrClosed     = errors.New("store closed")
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Entity is any record with a stable integer identity.
type Entity interface {
	GetID() int
}

// FetchFunc fetches the whole collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot is an immutable copy of a Store's state.
type Snapshot[T any] struct {
	Items   []T
	Status  Status
	Err     error
	Message string // user facing, set when Status is StatusError
	Version int    // bumped on every successful load
}

// Retryable reports whether a retry control should be offered.
func (s Snapshot[T]) Retryable() bool { return s.Status == StatusError }

func (s Snapshot[T]) Empty() bool { return len(s.Items) == 0 }

// Store holds one remote collection. Loads are last-wins: each Load takes a new token and
// cancels the previous request; a response whose token is no longer current is discarded.
type Store[T any] struct {
	name  string
	fetch FetchFunc[T]
	log   core.Logger

	mu      sync.Mutex
	items   []T
	status  Status
	err     error
	message string
	version int
	token   uint64
	cancel  context.CancelFunc
	closed  bool
	subs    map[int]func(Snapshot[T])
	nextSub int
}

// NewStore returns an idle store named after the resource it holds. logger may be nil.
func NewStore[T any](name string, fetch FetchFunc[T], logger core.Logger) *Store[T] {
	vala.BeginValidation().Validate(
		vala.StringNotEmpty(name, "name"),
		vala.IsNotNil(fetch, "fetch"),
	).CheckAndPanic()

	return &Store[T]{
		name:  name,
		fetch: fetch,
		log:   logger,
		subs:  make(map[int]func(Snapshot[T])),
	}
}

func (s *Store[T]) Name() string { return s.name }

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(s.items))
	copy(items, s.items)
	return Snapshot[T]{
		Items:   items,
		Status:  s.status,
		Err:     s.err,
		Message: s.message,
		Version: s.version,
	}
}

// Subscribe registers fn to be called with a new snapshot after every state change.
func (s *Store[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// publishLocked must be called with s.mu held; it returns the notification to run once unlocked.
func (s *Store[T]) publishLocked() func() {
	if len(s.subs) == 0 {
		return func() {}
	}
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// Load fetches the collection and replaces the held sequence wholesale.
// On failure the previous items stay visible and the status moves to StatusError.
// A not-found response is a valid empty collection.
func (s *Store[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.cancel != nil {
		s.cancel() // supersede the pending load
	}
	s.token++
	token := s.token
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status = StatusLoading
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()

	items, err := s.fetch(ctx)
	cancel()
	if err != nil && core.IsNotFound(err) {
		items, err = nil, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if token != s.token {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		s.status = StatusError
		s.err = err
		s.message = core.UserMessage(err, core.MsgLoadFailed)
		notify = s.publishLocked()
		s.mu.Unlock()
		notify()

		if s.log != nil {
			s.log.Warn("listview: loading "+s.name, err)
		}
		return errors.Wrapf(err, "loading %s", s.name)
	}

	s.items = make([]T, len(items))
	copy(s.items, items)
	s.status = StatusLoaded
	s.err = nil
	s.message = ""
	s.version++
	notify = s.publishLocked()
	s.mu.Unlock()
	notify()
	return nil
}

// Invalidate marks the held data stale and refetches it.
func (s *Store[T]) Invalidate(ctx context.Context) error {
	return s.Load(ctx)
}

// Close unmounts the store: the pending load is cancelled, its result ignored,
// subscribers dropped and any later Load returns ErrClosed.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.items = nil
	s.subs = make(map[int]func(Snapshot[T]))
}
