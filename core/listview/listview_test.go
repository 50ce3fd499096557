package listview

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

type record struct {
	ID         int    `json:"id"`
	Subject    string `json:"subject"`
	Date       string `json:"date"`
	ClassGroup string `json:"class_group"`
	OwnerID    int    `json:"owner_id"`
	Status     string `json:"status"`
}

func (r record) GetID() int { return r.ID }

type recordPayload struct {
	Subject string `json:"subject" validate:"required"`
	Status  string `json:"status,omitempty"`
}

func staticFetch(items ...record) FetchFunc[record] {
	return func(context.Context) ([]record, error) { return items, nil }
}

// switchFetch serves whatever is currently set, counting calls.
type switchFetch struct {
	mu    sync.Mutex
	items []record
	err   error
	calls int
}

func (f *switchFetch) set(err error, items ...record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items, f.err = items, err
}

func (f *switchFetch) fetch(context.Context) ([]record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.items, f.err
}

type fakeWriter struct {
	mu    sync.Mutex
	calls []Op
	err   error
	after func(op Op, id int) // runs on success, eg. to mutate the fake backend
}

func (w *fakeWriter) record(op Op, id int) error {
	w.mu.Lock()
	w.calls = append(w.calls, op)
	err, after := w.err, w.after
	w.mu.Unlock()
	if err == nil && after != nil {
		after(op, id)
	}
	return err
}

func (w *fakeWriter) Create(_ context.Context, _ interface{}) error { return w.record(OpCreate, 0) }
func (w *fakeWriter) Update(_ context.Context, id int, _ interface{}) error {
	return w.record(OpUpdate, id)
}
func (w *fakeWriter) Delete(_ context.Context, id int) error { return w.record(OpDelete, id) }

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

func alwaysConfirm(answer bool) (Confirmer, *[]Prompt) {
	var prompts []Prompt
	return ConfirmFunc(func(_ context.Context, p Prompt) (bool, error) {
		prompts = append(prompts, p)
		return answer, nil
	}), &prompts
}

var (
	admin   = user.Principal{UserID: 1, Roles: []string{user.RoleAdmin}}
	teacher = user.Principal{UserID: 2, Roles: []string{user.RoleTeacher}}
	student = user.Principal{UserID: 3, Roles: []string{user.RoleStudent}, ClassGroup: "7A"}
)

func ids(items []record) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("loaded", func(t *testing.T) {
		s := NewStore("records", staticFetch(record{ID: 1}, record{ID: 2}), nil)
		assert.Equal(t, StatusIdle, s.Snapshot().Status)

		require.NoError(t, s.Load(ctx))
		snap := s.Snapshot()
		assert.Equal(t, StatusLoaded, snap.Status)
		assert.Equal(t, []int{1, 2}, ids(snap.Items))
		assert.Equal(t, 1, snap.Version)
		assert.False(t, snap.Retryable())
	})

	t.Run("not found is empty", func(t *testing.T) {
		s := NewStore("records", func(context.Context) ([]record, error) {
			return nil, &core.APIError{StatusCode: 404}
		}, nil)
		require.NoError(t, s.Load(ctx))
		snap := s.Snapshot()
		assert.Equal(t, StatusLoaded, snap.Status)
		assert.True(t, snap.Empty())
	})

	// Scenario E
	t.Run("transport failure keeps previous items", func(t *testing.T) {
		f := new(switchFetch)
		f.set(nil, record{ID: 1})
		s := NewStore("records", f.fetch, nil)
		require.NoError(t, s.Load(ctx))

		f.set(&core.TransportError{Op: "GET records", Err: context.DeadlineExceeded})
		err := s.Load(ctx)
		require.Error(t, err)
		assert.True(t, core.IsTransport(err))

		snap := s.Snapshot()
		assert.Equal(t, StatusError, snap.Status)
		assert.Equal(t, core.MsgLoadFailed, snap.Message)
		assert.True(t, snap.Retryable())
		assert.Equal(t, []int{1}, ids(snap.Items))

		// retry
		f.set(nil, record{ID: 1}, record{ID: 2})
		require.NoError(t, s.Load(ctx))
		snap = s.Snapshot()
		assert.Equal(t, StatusLoaded, snap.Status)
		assert.Empty(t, snap.Message)
		assert.Equal(t, []int{1, 2}, ids(snap.Items))
	})

	t.Run("backend message", func(t *testing.T) {
		s := NewStore("records", func(context.Context) ([]record, error) {
			return nil, &core.APIError{StatusCode: 500, Message: "database is down"}
		}, nil)
		require.Error(t, s.Load(ctx))
		assert.Equal(t, "database is down", s.Snapshot().Message)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		s := NewStore("records", staticFetch(record{ID: 1}), nil)
		require.NoError(t, s.Load(ctx))
		snap := s.Snapshot()
		snap.Items[0].ID = 99
		assert.Equal(t, []int{1}, ids(s.Snapshot().Items))
	})
}

func TestStore_supersession(t *testing.T) {
	ctx := context.Background()
	started, release := make(chan struct{}), make(chan struct{})
	var calls int32
	s := NewStore("records", func(context.Context) ([]record, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release // ignores cancellation on purpose: the stale response still arrives
			return []record{{ID: 1}}, nil
		}
		return []record{{ID: 2}}, nil
	}, nil)

	firstErr := make(chan error, 1)
	go func() { firstErr <- s.Load(ctx) }()
	<-started

	require.NoError(t, s.Load(ctx))
	close(release)
	assert.True(t, errors.Is(<-firstErr, ErrSuperseded))

	snap := s.Snapshot()
	assert.Equal(t, StatusLoaded, snap.Status)
	assert.Equal(t, []int{2}, ids(snap.Items))
	assert.Equal(t, 1, snap.Version)
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	started, release := make(chan struct{}), make(chan struct{})
	s := NewStore("records", func(context.Context) ([]record, error) {
		close(started)
		<-release
		return []record{{ID: 1}}, nil
	}, nil)

	var notified int32
	s.Subscribe(func(Snapshot[record]) { atomic.AddInt32(&notified, 1) })

	loadErr := make(chan error, 1)
	go func() { loadErr <- s.Load(ctx) }()
	<-started
	s.Close()
	close(release)

	assert.Equal(t, ErrClosed, <-loadErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified)) // loading only
	assert.True(t, s.Snapshot().Empty())
	assert.Equal(t, ErrClosed, s.Load(ctx))
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore("records", staticFetch(record{ID: 1}), nil)
	var statuses []Status
	unsubscribe := s.Subscribe(func(snap Snapshot[record]) { statuses = append(statuses, snap.Status) })

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []Status{StatusLoading, StatusLoaded}, statuses)

	unsubscribe()
	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, statuses, 2)
}

func TestSelection(t *testing.T) {
	items := []record{{ID: 1}, {ID: 5}}
	sel := new(Selection[record])

	_, ok := sel.Resolve(items)
	assert.False(t, ok, "nothing selected")

	sel.Select(5)
	got, ok := sel.Resolve(items)
	require.True(t, ok)
	assert.Equal(t, 5, got.ID)

	// Scenario C: the selected record disappears after a reload
	got, ok = sel.Resolve([]record{{ID: 1}})
	assert.False(t, ok)
	assert.Zero(t, got)
	id, set := sel.Selected()
	assert.True(t, set)
	assert.Equal(t, 5, id)

	sel.Clear()
	_, set = sel.Selected()
	assert.False(t, set)
}

func newTestScreen(fetch FetchFunc[record], w Writer, who user.Principal, confirmer Confirmer) *Screen[record] {
	return NewScreen(Config[record]{
		Name:     "records",
		Fetch:    fetch,
		Writer:   w,
		Pipeline: Pipeline[record]{Search: []func(record) string{func(r record) string { return r.Subject }}},
		Policy: Policy[record]{
			Permit: func(who user.Principal, op Op, target *record) bool {
				if who.IsAdmin() {
					return true
				}
				return who.IsTeacher() && (op == OpCreate || (target != nil && target.OwnerID == who.UserID))
			},
			NeedsConfirm: func(_ *record, payload interface{}) bool {
				p, ok := payload.(recordPayload)
				return ok && p.Status == "archived"
			},
			Describe: func(r record) string { return r.Subject },
		},
		Principal: who,
		Confirmer: confirmer,
	})
}

func TestScreen_lifecycle(t *testing.T) {
	ctx := context.Background()
	f := new(switchFetch)
	f.set(nil, record{ID: 1, Subject: "Math"})
	w := &fakeWriter{after: func(Op, int) { f.set(nil, record{ID: 1, Subject: "Math"}, record{ID: 2, Subject: "History"}) }}
	sc := newTestScreen(f.fetch, w, admin, nil)

	assert.Equal(t, StateIdle, sc.State())
	require.NoError(t, sc.Mount(ctx))
	assert.Equal(t, StateLoaded, sc.State())

	var during State
	w.after = func(Op, int) {
		during = sc.State()
		f.set(nil, record{ID: 1, Subject: "Math"}, record{ID: 2, Subject: "History"})
	}
	require.NoError(t, sc.Create(ctx, recordPayload{Subject: "History"}))
	assert.Equal(t, StateMutating, during)
	assert.Equal(t, StateLoaded, sc.State())
	assert.Equal(t, []int{1, 2}, ids(sc.View("").Items))

	last, ok := sc.Mutations().Last()
	require.True(t, ok)
	assert.Equal(t, OutcomeSuccess, last.Outcome)
	assert.Equal(t, OpCreate, last.Op)
	assert.False(t, last.FinishedAt.Before(last.StartedAt))

	sc.Unmount()
	_, ok = sc.Detail()
	assert.False(t, ok)
	assert.Equal(t, ErrClosed, sc.Mount(ctx))
}

// Scenario D
func TestCoordinator_backendRejects(t *testing.T) {
	ctx := context.Background()
	f := new(switchFetch)
	f.set(nil, record{ID: 1, Subject: "Math"})
	w := &fakeWriter{err: &core.APIError{StatusCode: 400, Message: "Email already registered"}}
	sc := newTestScreen(f.fetch, w, admin, nil)
	require.NoError(t, sc.Mount(ctx))
	sc.Select(1)
	before := sc.Store().Snapshot()

	err := sc.Create(ctx, recordPayload{Subject: "Physics"})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
	assert.Equal(t, "Email already registered", core.UserMessage(err, core.MsgSaveFailed))

	assert.Equal(t, 1, w.count(), "exactly one request")
	assert.Equal(t, 1, f.calls, "no refetch")
	assert.Equal(t, before, sc.Store().Snapshot())
	assert.Equal(t, StateLoaded, sc.State())
	detail, ok := sc.Detail()
	require.True(t, ok)
	assert.Equal(t, 1, detail.ID)

	last, _ := sc.Mutations().Last()
	assert.Equal(t, OutcomeFailure, last.Outcome)
	assert.Equal(t, "Email already registered", last.Reason)
}

func TestCoordinator_transportFailure(t *testing.T) {
	ctx := context.Background()
	w := &fakeWriter{err: &core.TransportError{Op: "POST records", Err: errors.New("connection refused")}}
	sc := newTestScreen(staticFetch(), w, admin, nil)
	require.NoError(t, sc.Mount(ctx))

	err := sc.Create(ctx, recordPayload{Subject: "Physics"})
	require.Error(t, err)
	assert.Equal(t, core.MsgSaveFailed, err.Error())
}

func TestCoordinator_guards(t *testing.T) {
	ctx := context.Background()
	items := []record{{ID: 1, Subject: "Math", OwnerID: 2}, {ID: 2, Subject: "Art", OwnerID: 9}}

	tests := []struct {
		name    string
		who     user.Principal
		answer  bool
		writer  bool
		run     func(sc *Screen[record]) error
		wantErr error
	}{
		{name: "student cannot create", who: student, writer: true, run: func(sc *Screen[record]) error {
			return sc.Create(ctx, recordPayload{Subject: "x"})
		}, wantErr: core.ErrForbidden},
		{name: "teacher cannot update others", who: teacher, writer: true, run: func(sc *Screen[record]) error {
			return sc.Update(ctx, 2, recordPayload{Subject: "x"})
		}, wantErr: core.ErrForbidden},
		{name: "read-only", who: admin, run: func(sc *Screen[record]) error {
			return sc.Delete(ctx, 1)
		}, wantErr: core.ErrForbidden},
		{name: "invalid payload", who: admin, writer: true, run: func(sc *Screen[record]) error {
			return sc.Create(ctx, recordPayload{})
		}},
		{name: "delete declined", who: admin, writer: true, answer: false, run: func(sc *Screen[record]) error {
			return sc.Delete(ctx, 1)
		}, wantErr: ErrNotConfirmed},
		{name: "irreversible update declined", who: teacher, writer: true, answer: false, run: func(sc *Screen[record]) error {
			return sc.Update(ctx, 1, recordPayload{Subject: "Math", Status: "archived"})
		}, wantErr: ErrNotConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := new(fakeWriter)
			var writer Writer
			if tt.writer {
				writer = w
			}
			confirmer, _ := alwaysConfirm(tt.answer)
			sc := newTestScreen(staticFetch(items...), writer, tt.who, confirmer)
			require.NoError(t, sc.Mount(ctx))

			err := tt.run(sc)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, "this field is required", vErr.FieldMap()["subject"])
			}
			assert.Zero(t, w.count(), "no request issued")
			_, ok := sc.Mutations().Last()
			assert.False(t, ok)
		})
	}
}

func TestCoordinator_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("selected record", func(t *testing.T) {
		f := new(switchFetch)
		f.set(nil, record{ID: 1, Subject: "Math"}, record{ID: 2, Subject: "Art"})
		w := &fakeWriter{after: func(_ Op, id int) { f.set(nil, record{ID: 2, Subject: "Art"}) }}
		confirmer, prompts := alwaysConfirm(true)
		sc := newTestScreen(f.fetch, w, admin, confirmer)
		require.NoError(t, sc.Mount(ctx))
		sc.Select(1)

		require.NoError(t, sc.Delete(ctx, 1))
		_, set := sc.Mutations().selection.Selected()
		assert.False(t, set, "selection cleared")
		assert.Equal(t, []int{2}, ids(sc.View("").Items))
		require.Len(t, *prompts, 1)
		assert.Equal(t, "delete records #1 (Math)", (*prompts)[0].Title)
	})

	t.Run("other record keeps selection", func(t *testing.T) {
		f := new(switchFetch)
		f.set(nil, record{ID: 1}, record{ID: 2})
		w := &fakeWriter{after: func(_ Op, id int) { f.set(nil, record{ID: 1}) }}
		confirmer, _ := alwaysConfirm(true)
		sc := newTestScreen(f.fetch, w, admin, confirmer)
		require.NoError(t, sc.Mount(ctx))
		sc.Select(1)

		require.NoError(t, sc.Delete(ctx, 2))
		detail, ok := sc.Detail()
		require.True(t, ok)
		assert.Equal(t, 1, detail.ID)
	})
}

func TestCoordinator_updateConfirmationDiff(t *testing.T) {
	ctx := context.Background()
	confirmer, prompts := alwaysConfirm(true)
	w := new(fakeWriter)
	sc := newTestScreen(staticFetch(record{ID: 1, Subject: "Math", OwnerID: 2, Status: "active"}), w, teacher, confirmer)
	require.NoError(t, sc.Mount(ctx))

	require.NoError(t, sc.Update(ctx, 1, recordPayload{Subject: "Math", Status: "archived"}))
	require.Len(t, *prompts, 1)
	p := (*prompts)[0]
	assert.Equal(t, OpUpdate, p.Op)
	assert.Contains(t, p.Diff, "-status: active")
	assert.Contains(t, p.Diff, "+status: archived")
	assert.NotContains(t, p.Diff, "subject")
	assert.Equal(t, 1, w.count())

	// reversible updates go straight through
	require.NoError(t, sc.Update(ctx, 1, recordPayload{Subject: "Maths"}))
	assert.Len(t, *prompts, 1)
	assert.Len(t, sc.Mutations().History(), 2)
}
