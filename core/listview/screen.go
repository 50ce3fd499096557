package listview

import (
	"context"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

// State is the lifecycle of a screen instance.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
	StateMutating
)

func (s State) String() string {
	return [...]string{"idle", "loading", "loaded", "error", "mutating"}[s]
}

type Config[T Entity] struct {
	Name      string
	Fetch     FetchFunc[T]
	Writer    Writer
	Pipeline  Pipeline[T]
	Policy    Policy[T]
	Principal user.Principal
	Confirmer Confirmer
	Logger    core.Logger
}

// Screen wires a Store, its Pipeline, a Selection and a Coordinator for one principal.
// Nothing outlives Unmount.
type Screen[T Entity] struct {
	store     *Store[T]
	pipeline  Pipeline[T]
	selection *Selection[T]
	coord     *Coordinator[T]
	who       user.Principal
}

func NewScreen[T Entity](cfg Config[T]) *Screen[T] {
	store := NewStore(cfg.Name, cfg.Fetch, cfg.Logger)
	selection := new(Selection[T])
	return &Screen[T]{
		store:     store,
		pipeline:  cfg.Pipeline,
		selection: selection,
		who:       cfg.Principal,
		coord: NewCoordinator(MutationConfig[T]{
			Writer:    cfg.Writer,
			Store:     store,
			Selection: selection,
			Policy:    cfg.Policy,
			Principal: cfg.Principal,
			Confirmer: cfg.Confirmer,
			Logger:    cfg.Logger,
		}),
	}
}

func (sc *Screen[T]) Name() string              { return sc.store.Name() }
func (sc *Screen[T]) Principal() user.Principal { return sc.who }
func (sc *Screen[T]) Store() *Store[T]          { return sc.store }
func (sc *Screen[T]) Mutations() *Coordinator[T] {
	return sc.coord
}

// Mount loads the collection.
func (sc *Screen[T]) Mount(ctx context.Context) error { return sc.store.Load(ctx) }

// Retry reloads after a failed load.
func (sc *Screen[T]) Retry(ctx context.Context) error { return sc.store.Load(ctx) }

func (sc *Screen[T]) Unmount() {
	sc.store.Close()
	sc.selection.Clear()
}

func (sc *Screen[T]) State() State {
	if sc.coord.Busy() {
		return StateMutating
	}
	switch sc.store.Snapshot().Status {
	case StatusLoading:
		return StateLoading
	case StatusLoaded:
		return StateLoaded
	case StatusError:
		return StateError
	default:
		return StateIdle
	}
}

// View derives the display-ready collection from the current snapshot.
func (sc *Screen[T]) View(query string, ordering ...core.Ordering) View[T] {
	return sc.pipeline.Derive(sc.store.Snapshot().Items, query, sc.who, ordering...)
}

func (sc *Screen[T]) Select(id int) { sc.selection.Select(id) }
func (sc *Screen[T]) ClearSelection() {
	sc.selection.Clear()
}

// Detail resolves the selection against the records visible to the principal.
func (sc *Screen[T]) Detail() (T, bool) {
	return sc.selection.Resolve(sc.pipeline.Scoped(sc.store.Snapshot().Items, sc.who))
}

func (sc *Screen[T]) Create(ctx context.Context, payload interface{}) error {
	return sc.coord.Create(ctx, payload)
}

func (sc *Screen[T]) Update(ctx context.Context, id int, payload interface{}) error {
	return sc.coord.Update(ctx, id, payload)
}

func (sc *Screen[T]) Delete(ctx context.Context, id int) error {
	return sc.coord.Delete(ctx, id)
}
