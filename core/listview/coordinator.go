package listview

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

const maxHistory = 50

var (
	ErrNotConfirmed = errors.New("operation not confirmed")
	errReadOnly     = errors.Wrap(core.ErrForbidden, "read-only collection")
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "pending"
	}
}

// PendingMutation records one request issued by a Coordinator.
type PendingMutation struct {
	ID         ulid.ULID
	Op         Op
	TargetID   int // 0 for creates
	Outcome    Outcome
	Reason     string // user facing failure message
	StartedAt  time.Time
	FinishedAt time.Time
}

// MutationError is returned when the backend refused, or never received, a mutation.
type MutationError struct {
	Op     Op
	Reason string
	Err    error
}

func (err *MutationError) Error() string { return err.Reason }
func (err *MutationError) Unwrap() error { return err.Err }

// Writer issues mutations against the backend.
type Writer interface {
	Create(ctx context.Context, payload interface{}) error
	Update(ctx context.Context, id int, payload interface{}) error
	Delete(ctx context.Context, id int) error
}

// Policy holds a screen's mutation rules. target is nil for creates and for ids
// missing from the held collection.
type Policy[T any] struct {
	// Permit defaults to allowing everything.
	Permit func(who user.Principal, op Op, target *T) bool
	// NeedsConfirm flags irreversible updates. Deletes are always confirmed.
	NeedsConfirm func(target *T, payload interface{}) bool
	// Describe names a record in confirmation prompts.
	Describe func(item T) string
}

type MutationConfig[T Entity] struct {
	Writer    Writer // nil makes the collection read-only
	Store     *Store[T]
	Selection *Selection[T]
	Policy    Policy[T]
	Principal user.Principal
	Confirmer Confirmer
	Logger    core.Logger
}

// Coordinator turns create/update/delete intents into exactly one request each,
// then invalidates the store on success.
type Coordinator[T Entity] struct {
	writer    Writer
	store     *Store[T]
	selection *Selection[T]
	policy    Policy[T]
	who       user.Principal
	confirmer Confirmer
	log       core.Logger
	now       func() time.Time

	mu      sync.Mutex
	busy    int
	history []PendingMutation
}

func NewCoordinator[T Entity](cfg MutationConfig[T]) *Coordinator[T] {
	vala.BeginValidation().Validate(
		vala.IsNotNil(cfg.Store, "store"),
		vala.IsNotNil(cfg.Selection, "selection"),
	).CheckAndPanic()

	return &Coordinator[T]{
		writer:    cfg.Writer,
		store:     cfg.Store,
		selection: cfg.Selection,
		policy:    cfg.Policy,
		who:       cfg.Principal,
		confirmer: cfg.Confirmer,
		log:       cfg.Logger,
		now:       time.Now,
	}
}

// Busy reports whether a mutation request is in flight.
func (c *Coordinator[T]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy > 0
}

// Last returns the most recent mutation.
func (c *Coordinator[T]) Last() (PendingMutation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return PendingMutation{}, false
	}
	return c.history[len(c.history)-1], true
}

// History returns the recorded mutations, oldest first.
func (c *Coordinator[T]) History() []PendingMutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PendingMutation, len(c.history))
	copy(out, c.history)
	return out
}

// Can reports whether the principal may run op on target (nil for creates).
func (c *Coordinator[T]) Can(op Op, target *T) bool {
	if c.writer == nil {
		return false
	}
	return c.policy.Permit == nil || c.policy.Permit(c.who, op, target)
}

func (c *Coordinator[T]) Create(ctx context.Context, payload interface{}) error {
	if err := c.authorize(OpCreate, nil); err != nil {
		return err
	}
	if err := validatePayload(payload); err != nil {
		return err
	}
	return c.run(ctx, OpCreate, 0, func(ctx context.Context) error {
		return c.writer.Create(ctx, payload)
	})
}

func (c *Coordinator[T]) Update(ctx context.Context, id int, payload interface{}) error {
	target := c.find(id)
	if err := c.authorize(OpUpdate, target); err != nil {
		return err
	}
	if err := validatePayload(payload); err != nil {
		return err
	}
	if c.policy.NeedsConfirm != nil && c.policy.NeedsConfirm(target, payload) {
		prompt := Prompt{Op: OpUpdate, Title: c.title(OpUpdate, id, target), Diff: changeDiff(target, payload)}
		if err := c.confirm(ctx, prompt); err != nil {
			return err
		}
	}
	return c.run(ctx, OpUpdate, id, func(ctx context.Context) error {
		return c.writer.Update(ctx, id, payload)
	})
}

func (c *Coordinator[T]) Delete(ctx context.Context, id int) error {
	target := c.find(id)
	if err := c.authorize(OpDelete, target); err != nil {
		return err
	}
	if err := c.confirm(ctx, Prompt{Op: OpDelete, Title: c.title(OpDelete, id, target)}); err != nil {
		return err
	}
	return c.run(ctx, OpDelete, id, func(ctx context.Context) error {
		return c.writer.Delete(ctx, id)
	})
}

func (c *Coordinator[T]) find(id int) *T {
	for _, item := range c.store.Snapshot().Items {
		if item.GetID() == id {
			item := item
			return &item
		}
	}
	return nil
}

func (c *Coordinator[T]) authorize(op Op, target *T) error {
	if c.writer == nil {
		return errReadOnly
	}
	if !c.Can(op, target) {
		return errors.Wrapf(core.ErrForbidden, "%s %s", op, c.store.Name())
	}
	return nil
}

func (c *Coordinator[T]) title(op Op, id int, target *T) string {
	if target != nil && c.policy.Describe != nil {
		return fmt.Sprintf("%s %s #%d (%s)", op, c.store.Name(), id, c.policy.Describe(*target))
	}
	return fmt.Sprintf("%s %s #%d", op, c.store.Name(), id)
}

func (c *Coordinator[T]) confirm(ctx context.Context, prompt Prompt) error {
	if c.confirmer == nil {
		return ErrNotConfirmed
	}
	ok, err := c.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return errors.Wrap(err, "confirming "+string(prompt.Op))
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}

func (c *Coordinator[T]) run(ctx context.Context, op Op, id int, call func(ctx context.Context) error) error {
	mID := c.begin(op, id)
	err := call(ctx)

	if err != nil {
		reason := core.UserMessage(err, core.MsgSaveFailed)
		c.finish(mID, OutcomeFailure, reason)
		if c.log != nil {
			c.log.Error(fmt.Sprintf("listview: %s %s #%d", op, c.store.Name(), id), err, c.who)
		}
		return &MutationError{Op: op, Reason: reason, Err: err}
	}

	c.finish(mID, OutcomeSuccess, "")
	if op == OpDelete {
		if sel, ok := c.selection.Selected(); ok && sel == id {
			c.selection.Clear()
		}
	}

	// the mutation went through: a failing refetch shows up as the store's error state
	if err = c.store.Invalidate(ctx); err != nil && !errors.Is(err, ErrSuperseded) && c.log != nil {
		c.log.Warn("listview: refreshing "+c.store.Name(), err)
	}
	return nil
}

func (c *Coordinator[T]) begin(op Op, id int) ulid.ULID {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := PendingMutation{
		ID:        ulid.Make(),
		Op:        op,
		TargetID:  id,
		Outcome:   OutcomePending,
		StartedAt: c.now(),
	}
	c.history = append(c.history, m)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
	c.busy++
	return m.ID
}

func (c *Coordinator[T]) finish(id ulid.ULID, outcome Outcome, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy--
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].ID == id {
			c.history[i].Outcome = outcome
			c.history[i].Reason = reason
			c.history[i].FinishedAt = c.now()
			return
		}
	}
}

func validatePayload(payload interface{}) error {
	if payload == nil {
		return nil
	}
	if reflect.Indirect(reflect.ValueOf(payload)).Kind() != reflect.Struct {
		return nil
	}
	return core.ValidateStruct(payload)
}
