package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/listview"
	apisvc "github.com/trezcool/masomo-console/services/api"
)

// errReported marks a failure whose state was already printed.
type errReported struct{ error }

func (err errReported) Unwrap() error { return err.error }

type listOptions struct {
	query    string
	ordering string
	group    bool
	retries  int
}

// screenDef is a list screen the commands can drive without knowing its record type.
type screenDef interface {
	Name() string
	Title() string
	Aliases() []string
	List(ctx context.Context, e *env, opts listOptions) error
	Show(ctx context.Context, e *env, id int) error
	Create(ctx context.Context, e *env, payload []byte) error
	Update(ctx context.Context, e *env, id int, payload []byte) error
	Delete(ctx context.Context, e *env, id int) error
	Upload(ctx context.Context, e *env, id int, path string) error
}

// screen binds a backend resource of T to the listview engine.
// N and U are the create and update payloads.
type screen[T listview.Entity, N, U any] struct {
	name     string
	title    string
	aliases  []string
	upload   string // multipart field accepted by the resource, if any
	pipeline func() listview.Pipeline[T]
	policy   func() listview.Policy[T]
	columns  []column[T]
}

func (s *screen[T, N, U]) Name() string      { return s.name }
func (s *screen[T, N, U]) Title() string     { return s.title }
func (s *screen[T, N, U]) Aliases() []string { return s.aliases }

func (s *screen[T, N, U]) open(e *env) (*listview.Screen[T], *apisvc.Resource[T], error) {
	who, err := e.principal()
	if err != nil {
		return nil, nil, err
	}
	res := apisvc.NewResource[T](e.api(), s.name)
	sc := listview.NewScreen(listview.Config[T]{
		Name:      s.name,
		Fetch:     res.List,
		Writer:    res,
		Pipeline:  s.pipeline(),
		Policy:    s.policy(),
		Principal: who,
		Confirmer: e.confirmer(),
		Logger:    e.logger,
	})
	return sc, res, nil
}

// mount loads the collection, retrying failed loads up to retries times.
func (s *screen[T, N, U]) mount(ctx context.Context, e *env, retries int) (*listview.Screen[T], *apisvc.Resource[T], error) {
	sc, res, err := s.open(e)
	if err != nil {
		return nil, nil, err
	}

	if !e.asJSON {
		_, _ = fmt.Fprintln(e.errOut, e.styles.muted.Render("loading "+strings.ToLower(s.title)+"..."))
	}
	err = sc.Mount(ctx)
	for i := 0; err != nil && i < retries && sc.Store().Snapshot().Retryable() && ctx.Err() == nil; i++ {
		e.logger.Info(fmt.Sprintf("retrying %s (%d/%d)", s.name, i+1, retries))
		err = sc.Retry(ctx)
	}
	if err != nil {
		sc.Unmount()
		return nil, nil, err
	}
	return sc, res, nil
}

// loadError prints the error state of a failed load and how to retry it.
func (s *screen[T, N, U]) loadError(e *env, err error) error {
	if errors.Is(err, errNotLoggedIn) {
		return err
	}
	msg := core.UserMessage(err, core.MsgLoadFailed)
	if e.asJSON {
		return errors.New(msg)
	}
	_, _ = fmt.Fprintln(e.out, e.styles.err.Render(fmt.Sprintf("Could not load %s: %s", strings.ToLower(s.title), msg)))
	_, _ = fmt.Fprintln(e.out, e.styles.muted.Render(fmt.Sprintf("Retry with `masomo list %s --retries 3`.", s.name)))
	return errReported{err}
}

func (s *screen[T, N, U]) headers() []string {
	out := make([]string, 0, len(s.columns))
	for _, col := range s.columns {
		out = append(out, col.header)
	}
	return out
}

func (s *screen[T, N, U]) rows(items []T) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, 0, len(s.columns))
		for _, col := range s.columns {
			row = append(row, orDash(col.value(item)))
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *screen[T, N, U]) List(ctx context.Context, e *env, opts listOptions) error {
	sc, _, err := s.mount(ctx, e, opts.retries)
	if err != nil {
		return s.loadError(e, err)
	}
	defer sc.Unmount()

	view := sc.View(opts.query, core.ParseOrdering(opts.ordering)...)
	if e.asJSON {
		if opts.group && view.Groups != nil {
			return writeJSON(e.out, view.Groups)
		}
		return writeJSON(e.out, view.Items)
	}

	_, _ = fmt.Fprintln(e.out, e.styles.title.Render(screenTitle(s, view.Len())))
	if view.Empty() {
		if q := strings.TrimSpace(opts.query); q != "" {
			_, _ = fmt.Fprintf(e.out, "No %s match %q.\n", strings.ToLower(s.title), q)
		} else {
			_, _ = fmt.Fprintf(e.out, "No %s yet.\n", strings.ToLower(s.title))
		}
		return nil
	}

	if !opts.group || view.Groups == nil {
		return e.styles.table(e.out, s.headers(), s.rows(view.Items))
	}
	for i, g := range view.Groups {
		if i > 0 {
			_, _ = fmt.Fprintln(e.out)
		}
		_, _ = fmt.Fprintln(e.out, e.styles.header.Render(fmt.Sprintf("%s (%d)", orDash(g.Key), len(g.Items))))
		if err = e.styles.table(e.out, s.headers(), s.rows(g.Items)); err != nil {
			return err
		}
	}
	return nil
}

func (s *screen[T, N, U]) Show(ctx context.Context, e *env, id int) error {
	sc, _, err := s.mount(ctx, e, 0)
	if err != nil {
		return s.loadError(e, err)
	}
	defer sc.Unmount()

	sc.Select(id)
	item, ok := sc.Detail()
	if !ok {
		return errors.Errorf("no selection: %s #%d not found", s.name, id)
	}
	if e.asJSON {
		return writeJSON(e.out, item)
	}

	flds, err := fields(item)
	if err != nil {
		return errors.Wrap(err, "reading record")
	}
	_, _ = fmt.Fprintln(e.out, e.styles.title.Render(fmt.Sprintf("%s #%d", s.title, id)))
	rows := make([][]string, 0, len(flds))
	for _, f := range flds {
		rows = append(rows, []string{f[0], f[1]})
	}
	if err = e.styles.table(e.out, []string{"FIELD", "VALUE"}, rows); err != nil {
		return err
	}

	var actions []string
	for _, op := range []listview.Op{listview.OpUpdate, listview.OpDelete} {
		if sc.Mutations().Can(op, &item) {
			actions = append(actions, string(op))
		}
	}
	if len(actions) > 0 {
		_, _ = fmt.Fprintln(e.out, e.styles.muted.Render("you can: "+strings.Join(actions, ", ")))
	}
	return nil
}

// decodePayload reads a JSON payload into v, refusing unknown fields.
func decodePayload(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid payload")
	}
	return nil
}

func (s *screen[T, N, U]) Create(ctx context.Context, e *env, raw []byte) error {
	var payload N
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}
	sc, err := s.mountForWrite(ctx, e)
	if err != nil {
		return err
	}
	defer sc.Unmount()

	if err = sc.Create(ctx, payload); err != nil {
		return err
	}
	s.printDone(e, sc, "created")
	return nil
}

func (s *screen[T, N, U]) Update(ctx context.Context, e *env, id int, raw []byte) error {
	var payload U
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}
	sc, err := s.mountForWrite(ctx, e)
	if err != nil {
		return err
	}
	defer sc.Unmount()

	if err = sc.Update(ctx, id, payload); err != nil {
		if errors.Is(err, listview.ErrNotConfirmed) {
			_, _ = fmt.Fprintln(e.out, "cancelled")
			return nil
		}
		return err
	}
	s.printDone(e, sc, fmt.Sprintf("updated #%d", id))
	return nil
}

func (s *screen[T, N, U]) Delete(ctx context.Context, e *env, id int) error {
	sc, err := s.mountForWrite(ctx, e)
	if err != nil {
		return err
	}
	defer sc.Unmount()

	if err = sc.Delete(ctx, id); err != nil {
		if errors.Is(err, listview.ErrNotConfirmed) {
			_, _ = fmt.Fprintln(e.out, "cancelled")
			return nil
		}
		return err
	}
	s.printDone(e, sc, fmt.Sprintf("deleted #%d", id))
	return nil
}

// mountForWrite loads the collection mutations are checked against.
func (s *screen[T, N, U]) mountForWrite(ctx context.Context, e *env) (*listview.Screen[T], error) {
	sc, _, err := s.mount(ctx, e, 0)
	if err != nil {
		return nil, s.loadError(e, err)
	}
	return sc, nil
}

func (s *screen[T, N, U]) printDone(e *env, sc *listview.Screen[T], what string) {
	msg := s.name + ": " + what
	snap := sc.Store().Snapshot()
	if snap.Status == listview.StatusError {
		msg += " (" + snap.Message + " while refreshing)"
	} else {
		msg += fmt.Sprintf(" (%d visible)", len(sc.View("").Items))
	}
	_, _ = fmt.Fprintln(e.out, e.styles.ok.Render(msg))
}

func (s *screen[T, N, U]) Upload(ctx context.Context, e *env, id int, path string) error {
	if s.upload == "" {
		return errors.Errorf("%s do not accept uploads", s.name)
	}
	sc, res, err := s.mount(ctx, e, 0)
	if err != nil {
		return s.loadError(e, err)
	}
	defer sc.Unmount()

	sc.Select(id)
	target, ok := sc.Detail()
	if !ok {
		return errors.Errorf("no selection: %s #%d not found", s.name, id)
	}
	if !sc.Mutations().Can(listview.OpUpdate, &target) {
		return errors.Wrapf(core.ErrForbidden, "upload to %s #%d", s.name, id)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	if err = res.Upload(ctx, id, s.upload, filepath.Base(path), f); err != nil {
		return err
	}
	if err = sc.Store().Invalidate(ctx); err != nil {
		e.logger.Warn("refreshing "+s.name, err)
	}
	_, _ = fmt.Fprintln(e.out, e.styles.ok.Render(fmt.Sprintf("uploaded %s to %s #%d", filepath.Base(path), s.name, id)))
	return nil
}
