package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
)

// EnrichFunc sets the server-owned fields of a document before it is stored.
// stored is nil for creates.
type EnrichFunc func(ctx context.Context, who user.Principal, doc, stored database.Document) error

// resourceDef is the non-generic face of a resource[T, N, U].
type resourceDef interface {
	path() string
	uploadField() string
	decodeCreate(body []byte) (database.Document, error)
	decodeUpdate(body []byte) (database.Document, error)
	permit(who user.Principal, op listview.Op, stored database.Document) (bool, error)
	enrich(ctx context.Context, who user.Principal, doc, stored database.Document) error
}

// resource binds a collection path to its record type T and its create (N) and update (U) payloads.
type resource[T listview.Entity, N, U any] struct {
	name     string
	upload   string
	policy   listview.Policy[T]
	onCreate EnrichFunc
	onUpdate EnrichFunc
}

func (r resource[T, N, U]) path() string        { return r.name }
func (r resource[T, N, U]) uploadField() string { return r.upload }

func (r resource[T, N, U]) decodeCreate(body []byte) (database.Document, error) {
	var payload N
	return decodePayload(body, &payload)
}

func (r resource[T, N, U]) decodeUpdate(body []byte) (database.Document, error) {
	var payload U
	return decodePayload(body, &payload)
}

// decodePayload validates body against the payload type and keeps only its known fields.
func decodePayload(body []byte, payload interface{}) (database.Document, error) {
	if err := json.Unmarshal(body, payload); err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid JSON body"))
	}
	if err := core.ValidateStruct(payload); err != nil {
		return nil, err
	}
	return toDocument(payload)
}

func toDocument(v interface{}) (database.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	doc := make(database.Document)
	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return doc, nil
}

func fromDocument(doc database.Document, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	return errors.Wrap(json.Unmarshal(raw, v), "decoding document")
}

func (r resource[T, N, U]) permit(who user.Principal, op listview.Op, stored database.Document) (bool, error) {
	if r.policy.Permit == nil {
		return who.IsAdmin(), nil
	}
	if stored == nil {
		return r.policy.Permit(who, op, nil), nil
	}
	var target T
	if err := fromDocument(stored, &target); err != nil {
		return false, err
	}
	return r.policy.Permit(who, op, &target), nil
}

func (r resource[T, N, U]) enrich(ctx context.Context, who user.Principal, doc, stored database.Document) error {
	hook := r.onUpdate
	if stored == nil {
		hook = r.onCreate
	}
	if hook == nil {
		return nil
	}
	return hook(ctx, who, doc, stored)
}

func (s *server) registerResourceAPI(g *echo.Group, jwt echo.MiddlewareFunc, def resourceDef) {
	s.resources[def.path()] = def
	api := resourceAPI{s: s, def: def}

	rg := g.Group("/"+def.path(), jwt)
	rg.GET("", api.query)
	rg.POST("", api.create)

	// detail endpoints
	dg := rg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	if field := def.uploadField(); field != "" {
		dg.POST("/"+field, api.upload)
	}
}

type resourceAPI struct {
	s   *server
	def resourceDef
}

const contextObjectKey = "object"

// objectMiddleware loads the record named by :id into the context.
func (api resourceAPI) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := strconv.Atoi(ctx.Param("id"))
		if err != nil {
			return errHttpNotFound
		}
		doc, err := api.s.opts.Records.GetRecord(ctx.Request().Context(), api.def.path(), id)
		if err != nil {
			return errors.Wrapf(err, "getting %s %d", api.def.path(), id)
		}
		ctx.Set(contextObjectKey, doc)
		return next(ctx)
	}
}

func contextObject(ctx echo.Context) (database.Document, int) {
	doc, _ := ctx.Get(contextObjectKey).(database.Document)
	id, _ := strconv.Atoi(ctx.Param("id"))
	return doc, id
}

// authorize resolves the caller and checks the resource policy for op on stored.
func (api resourceAPI) authorize(ctx echo.Context, op listview.Op, stored database.Document) (user.Principal, error) {
	who, err := principal(ctx)
	if err != nil {
		return who, err
	}
	ok, err := api.def.permit(who, op, stored)
	if err != nil {
		return who, errors.Wrap(err, "checking permissions")
	}
	if !ok {
		return who, errHttpForbidden
	}
	return who, nil
}

func readBody(ctx echo.Context) ([]byte, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(ctx.Request().Body).Decode(&raw); err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid JSON body"))
	}
	return raw, nil
}

// Handlers

func (api resourceAPI) query(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	docs, err := api.s.opts.Records.ListRecords(ctx.Request().Context(), api.def.path())
	if err != nil {
		return errors.Wrapf(err, "listing %s", api.def.path())
	}
	ord.Sort(docs)
	return ctx.JSON(http.StatusOK, docs)
}

func (api resourceAPI) retrieve(ctx echo.Context) error {
	doc, _ := contextObject(ctx)
	return ctx.JSON(http.StatusOK, doc)
}

func (api resourceAPI) create(ctx echo.Context) error {
	who, err := api.authorize(ctx, listview.OpCreate, nil)
	if err != nil {
		return err
	}
	body, err := readBody(ctx)
	if err != nil {
		return err
	}
	doc, err := api.def.decodeCreate(body)
	if err != nil {
		return err
	}
	if err = api.def.enrich(ctx.Request().Context(), who, doc, nil); err != nil {
		return err
	}

	saved, err := api.s.opts.Records.CreateRecord(ctx.Request().Context(), api.def.path(), doc)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.def.path())
	}
	return ctx.JSON(http.StatusCreated, saved)
}

func (api resourceAPI) update(ctx echo.Context) error {
	stored, id := contextObject(ctx)
	who, err := api.authorize(ctx, listview.OpUpdate, stored)
	if err != nil {
		return err
	}
	body, err := readBody(ctx)
	if err != nil {
		return err
	}
	doc, err := api.def.decodeUpdate(body)
	if err != nil {
		return err
	}
	if err = api.def.enrich(ctx.Request().Context(), who, doc, stored); err != nil {
		return err
	}

	saved, err := api.s.opts.Records.UpdateRecord(ctx.Request().Context(), api.def.path(), id, doc)
	if err != nil {
		return errors.Wrapf(err, "updating %s %d", api.def.path(), id)
	}
	return ctx.JSON(http.StatusOK, saved)
}

func (api resourceAPI) destroy(ctx echo.Context) error {
	stored, id := contextObject(ctx)
	if _, err := api.authorize(ctx, listview.OpDelete, stored); err != nil {
		return err
	}
	if err := api.s.opts.Records.DeleteRecord(ctx.Request().Context(), api.def.path(), id); err != nil {
		return errors.Wrapf(err, "deleting %s %d", api.def.path(), id)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
