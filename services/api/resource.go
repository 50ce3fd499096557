package apisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/listview"
)

// Resource is one REST collection. It feeds a listview.Store (List) and writes for a listview.Coordinator.
type Resource[T any] struct {
	c    *Client
	path string
}

var _ listview.Writer = (*Resource[struct{}])(nil)

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: strings.Trim(path, "/")}
}

func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) itemPath(id int) string { return r.path + "/" + strconv.Itoa(id) }

// List fetches the whole collection.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	return r.ListWhere(ctx, nil)
}

// ListWhere fetches the collection narrowed by query parameters.
// A 2xx body carrying {message} instead of an array is reported as an *core.APIError.
func (r *Resource[T]) ListWhere(ctx context.Context, params map[string]string) ([]T, error) {
	res, err := r.c.send(ctx, request{method: rest.Get, path: r.path, query: params})
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace([]byte(res.Body))
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}
	if body[0] == '{' {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &msg)
		return nil, &core.APIError{StatusCode: res.StatusCode, Message: msg.Message}
	}

	items := make([]T, 0)
	if err = json.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", r.path)
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int) (T, error) {
	var item T
	err := r.c.getJSON(ctx, r.itemPath(id), nil, &item)
	return item, err
}

func (r *Resource[T]) Create(ctx context.Context, payload interface{}) error {
	return r.c.sendJSON(ctx, rest.Post, r.path, payload, nil)
}

func (r *Resource[T]) Update(ctx context.Context, id int, payload interface{}) error {
	return r.c.sendJSON(ctx, rest.Put, r.itemPath(id), payload, nil)
}

func (r *Resource[T]) Delete(ctx context.Context, id int) error {
	return r.c.sendJSON(ctx, rest.Delete, r.itemPath(id), nil, nil)
}

// Upload attaches a file to record id as a multipart form field. The content is sent untouched.
func (r *Resource[T]) Upload(ctx context.Context, id int, field, filename string, content io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return errors.Wrap(err, "creating form file")
	}
	if _, err = io.Copy(part, content); err != nil {
		return errors.Wrapf(err, "reading %s", filename)
	}
	if err = w.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}

	_, err = r.c.send(ctx, request{
		method:  rest.Post,
		path:    r.itemPath(id) + "/" + field,
		body:    buf.Bytes(),
		headers: map[string]string{"Content-Type": w.FormDataContentType()},
	})
	return err
}
