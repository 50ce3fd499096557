package apisvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

type item struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func (i item) GetID() int { return i.ID }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL+"/v1", srv.Client(), nil)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_headers(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, []item{})
	})
	c.SetToken(" tok ")

	_, err := NewResource[item](c, "events").List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	_, err = uuid.Parse(got.Get(HeaderRequestID))
	assert.NoError(t, err, "request id is a uuid")
}

func TestResource_List(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		body      string
		want      []item
		wantMsg   string
		wantFound bool
	}{
		{name: "array", code: 200, body: `[{"id":1,"title":"Math"}]`, want: []item{{ID: 1, Title: "Math"}}, wantFound: true},
		{name: "empty body", code: 200, body: ``, want: []item{}, wantFound: true},
		{name: "null", code: 200, body: `null`, want: []item{}, wantFound: true},
		{name: "message object", code: 200, body: `{"message":"term closed"}`, wantMsg: "term closed", wantFound: true},
		{name: "server message", code: 500, body: `{"message":"db down"}`, wantMsg: "db down", wantFound: true},
		{name: "echo error", code: 400, body: `{"error":"bad ordering"}`, wantMsg: "bad ordering", wantFound: true},
		{name: "not found", code: 404, body: `{"message":"Not Found"}`, wantMsg: "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/exam-schedules", r.URL.Path)
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := NewResource[item](c, "/exam-schedules/").List(context.Background())
			if tt.wantMsg != "" {
				require.Error(t, err)
				var apiErr *core.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantMsg, core.UserMessage(err, core.MsgLoadFailed))
				assert.Equal(t, !tt.wantFound, core.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResource_ListWhere(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7A", r.URL.Query().Get("class_group"))
		writeJSON(w, http.StatusOK, []item{{ID: 2}})
	})
	got, err := NewResource[item](c, "attendance").ListWhere(context.Background(), map[string]string{"class_group": "7A"})
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: 2}}, got)
}

func TestResource_transportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClientWithHTTP(url, &http.Client{Timeout: time.Second}, nil)
	_, err := NewResource[item](c, "events").List(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsTransport(err))
	assert.Equal(t, core.MsgLoadFailed, core.UserMessage(err, core.MsgLoadFailed))
}

func TestResource_cancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResource[item](c, "events").List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsTransport(err))
}

func TestResource_mutations(t *testing.T) {
	type call struct {
		method, path, ctype, body string
	}
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(raw)})
		switch {
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/9"):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "title is required"})
		case r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, item{ID: 3, Title: "Sports day"})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		}
	})
	res := NewResource[item](c, "events")
	ctx := context.Background()

	require.NoError(t, res.Create(ctx, map[string]string{"title": "Sports day"}))
	require.NoError(t, res.Update(ctx, 3, map[string]string{"title": "Sports"}))
	require.NoError(t, res.Delete(ctx, 3))

	got, err := res.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, item{ID: 3, Title: "Sports day"}, got)

	err = res.Update(ctx, 9, map[string]string{})
	require.Error(t, err)
	assert.Equal(t, "title is required", core.UserMessage(err, core.MsgSaveFailed))

	require.Len(t, calls, 5)
	assert.Equal(t, call{"POST", "/v1/events", "application/json", `{"title":"Sports day"}`}, calls[0])
	assert.Equal(t, call{"PUT", "/v1/events/3", "application/json", `{"title":"Sports"}`}, calls[1])
	assert.Equal(t, "DELETE", calls[2].method)
	assert.Equal(t, "/v1/events/3", calls[2].path)
	assert.Empty(t, calls[2].body)
}

func TestResource_Upload(t *testing.T) {
	var (
		field, filename, content string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/advertisements/4/image", r.URL.Path)
		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		raw, _ := io.ReadAll(f)
		field, filename, content = "image", hdr.Filename, string(raw)
		writeJSON(w, http.StatusOK, map[string]string{"message": "uploaded"})
	})

	err := NewResource[item](c, "advertisements").Upload(context.Background(), 4, "image", "poster.png", strings.NewReader("\x89PNG raw"))
	require.NoError(t, err)
	assert.Equal(t, "image", field)
	assert.Equal(t, "poster.png", filename)
	assert.Equal(t, "\x89PNG raw", content)
}

func TestClient_session(t *testing.T) {
	usr := user.User{ID: 5, Name: "Bahati", Username: "bahati", Email: "bahati@masomo.test", Roles: []string{user.RoleTeacher}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, user.NewClaims(usr, "masomo", time.Hour, time.Now())).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/users/login":
			var creds user.LoginCredentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Password != "pwd" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": token})
		case "/v1/users/me":
			writeJSON(w, http.StatusOK, usr.Profile())
		case "/v1/notifications/unread-count":
			writeJSON(w, http.StatusOK, map[string]int{"count": 3})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	who, err := c.Principal()
	require.NoError(t, err)
	assert.True(t, who.IsAnonymous())

	_, err = c.Login(ctx, user.LoginCredentials{Username: "bahati", Password: "nope"})
	assert.EqualError(t, err, "invalid credentials")
	assert.Empty(t, c.Token())

	got, err := c.Login(ctx, user.LoginCredentials{Username: "bahati", Password: "pwd"})
	require.NoError(t, err)
	assert.Equal(t, token, got)

	who, err = c.Principal()
	require.NoError(t, err)
	assert.Equal(t, 5, who.UserID)
	assert.True(t, who.IsTeacher())

	p, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, usr.Profile(), p)

	n, err := c.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
