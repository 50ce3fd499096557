package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/exam"
	"github.com/trezcool/masomo-console/core/sport"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
	inmemdb "github.com/trezcool/masomo-console/storage/database/inmem"
)

const testPassword = "Masomo@2024!"

type fixture struct {
	srv     *server
	records database.RecordRepository
	tokens  map[string]string // {username: token}
}

func setup(t *testing.T) *fixture {
	conf := &core.Config{AppName: "Masomo", SecretKey: "secret", TestMode: true}
	conf.Server.JWTExpirationDelta = time.Hour

	db := inmemdb.Open()
	records := inmemdb.NewRecordRepository(db)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))

	srv := NewServer(&Options{
		Conf:           conf,
		UserSvc:        usrSvc,
		Records:        records,
		DisableReqLogs: true,
	}).(*server)

	users, err := Seed(context.Background(), usrSvc, records, testPassword)
	require.NoError(t, err)

	f := &fixture{srv: srv, records: records, tokens: make(map[string]string)}
	for _, usr := range users {
		tok, err := srv.GenerateToken(usr)
		require.NoError(t, err)
		f.tokens[usr.Username] = tok
	}
	return f
}

func (f *fixture) do(method, path, username string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok := f.tokens[username]; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) firstID(t *testing.T, resource string) int {
	docs, err := f.records.ListRecords(context.Background(), resource)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	return docs[0]["id"].(int)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestServer_login(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name     string
		creds    user.LoginCredentials
		wantCode int
		wantMsg  string
	}{
		{name: "valid", creds: user.LoginCredentials{Username: "teacher", Password: testPassword}, wantCode: http.StatusOK},
		{name: "by email", creds: user.LoginCredentials{Username: "Teacher@Masomo.test", Password: testPassword}, wantCode: http.StatusOK},
		{name: "wrong password", creds: user.LoginCredentials{Username: "teacher", Password: "nope"}, wantCode: http.StatusBadRequest, wantMsg: "invalid credentials"},
		{name: "unknown user", creds: user.LoginCredentials{Username: "ghost", Password: testPassword}, wantCode: http.StatusBadRequest, wantMsg: "invalid credentials"},
		{name: "missing fields", creds: user.LoginCredentials{}, wantCode: http.StatusBadRequest, wantMsg: "username: this field is required; password: this field is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/v1/users/login", "", tt.creds)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantMsg != "" {
				var resp errorResponse
				decodeBody(t, rec, &resp)
				assert.Equal(t, tt.wantMsg, resp.Message)
				return
			}
			var resp LoginResponse
			decodeBody(t, rec, &resp)
			who, err := user.PrincipalFromToken(resp.Token)
			require.NoError(t, err)
			assert.True(t, who.IsTeacher())
			assert.Equal(t, "7A", who.ClassGroup)
		})
	}
}

func TestServer_me(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/v1/users/me", "student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p user.Profile
	decodeBody(t, rec, &p)
	assert.Equal(t, "student", p.Username)
	assert.Equal(t, "Student", p.RoleName())

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/v1/users", "teacher", nil).Code)
	rec = f.do(http.MethodGet, "/v1/users", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profiles []user.Profile
	decodeBody(t, rec, &profiles)
	assert.Len(t, profiles, len(SeedUsers))
}

func TestServer_resourceRead(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/v1/exam-schedules", "", nil).Code)

	rec := f.do(http.MethodGet, "/v1/exam-schedules", "student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []exam.Schedule
	decodeBody(t, rec, &items)
	assert.Len(t, items, 3)

	id := items[0].ID
	rec = f.do(http.MethodGet, "/v1/exam-schedules/"+strconv.Itoa(id), "student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got exam.Schedule
	decodeBody(t, rec, &got)
	assert.Equal(t, items[0], got)

	rec = f.do(http.MethodGet, "/v1/exam-schedules?ordering=-id", "student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var desc []exam.Schedule
	decodeBody(t, rec, &desc)
	require.Len(t, desc, 3)
	assert.Equal(t, items[2].ID, desc[0].ID)
	assert.Equal(t, items[0].ID, desc[2].ID)

	rec = f.do(http.MethodGet, "/v1/exam-schedules/99999", "student", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "not found", resp.Message)
}

func TestServer_resourceWrite(t *testing.T) {
	f := setup(t)
	valid := exam.NewSchedule{
		ExamName: "Final", Subject: "History", ClassGroup: "7A", Date: "2030-06-01",
		StartTime: "09:00", EndTime: "10:00", Room: "B1",
	}

	t.Run("students cannot create", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/exam-schedules", "student", valid)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("validation errors carry a message", func(t *testing.T) {
		bad := valid
		bad.Date = "01/06/2030"
		rec := f.do(http.MethodPost, "/v1/exam-schedules", "teacher", bad)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Contains(t, resp.Message, "date: ")
		assert.Contains(t, resp.Fields, "date")
	})

	var created exam.Schedule
	t.Run("teacher creates", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/exam-schedules", "teacher", valid)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decodeBody(t, rec, &created)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "History", created.Subject)
	})

	path := "/v1/exam-schedules/" + strconv.Itoa(created.ID)

	t.Run("update merges set fields", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, "teacher", map[string]interface{}{"room": "Hall", "exam_name": "ignored"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got exam.Schedule
		decodeBody(t, rec, &got)
		assert.Equal(t, "Hall", got.Room)
		assert.Equal(t, "Final", got.ExamName, "unknown update fields are dropped")
		assert.Equal(t, "09:00", got.StartTime)
	})

	t.Run("teachers cannot delete", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, path, "teacher", nil).Code)
	})

	t.Run("admin deletes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, path, "admin", nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, path, "admin", nil).Code)
	})
}

func TestServer_sportsRegistration(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/v1/sports-registrations", "student2", sport.NewRegistration{Sport: "Chess", Category: "senior"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got sport.Registration
	decodeBody(t, rec, &got)
	assert.Equal(t, "Zawadi Ali", got.StudentName)
	assert.Equal(t, "8B", got.ClassGroup)
	assert.Equal(t, sport.StatusPending, got.Status)

	rec = f.do(http.MethodPost, "/v1/sports-registrations", "teacher", sport.NewRegistration{Sport: "Chess", Category: "senior"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "student_id: this field is required", resp.Message)
}

func TestServer_notifications(t *testing.T) {
	f := setup(t)

	count := func(username string) int {
		rec := f.do(http.MethodGet, "/v1/notifications/unread-count", username, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Count int `json:"count"`
		}
		decodeBody(t, rec, &out)
		return out.Count
	}

	assert.Equal(t, 1, count("student"), "term dates only")
	assert.Equal(t, 2, count("teacher"), "term dates and staff meeting")
	assert.Equal(t, 2, count("admin"))

	docs, err := f.records.ListRecords(context.Background(), "notifications")
	require.NoError(t, err)
	var termID int
	for _, doc := range docs {
		if doc["title"] == "Term dates" {
			termID = doc["id"].(int)
		}
	}

	rec := f.do(http.MethodPost, "/v1/notifications/"+strconv.Itoa(termID)+"/read", "student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, count("student"))
}

func TestServer_upload(t *testing.T) {
	f := setup(t)
	id := f.firstID(t, "advertisements")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nraw"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/advertisements/"+strconv.Itoa(id)+"/image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.tokens["admin"])
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc map[string]interface{}
	decodeBody(t, rec, &doc)
	url, _ := doc["image_url"].(string)
	require.NotEmpty(t, url)

	rec = f.do(http.MethodGet, url, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG\r\n\x1a\nraw", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
