package emailsvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	logsvc "github.com/trezcool/masomo-console/services/logger"
)

func TestSendgridService_SendMessages(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	conf := testConfig()
	conf.SendgridAPIKey = "SG.key"
	svc := NewSendgridService(conf, logsvc.NewDiscardLogger()).(*sendgridService)
	svc.host = srv.URL

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Jane", Address: "jane@masomo.test"}},
		Subject: "Hello",
		BodyStr: "Welcome back",
	}
	require.NoError(t, svc.SendMessages(context.Background(), msg))

	require.NotNil(t, got)
	from := got["from"].(map[string]interface{})
	assert.Equal(t, "noreply@masomo.test", from["email"])
	ps := got["personalizations"].([]interface{})
	require.Len(t, ps, 1)
	assert.Equal(t, "[Masomo] Hello", ps[0].(map[string]interface{})["subject"])
}

func TestSendgridService_SendMessages_failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	conf := testConfig()
	conf.SendgridAPIKey = "SG.bad"
	svc := NewSendgridService(conf, logsvc.NewDiscardLogger()).(*sendgridService)
	svc.host = srv.URL

	msg := &core.EmailMessage{To: []mail.Address{{Address: "jane@masomo.test"}}, BodyStr: "x"}
	err := svc.SendMessages(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 401")
}
