package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/authz"
	"github.com/soyeahso/botbridge/internal/channel"
	"github.com/soyeahso/botbridge/internal/config"
	"github.com/soyeahso/botbridge/internal/dispatch"
	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/logging"
	"github.com/soyeahso/botbridge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopTransport struct{}

func (nopTransport) Deliver(context.Context, []activity.Payload) error { return nil }

type captureBus struct {
	events []domain.Event
}

func (b *captureBus) Publish(_ context.Context, evt domain.Event) error {
	b.events = append(b.events, evt)
	return nil
}

func testServer(t *testing.T) (*Server, *captureBus) {
	t.Helper()
	log := logging.New(nil, "silent")
	reg := channel.NewRegistry(log)
	reg.Register("text", channel.NewBase("hubot"))

	bus := &captureBus{}
	d := dispatch.New(reg, authz.New(false, store.NewMemoryStore(), log), bus, nopTransport{}, log)

	cfg := config.GatewayConfig{Port: 3978, Route: "/api/messages"}
	return NewServer(cfg, d, log), bus
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleActivities_SingleObject(t *testing.T) {
	srv, bus := testServer(t)
	h := srv.Handler()

	rec := postJSON(h, "/api/messages", `{
		"type": "message",
		"source": "text",
		"text": "hello",
		"address": {"id": "a1", "user": {"id": "u1", "name": "alice"}}
	}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, bus.events, 1)
	msg, ok := bus.events[0].(domain.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Text)
}

func TestHandleActivities_Array(t *testing.T) {
	srv, bus := testServer(t)
	h := srv.Handler()

	rec := postJSON(h, "/api/messages", `[
		{"type": "message", "source": "text", "text": "one", "address": {"user": {"id": "u1"}}},
		{"type": "message", "source": "text", "text": "two", "address": {"user": {"id": "u1"}}}
	]`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, bus.events, 2)
}

func TestHandleActivities_EmptyArray(t *testing.T) {
	srv, bus := testServer(t)
	rec := postJSON(srv.Handler(), "/api/messages", `[]`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, bus.events)
}

func TestHandleActivities_NullElementRejected(t *testing.T) {
	srv, bus := testServer(t)

	for _, body := range []string{
		`[null]`,
		`[{"type": "message", "source": "text", "text": "one", "address": {"user": {"id": "u1"}}}, null]`,
	} {
		rec := postJSON(srv.Handler(), "/api/messages", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Empty(t, bus.events)
}

func TestHandleActivities_InvalidJSON(t *testing.T) {
	srv, _ := testServer(t)
	rec := postJSON(srv.Handler(), "/api/messages", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleActivities_UnknownChannel(t *testing.T) {
	srv, _ := testServer(t)
	rec := postJSON(srv.Handler(), "/api/messages", `{
		"type": "message",
		"source": "slack",
		"text": "hello",
		"address": {"user": {"id": "u1"}}
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown channel")
}

func TestHandleActivities_GetRejected(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusAccepted, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleNotFound(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveBindAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:3978", resolveBindAddr(config.GatewayConfig{Port: 3978}))
	assert.Equal(t, "127.0.0.1:3978", resolveBindAddr(config.GatewayConfig{Port: 3978, Bind: "loopback"}))
	assert.Equal(t, "0.0.0.0:8080", resolveBindAddr(config.GatewayConfig{Port: 8080, Bind: "lan"}))
}

func TestDecodeBatch_SniffsShape(t *testing.T) {
	acts, err := decodeBatch([]byte(`  {"type":"message"}`))
	require.NoError(t, err)
	require.Len(t, acts, 1)

	acts, err = decodeBatch([]byte("\n[{\"type\":\"message\"},{\"type\":\"typing\"}]"))
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, activity.TypeTyping, acts[1].Type)

	_, err = decodeBatch([]byte(`[null]`))
	require.Error(t, err)
}
