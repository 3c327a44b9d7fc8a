package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bngnha/sensu/internal/model"
	"github.com/bngnha/sensu/internal/registry"
	"github.com/bngnha/sensu/internal/settings"
	"github.com/bngnha/sensu/internal/transport"
	"github.com/bngnha/sensu/internal/validate"
)

// newTestServer builds a Server wired to in-memory registry/transport
// doubles, the same fixtures used throughout this package's tests in place
// of a live Redis/bus, and returns it alongside the doubles for seeding and
// assertions.
func newTestServer(t *testing.T, mutate func(*settings.Settings)) (*Server, *registry.InMemory, *transport.InMemory) {
	t.Helper()
	reg := registry.NewInMemory()
	tr := transport.NewInMemory()
	cfg := settings.Settings{
		Checks: map[string]model.CheckDefinition{
			"check1": {"command": "true", "subscribers": []interface{}{"fanout:all"}},
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s := New(cfg, reg, tr, validate.Default, nil, nil)
	return s, reg, tr
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func TestClientLifecycle(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/clients", []byte(`{"name":"host1","address":"10.0.0.1"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, http.MethodGet, "/clients/host1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var client map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &client))
	assert.Equal(t, "host1", client["name"])

	w = doRequest(s, http.MethodGet, "/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var clients []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clients))
	assert.Len(t, clients, 1)

	w = doRequest(s, http.MethodGet, "/clients/doesnotexist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodDelete, "/clients/host1", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestClientHistory(t *testing.T) {
	s, reg, _ := newTestServer(t, nil)
	require.NoError(t, reg.Set(context.Background(), "result:host1:check1", `{"status":1,"output":"warn","executed":100}`))
	require.NoError(t, reg.SAdd(context.Background(), "result:host1", "check1"))
	reg.LPush("history:host1:check1", "0", "1", "1")

	w := doRequest(s, http.MethodGet, "/clients/host1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "check1", entries[0]["check"])
	assert.Equal(t, float64(1), entries[0]["last_status"])
}

func TestInfoReportsBuildMetadata(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	settings.Version = "1.2.3"
	settings.GitCommit = "abc123"
	settings.BuildTime = "2026-01-01T00:00:00Z"
	defer func() {
		settings.Version = "undefined"
		settings.GitCommit = "undefined"
		settings.BuildTime = "undefined"
	}()

	w := doRequest(s, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	build, ok := info["build"].(map[string]interface{})
	require.True(t, ok, "expected a build sub-object")
	assert.Equal(t, "1.2.3", build["version"])
	assert.Equal(t, "abc123", build["git_commit"])
	assert.Equal(t, "2026-01-01T00:00:00Z", build["build_time"])
}

func TestPostClientsRejectsMissingName(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	w := doRequest(s, http.MethodPost, "/clients", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChecksAndPostRequest(t *testing.T) {
	s, _, tr := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/checks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/checks/check1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/checks/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodPost, "/request", []byte(`{"check":"check1"}`))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, tr.Published(), 1)

	w = doRequest(s, http.MethodPost, "/request", []byte(`{"check":"unknown"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsCRUD(t *testing.T) {
	s, reg, _ := newTestServer(t, nil)
	require.NoError(t, reg.Set(context.Background(), "result:host1:check1", `{"status":0,"output":"ok","executed":100}`))
	require.NoError(t, reg.SAdd(context.Background(), "result:host1", "check1"))

	w := doRequest(s, http.MethodGet, "/results/host1/check1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/results/host1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/results/unknownhost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodDelete, "/results/host1/check1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, http.MethodDelete, "/results/host1/check1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostResultsPublishes(t *testing.T) {
	s, _, tr := newTestServer(t, nil)
	w := doRequest(s, http.MethodPost, "/results", []byte(`{"name":"check1","output":"all good"}`))
	require.Equal(t, http.StatusAccepted, w.Code)
	published := tr.Published()
	require.Len(t, published, 1)
	assert.Equal(t, transport.ExchangeDirect, published[0].Exchange)
}

func TestStashLifecycle(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/stash/my/path", []byte(`{"a":1}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, http.MethodGet, "/stash/my/path", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":1}`, w.Body.String())

	w = doRequest(s, http.MethodGet, "/stashes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "my/path", entries[0]["path"])

	w = doRequest(s, http.MethodDelete, "/stash/my/path", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, http.MethodGet, "/stash/my/path", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostStashesWithExpire(t *testing.T) {
	s, reg, _ := newTestServer(t, nil)
	w := doRequest(s, http.MethodPost, "/stashes", []byte(`{"path":"ttl/path","content":{"x":1},"expire":60}`))
	require.Equal(t, http.StatusCreated, w.Code)

	ttl, err := reg.TTL(context.Background(), "stash:ttl/path")
	require.NoError(t, err)
	assert.Greater(t, ttl, int64(0))
}

func TestConnectivityGate(t *testing.T) {
	s, reg, _ := newTestServer(t, nil)
	reg.SetDown(true)

	w := doRequest(s, http.MethodGet, "/clients", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(s, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBasicAuthGate(t *testing.T) {
	s, _, _ := newTestServer(t, func(cfg *settings.Settings) {
		cfg.API.User = "admin"
		cfg.API.Password = "secret"
	})

	w := doRequest(s, http.MethodGet, "/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/clients", nil)
	r.SetBasicAuth("admin", "secret")
	wr := httptest.NewRecorder()
	s.Handler().ServeHTTP(wr, r)
	assert.Equal(t, http.StatusOK, wr.Code)
}

func TestEventsAndResolve(t *testing.T) {
	s, reg, tr := newTestServer(t, nil)
	reg.HSet("events:host1", "check1", `{"client":{"name":"host1"},"check":{"name":"check1","status":2,"output":"bad"}}`)

	w := doRequest(s, http.MethodGet, "/events/host1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/events/host1/check1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodDelete, "/events/host1/check1", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, tr.Published(), 1)

	w = doRequest(s, http.MethodDelete, "/events/host1/missingcheck", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAggregateSummaryAndDelete(t *testing.T) {
	s, reg, _ := newTestServer(t, nil)
	require.NoError(t, reg.SAdd(context.Background(), "aggregates", "agg1"))
	require.NoError(t, reg.SAdd(context.Background(), "aggregates:agg1", "host1:check1"))
	require.NoError(t, reg.SAdd(context.Background(), "aggregates:agg1", "host2:check1"))
	require.NoError(t, reg.Set(context.Background(), "result:host1:check1", `{"status":0,"output":"ok","executed":100}`))
	require.NoError(t, reg.Set(context.Background(), "result:host2:check1", `{"status":2,"output":"bad","executed":100}`))

	w := doRequest(s, http.MethodGet, "/aggregates/agg1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, float64(2), summary["clients"])
	assert.Equal(t, float64(1), summary["checks"])

	w = doRequest(s, http.MethodGet, "/aggregates/agg1/results/critical", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/aggregates/agg1/results/notasevertiy", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodDelete, "/aggregates/agg1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, http.MethodGet, "/aggregates/agg1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
