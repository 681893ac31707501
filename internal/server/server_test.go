package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/task-tracker/internal/config"
	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage/memory"
)

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type client struct {
	t    *testing.T
	base string
}

func (c client) call(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func (c client) login(username, password string) string {
	c.t.Helper()
	status, _ := c.call(http.MethodPost, "/api/auth/register", "", map[string]string{"username": username, "password": password})
	require.Equal(c.t, http.StatusOK, status)
	status, env := c.call(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(c.t, http.StatusOK, status)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(c.t, out.Token)
	return out.Token
}

func newTestServer(t *testing.T) client {
	t.Helper()
	cfg := config.Config{
		JWTSecret:   "integration-secret",
		JWTIssuer:   "task-tracker",
		JWTTTL:      time.Hour,
		BcryptCost:  4,
		CORSOrigins: []string{"*"},
		AuthBypass:  config.DefaultAuthBypass,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewHandler(cfg, memory.NewStore(), logger))
	t.Cleanup(srv.Close)
	return client{t: t, base: srv.URL}
}

func TestTaskOwnershipScenario(t *testing.T) {
	c := newTestServer(t)
	alice := c.login("alice", "alice-pw")
	bob := c.login("bob", "bob-pw")

	status, env := c.call(http.MethodPost, "/api/tasks", alice, map[string]string{"title": "Alice's task", "status": "TODO"})
	require.Equal(t, http.StatusCreated, status)
	var task models.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	target := fmt.Sprintf("/api/tasks/%d", task.ID)

	status, _ = c.call(http.MethodPut, target, bob, map[string]string{"title": "Hacked"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.call(http.MethodDelete, target, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = c.call(http.MethodGet, "/api/tasks", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var bobs models.Page[models.Task]
	require.NoError(t, json.Unmarshal(env.Data, &bobs))
	assert.Empty(t, bobs.Content)
	assert.Zero(t, bobs.TotalElements)

	status, env = c.call(http.MethodGet, "/api/tasks?status=TODO", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var alices models.Page[models.Task]
	require.NoError(t, json.Unmarshal(env.Data, &alices))
	require.Len(t, alices.Content, 1)
	assert.Equal(t, "Alice's task", alices.Content[0].Title)

	status, env = c.call(http.MethodPut, target, alice, map[string]string{"title": "Updated", "status": "DONE"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "Updated", task.Title)

	status, _ = c.call(http.MethodDelete, target, alice, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = c.call(http.MethodDelete, target, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnauthenticatedAccess(t *testing.T) {
	c := newTestServer(t)

	for _, token := range []string{"", "not-a-jwt"} {
		status, env := c.call(http.MethodGet, "/api/tasks", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status, token)
		assert.Equal(t, "authentication required", env.Message)
	}

	status, _ := c.call(http.MethodGet, "/health", "garbage", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodGet, "/actuator/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestTokenForUnknownUserIsRejected(t *testing.T) {
	cfg := config.Config{
		JWTSecret:  "integration-secret",
		JWTIssuer:  "task-tracker",
		JWTTTL:     time.Hour,
		BcryptCost: 4,
		AuthBypass: config.DefaultAuthBypass,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A token minted by one deployment is unknown to a fresh store.
	first := httptest.NewServer(NewHandler(cfg, memory.NewStore(), logger))
	defer first.Close()
	token := client{t: t, base: first.URL}.login("carol", "pw")

	second := httptest.NewServer(NewHandler(cfg, memory.NewStore(), logger))
	defer second.Close()
	status, _ := client{t: t, base: second.URL}.call(http.MethodGet, "/api/tasks", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPreflightBypassesAuthentication(t *testing.T) {
	c := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, c.base+"/api/tasks/1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
