package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/task-tracker/internal/auth"
	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/models/dto"
	"github.com/hongminglow/task-tracker/internal/storage/memory"
)

func newAuthMux(t *testing.T) (*http.ServeMux, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("handler-test-secret", "task-tracker", time.Hour)
	authenticator := auth.NewAuthenticator(memory.NewStore(), auth.NewPasswordHasher(4), tokens)
	mux := http.NewServeMux()
	NewAuthHandler(authenticator, discardLogger()).Register(mux)
	return mux, tokens
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	mux, tokens := newAuthMux(t)

	rec := do(mux, nil, http.MethodPost, "/api/auth/register", `{"username":" alice ","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "User registered successfully!", env.Message)
	assert.NotContains(t, rec.Body.String(), "s3cret")
	assert.NotContains(t, rec.Body.String(), "$2a$")
	user := decodeData[models.User](t, env)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)

	rec = do(mux, nil, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeData[dto.LoginResponse](t, decodeEnvelope(t, rec))
	subject, err := tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	mux, _ := newAuthMux(t)

	rec := do(mux, nil, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"one"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(mux, nil, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"two"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "username already exists", decodeEnvelope(t, rec).Message)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	mux, _ := newAuthMux(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing username", `{"password":"pw"}`, "username"},
		{"blank username", `{"username":"   ","password":"pw"}`, "username"},
		{"blank password", `{"username":"alice","password":"   "}`, "password"},
		{"long username", `{"username":"` + strings.Repeat("u", 101) + `","password":"pw"}`, "username"},
		{"long password", `{"username":"alice","password":"` + strings.Repeat("p", 73) + `"}`, "password"},
		{"multibyte password over 72 bytes", `{"username":"alice","password":"` + strings.Repeat("é", 40) + `"}`, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(mux, nil, http.MethodPost, "/api/auth/register", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, decodeEnvelope(t, rec).Errors, tc.field)
		})
	}
}

func TestAuthHandler_LoginFailuresAreIndistinguishable(t *testing.T) {
	mux, _ := newAuthMux(t)
	rec := do(mux, nil, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	wrongPassword := do(mux, nil, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrong"}`)
	unknownUser := do(mux, nil, http.MethodPost, "/api/auth/login", `{"username":"mallory","password":"right"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())

	rec = do(mux, nil, http.MethodPost, "/api/auth/login", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(time.Now().Add(-time.Minute)).Register(mux)

	for _, path := range []string{"/health", "/actuator/health"} {
		rec := do(mux, nil, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decodeData[map[string]string](t, decodeEnvelope(t, rec))
		assert.Equal(t, "ok", body["status"])
		assert.NotEmpty(t, body["uptime"])
	}
}
