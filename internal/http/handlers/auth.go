package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/task-tracker/internal/auth"
	"github.com/hongminglow/task-tracker/internal/http/respond"
	"github.com/hongminglow/task-tracker/internal/models/dto"
)

// AuthHandler owns the register/login endpoints.
type AuthHandler struct {
	auth   *auth.Authenticator
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authenticator *auth.Authenticator, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: authenticator, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	ok := decodeAndValidate(w, r, &req, func() {
		req.Username = strings.TrimSpace(req.Username)
		if strings.TrimSpace(req.Password) == "" {
			req.Password = ""
		}
	})
	if !ok {
		return
	}

	created, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "user registered", slog.Int64("user_id", created.ID), slog.String("username", created.Username))
	respond.JSON(w, http.StatusOK, "User registered successfully!", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	ok := decodeAndValidate(w, r, &req, func() {
		req.Username = strings.TrimSpace(req.Username)
	})
	if !ok {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token})
}
