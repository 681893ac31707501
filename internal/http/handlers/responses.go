package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/task-tracker/internal/auth"
	"github.com/hongminglow/task-tracker/internal/http/respond"
	"github.com/hongminglow/task-tracker/internal/middleware"
	"github.com/hongminglow/task-tracker/internal/storage"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure it has already written the 400 response.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, normalize func()) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	if normalize != nil {
		normalize()
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respond.Invalid(w, fieldMessages(verrs))
			return false
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func fieldMessages(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = fmt.Sprintf("%s is required", fe.Field())
		case "max":
			out[fe.Field()] = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		default:
			out[fe.Field()] = fmt.Sprintf("%s is invalid", fe.Field())
		}
	}
	return out
}

// writeError maps domain errors onto statuses. Unknown errors are logged and
// reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "not authorized to modify this task")
	case errors.Is(err, auth.ErrPasswordTooLong):
		respond.Invalid(w, map[string]string{"password": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "task not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "username already exists")
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", middleware.RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// requirePrincipal returns the caller or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, logger, auth.ErrUnauthenticated)
		return nil, false
	}
	return p, true
}

// optionalString trims s and collapses blanks to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
