package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/task-tracker/internal/auth"
	"github.com/hongminglow/task-tracker/internal/http/respond"
)

// PrincipalResolver maps an Authorization header value onto a principal.
// A nil principal with a nil error means "no usable credential".
type PrincipalResolver interface {
	Resolve(ctx context.Context, header string) (*auth.Principal, error)
}

// AuthOptions configures Authenticate.
type AuthOptions struct {
	Resolver PrincipalResolver
	// Bypass holds path prefixes that skip authentication entirely.
	Bypass []string
	// FailClosed rejects the request with 503 when resolution faults.
	// Otherwise the request continues unauthenticated.
	FailClosed bool
	Logger     *slog.Logger
}

// Authenticate attaches the caller's principal to the request context.
// Missing or invalid credentials never fail here; handlers that need a
// principal reject the request themselves.
func Authenticate(opts AuthOptions, next http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bypassed(opts.Bypass, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := auth.PrincipalFrom(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := resolve(r.Context(), opts.Resolver, header)
		if err != nil {
			logger.ErrorContext(r.Context(), "authentication fault",
				slog.String("request_id", RequestID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.Bool("fail_closed", opts.FailClosed),
				slog.String("error", err.Error()),
			)
			if opts.FailClosed {
				respond.Error(w, http.StatusServiceUnavailable, "authentication temporarily unavailable")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if principal == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// resolve reports a resolver panic as a fault like any other error.
func resolve(ctx context.Context, resolver PrincipalResolver, header string) (p *auth.Principal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("resolver panic: %v", rec)
		}
	}()
	return resolver.Resolve(ctx, header)
}

func bypassed(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
