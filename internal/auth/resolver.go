package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/task-tracker/internal/storage"
)

// TokenVerifier checks a raw bearer token and yields its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Resolver turns an Authorization header value into a Principal.
type Resolver struct {
	tokens TokenVerifier
	users  storage.UserStore
}

// NewResolver creates a Resolver backed by tokens and users.
func NewResolver(tokens TokenVerifier, users storage.UserStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns the caller's principal, or nil when the header carries no
// usable credential (absent, malformed, invalid, expired, or unknown subject).
// A non-nil error means resolution itself failed and the outcome is unknown.
func (r *Resolver) Resolve(ctx context.Context, header string) (*Principal, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, nil
	}
	subject, err := r.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}
	user, err := r.users.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	return &Principal{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
