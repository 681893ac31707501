package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage"
)

// ErrInvalidCredentials is the only login failure callers see, whether the
// username is unknown or the password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator registers users and exchanges credentials for tokens.
type Authenticator struct {
	users     storage.UserStore
	hasher    *PasswordHasher
	tokens    *TokenManager
	now       func() time.Time
	dummyHash string
}

// NewAuthenticator wires the credential store, hasher and token manager.
func NewAuthenticator(users storage.UserStore, hasher *PasswordHasher, tokens *TokenManager) *Authenticator {
	// Compared against on unknown usernames so both failure paths cost one bcrypt run.
	dummy, _ := hasher.Hash("unknown-user-placeholder")
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register stores a new user with the default role.
func (a *Authenticator) Register(ctx context.Context, username, password string) (models.User, error) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}
	created, err := a.users.CreateUser(ctx, models.User{
		Username:     strings.TrimSpace(username),
		Role:         models.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, err
	}
	created.PasswordHash = ""
	return created, nil
}

// Login verifies the credentials and returns a freshly signed token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.hasher.Verify(password, a.dummyHash)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if !a.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(user.Username, a.now())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
