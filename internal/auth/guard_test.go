package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage"
	"github.com/hongminglow/task-tracker/internal/storage/memory"
)

func TestGuard_Authorize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.NewStore()
	alice, err := store.CreateUser(ctx, models.User{Username: "alice", Role: models.RoleUser})
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, models.User{Username: "bob", Role: models.RoleUser})
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, models.Task{Title: "buy milk", OwnerID: alice.ID, CreatedAt: time.Now()})
	require.NoError(t, err)

	g := NewGuard(store)

	t.Run("owner", func(t *testing.T) {
		got, err := g.Authorize(ctx, &Principal{UserID: alice.ID, Username: "alice"}, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("other user", func(t *testing.T) {
		_, err := g.Authorize(ctx, &Principal{UserID: bob.ID, Username: "bob"}, task.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("same name different id", func(t *testing.T) {
		_, err := g.Authorize(ctx, &Principal{UserID: bob.ID, Username: "alice"}, task.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := g.Authorize(ctx, &Principal{UserID: alice.ID}, task.ID+100)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("no principal", func(t *testing.T) {
		_, err := g.Authorize(ctx, nil, task.ID)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	_, ok = PrincipalFrom(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)

	p := &Principal{UserID: 7, Username: "alice", Role: models.RoleUser}
	got, ok := PrincipalFrom(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Same(t, p, got)
}
