// Package storagetest holds the behavioural checks every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage"
)

// Run exercises open against the shared store contract. open must return an
// empty store; it is called once per subtest.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, open(t)) })
	t.Run("listing", func(t *testing.T) { testListing(t, open(t)) })
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "hash-a", Role: models.RoleUser})
	require.NoError(t, err)
	assert.Positive(t, alice.ID)
	assert.Equal(t, "hash-a", alice.PasswordHash)
	assert.False(t, alice.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "other", Role: models.RoleUser})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	byName, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	byID, err := s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "hash-a", byName.PasswordHash, "first registration wins")
	assert.Equal(t, byName.Username, byID.Username)
	assert.Equal(t, models.RoleUser, byID.Role)

	_, err = s.FindByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, storage.ErrNotFound, "usernames are case sensitive")
	_, err = s.FindUserByID(ctx, alice.ID+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testTasks(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "owner")

	_, err := s.CreateTask(ctx, models.Task{Title: "orphan", OwnerID: owner.ID + 100, CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	created, err := s.CreateTask(ctx, models.Task{
		Title:       "Write report",
		Description: ptr("quarterly"),
		Status:      ptr("TODO"),
		OwnerID:     owner.ID,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Nil(t, created.Category)

	found, err := s.FindTaskByID(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, found, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("FindTaskByID mismatch (-created +found):\n%s", diff)
	}

	found.Title = "Write final report"
	found.Status = nil
	found.Category = ptr("work")
	found.OwnerID = owner.ID + 100
	updated, err := s.UpdateTask(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, "Write final report", updated.Title)
	assert.Nil(t, updated.Status)
	assert.Equal(t, ptr("work"), updated.Category)
	assert.Equal(t, owner.ID, updated.OwnerID, "owner is never rewritten")
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	_, err = s.UpdateTask(ctx, models.Task{ID: created.ID + 100, Title: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteTask(ctx, created.ID))
	assert.ErrorIs(t, s.DeleteTask(ctx, created.ID), storage.ErrNotFound)
	_, err = s.FindTaskByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testListing(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	statuses := []string{"TODO", "DONE", "TODO", "DONE", "TODO", "DONE", "TODO"}
	for i, status := range statuses {
		category := "home"
		if i >= 4 {
			category = "work"
		}
		_, err := s.CreateTask(ctx, models.Task{
			Title:     fmt.Sprintf("alice-%d", i),
			Status:    ptr(status),
			Category:  ptr(category),
			OwnerID:   alice.ID,
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
	_, err := s.CreateTask(ctx, models.Task{Title: "bob-0", Status: ptr("TODO"), OwnerID: bob.ID, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	tests := []struct {
		name       string
		owner      int64
		filter     models.TaskFilter
		wantTitles []string
		wantTotal  int64
		wantPages  int
	}{
		{"first page", alice.ID, models.TaskFilter{Size: 3}, []string{"alice-6", "alice-5", "alice-4"}, 7, 3},
		{"last partial page", alice.ID, models.TaskFilter{Page: 2, Size: 3}, []string{"alice-0"}, 7, 3},
		{"past the end", alice.ID, models.TaskFilter{Page: 5, Size: 3}, []string{}, 7, 3},
		{"status", alice.ID, models.TaskFilter{Status: "DONE", Size: 10}, []string{"alice-5", "alice-3", "alice-1"}, 3, 1},
		{"category", alice.ID, models.TaskFilter{Category: "work", Size: 10}, []string{"alice-6", "alice-5", "alice-4"}, 3, 1},
		{"status wins over category", alice.ID, models.TaskFilter{Status: "TODO", Category: "home", Size: 10}, []string{"alice-6", "alice-4", "alice-2", "alice-0"}, 4, 1},
		{"status ignores unmatched category", alice.ID, models.TaskFilter{Status: "DONE", Category: "work", Size: 10}, []string{"alice-5", "alice-3", "alice-1"}, 3, 1},
		{"no match", alice.ID, models.TaskFilter{Status: "BLOCKED", Size: 10}, []string{}, 0, 0},
		{"other owner", bob.ID, models.TaskFilter{Size: 10}, []string{"bob-0"}, 1, 1},
		{"unknown owner", bob.ID + 100, models.TaskFilter{Size: 10}, []string{}, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := s.ListTasksByOwner(ctx, tc.owner, tc.filter)
			require.NoError(t, err)

			titles := make([]string, 0, len(page.Content))
			for _, task := range page.Content {
				titles = append(titles, task.Title)
				assert.Equal(t, tc.owner, task.OwnerID)
			}
			assert.Equal(t, tc.wantTitles, titles)
			assert.NotNil(t, page.Content)
			assert.Equal(t, tc.wantTotal, page.TotalElements)
			assert.Equal(t, tc.wantPages, page.TotalPages)
			assert.Equal(t, tc.filter.Page, page.Page)
			assert.Equal(t, tc.filter.Size, page.Size)
		})
	}
}

func mustUser(t *testing.T, s storage.Store, username string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{Username: username, PasswordHash: "x", Role: models.RoleUser})
	require.NoError(t, err)
	return u
}

func ptr(s string) *string { return &s }
