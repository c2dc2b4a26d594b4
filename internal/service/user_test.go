package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/college-tracker/internal/apperror"
)

func TestUserSync_CreatedThenRefreshed(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, discardLogger())
	ctx := context.Background()

	u, created, err := svc.Sync(ctx, "uid-1",
		ProfileFields{Email: strPtr("a@example.com")},
		ProfileFields{Email: strPtr("ignored@example.com"), Name: strPtr("Alice")},
	)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a@example.com", *u.Email, "asserted value wins")
	assert.Equal(t, "Alice", *u.Name, "fallback fills the gap")

	u, created, err = svc.Sync(ctx, "uid-1", ProfileFields{Name: strPtr("Alice B")}, ProfileFields{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Alice B", *u.Name)
	assert.Nil(t, u.Email)
}

func TestUserSync_Errors(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, discardLogger())

	_, _, err := svc.Sync(context.Background(), "", ProfileFields{}, ProfileFields{})
	assert.True(t, errors.Is(err, apperror.ErrUnauthenticated))

	store.failWith = errDiskOnFire
	_, _, err = svc.Sync(context.Background(), "uid-1", ProfileFields{}, ProfileFields{})
	require.Error(t, err)
	assert.False(t, apperror.Known(err))
}

func TestUser_OtherUsersProfileIsForbidden(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, discardLogger())
	ctx := context.Background()

	_, _, err := svc.Sync(ctx, "alice", ProfileFields{}, ProfileFields{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", "alice")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	_, err = svc.Update(ctx, "bob", "alice", ProfileFields{Name: strPtr("x")})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	err = svc.Delete(ctx, "bob", "alice")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = svc.Get(ctx, "", "alice")
	assert.True(t, errors.Is(err, apperror.ErrUnauthenticated))

	assert.Contains(t, store.users, "alice")
}

func TestUserUpdate_NilLeavesFieldAlone(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, discardLogger())
	ctx := context.Background()

	_, _, err := svc.Sync(ctx, "alice", ProfileFields{Email: strPtr("a@example.com"), Name: strPtr("Alice")}, ProfileFields{})
	require.NoError(t, err)

	u, err := svc.Update(ctx, "alice", "alice", ProfileFields{Name: strPtr("Alice Cooper")})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", *u.Email)
	assert.Equal(t, "Alice Cooper", *u.Name)

	got, err := svc.Get(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", *got.Name)
}

func TestUserDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, discardLogger())
	ctx := context.Background()

	_, err := svc.Get(ctx, "alice", "alice")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, _, err = svc.Sync(ctx, "alice", ProfileFields{}, ProfileFields{})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "alice", "alice"))

	err = svc.Delete(ctx, "alice", "alice")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
