package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	svc := New(memory.NewStore().Users())
	ctx := context.Background()

	u, err := svc.Register(ctx, " Ravi ", " Ravi@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", u.Name)
	assert.Equal(t, "ravi@example.com", u.Email)

	got, err := svc.GetByEmail(ctx, "RAVI@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.Register(ctx, "Other Ravi", "ravi@example.com")
	require.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLookupMissing(t *testing.T) {
	svc := New(memory.NewStore().Users())
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Register(ctx, "", "x@example.com")
	require.ErrorIs(t, err, ErrInvalidUser)
}
