package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationRepository(t *testing.T) {
	repo := NewInvitationRepository(OpenTestDB(t))
	ctx := context.Background()

	inv, err := repo.Create(ctx, &model.Invitation{
		GroupID:   "g1",
		Email:     "bob@example.com",
		Token:     uuid.NewString(),
		InvitedBy: "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, inv.IsUsed())

	got, err := repo.GetByToken(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, "bob@example.com", got.Email)

	_, err = repo.GetByToken(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.MarkUsed(ctx, inv.ID, "u2", time.Now()))
	assert.ErrorIs(t, repo.MarkUsed(ctx, inv.ID, "u3", time.Now()), ErrNotFound)

	used, err := repo.GetByToken(ctx, inv.Token)
	require.NoError(t, err)
	assert.True(t, used.IsUsed())
	assert.Equal(t, "u2", used.UsedBy)

	_, err = repo.Create(ctx, &model.Invitation{GroupID: "g1", Email: "c@example.com", Token: uuid.NewString(), InvitedBy: "u1", ExpiresAt: time.Now()})
	require.NoError(t, err)

	count, err := repo.CountByInviter(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
