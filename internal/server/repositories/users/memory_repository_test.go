package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	first, err := r.Upsert(ctx, &models.User{Username: "bob", HomeDir: "/bob"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := r.Upsert(ctx, &models.User{Username: "bob", HomeDir: "/shared"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = r.Upsert(ctx, &models.User{Username: "alice", HomeDir: "/"})
	require.NoError(t, err)

	got, err := r.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "/shared", got.HomeDir)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, "bob", all[1].Username)
}
