package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/repository"
)

func TestStoreDeleteRules(t *testing.T) {
	ctx := context.Background()
	db := New()
	m := &model.Manager{Name: "a", Email: "a@x.io"}
	require.NoError(t, db.Managers().Create(ctx, m))
	s := &model.Store{Name: "s", Location: "l"}
	require.NoError(t, db.Stores().CreateAndAssign(ctx, s, m.ID))

	it := &model.Item{Name: "i", Category: model.CategoryPet, StoreID: s.ID}
	require.NoError(t, db.Items().Create(ctx, it))
	assert.ErrorIs(t, db.Stores().Delete(ctx, s.ID), repository.ErrInUse)

	require.NoError(t, db.Items().Delete(ctx, it.ID))
	require.NoError(t, db.Stores().Delete(ctx, s.ID))

	got, err := db.Managers().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StoreID)
}

func TestItemReferences(t *testing.T) {
	ctx := context.Background()
	db := New()
	err := db.Items().Create(ctx, &model.Item{Name: "i", StoreID: uuid.New()})
	assert.ErrorIs(t, err, repository.ErrBadReference)
}

func TestRevocationsExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := NewRevocations(time.Hour)
	r.now = func() time.Time { return now }

	require.NoError(t, r.MarkRevoked(ctx, "a"))
	require.NoError(t, r.MarkRevoked(ctx, "a"))
	ok, _ := r.IsRevoked(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())

	now = now.Add(time.Hour)
	ok, _ = r.IsRevoked(ctx, "a")
	assert.False(t, ok)
}
