package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
)

// exerciseCartStore runs the same contract against every CartStore implementation
func exerciseCartStore(t *testing.T, store CartStore, owner model.CartOwner, productID uint) {
	ctx := context.Background()

	first := &model.CartItem{ProductID: productID, Name: "Chair", Price: 10, Quantity: 1, SelectedColor: "#112233"}
	second := &model.CartItem{ProductID: productID, Name: "Chair", Price: 10, Quantity: 2, SelectedMaterial: "Oak"}
	require.NoError(t, store.Insert(ctx, owner, first))
	require.NoError(t, store.Insert(ctx, owner, second))
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	lines, err := store.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, first.ID, lines[0].ID)
	assert.Equal(t, "#112233", lines[0].SelectedColor)

	require.NoError(t, store.SetQuantity(ctx, owner, first.ID, 5))
	lines, err = store.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, lines[0].Quantity)

	require.NoError(t, store.Remove(ctx, owner, second.ID))
	assert.ErrorIs(t, store.Remove(ctx, owner, second.ID), ErrCartLineNotFound)
	assert.ErrorIs(t, store.SetQuantity(ctx, owner, 9999, 1), ErrCartLineNotFound)

	require.NoError(t, store.Clear(ctx, owner))
	lines, err = store.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartRepository_Contract(t *testing.T) {
	testDB := setupTestDB(t)
	user := createUser(t, testDB, "cart@viznest.test")
	product := createProduct(t, testDB, "Chair", 10)

	exerciseCartStore(t, NewCartRepository(testDB), model.CartOwner{UserID: user.ID}, product.ID)
}

func TestCartRepository_IsolatesUsers(t *testing.T) {
	testDB := setupTestDB(t)
	store := NewCartRepository(testDB)
	alice := model.CartOwner{UserID: createUser(t, testDB, "alice@viznest.test").ID}
	bob := model.CartOwner{UserID: createUser(t, testDB, "bob@viznest.test").ID}
	product := createProduct(t, testDB, "Chair", 10)
	ctx := context.Background()

	line := &model.CartItem{ProductID: product.ID, Quantity: 1, Price: 10}
	require.NoError(t, store.Insert(ctx, alice, line))

	assert.ErrorIs(t, store.Remove(ctx, bob, line.ID), ErrCartLineNotFound)
	lines, err := store.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGuestCartRepository_Contract(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseCartStore(t, NewGuestCartRepository(rdb, time.Hour), model.CartOwner{GuestID: "guest-1"}, 42)
}

func TestGuestCartRepository_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewGuestCartRepository(rdb, time.Hour)
	owner := model.CartOwner{GuestID: "guest-2"}
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, owner, &model.CartItem{ProductID: 1, Quantity: 1}))
	mr.FastForward(2 * time.Hour)

	lines, err := store.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
