package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
)

func snapshotBuilder(lines []model.CartItem) (*model.Order, error) {
	order := &model.Order{PaymentMethod: "PayPal", Status: model.OrderStatusProcessing}
	for _, l := range lines {
		order.OrderItems = append(order.OrderItems, l.ToOrderItem())
		order.TotalPrice += l.Price * float64(l.Quantity)
	}
	return order, nil
}

func TestOrderRepository_CreateFromCart(t *testing.T) {
	testDB := setupTestDB(t)
	orders := NewOrderRepository(testDB)
	carts := NewCartRepository(testDB)
	user := createUser(t, testDB, "buyer@viznest.test")
	product := createProduct(t, testDB, "Chair", 10)
	owner := model.CartOwner{UserID: user.ID}
	ctx := context.Background()

	require.NoError(t, carts.Insert(ctx, owner, &model.CartItem{ProductID: product.ID, Name: "Chair", Price: 10, Quantity: 2}))
	require.NoError(t, carts.Insert(ctx, owner, &model.CartItem{ProductID: product.ID, Name: "Chair", Price: 35.5, Quantity: 1, SelectedMaterial: "Walnut"}))

	order, err := orders.CreateFromCart(user.ID, snapshotBuilder)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Len(t, order.OrderItems, 2)
	assert.InDelta(t, 55.5, order.TotalPrice, 1e-9)

	lines, err := carts.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, lines)

	var sold int
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", product.ID).Pluck("sold", &sold).Error)
	assert.Equal(t, 3, sold)

	// editing the product afterwards leaves the snapshot alone
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", product.ID).Update("name", "Renamed").Error)
	found, err := orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chair", found.OrderItems[0].Name)
}

func TestOrderRepository_CreateFromEmptyCart(t *testing.T) {
	testDB := setupTestDB(t)
	orders := NewOrderRepository(testDB)
	user := createUser(t, testDB, "buyer@viznest.test")

	_, err := orders.CreateFromCart(user.ID, snapshotBuilder)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderRepository_BuilderErrorRollsBack(t *testing.T) {
	testDB := setupTestDB(t)
	orders := NewOrderRepository(testDB)
	carts := NewCartRepository(testDB)
	user := createUser(t, testDB, "buyer@viznest.test")
	product := createProduct(t, testDB, "Chair", 10)
	owner := model.CartOwner{UserID: user.ID}
	ctx := context.Background()

	require.NoError(t, carts.Insert(ctx, owner, &model.CartItem{ProductID: product.ID, Price: 10, Quantity: 1}))

	boom := errors.New("boom")
	_, err := orders.CreateFromCart(user.ID, func([]model.CartItem) (*model.Order, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	lines, err := carts.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	testDB := setupTestDB(t)
	orders := NewOrderRepository(testDB)
	carts := NewCartRepository(testDB)
	user := createUser(t, testDB, "buyer@viznest.test")
	product := createProduct(t, testDB, "Chair", 10)
	require.NoError(t, carts.Insert(context.Background(), model.CartOwner{UserID: user.ID}, &model.CartItem{ProductID: product.ID, Price: 10, Quantity: 1}))

	order, err := orders.CreateFromCart(user.ID, snapshotBuilder)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, orders.UpdateStatus(order.ID, model.OrderStatusDelivered, &now))

	found, err := orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, found.Status)
	assert.NotNil(t, found.DeliveredAt)

	require.NoError(t, orders.UpdateStatus(order.ID, model.OrderStatusCancelled, nil))
	found, err = orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, found.Status)
	assert.Nil(t, found.DeliveredAt)

	mine, err := orders.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.Error(t, orders.UpdateStatus(9999, model.OrderStatusShipped, nil))
}
