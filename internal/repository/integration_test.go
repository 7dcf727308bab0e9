package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/medishop/internal/model"
)

var allTables = []string{"order_items", "orders", "admins", "products", "users"}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{Email: "test@example.com", Password: "hashed", Role: model.RoleSeller}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, model.RoleSeller, found.Role)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_RolesAndAdmins(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{Email: "role@example.com", Password: "h", Role: model.RoleBuyer}
	require.NoError(t, repo.Create(ctx, user))

	_, err := testPool.Exec(ctx, `UPDATE users SET role = 'wizard' WHERE id = $1`, user.ID)
	require.NoError(t, err)
	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleBuyer, found.Role)

	require.NoError(t, repo.UpdateRole(ctx, user.ID, model.RoleSeller))
	found, _ = repo.GetByID(ctx, user.ID)
	assert.Equal(t, model.RoleSeller, found.Role)

	isAdmin, err := repo.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = testPool.Exec(ctx, `INSERT INTO admins (user_id) VALUES ($1)`, user.ID)
	require.NoError(t, err)
	isAdmin, err = repo.IsAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewProductRepository(testPool)
	ctx := context.Background()
	sellerID := uuid.New()

	product := &model.Product{
		Name: "Digital Thermometer", Description: "Fast and accurate", Category: "Diagnostics",
		Price: decimal.RequireFromString("15.99"), SellerID: sellerID,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotEqual(t, uuid.Nil, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Digital Thermometer", found.Name)
	assert.True(t, product.Price.Equal(found.Price))

	product.Name = "Updated"
	require.NoError(t, repo.Update(ctx, product))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Name)

	products, total, err := repo.List(ctx, ProductFilter{Limit: 10, SellerID: sellerID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)

	_, total, err = repo.List(ctx, ProductFilter{Limit: 10, SellerID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_InsertSeedIsIdempotent(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewProductRepository(testPool)
	ctx := context.Background()
	seed := []model.Product{
		{ID: uuid.New(), Name: "A", Description: "a", Category: "C", Price: decimal.NewFromInt(1), SellerID: uuid.New()},
		{ID: uuid.New(), Name: "B", Description: "b", Category: "C", Price: decimal.NewFromInt(2), SellerID: uuid.New()},
	}

	n, err := repo.InsertSeed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.InsertSeed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	cleanupTable(t, allTables...)

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()
	userID := uuid.New()

	order := &model.Order{
		UserID: userID, UserEmail: "order@example.com",
		Status: model.OrderStatusPending, Currency: "USD",
		TotalPrice: decimal.RequireFromString("75.89"),
		ShippingAddress: model.ShippingAddress{
			FullName: "Jane Doe", Address: "123 Main St", City: "Anytown",
			State: "CA", Zip: "90210", Email: "order@example.com", Phone: "123-456-7890",
		},
		Items: []model.OrderItem{
			{ProductID: uuid.New(), Name: "Thermometer", Quantity: 1,
				Price: decimal.RequireFromString("15.99"), TotalPrice: decimal.RequireFromString("15.99")},
			{ProductID: uuid.New(), Name: "Oximeter", Quantity: 2,
				Price: decimal.RequireFromString("29.95"), TotalPrice: decimal.RequireFromString("59.90")},
		},
	}
	require.NoError(t, orderRepo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	assert.Equal(t, "Anytown", found.ShippingAddress.City)
	require.Len(t, found.Items, 2)
	assert.NoError(t, found.Validate())

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusShipped))
	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusPending))

	orders, err := orderRepo.ListByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusPending, orders[0].Status)
	assert.Len(t, orders[0].Items, 2)

	all, err := orderRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
