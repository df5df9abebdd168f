package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/db"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	user := &model.User{Name: "Test User", Email: email, PasswordHash: "hash", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createProduct(t *testing.T, testDB *gorm.DB, name string, price float64) *model.Product {
	product := &model.Product{
		Name:           name,
		Price:          price,
		Category:       "chairs",
		IsCustomizable: true,
		Materials: []model.ProductMaterial{
			{Name: "Oak", ExtraPrice: 0},
			{Name: "Walnut", ExtraPrice: 25.5},
		},
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}
