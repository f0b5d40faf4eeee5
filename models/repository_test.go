package models

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/cardvault/catalog/app/dialect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(dialect.SQLite("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestCategoriesRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoriesRepository(db)

	baseSet := &Category{Name: "Base Set", Description: "1999"}
	require.NoError(t, repo.CreateCategory(baseSet))
	assert.NotZero(t, baseSet.ID)

	t.Run("duplicate name", func(t *testing.T) {
		err := repo.CreateCategory(&Category{Name: "Base Set"})
		assert.ErrorIs(t, err, ErrCategoryNameTaken)
	})

	t.Run("update to a taken name", func(t *testing.T) {
		jungle := &Category{Name: "Jungle"}
		require.NoError(t, repo.CreateCategory(jungle))

		jungle.Name = "Base Set"
		assert.ErrorIs(t, repo.UpdateCategory(jungle), ErrCategoryNameTaken)
	})

	t.Run("update unknown", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateCategory(&Category{ID: 999, Name: "Ghost"}), ErrCategoryNotFound)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := repo.GetByID(999)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("list is ordered by name", func(t *testing.T) {
		all, err := repo.GetAllCategories()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Base Set", all[0].Name)
		assert.Equal(t, "Jungle", all[1].Name)
	})
}

func TestDeleteCategoryInUse(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoriesRepository(db)
	products := NewProductsRepository(db)

	used := &Category{Name: "Base Set"}
	empty := &Category{Name: "Jungle"}
	require.NoError(t, categories.CreateCategory(used))
	require.NoError(t, categories.CreateCategory(empty))
	require.NoError(t, products.CreateProduct(&Product{
		Name: "Charizard", Code: "BS-004", Price: decimal.NewFromInt(350), CategoryID: &used.ID,
	}))

	assert.ErrorIs(t, categories.DeleteCategory(used.ID), ErrCategoryInUse)
	_, err := categories.GetByID(used.ID)
	assert.NoError(t, err, "a category in use stays")

	assert.NoError(t, categories.DeleteCategory(empty.ID))
	_, err = categories.GetByID(empty.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	assert.ErrorIs(t, categories.DeleteCategory(empty.ID), ErrCategoryNotFound)
}

func TestCategorySummaries(t *testing.T) {
	db := newTestDB(t)
	products := NewProductsRepository(db)
	baseSet, jungle := seedListing(t, products, NewCategoriesRepository(db))

	summaries, err := NewCategoriesRepository(db).GetCategorySummaries()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	counts := map[uint]int64{}
	for _, s := range summaries {
		counts[s.ID] = s.ProductCount
	}
	assert.Equal(t, int64(3), counts[baseSet.ID])
	assert.Equal(t, int64(3), counts[jungle.ID])
}

func TestProductsRepository(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoriesRepository(db)
	products := NewProductsRepository(db)

	baseSet := &Category{Name: "Base Set"}
	require.NoError(t, categories.CreateCategory(baseSet))

	charizard := &Product{Name: "Charizard", Code: "BS-004", Price: decimal.NewFromInt(350), CategoryID: &baseSet.ID}
	require.NoError(t, products.CreateProduct(charizard))

	t.Run("duplicate code", func(t *testing.T) {
		err := products.CreateProduct(&Product{Name: "Other", Code: "BS-004", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, ErrProductCodeTaken)
	})

	t.Run("dangling category", func(t *testing.T) {
		missing := uint(42)
		err := products.CreateProduct(&Product{Name: "Other", Code: "XX-1", Price: decimal.NewFromInt(1), CategoryID: &missing})
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("update keeps values", func(t *testing.T) {
		charizard.Price = decimal.RequireFromString("375.25")
		charizard.ImagePath = "uploads/charizard.png"
		require.NoError(t, products.UpdateProduct(charizard))

		got, err := products.GetByID(charizard.ID)
		require.NoError(t, err)
		assert.Equal(t, "375.25", got.Price.StringFixed(2))
		assert.Equal(t, "Base Set", got.CategoryName())

		imagePath, err := products.GetImagePath(charizard.ID)
		require.NoError(t, err)
		assert.Equal(t, "uploads/charizard.png", imagePath)
	})

	t.Run("clearing the category", func(t *testing.T) {
		charizard.CategoryID = nil
		require.NoError(t, products.UpdateProduct(charizard))

		got, err := products.GetByID(charizard.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
		assert.Nil(t, got.Category)
	})

	t.Run("update and delete unknown", func(t *testing.T) {
		assert.ErrorIs(t, products.UpdateProduct(&Product{ID: 999, Name: "Ghost", Code: "GH-1"}), ErrProductNotFound)
		assert.ErrorIs(t, products.DeleteProduct(999), ErrProductNotFound)
		_, err := products.GetImagePath(999)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("counts and delete", func(t *testing.T) {
		n, err := products.CountProducts()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, products.DeleteProduct(charizard.ID))
		_, err = products.GetByID(charizard.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

// A category is created, a product added to it, then found by a partial,
// differently-cased name search within its category and price range.
func TestCharizardScenario(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoriesRepository(db)
	products := NewProductsRepository(db)

	baseSet := &Category{Name: "Base Set"}
	require.NoError(t, categories.CreateCategory(baseSet))
	require.NoError(t, products.CreateProduct(&Product{
		Name: "Charizard", Code: "BS-004", Price: decimal.RequireFromString("350.00"), CategoryID: &baseSet.ID,
	}))

	lo, hi := decimal.NewFromInt(300), decimal.NewFromInt(400)
	result, err := products.GetFilteredProducts(ProductFilters{
		Text:       "chari",
		CategoryID: &baseSet.ID,
		MinPrice:   &lo,
		MaxPrice:   &hi,
		Sort:       SortByPriceDesc,
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "BS-004", result[0].Code)

	assert.ErrorIs(t, categories.DeleteCategory(baseSet.ID), ErrCategoryInUse)
}

func TestSessionsRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionsRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	live := &Session{ID: "live", Identity: "admin", Authenticated: true, ExpiresAt: now.Add(time.Hour)}
	stale := &Session{ID: "stale", Identity: "admin", Authenticated: true, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.CreateSession(ctx, live))
	require.NoError(t, repo.CreateSession(ctx, stale))

	got, err := repo.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.True(t, got.Authenticated)
	assert.Equal(t, "admin", got.Identity)

	_, err = repo.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var n int64
	require.NoError(t, db.Model(&Session{}).Where("id = ?", "stale").Count(&n).Error)
	assert.Zero(t, n, "expired sessions are purged on lookup")

	require.NoError(t, repo.DeleteSession(ctx, "live"))
	require.NoError(t, repo.DeleteSession(ctx, "live"))
	_, err = repo.GetSession(ctx, "live")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = repo.GetSession(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
