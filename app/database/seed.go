package database

import (
	"errors"
	"fmt"

	"github.com/cardvault/catalog/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedCategory struct {
	name        string
	description string
	products    []seedProduct
}

type seedProduct struct {
	name  string
	code  string
	price string
	info  string
}

var sampleCatalog = []seedCategory{
	{
		name:        "Base Set",
		description: "The original 1999 expansion.",
		products: []seedProduct{
			{name: "Charizard", code: "BS-004", price: "350.00", info: "Holo rare"},
			{name: "Blastoise", code: "BS-002", price: "120.00", info: "Holo rare"},
			{name: "Pikachu", code: "BS-058", price: "8.50"},
		},
	},
	{
		name:        "Jungle",
		description: "Second expansion, released June 1999.",
		products: []seedProduct{
			{name: "Snorlax", code: "JU-011", price: "25.00", info: "Holo rare"},
			{name: "Scyther", code: "JU-010", price: "22.00"},
		},
	},
	{
		name:        "Fossil",
		description: "Third expansion, released October 1999.",
		products: []seedProduct{
			{name: "Gengar", code: "FO-005", price: "40.00", info: "Holo rare"},
		},
	},
}

// Seed fills an empty catalog with sample data. Entries that already exist
// are left alone, so it can be run more than once.
func Seed(db *gorm.DB, log *zap.Logger) error {
	categories := models.NewCategoriesRepository(db)
	products := models.NewProductsRepository(db)

	for _, sc := range sampleCatalog {
		category := &models.Category{Name: sc.name, Description: sc.description}
		err := categories.CreateCategory(category)
		switch {
		case errors.Is(err, models.ErrCategoryNameTaken):
			if err := db.Where("name = ?", sc.name).First(category).Error; err != nil {
				return fmt.Errorf("load category %q: %w", sc.name, err)
			}
		case err != nil:
			return err
		default:
			log.Info("seeded category", zap.String("name", sc.name))
		}

		for _, sp := range sc.products {
			categoryID := category.ID
			product := &models.Product{
				Name:           sp.name,
				Code:           sp.code,
				Price:          decimal.RequireFromString(sp.price),
				CategoryID:     &categoryID,
				AdditionalInfo: sp.info,
			}
			err := products.CreateProduct(product)
			switch {
			case errors.Is(err, models.ErrProductCodeTaken):
				continue
			case err != nil:
				return err
			}
			log.Info("seeded product", zap.String("code", sp.code))
		}
	}
	return nil
}
