package models

import "time"

// Category represents a card expansion that groups products.
// Names are unique across the catalog.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	CreatedAt   time.Time
}

func (c *Category) TableName() string {
	return "categories"
}

// CategorySummary is a category together with the number of products
// that reference it.
type CategorySummary struct {
	Category
	ProductCount int64
}
