package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a card in the catalog.
// It includes a unique code, price, optional category and optional image.
type Product struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"not null"`
	Code           string          `gorm:"uniqueIndex;not null"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ImagePath      string
	CategoryID     *uint     `gorm:"index"`
	Category       *Category `gorm:"foreignKey:CategoryID"`
	AdditionalInfo string
	CreatedAt      time.Time
}

func (p *Product) TableName() string {
	return "products"
}

// CategoryName returns the name of the joined category, or "" when the
// product has none.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
