package models

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrProductCodeTaken is returned when another product already uses the code.
	ErrProductCodeTaken = errors.New("product code must be unique")
	// ErrCategoryNameTaken is returned when another category already uses the name.
	ErrCategoryNameTaken = errors.New("category name must be unique")
	// ErrCategoryInUse is returned when deleting a category that still has products.
	ErrCategoryInUse = errors.New("category has associated products")
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// isUniqueViolation reports whether err comes from a unique constraint.
// The gorm dialectors translate their own driver errors; lib/pq errors
// surface untranslated when postgres is opened through database/sql.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
