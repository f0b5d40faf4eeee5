package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

// GetAllCategories returns every category ordered by name.
func (r *CategoriesRepository) GetAllCategories() ([]Category, error) {
	var categories []Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategorySummaries returns every category with its product count.
func (r *CategoriesRepository) GetCategorySummaries() ([]CategorySummary, error) {
	var summaries []CategorySummary
	err := r.db.Model(&Category{}).
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("summarize categories: %w", err)
	}
	return summaries, nil
}

func (r *CategoriesRepository) GetByID(id uint) (*Category, error) {
	var category Category
	if err := r.db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) CountCategories() (int64, error) {
	var n int64
	if err := r.db.Model(&Category{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CreateCategory inserts category. A duplicate name yields ErrCategoryNameTaken.
func (r *CategoriesRepository) CreateCategory(category *Category) error {
	if err := r.db.Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryNameTaken
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoriesRepository) UpdateCategory(category *Category) error {
	res := r.db.Model(&Category{}).
		Where("id = ?", category.ID).
		Select("name", "description").
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrCategoryNameTaken
		}
		return fmt.Errorf("update category %d: %w", category.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes a category that no product references.
// Categories still in use are kept and ErrCategoryInUse is returned.
func (r *CategoriesRepository) DeleteCategory(id uint) error {
	var n int64
	if err := r.db.Model(&Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("count products of category %d: %w", id, err)
	}
	if n > 0 {
		return ErrCategoryInUse
	}

	res := r.db.Delete(&Category{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete category %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
