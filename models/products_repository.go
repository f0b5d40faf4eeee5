package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// GetAllProducts returns every product ordered by name.
func (r *ProductsRepository) GetAllProducts() ([]Product, error) {
	return r.GetFilteredProducts(ProductFilters{Sort: SortByName})
}

// GetFilteredProducts returns every product matching filters, joined with its
// category and ordered by filters.Sort. There is no pagination.
func (r *ProductsRepository) GetFilteredProducts(filters ProductFilters) ([]Product, error) {
	var products []Product

	query := r.db.Model(&Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Preload("Category")

	for _, p := range filters.predicates() {
		query = query.Where(p.clause, p.args...)
	}

	if err := query.Order(filters.orderBy()).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetByCategory returns the products of one category ordered by name.
func (r *ProductsRepository) GetByCategory(categoryID uint) ([]Product, error) {
	return r.GetFilteredProducts(ProductFilters{CategoryID: &categoryID, Sort: SortByName})
}

func (r *ProductsRepository) GetByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

func (r *ProductsRepository) CountProducts() (int64, error) {
	var n int64
	if err := r.db.Model(&Product{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CreateProduct inserts product. A duplicate code yields ErrProductCodeTaken
// and a dangling category reference yields ErrCategoryNotFound.
func (r *ProductsRepository) CreateProduct(product *Product) error {
	if err := r.checkCategory(product.CategoryID); err != nil {
		return err
	}
	if err := r.db.Omit("Category").Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrProductCodeTaken
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// UpdateProduct overwrites every editable column of an existing product.
func (r *ProductsRepository) UpdateProduct(product *Product) error {
	if err := r.checkCategory(product.CategoryID); err != nil {
		return err
	}
	res := r.db.Model(&Product{}).
		Where("id = ?", product.ID).
		Select("name", "code", "price", "image_path", "category_id", "additional_info").
		Updates(map[string]any{
			"name":            product.Name,
			"code":            product.Code,
			"price":           product.Price,
			"image_path":      product.ImagePath,
			"category_id":     product.CategoryID,
			"additional_info": product.AdditionalInfo,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrProductCodeTaken
		}
		return fmt.Errorf("update product %d: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductsRepository) DeleteProduct(id uint) error {
	res := r.db.Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetImagePath returns the stored image path of a product, "" if it has none.
func (r *ProductsRepository) GetImagePath(id uint) (string, error) {
	var product Product
	if err := r.db.Select("id", "image_path").Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProductNotFound
		}
		return "", err
	}
	return product.ImagePath, nil
}

func (r *ProductsRepository) checkCategory(categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var n int64
	if err := r.db.Model(&Category{}).Where("id = ?", *categoryID).Count(&n).Error; err != nil {
		return fmt.Errorf("check category %d: %w", *categoryID, err)
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
