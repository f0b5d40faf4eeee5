package catalog

import (
	"errors"
	"net/http"

	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/app/web"
	"github.com/cardvault/catalog/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductProvider interface {
	GetAllProducts() ([]models.Product, error)
	GetFilteredProducts(filters models.ProductFilters) ([]models.Product, error)
	GetByCategory(categoryID uint) ([]models.Product, error)
	GetImagePath(id uint) (string, error)
}

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
}

// CatalogHandler serves the public storefront.
type CatalogHandler struct {
	products   ProductProvider
	categories CategoryProvider
	log        *zap.Logger
}

func NewCatalogHandler(p ProductProvider, c CategoryProvider, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{
		products:   p,
		categories: c,
		log:        log,
	}
}

func (h *CatalogHandler) HandleIndex(c *gin.Context) {
	categories, err := h.categories.GetAllCategories()
	if err != nil {
		h.fail(c, err)
		return
	}
	products, err := h.products.GetAllProducts()
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "index.html", gin.H{
		"Categories": categories,
		"Products":   products,
	})
}

func (h *CatalogHandler) HandleCategory(c *gin.Context) {
	id, err := web.ParseID(c.Param("id"))
	if err != nil {
		web.RedirectWithFlash(c, "/", session.Warning, "Category not found")
		return
	}

	category, err := h.categories.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			web.RedirectWithFlash(c, "/", session.Warning, "Category not found")
			return
		}
		h.fail(c, err)
		return
	}

	products, err := h.products.GetByCategory(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "category.html", gin.H{
		"Title":    category.Name,
		"Category": category,
		"Products": products,
	})
}

// HandleSearch lists products matching the query string. Filters that do
// not parse are left out rather than rejected.
func (h *CatalogHandler) HandleSearch(c *gin.Context) {
	q := c.Request.URL.Query()
	filters := models.ParseProductFilters(q)

	categories, err := h.categories.GetAllCategories()
	if err != nil {
		h.fail(c, err)
		return
	}
	products, err := h.products.GetFilteredProducts(filters)
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "search.html", gin.H{
		"Title":      "Search",
		"Products":   products,
		"Categories": categories,
		"Query":      q.Get("query"),
		"CategoryID": q.Get("category_id"),
		"MinPrice":   q.Get("min_price"),
		"MaxPrice":   q.Get("max_price"),
		"SortBy":     string(filters.Sort),
	})
}

// HandleGetProductImage returns {"image_path": ...} or a 404 {"error": ...}.
func (h *CatalogHandler) HandleGetProductImage(c *gin.Context) {
	notFound := gin.H{"error": "image not found"}

	id, err := web.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, notFound)
		return
	}

	imagePath, err := h.products.GetImagePath(id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, notFound)
			return
		}
		h.log.Error("load product image", zap.Uint("product_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get product image"})
		return
	}
	if imagePath == "" {
		c.JSON(http.StatusNotFound, notFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_path": imagePath})
}

func (h *CatalogHandler) fail(c *gin.Context, err error) {
	h.log.Error("storefront request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	web.RenderError(c, err)
}
