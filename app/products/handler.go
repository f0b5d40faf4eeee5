package products

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/app/web"
	"github.com/cardvault/catalog/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const listPath = "/admin/products"

type ProductProvider interface {
	GetAllProducts() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	CreateProduct(product *models.Product) error
	UpdateProduct(product *models.Product) error
	DeleteProduct(id uint) error
}

type CategoryLister interface {
	GetAllCategories() ([]models.Category, error)
}

// ImageAttacher stores product images alongside record writes.
type ImageAttacher interface {
	Attach(ctx context.Context, previous string, upload *multipart.FileHeader, commit func(imagePath string) error) (string, error)
	Remove(ctx context.Context, imagePath string) error
}

// ProductForm is the add/edit form payload. Price and category are kept as
// submitted so a rejected form can be shown again unchanged.
type ProductForm struct {
	Name           string `form:"name" binding:"required"`
	Code           string `form:"code" binding:"required"`
	Price          string `form:"price" binding:"required"`
	CategoryID     string `form:"category_id"`
	AdditionalInfo string `form:"additional_info"`
}

var (
	errMissingFields = errors.New("name, code and price are required")
	errInvalidPrice  = errors.New("price must be a non-negative number")
)

// apply validates the form and copies it onto product.
func (f ProductForm) apply(product *models.Product) error {
	name := strings.TrimSpace(f.Name)
	code := strings.TrimSpace(f.Code)
	if name == "" || code == "" || strings.TrimSpace(f.Price) == "" {
		return errMissingFields
	}

	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil || price.IsNegative() {
		return errInvalidPrice
	}

	var categoryID *uint
	if raw := strings.TrimSpace(f.CategoryID); raw != "" {
		id, err := web.ParseID(raw)
		if err != nil {
			return models.ErrCategoryNotFound
		}
		categoryID = &id
	}

	product.Name = name
	product.Code = code
	product.Price = price.Round(2)
	product.CategoryID = categoryID
	product.AdditionalInfo = strings.TrimSpace(f.AdditionalInfo)
	return nil
}

func formOf(p *models.Product) ProductForm {
	form := ProductForm{
		Name:           p.Name,
		Code:           p.Code,
		Price:          p.Price.StringFixed(2),
		AdditionalInfo: p.AdditionalInfo,
	}
	if p.CategoryID != nil {
		form.CategoryID = strconv.FormatUint(uint64(*p.CategoryID), 10)
	}
	return form
}

type ProductHandler struct {
	products   ProductProvider
	categories CategoryLister
	images     ImageAttacher
	log        *zap.Logger
}

func NewProductHandler(p ProductProvider, c CategoryLister, images ImageAttacher, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{
		products:   p,
		categories: c,
		images:     images,
		log:        log,
	}
}

func (h *ProductHandler) HandleGetAll(c *gin.Context) {
	products, err := h.products.GetAllProducts()
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "admin_products.html", gin.H{
		"Title":    "Products",
		"Products": products,
	})
}

func (h *ProductHandler) HandleNew(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "Add product", "/admin/products/add", ProductForm{}, "")
}

func (h *ProductHandler) HandleCreate(c *gin.Context) {
	var input ProductForm
	if err := c.ShouldBind(&input); err != nil {
		h.rejectForm(c, "Add product", "/admin/products/add", input, "", errMissingFields)
		return
	}

	product := &models.Product{}
	if err := input.apply(product); err != nil {
		h.rejectForm(c, "Add product", "/admin/products/add", input, "", err)
		return
	}

	_, err := h.images.Attach(c.Request.Context(), "", upload(c), func(imagePath string) error {
		product.ImagePath = imagePath
		return h.products.CreateProduct(product)
	})
	if err != nil {
		h.rejectForm(c, "Add product", "/admin/products/add", input, "", err)
		return
	}

	h.log.Info("product created", zap.Uint("product_id", product.ID), zap.String("code", product.Code))
	web.RedirectWithFlash(c, listPath, session.Success, "Product created successfully")
}

func (h *ProductHandler) HandleEdit(c *gin.Context) {
	product, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, "Edit product", editPath(product.ID), formOf(product), product.ImagePath)
}

// HandleUpdate saves the form over an existing product. Without a new image
// the current one is kept.
func (h *ProductHandler) HandleUpdate(c *gin.Context) {
	product, ok := h.load(c)
	if !ok {
		return
	}
	previous := product.ImagePath

	var input ProductForm
	if err := c.ShouldBind(&input); err != nil {
		h.rejectForm(c, "Edit product", editPath(product.ID), input, previous, errMissingFields)
		return
	}

	if err := input.apply(product); err != nil {
		h.rejectForm(c, "Edit product", editPath(product.ID), input, previous, err)
		return
	}
	product.Category = nil

	_, err := h.images.Attach(c.Request.Context(), previous, upload(c), func(imagePath string) error {
		product.ImagePath = imagePath
		return h.products.UpdateProduct(product)
	})
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			web.RedirectWithFlash(c, listPath, session.Warning, "Product not found")
			return
		}
		h.rejectForm(c, "Edit product", editPath(product.ID), input, previous, err)
		return
	}

	web.RedirectWithFlash(c, listPath, session.Success, "Product updated successfully")
}

// HandleDelete removes the product row, then its image file.
func (h *ProductHandler) HandleDelete(c *gin.Context) {
	product, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(product.ID); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			web.RedirectWithFlash(c, listPath, session.Warning, "Product not found")
			return
		}
		h.fail(c, err)
		return
	}

	if err := h.images.Remove(c.Request.Context(), product.ImagePath); err != nil {
		h.log.Warn("product image not removed",
			zap.Uint("product_id", product.ID),
			zap.String("image_path", product.ImagePath),
			zap.Error(err))
	}

	h.log.Info("product deleted", zap.Uint("product_id", product.ID))
	web.RedirectWithFlash(c, listPath, session.Success, "Product deleted successfully")
}

func (h *ProductHandler) load(c *gin.Context) (*models.Product, bool) {
	id, err := web.ParseID(c.Param("id"))
	if err != nil {
		web.RedirectWithFlash(c, listPath, session.Warning, "Product not found")
		return nil, false
	}

	product, err := h.products.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			web.RedirectWithFlash(c, listPath, session.Warning, "Product not found")
			return nil, false
		}
		h.fail(c, err)
		return nil, false
	}
	return product, true
}

// rejectForm shows the form again with a message matching err. Storage
// failures get the error page instead.
func (h *ProductHandler) rejectForm(c *gin.Context, title, action string, form ProductForm, imagePath string, err error) {
	var code int
	switch {
	case errors.Is(err, errMissingFields):
		code = http.StatusBadRequest
		session.AddFlash(c, session.Warning, "Name, code and price are required")
	case errors.Is(err, errInvalidPrice):
		code = http.StatusBadRequest
		session.AddFlash(c, session.Warning, "Price must be a non-negative number")
	case errors.Is(err, models.ErrCategoryNotFound):
		code = http.StatusBadRequest
		session.AddFlash(c, session.Warning, "Selected category does not exist")
	case errors.Is(err, models.ErrProductCodeTaken):
		code = http.StatusConflict
		session.AddFlash(c, session.Warning, "Product code must be unique")
	default:
		h.fail(c, err)
		return
	}
	h.renderForm(c, code, title, action, form, imagePath)
}

func (h *ProductHandler) renderForm(c *gin.Context, code int, title, action string, form ProductForm, imagePath string) {
	categories, err := h.categories.GetAllCategories()
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, code, "admin_product_form.html", gin.H{
		"Title":      title,
		"Action":     action,
		"Form":       form,
		"ImagePath":  imagePath,
		"Categories": categories,
	})
}

func (h *ProductHandler) fail(c *gin.Context, err error) {
	h.log.Error("product request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	web.RenderError(c, err)
}

// upload returns the submitted image, or nil when none was sent.
func upload(c *gin.Context) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil || fh.Filename == "" {
		return nil
	}
	return fh
}

func editPath(id uint) string {
	return "/admin/products/edit/" + strconv.FormatUint(uint64(id), 10)
}
