package categories

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/app/web"
	"github.com/cardvault/catalog/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const listPath = "/admin/categories"

type CategoryProvider interface {
	GetCategorySummaries() ([]models.CategorySummary, error)
	GetByID(id uint) (*models.Category, error)
	CreateCategory(category *models.Category) error
	UpdateCategory(category *models.Category) error
	DeleteCategory(id uint) error
}

// CategoryForm is the add/edit form payload.
type CategoryForm struct {
	Name        string `form:"name" binding:"required"`
	Description string `form:"description"`
}

type CategoryHandler struct {
	repo CategoryProvider
	log  *zap.Logger
}

func NewCategoryHandler(r CategoryProvider, log *zap.Logger) *CategoryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryHandler{repo: r, log: log}
}

func (h *CategoryHandler) HandleGetAll(c *gin.Context) {
	categories, err := h.repo.GetCategorySummaries()
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "admin_categories.html", gin.H{
		"Title":      "Categories",
		"Categories": categories,
	})
}

func (h *CategoryHandler) HandleNew(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "Add category", "/admin/categories/add", CategoryForm{})
}

func (h *CategoryHandler) HandleCreate(c *gin.Context) {
	var input CategoryForm
	if err := c.ShouldBind(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		session.AddFlash(c, session.Warning, "Category name is required")
		h.renderForm(c, http.StatusBadRequest, "Add category", "/admin/categories/add", input)
		return
	}

	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}

	if err := h.repo.CreateCategory(category); err != nil {
		if errors.Is(err, models.ErrCategoryNameTaken) {
			session.AddFlash(c, session.Warning, "Category name must be unique")
			h.renderForm(c, http.StatusConflict, "Add category", "/admin/categories/add", input)
			return
		}
		h.fail(c, err)
		return
	}

	h.log.Info("category created", zap.Uint("category_id", category.ID), zap.String("name", category.Name))
	web.RedirectWithFlash(c, listPath, session.Success, "Category created successfully")
}

func (h *CategoryHandler) HandleEdit(c *gin.Context) {
	category, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, "Edit category", editPath(category.ID), CategoryForm{
		Name:        category.Name,
		Description: category.Description,
	})
}

func (h *CategoryHandler) HandleUpdate(c *gin.Context) {
	category, ok := h.load(c)
	if !ok {
		return
	}

	var input CategoryForm
	if err := c.ShouldBind(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		session.AddFlash(c, session.Warning, "Category name is required")
		h.renderForm(c, http.StatusBadRequest, "Edit category", editPath(category.ID), input)
		return
	}

	category.Name = strings.TrimSpace(input.Name)
	category.Description = strings.TrimSpace(input.Description)

	if err := h.repo.UpdateCategory(category); err != nil {
		switch {
		case errors.Is(err, models.ErrCategoryNameTaken):
			session.AddFlash(c, session.Warning, "Category name must be unique")
			h.renderForm(c, http.StatusConflict, "Edit category", editPath(category.ID), input)
		case errors.Is(err, models.ErrCategoryNotFound):
			web.RedirectWithFlash(c, listPath, session.Warning, "Category not found")
		default:
			h.fail(c, err)
		}
		return
	}

	web.RedirectWithFlash(c, listPath, session.Success, "Category updated successfully")
}

// HandleDelete removes a category. Categories that still have products are
// kept and the operator is told why.
func (h *CategoryHandler) HandleDelete(c *gin.Context) {
	id, err := web.ParseID(c.Param("id"))
	if err != nil {
		web.RedirectWithFlash(c, listPath, session.Warning, "Category not found")
		return
	}

	if err := h.repo.DeleteCategory(id); err != nil {
		switch {
		case errors.Is(err, models.ErrCategoryInUse):
			web.RedirectWithFlash(c, listPath, session.Danger, "Cannot delete category: it still has products")
		case errors.Is(err, models.ErrCategoryNotFound):
			web.RedirectWithFlash(c, listPath, session.Warning, "Category not found")
		default:
			h.fail(c, err)
		}
		return
	}

	h.log.Info("category deleted", zap.Uint("category_id", id))
	web.RedirectWithFlash(c, listPath, session.Success, "Category deleted successfully")
}

// load resolves the :id parameter, redirecting to the list when it does not
// name a category.
func (h *CategoryHandler) load(c *gin.Context) (*models.Category, bool) {
	id, err := web.ParseID(c.Param("id"))
	if err != nil {
		web.RedirectWithFlash(c, listPath, session.Warning, "Category not found")
		return nil, false
	}

	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			web.RedirectWithFlash(c, listPath, session.Warning, "Category not found")
			return nil, false
		}
		h.fail(c, err)
		return nil, false
	}
	return category, true
}

func (h *CategoryHandler) renderForm(c *gin.Context, code int, title, action string, form CategoryForm) {
	web.Render(c, code, "admin_category_form.html", gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
	})
}

func (h *CategoryHandler) fail(c *gin.Context, err error) {
	h.log.Error("category request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	web.RenderError(c, err)
}

func editPath(id uint) string {
	return "/admin/categories/edit/" + strconv.FormatUint(uint64(id), 10)
}
