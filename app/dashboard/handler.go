package dashboard

import (
	"net/http"

	"github.com/cardvault/catalog/app/web"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductCounter interface {
	CountProducts() (int64, error)
}

type CategoryCounter interface {
	CountCategories() (int64, error)
}

type DashboardHandler struct {
	products   ProductCounter
	categories CategoryCounter
	log        *zap.Logger
}

func NewDashboardHandler(p ProductCounter, c CategoryCounter, log *zap.Logger) *DashboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardHandler{products: p, categories: c, log: log}
}

// HandleIndex shows how many products and categories the catalog holds.
func (h *DashboardHandler) HandleIndex(c *gin.Context) {
	products, err := h.products.CountProducts()
	if err != nil {
		h.fail(c, err)
		return
	}
	categories, err := h.categories.CountCategories()
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"Title":         "Dashboard",
		"ProductCount":  products,
		"CategoryCount": categories,
	})
}

func (h *DashboardHandler) fail(c *gin.Context, err error) {
	h.log.Error("dashboard request failed", zap.Error(err))
	web.RenderError(c, err)
}
