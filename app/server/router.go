package server

import (
	"net/http"

	"github.com/cardvault/catalog/app/assets"
	"github.com/cardvault/catalog/app/auth"
	"github.com/cardvault/catalog/app/catalog"
	"github.com/cardvault/catalog/app/categories"
	"github.com/cardvault/catalog/app/dashboard"
	"github.com/cardvault/catalog/app/logging"
	"github.com/cardvault/catalog/app/products"
	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/app/web"
	"github.com/cardvault/catalog/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	DB       *gorm.DB
	Sessions *session.Manager
	Storage  assets.Storage
	Log      *zap.Logger
}

// SetupRouter wires repositories, handlers and middleware into a gin engine.
func SetupRouter(d Deps) (*gin.Engine, error) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	productsRepo := models.NewProductsRepository(d.DB)
	categoriesRepo := models.NewCategoriesRepository(d.DB)
	images := assets.NewManager(d.Storage, log.Named("assets"))

	tmpl, err := web.Templates(images.URL)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(logging.Middleware(log.Named("http")), gin.Recovery(), d.Sessions.Load())
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = 16 << 20

	if local, ok := d.Storage.(*assets.LocalStorage); ok {
		r.Static("/static/uploads", local.Dir())
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	storefront := catalog.NewCatalogHandler(productsRepo, categoriesRepo, log.Named("catalog"))
	r.GET("/", storefront.HandleIndex)
	r.GET("/category/:id", storefront.HandleCategory)
	r.GET("/search", storefront.HandleSearch)
	r.GET("/api/product/image/:id", storefront.HandleGetProductImage)

	authHandler := auth.NewAuthHandler(auth.NewVerifier(), d.Sessions, log.Named("auth"))
	r.GET("/login", authHandler.HandleLoginForm)
	r.POST("/login", authHandler.HandleLogin)
	r.GET("/logout", authHandler.HandleLogout)

	admin := r.Group("/admin", session.RequireAdmin())
	{
		dash := dashboard.NewDashboardHandler(productsRepo, categoriesRepo, log.Named("dashboard"))
		admin.GET("", dash.HandleIndex)

		ph := products.NewProductHandler(productsRepo, categoriesRepo, images, log.Named("products"))
		admin.GET("/products", ph.HandleGetAll)
		admin.GET("/products/add", ph.HandleNew)
		admin.POST("/products/add", ph.HandleCreate)
		admin.GET("/products/edit/:id", ph.HandleEdit)
		admin.POST("/products/edit/:id", ph.HandleUpdate)
		admin.POST("/products/delete/:id", ph.HandleDelete)

		ch := categories.NewCategoryHandler(categoriesRepo, log.Named("categories"))
		admin.GET("/categories", ch.HandleGetAll)
		admin.GET("/categories/add", ch.HandleNew)
		admin.POST("/categories/add", ch.HandleCreate)
		admin.GET("/categories/edit/:id", ch.HandleEdit)
		admin.POST("/categories/edit/:id", ch.HandleUpdate)
		admin.POST("/categories/delete/:id", ch.HandleDelete)
	}

	return r, nil
}
