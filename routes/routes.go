package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	adminController "github.com/junaidrashid-git/storefront-api/controllers/admin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/metrics"
)

type Deps struct {
	DB      *gorm.DB
	Cart    cartControllers.Deps
	Admin   adminController.Deps
	Hub     *cartControllers.Hub
	Metrics *metrics.Metrics
	APIKey  string
	Timeout time.Duration
}

// SetupRoutes is the single entry-point that wires up the cart, legacy cart,
// catalog and admin route groups.
func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", healthHandler(d.DB))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Storefront cart (session cookie + optional bearer token)
	SetupCartRoutes(r, d)

	// Previous storefront paths
	SetupUserRoutes(r, d)

	// Catalog lookups
	SetupProductRoutes(r, d)

	// Back office (API-Key protected)
	SetupAdminRoutes(r, d)
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
