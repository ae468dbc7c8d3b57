package routes

import (
	"github.com/gin-gonic/gin"

	adminController "github.com/junaidrashid-git/storefront-api/controllers/admin"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(d.APIKey), middleware.NoStore())
	{
		// ─────────── Cart Inspection ───────────
		adminGroup.GET("/user-cart/:user_id", adminController.GetUserCart(d.Admin))
		adminGroup.GET("/carts/export", adminController.ExportCartsToExcel(d.Admin))

		// ─────────── Settings ───────────
		adminGroup.POST("/settings/invalidate", adminController.InvalidateSettings(d.Admin))
	}
}
