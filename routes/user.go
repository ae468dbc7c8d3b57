package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupUserRoutes keeps the old "/user/cart" paths working for app builds
// that have not moved to "/cart".
func SetupUserRoutes(r *gin.Engine, d Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.NoStore(), middleware.Session(d.Cart.Session), middleware.Timeout(d.Timeout))
	{
		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetCartHandler(d.Cart))                   // GET /user/cart
			cartGroup.POST("", cartControllers.AddItemHandler(d.Cart))                  // POST /user/cart
			cartGroup.DELETE("/:variant_id", cartControllers.RemoveItemHandler(d.Cart)) // DELETE /user/cart/:variant_id
			cartGroup.DELETE("", cartControllers.ClearCartHandler(d.Cart))              // DELETE /user/cart
		}
	}
}
