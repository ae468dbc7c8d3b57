package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupCartRoutes registers all "/cart/*" endpoints.
func SetupCartRoutes(r *gin.Engine, d Deps) {
	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.NoStore(), middleware.Session(d.Cart.Session))

	// Sockets outlive the request timeout.
	if d.Hub != nil {
		cartGroup.GET("/ws", d.Hub.Handler())
	}

	api := cartGroup.Group("", middleware.Timeout(d.Timeout))
	{
		// Read the cart, claiming or merging a guest cart after login
		api.GET("", cartControllers.GetCartHandler(d.Cart))

		// Add or decrement a line
		api.POST("/items", cartControllers.AddItemHandler(d.Cart))

		// Remove a line by id or variant
		api.DELETE("/items", cartControllers.RemoveItemHandler(d.Cart))

		// Replace the line set with the client's local cart
		api.POST("/sync", cartControllers.SyncCartHandler(d.Cart))

		// Existence probe; the session cookie is minted by the middleware
		api.GET("/active", cartControllers.ActiveCartHandler(d.Cart))

		// Shipping destination used for zone lookup
		api.PUT("/address", cartControllers.SetAddressHandler(d.Cart))

		// Empty the cart and forget the session
		api.DELETE("", cartControllers.ClearCartHandler(d.Cart))
	}
}
