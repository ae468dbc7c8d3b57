package routes

import (
	"github.com/gin-gonic/gin"

	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupProductRoutes registers public catalog lookups used by product pages.
func SetupProductRoutes(r *gin.Engine, d Deps) {
	variants := r.Group("/variants")
	variants.Use(middleware.NoStore(), middleware.Timeout(d.Timeout))
	{
		// Quantity ceiling and price for a variant id, legacy id or SKU
		variants.GET("/:ref/availability", productcontroller.GetVariantAvailability(d.Cart.Service, d.Cart.Logger))
	}
}
