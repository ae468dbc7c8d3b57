package adminController

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/shaper"
)

// Invalidator drops cached storefront settings.
type Invalidator interface {
	Invalidate(cartIDs ...string)
}

type Deps struct {
	Service  *cart.Service
	Settings Invalidator
	Currency string
	Logger   *zap.Logger
}

// GetUserCart returns a user's active cart in the storefront shape.
func GetUserCart(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Param("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		snap, err := d.Service.ForUser(c.Request.Context(), userID)
		if err != nil {
			d.Logger.Error("admin: load user cart", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		if snap.Cart == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}
		c.JSON(http.StatusOK, shaper.Shape(snap, d.Currency))
	}
}

type invalidateInput struct {
	CartIDs []string `json:"cartIds"`
}

// InvalidateSettings drops cached shipping, VAT and promotion settings so
// edits made in the back office apply on the next cart read.
func InvalidateSettings(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input invalidateInput
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
				return
			}
		}
		d.Settings.Invalidate(input.CartIDs...)
		d.Logger.Info("admin: settings cache invalidated", zap.Int("carts", len(input.CartIDs)))
		c.JSON(http.StatusOK, gin.H{"message": "Settings cache cleared"})
	}
}
