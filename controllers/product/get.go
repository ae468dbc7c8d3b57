package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/cart"
)

// GetVariantAvailability returns the per-line ceiling and price the cart
// applies to a variant. The ref may be an id, a legacy numeric id or a SKU.
// URL param: /variants/:ref/availability
func GetVariantAvailability(svc *cart.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("ref")
		if ref == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": cart.CodeMissingVariant})
			return
		}

		a, err := svc.Availability(c.Request.Context(), ref, c.Query("currency"))
		if err != nil {
			if e, ok := cart.AsError(err); ok {
				status := http.StatusBadRequest
				if e.Code == cart.CodeVariantNotFound {
					status = http.StatusNotFound
				}
				c.JSON(status, gin.H{"ok": false, "error": e.Code, "message": e.Message})
				return
			}
			log.Error("variant availability", zap.String("ref", ref), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": cart.CodeInternal})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "variant": a})
	}
}
