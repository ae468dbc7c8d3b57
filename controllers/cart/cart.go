package cartControllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/shaper"
)

// Deps are shared by every cart handler.
type Deps struct {
	Service  *cart.Service
	Currency string
	Session  middleware.SessionOptions
	Logger   *zap.Logger
}

type AddItemInput struct {
	VariantID string `json:"variantId"`
	Quantity  *int   `json:"quantity"`
	Currency  string `json:"currency"`
}

type RemoveItemInput struct {
	ItemID    string `json:"itemId"`
	VariantID string `json:"variantId"`
}

type SyncItem struct {
	VariantRef   string           `json:"variantRef"`
	VariantID    string           `json:"variantId"` // Older clients send this instead of variantRef
	Quantity     int              `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	MaxAvailable *int             `json:"maxAvailable"`
}

type SyncInput struct {
	Items *[]SyncItem `json:"items"`
}

// GET /cart
func GetCartHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := d.Service.Get(c.Request.Context(), middleware.Identity(c))
		if err != nil {
			// The cart widget must always render.
			d.Logger.Error("load cart", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"ok": false, "error": cart.CodeInternal, "cart": shaper.Empty(d.Currency)})
			return
		}
		respondCart(c, d, snap)
	}
}

// POST /cart/items
func AddItemHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, d, cart.NewError(cart.CodeInvalidInput, "Invalid input: "+err.Error()))
			return
		}
		qty := 1
		if input.Quantity != nil {
			qty = *input.Quantity
		}

		snap, err := d.Service.AddItem(c.Request.Context(), middleware.Identity(c), cart.AddInput{
			VariantRef: input.VariantID,
			Quantity:   qty,
			Currency:   input.Currency,
		})
		if err != nil {
			respondError(c, d, err)
			return
		}
		respondCart(c, d, snap)
	}
}

// DELETE /cart/items, DELETE /user/cart/:variant_id
func RemoveItemHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// DELETE bodies are dropped by some proxies, so query params work too.
		input := RemoveItemInput{ItemID: c.Query("itemId"), VariantID: c.Query("variantId")}
		if v := c.Param("variant_id"); v != "" {
			input.VariantID = v
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				respondError(c, d, cart.NewError(cart.CodeInvalidInput, "Invalid input: "+err.Error()))
				return
			}
		}

		snap, err := d.Service.RemoveItem(c.Request.Context(), middleware.Identity(c), cart.RemoveInput{
			ItemID:     strings.TrimSpace(input.ItemID),
			VariantRef: strings.TrimSpace(input.VariantID),
		})
		if err != nil {
			respondError(c, d, err)
			return
		}
		respondCart(c, d, snap)
	}
}

// POST /cart/sync
func SyncCartHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input SyncInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, d, cart.NewError(cart.CodeInvalidInput, "Invalid input: "+err.Error()))
			return
		}
		if input.Items == nil {
			respondError(c, d, cart.NewError(cart.CodeInvalidInput, "items is required"))
			return
		}

		lines := make([]cart.SyncLine, 0, len(*input.Items))
		for _, it := range *input.Items {
			ref := it.VariantRef
			if ref == "" {
				ref = it.VariantID
			}
			lines = append(lines, cart.SyncLine{
				VariantRef:   ref,
				Quantity:     it.Quantity,
				UnitPrice:    it.UnitPrice,
				MaxAvailable: it.MaxAvailable,
			})
		}

		snap, err := d.Service.Sync(c.Request.Context(), middleware.Identity(c), lines)
		if err != nil {
			respondError(c, d, err)
			return
		}
		respondCart(c, d, snap)
	}
}

// GET /cart/active
func ActiveCartHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := d.Service.Probe(c.Request.Context(), middleware.Identity(c))
		if err != nil {
			d.Logger.Error("probe cart", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"ok": false, "error": cart.CodeInternal, "hasUserCart": false, "hasGuestCart": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":           true,
			"hasUserCart":  p.HasUserCart,
			"hasGuestCart": p.HasGuestCart,
			"cartId":       p.CartID,
			"itemCount":    p.ItemCount,
		})
	}
}

// DELETE /cart
func ClearCartHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := d.Service.Clear(c.Request.Context(), middleware.Identity(c)); err != nil {
			respondError(c, d, err)
			return
		}
		middleware.ClearSessionCookies(c, d.Session)
		c.JSON(http.StatusOK, gin.H{"ok": true, "cart": shaper.Empty(d.Currency)})
	}
}

// PUT /cart/address
func SetAddressHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var addr models.Address
		if err := c.ShouldBindJSON(&addr); err != nil {
			respondError(c, d, cart.NewError(cart.CodeInvalidInput, "Invalid input: "+err.Error()))
			return
		}
		snap, err := d.Service.SetAddress(c.Request.Context(), middleware.Identity(c), addr)
		if err != nil {
			respondError(c, d, err)
			return
		}
		respondCart(c, d, snap)
	}
}

func respondCart(c *gin.Context, d Deps, snap *cart.Snapshot) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "cart": shaper.Shape(snap, d.Currency)})
}

func respondError(c *gin.Context, d Deps, err error) {
	e, ok := cart.AsError(err)
	if !ok {
		d.Logger.Error("cart request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": cart.CodeInternal, "message": "Something went wrong"})
		return
	}
	body := gin.H{"ok": false, "error": e.Code, "message": e.Message}
	if e.Available != nil {
		body["available"] = *e.Available
	}
	c.JSON(StatusFor(e.Code), body)
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code cart.Code) int {
	switch code {
	case cart.CodeMissingVariant, cart.CodeMissingIdentifier, cart.CodeInvalidInput:
		return http.StatusBadRequest
	case cart.CodeOutOfStock, cart.CodeLimitExceeded:
		return http.StatusConflict
	case cart.CodeVariantNotFound, cart.CodeLineNotFound:
		return http.StatusNotFound
	case cart.CodePriceNotAvailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
