package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/totals"
)

// Store persists carts and lines. Cart listings are ordered most recently
// updated first; Items is ordered most recently updated first as well.
type Store interface {
	ActiveCartsForUser(ctx context.Context, userID string) ([]models.Cart, error)
	// ActiveCartsForSession only returns carts that no user has claimed.
	ActiveCartsForSession(ctx context.Context, sessionID string) ([]models.Cart, error)
	ActiveCarts(ctx context.Context, limit int) ([]models.Cart, error)
	CreateCart(ctx context.Context, c *models.Cart) error
	SaveCart(ctx context.Context, c *models.Cart) error
	DeleteCart(ctx context.Context, cartID string) error
	AbandonStale(ctx context.Context, before time.Time) (int64, error)

	Items(ctx context.Context, cartID string) ([]models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItems(ctx context.Context, ids ...string) error
	DeleteCartItems(ctx context.Context, cartID string) error

	// Transaction runs fn atomically; any error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// Catalog is the read-only view of the external product catalog. Lookups
// return a nil variant without error when nothing matches.
type Catalog interface {
	Variants(ctx context.Context, ids []string) (map[string]*models.Variant, error)
	VariantByExternalID(ctx context.Context, externalID int64) (*models.Variant, error)
	VariantBySKU(ctx context.Context, sku string) (*models.Variant, error)
}

// Settings supplies totals configuration. Implementations never fail; they
// fall back to zero-effect values.
type Settings interface {
	Shipping(ctx context.Context) totals.ShippingConfig
	VAT(ctx context.Context) totals.VATConfig
	Promotions(ctx context.Context, cartID string) []decimal.Decimal
}

type EventType string

const (
	EventUpdated   EventType = "cart.updated"
	EventMerged    EventType = "cart.merged"
	EventClaimed   EventType = "cart.claimed"
	EventConverted EventType = "cart.converted"
)

type Event struct {
	Type       EventType `json:"type"`
	CartID     string    `json:"cart_id"`
	UserID     string    `json:"user_id,omitempty"`
	SessionID  string    `json:"-"`
	MergedFrom string    `json:"merged_from,omitempty"`
	ItemCount  int       `json:"item_count"`
	GrandTotal string    `json:"grand_total"`
	At         time.Time `json:"at"`
}

// Notifier receives events after the transaction that produced them commits.
// Delivery is best effort.
type Notifier interface {
	CartChanged(ctx context.Context, e Event)
}

// Observer receives counters for monitoring. All methods may be no-ops.
type Observer interface {
	Merged()
	Clamped(reason string)
	GhostLinesPurged(n int)
}
