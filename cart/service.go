// Package cart keeps exactly one consistent ACTIVE cart per visitor. Every
// mutation runs in one transaction and ends by healing the line set and
// re-deriving totals from it.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/stock"
	"github.com/junaidrashid-git/storefront-api/totals"
)

// Identity is who a request acts for. SessionID is set for every request
// that went through the session middleware, signed in or not.
type Identity struct {
	UserID    string
	SessionID string
}

func (i Identity) Empty() bool {
	return i.UserID == "" && i.SessionID == ""
}

// DroppedLine is a sync entry that could not become a cart line.
type DroppedLine struct {
	Ref    string `json:"ref"`
	Reason Code   `json:"reason"`
}

// Snapshot is a cart with its live lines and freshly computed totals. Cart is
// nil when the identity has no active cart.
type Snapshot struct {
	Cart    *models.Cart
	Items   []models.CartItem
	Totals  totals.Totals
	Dropped []DroppedLine
}

// Count is the total number of units in the cart.
func (s *Snapshot) Count() int {
	n := 0
	for _, it := range s.Items {
		if it.Quantity > 0 {
			n += it.Quantity
		}
	}
	return n
}

type Options struct {
	DefaultCurrency string
	// UnknownPolicy applies to adds and syncs. Merges always allow.
	UnknownPolicy stock.UnknownPolicy
	Notifiers     []Notifier
	Observer      Observer
	Logger        *zap.Logger
	Now           func() time.Time
}

type Service struct {
	store     Store
	catalog   Catalog
	stock     *stock.Resolver
	settings  Settings
	pricer    *Pricer
	policy    stock.UnknownPolicy
	currency  string
	notifiers []Notifier
	obs       Observer
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store Store, catalog Catalog, resolver *stock.Resolver, settings Settings, opts Options) *Service {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "BDT"
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	currency := strings.ToUpper(opts.DefaultCurrency)
	return &Service{
		store:     store,
		catalog:   catalog,
		stock:     resolver,
		settings:  settings,
		pricer:    NewPricer(currency),
		policy:    opts.UnknownPolicy,
		currency:  currency,
		notifiers: opts.Notifiers,
		obs:       opts.Observer,
		log:       opts.Logger,
		now:       opts.Now,
	}
}

// txn is a transactional store that buffers events until commit.
type txn struct {
	Store
	events []Event
}

func (t *txn) emit(typ EventType, c *models.Cart, mergedFrom string) {
	t.events = append(t.events, Event{
		Type:       typ,
		CartID:     c.ID,
		UserID:     c.UserID,
		SessionID:  c.SessionID,
		MergedFrom: mergedFrom,
	})
}

func (s *Service) run(ctx context.Context, fn func(t *txn) (*Snapshot, error)) (*Snapshot, error) {
	var (
		snap   *Snapshot
		events []Event
	)
	err := s.store.Transaction(ctx, func(st Store) error {
		t := &txn{Store: st}
		out, err := fn(t)
		if err != nil {
			return err
		}
		snap, events = out, t.events
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForeignKey) {
			return nil, NewError(CodeVariantNotFound, "variant does not exist")
		}
		return nil, err
	}
	for _, e := range events {
		if snap != nil && snap.Cart != nil && snap.Cart.ID == e.CartID {
			e.ItemCount = snap.Count()
			e.GrandTotal = totals.Fixed(snap.Totals.Grand)
		}
		e.At = s.now()
		for _, n := range s.notifiers {
			n.CartChanged(ctx, e)
		}
	}
	return snap, nil
}

func requireIdentity(id Identity) error {
	if id.Empty() {
		return NewError(CodeMissingIdentifier, "no user or session identity on request")
	}
	return nil
}

// ResolveVariant resolves a reference by internal id, then legacy numeric
// id, then SKU. It returns nil without error when nothing matches.
func (s *Service) ResolveVariant(ctx context.Context, ref string) (*models.Variant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	byID, err := s.catalog.Variants(ctx, []string{ref})
	if err != nil {
		return nil, fmt.Errorf("lookup variant %q: %w", ref, err)
	}
	if v := byID[ref]; v != nil {
		return v, nil
	}
	if n, err := strconv.ParseInt(ref, 10, 64); err == nil {
		v, err := s.catalog.VariantByExternalID(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("lookup variant by external id %d: %w", n, err)
		}
		if v != nil {
			return v, nil
		}
	}
	v, err := s.catalog.VariantBySKU(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("lookup variant by sku %q: %w", ref, err)
	}
	return v, nil
}

// Get returns the identity's cart without creating one. Pending claims and
// merges still happen.
func (s *Service) Get(ctx context.Context, id Identity) (*Snapshot, error) {
	if id.Empty() {
		return &Snapshot{}, nil
	}
	return s.run(ctx, func(t *txn) (*Snapshot, error) {
		c, changed, err := s.locate(ctx, t, id, false)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return &Snapshot{}, nil
		}
		return s.refresh(ctx, t, c, changed)
	})
}

type AddInput struct {
	VariantRef string
	// Quantity is a delta; negative values decrement.
	Quantity int
	// Currency is adopted by carts that hold no lines yet.
	Currency string
}

// AddItem applies a quantity delta to the line for a variant.
func (s *Service) AddItem(ctx context.Context, id Identity, in AddInput) (*Snapshot, error) {
	if strings.TrimSpace(in.VariantRef) == "" {
		return nil, NewError(CodeMissingVariant, "variantId is required")
	}
	if in.Quantity == 0 {
		return nil, NewError(CodeInvalidInput, "quantity must not be zero")
	}
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	v, err := s.ResolveVariant(ctx, in.VariantRef)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NewErrorf(CodeVariantNotFound, "variant %q not found", in.VariantRef)
	}

	return s.run(ctx, func(t *txn) (*Snapshot, error) {
		c, _, err := s.locate(ctx, t, id, true)
		if err != nil {
			return nil, err
		}
		items, _, err := s.liveItems(ctx, t, c.ID, true)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 && in.Currency != "" {
			c.Currency = strings.ToUpper(in.Currency)
		}
		if err := s.applyDelta(ctx, t, c, items, v, in.Quantity); err != nil {
			return nil, err
		}
		t.emit(EventUpdated, c, "")
		return s.refresh(ctx, t, c, true)
	})
}

type RemoveInput struct {
	ItemID     string
	VariantRef string
}

// RemoveItem deletes a line by id, or every row for a variant.
func (s *Service) RemoveItem(ctx context.Context, id Identity, in RemoveInput) (*Snapshot, error) {
	if in.ItemID == "" && in.VariantRef == "" {
		return nil, NewError(CodeMissingIdentifier, "itemId or variantId is required")
	}
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	var variantID string
	if in.ItemID == "" {
		v, err := s.ResolveVariant(ctx, in.VariantRef)
		if err != nil {
			return nil, err
		}
		variantID = strings.TrimSpace(in.VariantRef)
		if v != nil {
			variantID = v.ID
		}
	}

	return s.run(ctx, func(t *txn) (*Snapshot, error) {
		c, _, err := s.locate(ctx, t, id, false)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, NewError(CodeLineNotFound, "cart has no such line")
		}
		// Raw rows, so duplicates of the variant go too.
		items, err := t.Items(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("load cart items: %w", err)
		}
		var doomed []string
		for _, it := range items {
			if (in.ItemID != "" && it.ID == in.ItemID) || (variantID != "" && it.VariantID == variantID) {
				doomed = append(doomed, it.ID)
			}
		}
		if len(doomed) == 0 {
			return nil, NewError(CodeLineNotFound, "cart has no such line")
		}
		if err := t.DeleteItems(ctx, doomed...); err != nil {
			return nil, fmt.Errorf("delete cart items: %w", err)
		}
		t.emit(EventUpdated, c, "")
		return s.refresh(ctx, t, c, true)
	})
}

type SyncLine struct {
	VariantRef   string
	Quantity     int
	UnitPrice    *decimal.Decimal
	MaxAvailable *int
}

// Sync replaces the cart's line set with lines. An empty list empties the cart.
func (s *Service) Sync(ctx context.Context, id Identity, lines []SyncLine) (*Snapshot, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	desired, dropped, err := s.resolveSync(ctx, lines)
	if err != nil {
		return nil, err
	}

	snap, err := s.run(ctx, func(t *txn) (*Snapshot, error) {
		c, _, err := s.locate(ctx, t, id, len(desired) > 0)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return &Snapshot{}, nil
		}
		more, err := s.applyCanonical(ctx, t, c, desired)
		if err != nil {
			return nil, err
		}
		dropped = append(dropped, more...)
		t.emit(EventUpdated, c, "")
		return s.refresh(ctx, t, c, true)
	})
	if err != nil {
		return nil, err
	}
	snap.Dropped = dropped
	return snap, nil
}

// Clear empties the cart and marks it CONVERTED.
func (s *Service) Clear(ctx context.Context, id Identity) (*Snapshot, error) {
	if id.Empty() {
		return &Snapshot{}, nil
	}
	return s.run(ctx, func(t *txn) (*Snapshot, error) {
		c, _, err := s.locate(ctx, t, id, false)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return &Snapshot{}, nil
		}
		if err := t.DeleteCartItems(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("clear cart items: %w", err)
		}
		c.Status = models.CartStatusConverted
		c.Subtotal, c.DiscountTotal, c.TaxTotal = decimal.Zero, decimal.Zero, decimal.Zero
		c.ShippingTotal, c.GrandTotal = decimal.Zero, decimal.Zero
		if err := t.SaveCart(ctx, c); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		t.emit(EventConverted, c, "")
		return &Snapshot{}, nil
	})
}

// SetAddress stores the shipping destination used for the shipping quote.
func (s *Service) SetAddress(ctx context.Context, id Identity, addr models.Address) (*Snapshot, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return s.run(ctx, func(t *txn) (*Snapshot, error) {
		c, _, err := s.locate(ctx, t, id, true)
		if err != nil {
			return nil, err
		}
		c.Address = addr
		t.emit(EventUpdated, c, "")
		return s.refresh(ctx, t, c, true)
	})
}

// Presence answers whether carts exist without touching them.
type Presence struct {
	HasUserCart  bool   `json:"hasUserCart"`
	HasGuestCart bool   `json:"hasGuestCart"`
	CartID       string `json:"cartId,omitempty"`
	ItemCount    int    `json:"itemCount"`
}

// Probe is read-only: it never claims, merges or heals. ItemCount counts the
// lines a read of the cart would return.
func (s *Service) Probe(ctx context.Context, id Identity) (Presence, error) {
	var p Presence
	var found *models.Cart
	if id.UserID != "" {
		carts, err := s.store.ActiveCartsForUser(ctx, id.UserID)
		if err != nil {
			return p, fmt.Errorf("find user carts: %w", err)
		}
		if len(carts) > 0 {
			p.HasUserCart = true
			found = &carts[0]
		}
	}
	if id.SessionID != "" {
		carts, err := s.store.ActiveCartsForSession(ctx, id.SessionID)
		if err != nil {
			return p, fmt.Errorf("find guest carts: %w", err)
		}
		if len(carts) > 0 {
			p.HasGuestCart = true
			if found == nil {
				found = &carts[0]
			}
		}
	}
	if found == nil {
		return p, nil
	}
	p.CartID = found.ID
	items, _, err := s.liveItems(ctx, s.store, found.ID, false)
	if err != nil {
		return p, err
	}
	for _, it := range items {
		if n := s.ceiling(it); n > 0 {
			p.ItemCount += n
		}
	}
	return p, nil
}

// ForUser returns a user's active cart, for back-office views.
func (s *Service) ForUser(ctx context.Context, userID string) (*Snapshot, error) {
	return s.Get(ctx, Identity{UserID: userID})
}

// Export computes snapshots of up to limit active carts without writing. Line
// quantities and subtotals are the ones a read of each cart would return.
func (s *Service) Export(ctx context.Context, limit int) ([]*Snapshot, error) {
	carts, err := s.store.ActiveCarts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list active carts: %w", err)
	}
	out := make([]*Snapshot, 0, len(carts))
	for i := range carts {
		c := &carts[i]
		stored, _, err := s.liveItems(ctx, s.store, c.ID, false)
		if err != nil {
			return nil, err
		}
		items := stored[:0]
		for _, it := range stored {
			it.Quantity = s.ceiling(it)
			if it.Quantity <= 0 {
				continue
			}
			it.Subtotal = lineSubtotal(it.Quantity, it.UnitPrice)
			items = append(items, it)
		}
		out = append(out, &Snapshot{Cart: c, Items: items, Totals: s.compute(ctx, c, items)})
	}
	return out, nil
}

// Availability is what a product page needs to cap its quantity picker.
type Availability struct {
	VariantID string `json:"variantId"`
	SKU       string `json:"sku,omitempty"`
	// MaxQuantity is nil when a line for the variant is unbounded.
	MaxQuantity *int   `json:"maxQuantity"`
	StockKnown  bool   `json:"stockKnown"`
	UnitPrice   string `json:"unitPrice,omitempty"`
	Currency    string `json:"currency"`
}

// Availability resolves ref and reports the per-line ceiling and price the
// cart would apply.
func (s *Service) Availability(ctx context.Context, ref, currency string) (*Availability, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, NewError(CodeMissingVariant, "variant reference is required")
	}
	v, err := s.ResolveVariant(ctx, ref)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NewErrorf(CodeVariantNotFound, "variant %q not found", ref)
	}
	if currency == "" {
		currency = s.currency
	}
	currency = strings.ToUpper(currency)

	ceiling := s.stock.Ceiling(v, s.policy)
	out := &Availability{VariantID: v.ID, SKU: v.SKU, StockKnown: ceiling.Known, Currency: currency}
	if ceiling.Limited {
		limit := ceiling.Limit
		out.MaxQuantity = &limit
	}
	if price, ok := s.pricer.Price(v, currency); ok {
		out.UnitPrice = totals.Fixed(price)
	}
	return out, nil
}

// SweepAbandoned marks carts idle for longer than idle as ABANDONED.
func (s *Service) SweepAbandoned(ctx context.Context, idle time.Duration) (int64, error) {
	n, err := s.store.AbandonStale(ctx, s.now().Add(-idle))
	if err != nil {
		return 0, fmt.Errorf("abandon stale carts: %w", err)
	}
	return n, nil
}

func newItem(cartID string, v *models.Variant, qty int, price decimal.Decimal, now time.Time) *models.CartItem {
	return &models.CartItem{
		ID:        uuid.NewString(),
		CartID:    cartID,
		VariantID: v.ID,
		Quantity:  qty,
		UnitPrice: price,
		Subtotal:  lineSubtotal(qty, price),
		AddedAt:   now,
		UpdatedAt: now,
	}
}

func lineSubtotal(qty int, price decimal.Decimal) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

type nopObserver struct{}

func (nopObserver) Merged()              {}
func (nopObserver) Clamped(string)       {}
func (nopObserver) GhostLinesPurged(int) {}
