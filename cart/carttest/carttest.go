// Package carttest provides in-memory implementations of the cart
// collaborators for tests.
package carttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/totals"
)

// Store is an in-memory cart.Store. Transactions are serialised and roll
// back by restoring a copy of the state.
type Store struct {
	// Catalog, when set, is used to reject lines for unknown variants the
	// way a foreign key would.
	Catalog *Catalog

	txMu  sync.Mutex
	mu    sync.Mutex
	carts map[string]models.Cart
	items map[string]models.CartItem
	clock time.Time
}

func NewStore(catalog *Catalog) *Store {
	return &Store{
		Catalog: catalog,
		carts:   map[string]models.Cart{},
		items:   map[string]models.CartItem{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var _ cart.Store = (*Store)(nil)

// tick returns strictly increasing timestamps so "most recently updated" is
// deterministic. Callers hold mu.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// Now exposes the store clock.
func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick()
}

// PutCart inserts a cart as is, keeping its timestamps when set.
func (s *Store) PutCart(c models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = s.tick()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
	if c.Status == "" {
		c.Status = models.CartStatusActive
	}
	c.Items = nil
	s.carts[c.ID] = c
}

// PutItem inserts a line as is, bypassing every check.
func (s *Store) PutItem(it models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = s.tick()
	}
	if it.AddedAt.IsZero() {
		it.AddedAt = it.UpdatedAt
	}
	it.Variant = nil
	s.items[it.ID] = it
}

// Cart returns a stored cart by id.
func (s *Store) Cart(id string) (models.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	return c, ok
}

// AllCarts returns every stored cart regardless of status.
func (s *Store) AllCarts() []models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Cart, 0, len(s.carts))
	for _, c := range s.carts {
		out = append(out, c)
	}
	sortCarts(out)
	return out
}

func (s *Store) ActiveCartsForUser(_ context.Context, userID string) ([]models.Cart, error) {
	return s.filter(func(c models.Cart) bool { return c.UserID == userID }), nil
}

func (s *Store) ActiveCartsForSession(_ context.Context, sessionID string) ([]models.Cart, error) {
	return s.filter(func(c models.Cart) bool { return c.SessionID == sessionID && c.UserID == "" }), nil
}

func (s *Store) ActiveCarts(_ context.Context, limit int) ([]models.Cart, error) {
	out := s.filter(func(models.Cart) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) filter(match func(models.Cart) bool) []models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Cart
	for _, c := range s.carts {
		if c.Status == models.CartStatusActive && match(c) {
			out = append(out, c)
		}
	}
	sortCarts(out)
	return out
}

func sortCarts(cs []models.Cart) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].UpdatedAt.After(cs[j].UpdatedAt) })
}

func (s *Store) CreateCart(_ context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	s.carts[c.ID] = *c
	return nil
}

func (s *Store) SaveCart(_ context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = s.tick()
	row := *c
	row.Items = nil
	s.carts[c.ID] = row
	return nil
}

func (s *Store) DeleteCart(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}

func (s *Store) AbandonStale(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.carts {
		if c.Status == models.CartStatusActive && c.UpdatedAt.Before(before) {
			c.Status = models.CartStatusAbandoned
			s.carts[id] = c
			n++
		}
	}
	return n, nil
}

func (s *Store) Items(_ context.Context, cartID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CartItem
	for _, it := range s.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) CreateItem(_ context.Context, it *models.CartItem) error {
	if s.Catalog != nil && !s.Catalog.Has(it.VariantID) {
		return cart.ErrForeignKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	if it.AddedAt.IsZero() {
		it.AddedAt = now
	}
	it.UpdatedAt = now
	row := *it
	row.Variant = nil
	s.items[it.ID] = row
	return nil
}

func (s *Store) SaveItem(_ context.Context, it *models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.UpdatedAt = s.tick()
	row := *it
	row.Variant = nil
	s.items[it.ID] = row
	return nil
}

func (s *Store) DeleteItems(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

func (s *Store) DeleteCartItems(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *Store) Transaction(_ context.Context, fn func(tx cart.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	carts := make(map[string]models.Cart, len(s.carts))
	for k, v := range s.carts {
		carts[k] = v
	}
	items := make(map[string]models.CartItem, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.carts, s.items = carts, items
		s.mu.Unlock()
		return err
	}
	return nil
}

// Catalog is an in-memory cart.Catalog.
type Catalog struct {
	mu       sync.RWMutex
	variants map[string]*models.Variant
	// Err, when set, fails every lookup.
	Err error
}

func NewCatalog(variants ...*models.Variant) *Catalog {
	c := &Catalog{variants: map[string]*models.Variant{}}
	for _, v := range variants {
		c.Put(v)
	}
	return c
}

var _ cart.Catalog = (*Catalog)(nil)

func (c *Catalog) Put(v *models.Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[v.ID] = v
}

func (c *Catalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.variants, id)
}

func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.variants[id]
	return ok
}

func (c *Catalog) Variants(_ context.Context, ids []string) (map[string]*models.Variant, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*models.Variant, len(ids))
	for _, id := range ids {
		if v, ok := c.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (c *Catalog) VariantByExternalID(_ context.Context, externalID int64) (*models.Variant, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.variants {
		if v.ExternalID != nil && *v.ExternalID == externalID {
			return v, nil
		}
	}
	return nil, nil
}

func (c *Catalog) VariantBySKU(_ context.Context, sku string) (*models.Variant, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.variants {
		if v.SKU != "" && v.SKU == sku {
			return v, nil
		}
	}
	return nil, nil
}

// Variant builds a catalog variant with a base price and, when stock is not
// negative, an on-hand count.
func Variant(id string, price int64, stock int) *models.Variant {
	p := decimal.NewFromInt(price)
	v := &models.Variant{ID: id, ProductID: "p-" + id, SKU: "SKU-" + id, Price: &p}
	if stock >= 0 {
		v.OnHand = &stock
	}
	return v
}

// Settings is a fixed cart.Settings.
type Settings struct {
	ShippingConfig totals.ShippingConfig
	VATConfig      totals.VATConfig
	Promos         map[string][]decimal.Decimal
}

var _ cart.Settings = (*Settings)(nil)

func (s *Settings) Shipping(context.Context) totals.ShippingConfig { return s.ShippingConfig }
func (s *Settings) VAT(context.Context) totals.VATConfig           { return s.VATConfig }
func (s *Settings) Promotions(_ context.Context, cartID string) []decimal.Decimal {
	return s.Promos[cartID]
}

// Recorder collects published events.
type Recorder struct {
	mu     sync.Mutex
	Events []cart.Event
}

func (r *Recorder) CartChanged(_ context.Context, e cart.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []cart.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cart.EventType, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
