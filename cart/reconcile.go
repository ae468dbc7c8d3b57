package cart

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/stock"
	"github.com/junaidrashid-git/storefront-api/totals"
)

// liveItems loads the lines of a cart. Duplicate rows for a variant collapse
// onto the most recently updated one; rows with a non-positive quantity or a
// variant the catalog no longer has are ghosts. With heal set ghosts are
// deleted, otherwise they are only filtered out.
func (s *Service) liveItems(ctx context.Context, st Store, cartID string, heal bool) ([]models.CartItem, map[string]*models.Variant, error) {
	items, err := st.Items(ctx, cartID)
	if err != nil {
		return nil, nil, fmt.Errorf("load cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, map[string]*models.Variant{}, nil
	}

	ids := make([]string, 0, len(items))
	seenID := make(map[string]bool, len(items))
	for _, it := range items {
		if !seenID[it.VariantID] {
			seenID[it.VariantID] = true
			ids = append(ids, it.VariantID)
		}
	}
	// A catalog failure must not look like every variant vanished.
	variants, err := s.catalog.Variants(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load variants: %w", err)
	}

	live := make([]models.CartItem, 0, len(items))
	kept := make(map[string]bool, len(items))
	var ghosts []string
	for _, it := range items {
		v := variants[it.VariantID]
		if it.Quantity <= 0 || v == nil || kept[it.VariantID] {
			ghosts = append(ghosts, it.ID)
			continue
		}
		kept[it.VariantID] = true
		it.Variant = v
		live = append(live, it)
	}

	if heal && len(ghosts) > 0 {
		if err := st.DeleteItems(ctx, ghosts...); err != nil {
			return nil, nil, fmt.Errorf("purge ghost lines: %w", err)
		}
		s.obs.GhostLinesPurged(len(ghosts))
		s.log.Info("purged ghost cart lines", zap.String("cart_id", cartID), zap.Int("count", len(ghosts)))
	}
	return live, variants, nil
}

// ceiling is the quantity a stored line may keep. Unknown stock never lowers
// a line that already exists.
func (s *Service) ceiling(it models.CartItem) int {
	return s.stock.Ceiling(it.Variant, stock.AllowUnknown).Clamp(it.Quantity)
}

// clampLines lowers every line above its stock ceiling and deletes the ones
// left with nothing.
func (s *Service) clampLines(ctx context.Context, t *txn, items []models.CartItem) ([]models.CartItem, error) {
	out := items[:0]
	var doomed []string
	for _, it := range items {
		final := s.ceiling(it)
		if final == it.Quantity {
			out = append(out, it)
			continue
		}
		s.obs.Clamped("refresh")
		if final <= 0 {
			doomed = append(doomed, it.ID)
			continue
		}
		it.Quantity = final
		it.Subtotal = lineSubtotal(final, it.UnitPrice)
		if err := t.SaveItem(ctx, &it); err != nil {
			return nil, fmt.Errorf("clamp line: %w", err)
		}
		out = append(out, it)
	}
	if len(doomed) > 0 {
		if err := t.DeleteItems(ctx, doomed...); err != nil {
			return nil, fmt.Errorf("drop sold out lines: %w", err)
		}
	}
	return out, nil
}

// refresh re-reads the line set, heals it, holds every line to its stock
// ceiling and persists freshly derived totals. The cart row is only written
// when something changed or touched is set.
func (s *Service) refresh(ctx context.Context, t *txn, c *models.Cart, touched bool) (*Snapshot, error) {
	items, _, err := s.liveItems(ctx, t, c.ID, true)
	if err != nil {
		return nil, err
	}
	if items, err = s.clampLines(ctx, t, items); err != nil {
		return nil, err
	}
	for i := range items {
		it := &items[i]
		sub := lineSubtotal(it.Quantity, it.UnitPrice)
		if sub.Equal(it.Subtotal) {
			continue
		}
		it.Subtotal = sub
		if err := t.SaveItem(ctx, it); err != nil {
			return nil, fmt.Errorf("save line subtotal: %w", err)
		}
	}

	tot := s.compute(ctx, c, items)
	if touched || !persisted(c, tot) {
		c.Subtotal = tot.Subtotal
		c.DiscountTotal = tot.Discount
		c.ShippingTotal = tot.Shipping
		c.TaxTotal = tot.Tax
		c.GrandTotal = tot.Grand
		if err := t.SaveCart(ctx, c); err != nil {
			return nil, fmt.Errorf("save cart totals: %w", err)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	return &Snapshot{Cart: c, Items: items, Totals: tot}, nil
}

func (s *Service) compute(ctx context.Context, c *models.Cart, items []models.CartItem) totals.Totals {
	lines := make([]totals.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, totals.Line{
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Resolvable: it.Variant != nil,
		})
	}
	return totals.Compute(totals.Input{
		Lines:      lines,
		Address:    c.Address,
		Promotions: s.settings.Promotions(ctx, c.ID),
		Shipping:   s.settings.Shipping(ctx),
		VAT:        s.settings.VAT(ctx),
	})
}

func persisted(c *models.Cart, t totals.Totals) bool {
	return c.Subtotal.Equal(t.Subtotal) &&
		c.DiscountTotal.Equal(t.Discount) &&
		c.ShippingTotal.Equal(t.Shipping) &&
		c.TaxTotal.Equal(t.Tax) &&
		c.GrandTotal.Equal(t.Grand)
}

// applyDelta moves the variant's line by delta. Increases are checked against
// the stock ceiling; decreases never fail but still respect it.
func (s *Service) applyDelta(ctx context.Context, t *txn, c *models.Cart, items []models.CartItem, v *models.Variant, delta int) error {
	var line *models.CartItem
	for i := range items {
		if items[i].VariantID == v.ID {
			line = &items[i]
			break
		}
	}
	current := 0
	if line != nil {
		current = line.Quantity
	}

	ceiling := s.stock.Ceiling(v, s.policy)
	desired := current + delta
	final := ceiling.Clamp(desired)
	if delta > 0 {
		if ceiling.Limited && ceiling.Limit <= 0 {
			return newStockError(CodeOutOfStock, "variant is out of stock", 0)
		}
		if final <= current {
			return newStockError(CodeLimitExceeded, fmt.Sprintf("only %d available", ceiling.Limit), ceiling.Limit)
		}
		if final < desired {
			s.obs.Clamped("add")
		}
	}

	switch {
	case final <= 0:
		if line == nil {
			return nil
		}
		if err := t.DeleteItems(ctx, line.ID); err != nil {
			return fmt.Errorf("delete line: %w", err)
		}
	case line != nil:
		// Price stays frozen at its first add.
		line.Quantity = final
		line.Subtotal = lineSubtotal(final, line.UnitPrice)
		if err := t.SaveItem(ctx, line); err != nil {
			return fmt.Errorf("update line: %w", err)
		}
	default:
		price, ok := s.pricer.Price(v, c.Currency)
		if !ok {
			return NewErrorf(CodePriceNotAvailable, "no %s price for variant %q", c.Currency, v.ID)
		}
		if err := t.CreateItem(ctx, newItem(c.ID, v, final, price, s.now())); err != nil {
			return fmt.Errorf("create line: %w", err)
		}
	}
	return nil
}

type syncTarget struct {
	line    SyncLine
	variant *models.Variant
}

// resolveSync maps payload references to catalog variants. Unresolvable
// entries are dropped; for repeated variants the later entry wins.
func (s *Service) resolveSync(ctx context.Context, lines []SyncLine) ([]syncTarget, []DroppedLine, error) {
	var (
		out     []syncTarget
		dropped []DroppedLine
	)
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		v, err := s.ResolveVariant(ctx, l.VariantRef)
		if err != nil {
			return nil, nil, err
		}
		if v == nil {
			s.log.Info("dropping unresolvable sync line", zap.String("ref", l.VariantRef))
			dropped = append(dropped, DroppedLine{Ref: l.VariantRef, Reason: CodeVariantNotFound})
			continue
		}
		if i, ok := index[v.ID]; ok {
			out[i] = syncTarget{line: l, variant: v}
			continue
		}
		index[v.ID] = len(out)
		out = append(out, syncTarget{line: l, variant: v})
	}
	return out, dropped, nil
}

// applyCanonical makes the cart hold exactly the desired lines. Every
// existing line whose variant is absent from desired is deleted.
func (s *Service) applyCanonical(ctx context.Context, t *txn, c *models.Cart, desired []syncTarget) ([]DroppedLine, error) {
	items, _, err := s.liveItems(ctx, t, c.ID, true)
	if err != nil {
		return nil, err
	}
	byVariant := make(map[string]*models.CartItem, len(items))
	for i := range items {
		byVariant[items[i].VariantID] = &items[i]
	}

	var dropped []DroppedLine
	keep := make(map[string]bool, len(desired))
	for _, d := range desired {
		qty := s.stock.Ceiling(d.variant, s.policy).Clamp(d.line.Quantity)
		if hint := d.line.MaxAvailable; hint != nil && *hint < qty {
			qty = max(*hint, 0)
		}
		if qty < d.line.Quantity {
			s.obs.Clamped("sync")
		}
		if qty <= 0 {
			continue
		}

		if existing := byVariant[d.variant.ID]; existing != nil {
			keep[d.variant.ID] = true
			if existing.Quantity == qty {
				continue
			}
			existing.Quantity = qty
			existing.Subtotal = lineSubtotal(qty, existing.UnitPrice)
			if err := t.SaveItem(ctx, existing); err != nil {
				return nil, fmt.Errorf("update line: %w", err)
			}
			continue
		}

		price, ok := s.pricer.Price(d.variant, c.Currency)
		if !ok && d.line.UnitPrice != nil && d.line.UnitPrice.IsPositive() {
			price, ok = d.line.UnitPrice.Round(2), true
		}
		if !ok {
			s.log.Info("dropping unpriced sync line", zap.String("ref", d.line.VariantRef), zap.String("variant_id", d.variant.ID))
			dropped = append(dropped, DroppedLine{Ref: d.line.VariantRef, Reason: CodePriceNotAvailable})
			continue
		}
		if err := t.CreateItem(ctx, newItem(c.ID, d.variant, qty, price, s.now())); err != nil {
			return nil, fmt.Errorf("create line: %w", err)
		}
		keep[d.variant.ID] = true
	}

	var doomed []string
	for _, it := range items {
		if !keep[it.VariantID] {
			doomed = append(doomed, it.ID)
		}
	}
	if len(doomed) > 0 {
		if err := t.DeleteItems(ctx, doomed...); err != nil {
			return nil, fmt.Errorf("delete stale lines: %w", err)
		}
	}
	return dropped, nil
}
