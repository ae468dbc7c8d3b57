package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/stock"
)

// locate finds the single active cart for id. A user cart wins over a guest
// cart; when both exist the guest cart is merged into the user cart, and a
// guest cart alone is claimed by a signed-in caller. changed reports that
// rows were written on the way.
func (s *Service) locate(ctx context.Context, t *txn, id Identity, create bool) (c *models.Cart, changed bool, err error) {
	var userCart, guestCart *models.Cart
	if id.UserID != "" {
		carts, err := t.ActiveCartsForUser(ctx, id.UserID)
		if err != nil {
			return nil, false, fmt.Errorf("find user carts: %w", err)
		}
		userCart = s.newest(carts, zap.String("user_id", id.UserID))
	}
	if id.SessionID != "" {
		carts, err := t.ActiveCartsForSession(ctx, id.SessionID)
		if err != nil {
			return nil, false, fmt.Errorf("find guest carts: %w", err)
		}
		guestCart = s.newest(carts)
	}

	switch {
	case userCart != nil && guestCart != nil:
		if err := s.merge(ctx, t, userCart, guestCart); err != nil {
			return nil, false, err
		}
		return userCart, true, nil
	case userCart != nil:
		return userCart, false, nil
	case guestCart != nil && id.UserID != "":
		guestCart.UserID = id.UserID
		if err := t.SaveCart(ctx, guestCart); err != nil {
			return nil, false, fmt.Errorf("claim guest cart: %w", err)
		}
		t.emit(EventClaimed, guestCart, "")
		s.log.Info("claimed guest cart", zap.String("cart_id", guestCart.ID), zap.String("user_id", id.UserID))
		return guestCart, true, nil
	case guestCart != nil:
		return guestCart, false, nil
	case !create:
		return nil, false, nil
	}

	c = &models.Cart{
		ID:       uuid.NewString(),
		Status:   models.CartStatusActive,
		Currency: s.currency,
	}
	if id.UserID != "" {
		c.UserID = id.UserID
	} else {
		c.SessionID = id.SessionID
	}
	if err := t.CreateCart(ctx, c); err != nil {
		return nil, false, fmt.Errorf("create cart: %w", err)
	}
	return c, true, nil
}

// newest picks the most recently updated cart; stores list them that way.
func (s *Service) newest(carts []models.Cart, fields ...zap.Field) *models.Cart {
	if len(carts) == 0 {
		return nil
	}
	if len(carts) > 1 {
		s.log.Warn("multiple active carts for identity, using newest",
			append(fields, zap.Int("count", len(carts)), zap.String("cart_id", carts[0].ID))...)
	}
	return &carts[0]
}

// Merge folds guestCart into userCart atomically and deletes guestCart.
func (s *Service) Merge(ctx context.Context, userCart, guestCart *models.Cart) (*Snapshot, error) {
	return s.run(ctx, func(t *txn) (*Snapshot, error) {
		if err := s.merge(ctx, t, userCart, guestCart); err != nil {
			return nil, err
		}
		return s.refresh(ctx, t, userCart, true)
	})
}

// merge sums quantities per variant and clamps each sum to stock. Unknown
// stock never blocks a merge; checkout re-validates.
func (s *Service) merge(ctx context.Context, t *txn, userCart, guestCart *models.Cart) error {
	if userCart.ID == guestCart.ID {
		return nil
	}
	userItems, _, err := s.liveItems(ctx, t, userCart.ID, true)
	if err != nil {
		return err
	}
	guestItems, variants, err := s.liveItems(ctx, t, guestCart.ID, true)
	if err != nil {
		return err
	}

	byVariant := make(map[string]*models.CartItem, len(userItems))
	for i := range userItems {
		byVariant[userItems[i].VariantID] = &userItems[i]
	}

	for _, g := range guestItems {
		existing := byVariant[g.VariantID]
		desired := g.Quantity
		if existing != nil {
			desired += existing.Quantity
		}
		final := s.stock.Ceiling(variants[g.VariantID], stock.AllowUnknown).Clamp(desired)
		if final < desired {
			s.obs.Clamped("merge")
		}

		switch {
		case existing != nil && final <= 0:
			if err := t.DeleteItems(ctx, existing.ID); err != nil {
				return fmt.Errorf("drop merged line: %w", err)
			}
			delete(byVariant, g.VariantID)
		case existing != nil:
			if existing.Quantity == final {
				continue
			}
			existing.Quantity = final
			existing.Subtotal = lineSubtotal(final, existing.UnitPrice)
			if err := t.SaveItem(ctx, existing); err != nil {
				return fmt.Errorf("update merged line: %w", err)
			}
		case final > 0:
			item := &models.CartItem{
				ID:        uuid.NewString(),
				CartID:    userCart.ID,
				VariantID: g.VariantID,
				Quantity:  final,
				UnitPrice: g.UnitPrice,
				Subtotal:  lineSubtotal(final, g.UnitPrice),
				Metadata:  g.Metadata,
				AddedAt:   g.AddedAt,
				UpdatedAt: s.now(),
			}
			if err := t.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("move guest line: %w", err)
			}
			byVariant[g.VariantID] = item
		}
	}

	if err := t.DeleteCartItems(ctx, guestCart.ID); err != nil {
		return fmt.Errorf("delete guest lines: %w", err)
	}
	if err := t.DeleteCart(ctx, guestCart.ID); err != nil {
		return fmt.Errorf("delete guest cart: %w", err)
	}
	if userCart.Address == (models.Address{}) {
		userCart.Address = guestCart.Address
	}

	s.obs.Merged()
	t.emit(EventMerged, userCart, guestCart.ID)
	s.log.Info("merged guest cart",
		zap.String("cart_id", userCart.ID),
		zap.String("guest_cart_id", guestCart.ID),
		zap.Int("guest_lines", len(guestItems)))
	return nil
}
