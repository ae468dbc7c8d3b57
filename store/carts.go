// Package store holds the gorm-backed implementations of the cart
// collaborators.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/models"
)

// Postgres SQLSTATE for foreign_key_violation.
const fkViolation = "23503"

type CartStore struct {
	db *gorm.DB
}

func NewCartStore(db *gorm.DB) *CartStore {
	return &CartStore{db: db}
}

var _ cart.Store = (*CartStore)(nil)

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
		return cart.ErrForeignKey
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return cart.ErrForeignKey
	}
	return err
}

func (s *CartStore) ActiveCartsForUser(ctx context.Context, userID string) ([]models.Cart, error) {
	var carts []models.Cart
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		Order("updated_at DESC").
		Find(&carts).Error
	return carts, err
}

func (s *CartStore) ActiveCartsForSession(ctx context.Context, sessionID string) ([]models.Cart, error) {
	var carts []models.Cart
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND (user_id = '' OR user_id IS NULL) AND status = ?", sessionID, models.CartStatusActive).
		Order("updated_at DESC").
		Find(&carts).Error
	return carts, err
}

func (s *CartStore) ActiveCarts(ctx context.Context, limit int) ([]models.Cart, error) {
	var carts []models.Cart
	q := s.db.WithContext(ctx).Where("status = ?", models.CartStatusActive).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&carts).Error
	return carts, err
}

func (s *CartStore) CreateCart(ctx context.Context, c *models.Cart) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (s *CartStore) SaveCart(ctx context.Context, c *models.Cart) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (s *CartStore) DeleteCart(ctx context.Context, cartID string) error {
	return s.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID).Error
}

func (s *CartStore) AbandonStale(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("status = ? AND updated_at < ?", models.CartStatusActive, before).
		Update("status", models.CartStatusAbandoned)
	return res.RowsAffected, res.Error
}

func (s *CartStore) Items(ctx context.Context, cartID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("updated_at DESC").
		Find(&items).Error
	return items, err
}

func (s *CartStore) CreateItem(ctx context.Context, item *models.CartItem) error {
	return mapErr(s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

func (s *CartStore) SaveItem(ctx context.Context, item *models.CartItem) error {
	return mapErr(s.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error)
}

func (s *CartStore) DeleteItems(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CartItem{}).Error
}

func (s *CartStore) DeleteCartItems(ctx context.Context, cartID string) error {
	return s.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (s *CartStore) Transaction(ctx context.Context, fn func(tx cart.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CartStore{db: tx})
	})
}
