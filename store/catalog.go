package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/models"
)

// Catalog reads variants with everything the stock resolver, pricer and
// response shaper look at.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

var _ cart.Catalog = (*Catalog)(nil)

func (c *Catalog) variants(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).
		Preload("Product").
		Preload("Prices").
		Preload("Inventory").
		Preload("OptionValues")
}

func (c *Catalog) Variants(ctx context.Context, ids []string) (map[string]*models.Variant, error) {
	out := make(map[string]*models.Variant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []models.Variant
	if err := c.variants(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

func (c *Catalog) VariantByExternalID(ctx context.Context, externalID int64) (*models.Variant, error) {
	return c.first(c.variants(ctx).Where("external_id = ?", externalID))
}

func (c *Catalog) VariantBySKU(ctx context.Context, sku string) (*models.Variant, error) {
	return c.first(c.variants(ctx).Where("sku = ?", sku).Order("updated_at DESC"))
}

func (c *Catalog) first(q *gorm.DB) (*models.Variant, error) {
	var v models.Variant
	if err := q.First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
