package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/settings"
	"github.com/junaidrashid-git/storefront-api/totals"
)

// SettingsSource loads totals configuration tables.
type SettingsSource struct {
	db *gorm.DB
}

func NewSettingsSource(db *gorm.DB) *SettingsSource {
	return &SettingsSource{db: db}
}

var _ settings.Source = (*SettingsSource)(nil)

func (s *SettingsSource) ShippingConfig(ctx context.Context) (totals.ShippingConfig, error) {
	var zones []models.ShippingZone
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&zones).Error; err != nil {
		return totals.ShippingConfig{}, err
	}
	cfg := totals.ShippingConfig{Zones: make([]totals.Zone, 0, len(zones))}
	for _, z := range zones {
		cfg.Zones = append(cfg.Zones, totals.Zone{
			Name:          z.Name,
			Localities:    z.Localities,
			Rate:          z.Rate,
			FreeThreshold: z.FreeThreshold,
			Default:       z.IsDefault,
		})
	}
	return cfg, nil
}

// VATConfig returns a zero-rate config when no settings row exists.
func (s *SettingsSource) VATConfig(ctx context.Context) (totals.VATConfig, error) {
	var row models.VATSettings
	err := s.db.WithContext(ctx).Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return totals.VATConfig{}, nil
	}
	if err != nil {
		return totals.VATConfig{}, err
	}
	applyOn := row.ApplyOn
	if applyOn == "" {
		applyOn = models.VATOnSubtotal
	}
	return totals.VATConfig{
		RatePct:   row.RatePct,
		Inclusive: row.Inclusive,
		ApplyOn:   applyOn,
	}, nil
}

func (s *SettingsSource) Promotions(ctx context.Context, cartID string) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := s.db.WithContext(ctx).
		Model(&models.PromotionApplication{}).
		Where("cart_id = ?", cartID).
		Pluck("amount", &amounts).Error
	return amounts, err
}
