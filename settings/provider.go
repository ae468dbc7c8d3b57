package settings

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/totals"
)

const (
	keyShipping        = "shipping"
	keyVAT             = "vat"
	keyPromotionPrefix = "promotions:"
)

// Source loads configuration from storage.
type Source interface {
	ShippingConfig(ctx context.Context) (totals.ShippingConfig, error)
	VATConfig(ctx context.Context) (totals.VATConfig, error)
	Promotions(ctx context.Context, cartID string) ([]decimal.Decimal, error)
}

// Provider reads through the cache. Failures degrade to zero-effect defaults
// so a configuration outage never fails a cart request.
type Provider struct {
	source Source
	cache  *ConfigCache
	ttl    time.Duration
	log    *zap.Logger
}

func NewProvider(source Source, cache *ConfigCache, ttl time.Duration, log *zap.Logger) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Provider{source: source, cache: cache, ttl: ttl, log: log}
}

func (p *Provider) Shipping(ctx context.Context) totals.ShippingConfig {
	cfg, err := Fetch(ctx, p.cache, keyShipping, p.ttl, p.source.ShippingConfig)
	if err != nil {
		p.log.Warn("shipping config unavailable, quoting no shipping", zap.Error(err))
		return totals.ShippingConfig{}
	}
	return cfg
}

func (p *Provider) VAT(ctx context.Context) totals.VATConfig {
	cfg, err := Fetch(ctx, p.cache, keyVAT, p.ttl, p.source.VATConfig)
	if err != nil {
		p.log.Warn("vat config unavailable, charging no tax", zap.Error(err))
		return totals.VATConfig{}
	}
	return cfg
}

func (p *Provider) Promotions(ctx context.Context, cartID string) []decimal.Decimal {
	promos, err := Fetch(ctx, p.cache, keyPromotionPrefix+cartID, p.ttl, func(ctx context.Context) ([]decimal.Decimal, error) {
		return p.source.Promotions(ctx, cartID)
	})
	if err != nil {
		p.log.Warn("promotions unavailable, applying no discount", zap.String("cart_id", cartID), zap.Error(err))
		return nil
	}
	return promos
}

// Invalidate drops cached configuration; promotions for the given carts are
// dropped too. Without arguments the whole cache is cleared.
func (p *Provider) Invalidate(cartIDs ...string) {
	if len(cartIDs) == 0 {
		p.cache.Invalidate()
		return
	}
	keys := []string{keyShipping, keyVAT}
	for _, id := range cartIDs {
		keys = append(keys, keyPromotionPrefix+id)
	}
	p.cache.Invalidate(keys...)
}
