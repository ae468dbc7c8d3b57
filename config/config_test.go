package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/storefront-api/stock"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cart")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "cart_sid", cfg.CookieName)
	assert.Equal(t, []string{"guest_id", "cart_session"}, cfg.LegacyCookieNames)
	assert.Equal(t, 90*24*time.Hour, cfg.CookieMaxAge)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
	assert.Equal(t, stock.AllowUnknown, cfg.UnknownStock)
	assert.Equal(t, "BDT", cfg.DefaultCurrency)
	assert.Zero(t, cfg.MaxLineQuantity)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CART_COOKIE_MAX_AGE", "0")
	t.Setenv("CART_UNKNOWN_STOCK_POLICY", "Reject")
	t.Setenv("CART_MAX_LINE_QUANTITY", "20")
	t.Setenv("CART_DEFAULT_CURRENCY", "usd")
	t.Setenv("CART_COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db user=app password=pw dbname=shop port=5432 sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.CookieMaxAge)
	assert.Equal(t, stock.RejectUnknown, cfg.UnknownStock)
	assert.Equal(t, 20, cfg.MaxLineQuantity)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "")
		t.Setenv("JWT_SECRET", "secret")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("no secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/cart")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/cart")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("REQUEST_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad sweep hour", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/cart")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CART_SWEEP_HOUR", "25")
		_, err := Load()
		assert.Error(t, err)
	})
}
