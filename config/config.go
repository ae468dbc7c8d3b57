// Package config reads process configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/junaidrashid-git/storefront-api/stock"
)

type Config struct {
	Env  string
	Port string

	DatabaseURL string

	JWTSecret string
	APIKey    string

	RequestTimeout time.Duration

	// Session cookie
	CookieName        string
	LegacyCookieNames []string
	CookieMaxAge      time.Duration // 0 makes the cookie session scoped
	CookieSecure      bool
	CookieDomain      string

	// Cart behaviour
	DefaultCurrency  string
	UnknownStock     stock.UnknownPolicy
	MaxLineQuantity  int
	SettingsCacheTTL time.Duration
	AbandonAfter     time.Duration
	SweepHour        int
	SweepMinute      int

	AllowedOrigins []string

	KafkaBrokers string
	KafkaTopic   string
}

// Load reads .env when present and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               getenv("APP_ENV", "production"),
		Port:              getenv("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		APIKey:            os.Getenv("COST_API_KEY"),
		CookieName:        getenv("CART_COOKIE_NAME", "cart_sid"),
		LegacyCookieNames: splitList(getenv("CART_LEGACY_COOKIES", "guest_id,cart_session")),
		CookieSecure:      getbool("CART_COOKIE_SECURE", false),
		CookieDomain:      os.Getenv("CART_COOKIE_DOMAIN"),
		DefaultCurrency:   strings.ToUpper(getenv("CART_DEFAULT_CURRENCY", "BDT")),
		UnknownStock:      stock.ParsePolicy(getenv("CART_UNKNOWN_STOCK_POLICY", "allow")),
		AllowedOrigins:    splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		KafkaBrokers:      getenv("KAFKA_BROKERS", ""),
		KafkaTopic:        getenv("KAFKA_TOPIC", "storefront.cart"),
	}

	var err error
	if cfg.DatabaseURL, err = databaseURL(); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = getduration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CookieMaxAge, err = getduration("CART_COOKIE_MAX_AGE", 90*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SettingsCacheTTL, err = getduration("SETTINGS_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.AbandonAfter, err = getduration("CART_ABANDON_AFTER", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.MaxLineQuantity, err = getint("CART_MAX_LINE_QUANTITY", 0); err != nil {
		return Config{}, err
	}
	if cfg.SweepHour, err = getint("CART_SWEEP_HOUR", 3); err != nil {
		return Config{}, err
	}
	if cfg.SweepMinute, err = getint("CART_SWEEP_MINUTE", 0); err != nil {
		return Config{}, err
	}
	if cfg.SweepHour < 0 || cfg.SweepHour > 23 || cfg.SweepMinute < 0 || cfg.SweepMinute > 59 {
		return Config{}, fmt.Errorf("invalid sweep time %02d:%02d", cfg.SweepHour, cfg.SweepMinute)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c Config) Development() bool {
	return c.Env == "development"
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* variables.
func databaseURL() (string, error) {
	if u := strings.TrimSpace(os.Getenv("DATABASE_URL")); u != "" {
		return u, nil
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return "", errors.New("DATABASE_URL or DB_HOST is required")
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host,
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getenv("DB_PORT", "5432"),
		getenv("DB_SSLMODE", "disable"),
	), nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getint(k string, def int) (int, error) {
	v := getenv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return def
	}
	return b
}

// getduration accepts Go durations ("90s", "2160h") or plain seconds.
func getduration(k string, def time.Duration) (time.Duration, error) {
	v := getenv(k, "")
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
