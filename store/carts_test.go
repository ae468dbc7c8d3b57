package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/storefront-api/cart"
)

func TestMapErr(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"pg foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "fk_cart_items_variant"}, cart.ErrForeignKey},
		{"wrapped pg foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), cart.ErrForeignKey},
		{"translated by gorm", gorm.ErrForeignKeyViolated, cart.ErrForeignKey},
		{"unique violation", &pgconn.PgError{Code: "23505"}, nil},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr(tt.in)
			switch {
			case tt.want == nil && tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Same(t, tt.in, got, "passed through untouched")
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
