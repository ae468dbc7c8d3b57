package cart

import (
	"errors"
	"fmt"
)

type Code string

// Stable error codes returned to clients.
const (
	CodeMissingVariant    Code = "MISSING_VARIANT"
	CodeMissingIdentifier Code = "MISSING_IDENTIFIER"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeVariantNotFound   Code = "VARIANT_NOT_FOUND"
	CodeLineNotFound      Code = "LINE_NOT_FOUND"
	CodePriceNotAvailable Code = "PRICE_NOT_AVAILABLE"
	CodeOutOfStock        Code = "OUT_OF_STOCK"
	CodeLimitExceeded     Code = "LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// ErrForeignKey is returned by stores when a line references a variant that
// does not exist.
var ErrForeignKey = errors.New("cart: referenced variant does not exist")

// Error is a domain error carrying a client-facing code. Stock errors also
// carry the known available quantity.
type Error struct {
	Code      Code
	Message   string
	Available *int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewErrorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func newStockError(code Code, message string, available int) *Error {
	return &Error{Code: code, Message: message, Available: &available}
}

// AsError unwraps err into a domain error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
