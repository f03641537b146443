package store

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// parseDecimal parses a stored decimal string, preserving scale exactly as
// persisted (sqlite has no native arbitrary-precision numeric type, so rates
// are stored as TEXT).
func parseDecimal(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse stored rate %q: %w", value, err)
	}
	return d, nil
}
