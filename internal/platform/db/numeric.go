package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ErrNumericNaN is returned when a NUMERIC column holds NaN or infinity.
var ErrNumericNaN = errors.New("platform/db: numeric is not a finite number")

// Decimal converts a scanned NUMERIC into a decimal. NULL maps to zero.
func Decimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, ErrNumericNaN
	}
	if n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
