package db

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func TestDecimalFromNumeric(t *testing.T) {
	d, err := Decimal(pgtype.Numeric{Int: big.NewInt(123456), Exp: -2, Valid: true})
	require.NoError(t, err)
	require.Equal(t, "1234.56", d.String())

	d, err = Decimal(pgtype.Numeric{})
	require.NoError(t, err)
	require.True(t, d.IsZero())

	_, err = Decimal(pgtype.Numeric{NaN: true, Valid: true})
	require.ErrorIs(t, err, ErrNumericNaN)

	_, err = Decimal(pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true})
	require.ErrorIs(t, err, ErrNumericNaN)
}
