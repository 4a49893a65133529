package db

import (
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/shared"
)

// Numeric converts an amount into an exact NUMERIC parameter.
func Numeric(a money.Amount) pgtype.Numeric {
	d := a.Decimal()
	return pgtype.Numeric{Int: new(big.Int).Set(d.Coefficient()), Exp: d.Exponent(), Valid: true}
}

// Amount converts a scanned NUMERIC. NULL maps to zero.
func Amount(n pgtype.Numeric) (money.Amount, error) {
	if !n.Valid {
		return money.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return money.Zero, fmt.Errorf("platform/db: numeric is not finite")
	}
	if n.Int == nil {
		return money.Zero, nil
	}
	return money.FromDecimal(decimal.NewFromBigInt(n.Int, n.Exp)), nil
}

// Rate converts a scanned NUMERIC into a decimal rate.
func Rate(n pgtype.Numeric) (decimal.Decimal, error) {
	a, err := Amount(n)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Decimal(), nil
}

// RateParam converts a decimal rate into a NUMERIC parameter.
func RateParam(d decimal.Decimal) pgtype.Numeric {
	return Numeric(money.FromDecimal(d))
}

// Date converts a calendar date; the zero date becomes NULL.
func Date(d shared.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

// FromDate converts a scanned DATE. NULL maps to the zero date.
func FromDate(d pgtype.Date) shared.Date {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return shared.Date{}
	}
	return shared.DateOf(d.Time)
}

// Int8 maps zero identifiers to NULL.
func Int8(v int64) pgtype.Int8 {
	if v == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}

// Text maps empty strings to NULL.
func Text(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
