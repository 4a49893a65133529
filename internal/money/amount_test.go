package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	a, err := Parse("1250.5")
	require.NoError(t, err)
	assert.Equal(t, "1250.50", a.String())

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("  ")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDecimalArithmeticHasNoFloatDrift(t *testing.T) {
	total := Zero
	for i := 0; i < 10; i++ {
		total = total.Add(MustParse("0.10"))
	}
	assert.True(t, total.Equal(FromInt(1)))
	assert.Equal(t, "1.00", total.String())
}

func TestMulAndRound(t *testing.T) {
	price := MustParse("19.99")
	assert.Equal(t, "59.97", price.MulInt(3).String())

	tax := MustParse("10.05").MulRate(decimal.RequireFromString("0.5"))
	assert.Equal(t, "5.025", tax.Decimal().String())
	assert.Equal(t, "5.03", tax.Round().String())
}

func TestRatio(t *testing.T) {
	pct, ok := FromInt(250).Ratio(FromInt(1000))
	require.True(t, ok)
	assert.Equal(t, "25", pct.String())

	_, ok = FromInt(1).Ratio(Zero)
	assert.False(t, ok)
}

func TestJSONRoundTripAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		Price Amount `json:"price"`
		Fee   Amount `json:"fee"`
		None  Amount `json:"none"`
	}
	err := json.Unmarshal([]byte(`{"price":"100.10","fee":0.3,"none":null}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, "100.10", payload.Price.String())
	assert.Equal(t, "0.30", payload.Fee.String())
	assert.True(t, payload.None.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"100.10","fee":"0.30","none":"0.00"}`, string(out))

	err = json.Unmarshal([]byte(`{"price":"ten"}`), &payload)
	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "price", typeErr.Field)

	err = json.Unmarshal([]byte(`{"fee":"0.005"}`), &payload)
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "fee", typeErr.Field)
}

func TestParseRejectsWhatNumericCannotHold(t *testing.T) {
	for _, raw := range []string{"0.005", "-1.001", "1e-3", "1e-100000000"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrPrecision, raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
	for _, raw := range []string{"1e100000000", "12345678901234567", "-10000000000000000.00"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrOutOfRange, raw)
	}
	for _, raw := range []string{"1.500", "0e5000", "9999999999999999.99", "-9999999999999999.99", "1.2e1", "0.50"} {
		_, err := Parse(raw)
		assert.NoError(t, err, raw)
	}
}

func TestCheckCoversComputedAmounts(t *testing.T) {
	assert.NoError(t, MustParse("19.99").MulInt(3).Check())
	assert.ErrorIs(t, MustParse("10.05").MulRate(decimal.RequireFromString("0.5")).Check(), ErrPrecision)
	assert.ErrorIs(t, MustParse("9999999999999999.99").MulInt(2).Check(), ErrOutOfRange)
	assert.NoError(t, Zero.Check())
}

func TestScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan("42.1"))
	assert.Equal(t, "42.10", a.String())
	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, "7.00", a.String())
	assert.Error(t, a.Scan(3.14))
}

func TestFormatter(t *testing.T) {
	f, err := NewFormatter("en", "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", f.Currency())
	assert.Equal(t, "USD 1,234,567.50", f.Format(MustParse("1234567.5")))
	assert.Equal(t, "USD -0.05", f.Format(FromDecimal(decimal.RequireFromString("-0.049"))))

	_, err = NewFormatter("en", "XX")
	assert.Error(t, err)
}
