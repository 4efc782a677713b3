package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxID_StripsMask(t *testing.T) {
	assert.Equal(t, "12345678000195", TaxID("12.345.678/0001-95", CNPJ))
	assert.Equal(t, "12345678901", TaxID("123.456.789-01", CPF))
	assert.Equal(t, "12345678000195", TaxID("  12345678000195  ", CNPJ))
}

func TestFormatTaxID(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-95", FormatTaxID("12345678000195", CNPJ))
	assert.Equal(t, "123.456.789-01", FormatTaxID("12345678901", CPF))

	// Wrong length passes through untouched.
	assert.Equal(t, "1234", FormatTaxID("1234", CNPJ))
	assert.Equal(t, "", FormatTaxID("", CPF))
}

func TestTaxID_FormatRoundTrips(t *testing.T) {
	cases := []struct {
		raw  string
		kind DocKind
	}{
		{"12.345.678/0001-95", CNPJ},
		{"12345678000195", CNPJ},
		{"123.456.789-01", CPF},
		{"12345678901", CPF},
	}
	for _, tc := range cases {
		once := FormatTaxID(TaxID(tc.raw, tc.kind), tc.kind)
		twice := FormatTaxID(TaxID(once, tc.kind), tc.kind)
		assert.Equal(t, once, twice, "format/normalize must be idempotent for %q", tc.raw)
	}
}

func TestDate_AcceptedLayouts(t *testing.T) {
	iso, err := Date("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", iso.Format("2006-01-02"))

	br, err := Date("31/01/2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", br.Format("2006-01-02"))
}

func TestDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "31-01-2024", "2024/01/31", "notadate"} {
		_, err := Date(raw)
		assert.ErrorIs(t, err, ErrInvalidDate, "raw=%q", raw)
	}
}

func TestAmount_BrazilianSeparators(t *testing.T) {
	d, err := Amount("1.234,56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", d.String())

	d, err = Amount("0,99")
	require.NoError(t, err)
	assert.Equal(t, "0.99", d.String())

	d, err = Amount(" 100 ")
	require.NoError(t, err)
	assert.Equal(t, "100", d.String())
}

func TestAmount_DotIsAlwaysThousandsSeparator(t *testing.T) {
	// No decimal part: "1.500" is R$ 1500, not 1.5.
	d, err := Amount("1.500")
	require.NoError(t, err)
	assert.Equal(t, "1500", d.String())

	d, err = Amount("1.234")
	require.NoError(t, err)
	assert.Equal(t, "1234", d.String())

	// A machine-dotted value reads as a thousands-separated integer;
	// numeric inputs are rendered with a decimal comma before parsing.
	d, err = Amount("1234.56")
	require.NoError(t, err)
	assert.Equal(t, "123456", d.String())
}

func TestAmount_FallsBackToZero(t *testing.T) {
	for _, raw := range []string{"", "abc", "12,34,56"} {
		d, err := Amount(raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, "raw=%q", raw)
		assert.True(t, d.IsZero())
	}
}
