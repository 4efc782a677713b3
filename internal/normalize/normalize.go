// Package normalize holds the pure document-normalization helpers used by
// the resolution and commit paths: tax identifier cleanup/formatting, date
// parsing in the layouts DANFEs actually carry, and Brazilian-locale
// monetary parsing.
package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocKind identifies the tax document layout.
type DocKind string

const (
	CNPJ DocKind = "CNPJ" // legal entity, 14 digits
	CPF  DocKind = "CPF"  // natural person, 11 digits
)

// Digits returns the expected digit count for the kind.
func (k DocKind) Digits() int {
	if k == CPF {
		return 11
	}
	return 14
}

var (
	ErrInvalidDate   = errors.New("invalid or missing date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// TaxID strips the mask characters ('.', '/', '-') from a raw CNPJ/CPF.
// No checksum validation is performed: any string of the expected length
// passes downstream lookups.
func TaxID(raw string, kind DocKind) string {
	r := strings.NewReplacer(".", "", "/", "", "-", "")
	return strings.TrimSpace(r.Replace(strings.TrimSpace(raw)))
}

// FormatTaxID re-inserts the display mask at the fixed positions:
// XX.XXX.XXX/XXXX-XX for CNPJ, XXX.XXX.XXX-XX for CPF. Input of any other
// length is returned unchanged.
func FormatTaxID(digits string, kind DocKind) string {
	switch {
	case kind == CNPJ && len(digits) == 14:
		return digits[:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:]
	case kind == CPF && len(digits) == 11:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
	return digits
}

// dateLayouts in priority order; the first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
}

// Date parses YYYY-MM-DD or DD/MM/YYYY. Empty or unparsable input is an
// ErrInvalidDate.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Amount parses a monetary value written with Brazilian separators:
// '.' as thousands separator, ',' as decimal separator ("1.234,56").
// Every '.' is a thousands separator and is stripped, whether or not a
// decimal comma follows: "1.500" is 1500, and a machine-formatted
// "1234.56" therefore reads as 123456. Numeric values must be rendered
// with a decimal comma before they reach this parser. On failure it
// returns zero together with ErrInvalidAmount; callers treat that as a
// non-fatal fallback, not an abort.
func Amount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
