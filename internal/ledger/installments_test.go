package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGenerateInstallments_SingleUsesDueDate(t *testing.T) {
	emission := date(2024, time.January, 10)
	due := date(2024, time.February, 15)

	specs := GenerateInstallments(dec("500.00"), emission, 1, due)
	require.Len(t, specs, 1)
	assert.Equal(t, 1, specs[0].Sequence)
	assert.True(t, specs[0].Amount.Equal(dec("500.00")))
	assert.Equal(t, due, specs[0].DueDate)
}

func TestGenerateInstallments_SingleFallsBackToEmission(t *testing.T) {
	emission := date(2024, time.January, 10)

	// Missing due date.
	specs := GenerateInstallments(dec("500.00"), emission, 1, time.Time{})
	require.Len(t, specs, 1)
	assert.Equal(t, emission, specs[0].DueDate)

	// Due date before emission: the later of the two wins.
	specs = GenerateInstallments(dec("500.00"), emission, 1, date(2023, time.December, 1))
	require.Len(t, specs, 1)
	assert.Equal(t, emission, specs[0].DueDate)
}

func TestGenerateInstallments_CountBelowOneTreatedAsOne(t *testing.T) {
	specs := GenerateInstallments(dec("100.00"), date(2024, time.March, 1), 0, time.Time{})
	require.Len(t, specs, 1)
	assert.True(t, specs[0].Amount.Equal(dec("100.00")))
}

func TestGenerateInstallments_EvenSplitSumsExactly(t *testing.T) {
	specs := GenerateInstallments(dec("1234.56"), date(2024, time.January, 31), 2, time.Time{})
	require.Len(t, specs, 2)

	sum := decimal.Zero
	for _, s := range specs {
		assert.True(t, s.Amount.Equal(dec("617.28")))
		sum = sum.Add(s.Amount)
	}
	assert.True(t, sum.Equal(dec("1234.56")))
}

func TestGenerateInstallments_RemainderNotRedistributed(t *testing.T) {
	// 1000 / 3 rounds each share to 333.33; the missing cent stays missing.
	specs := GenerateInstallments(dec("1000.00"), date(2024, time.May, 10), 3, time.Time{})
	require.Len(t, specs, 3)

	sum := decimal.Zero
	for _, s := range specs {
		assert.True(t, s.Amount.Equal(dec("333.33")))
		sum = sum.Add(s.Amount)
	}
	assert.True(t, sum.Equal(dec("999.99")), "sum is 0.01 short of the total by policy")
}

func TestGenerateInstallments_MonthlyProgressionWithYearCarry(t *testing.T) {
	// Emission 2024-11-30, 3 installments: Nov, Dec, then January of the
	// next year.
	specs := GenerateInstallments(dec("300.00"), date(2024, time.November, 30), 3, time.Time{})
	require.Len(t, specs, 3)

	assert.Equal(t, date(2024, time.November, 30), specs[0].DueDate)
	assert.Equal(t, date(2024, time.December, 30), specs[1].DueDate)
	assert.Equal(t, date(2025, time.January, 30), specs[2].DueDate)

	for i := 1; i < len(specs); i++ {
		assert.Equal(t, specs[i-1].Sequence+1, specs[i].Sequence, "sequences contiguous")
		assert.False(t, specs[i].DueDate.Before(specs[i-1].DueDate), "due dates non-decreasing")
	}
}

func TestGenerateInstallments_DayOfMonthClampsToShorterMonth(t *testing.T) {
	// Emission Jan 31: February clamps to the 29th (2024 is a leap year),
	// March has the 31st again.
	specs := GenerateInstallments(dec("1234.56"), date(2024, time.January, 31), 3, time.Time{})
	require.Len(t, specs, 3)

	assert.Equal(t, date(2024, time.January, 31), specs[0].DueDate)
	assert.Equal(t, date(2024, time.February, 29), specs[1].DueDate)
	assert.Equal(t, date(2024, time.March, 31), specs[2].DueDate)
}

func TestGenerateInstallments_DayOfMonthClampsNonLeapYear(t *testing.T) {
	specs := GenerateInstallments(dec("200.00"), date(2023, time.January, 31), 2, time.Time{})
	require.Len(t, specs, 2)
	assert.Equal(t, date(2023, time.February, 28), specs[1].DueDate)
}

func TestIdentification_Format(t *testing.T) {
	entryID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	id := Identification(entryID, 2, date(2024, time.February, 29))
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8-002-202402", id)
}

func TestIdentification_UniquePerSequenceAndMonth(t *testing.T) {
	entryID := uuid.New()
	specs := GenerateInstallments(dec("900.00"), date(2024, time.October, 15), 4, time.Time{})

	seen := make(map[string]bool)
	for _, s := range specs {
		id := Identification(entryID, s.Sequence, s.DueDate)
		assert.False(t, seen[id], "identification %s repeated", id)
		seen[id] = true
	}
}
