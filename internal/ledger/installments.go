package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentSpec is one generated installment before persistence.
type InstallmentSpec struct {
	Sequence int
	Amount   decimal.Decimal
	DueDate  time.Time
}

// splitEvenly divides total into n equal shares, each rounded half-up to
// two decimal places. The rounding remainder is NOT redistributed: for
// totals that do not divide evenly the shares sum to slightly less or more
// than the total (1000 / 3 gives three shares of 333.33, summing 999.99).
// That discrepancy is a documented property of the split, not a bug to
// correct here.
func splitEvenly(total decimal.Decimal, n int) decimal.Decimal {
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// addMonths moves base forward by the given number of calendar months,
// wrapping the year when the month runs past December and clamping the
// day-of-month to the last valid day of the target month (Jan 31 + 1 month
// lands on Feb 29 in a leap year, Feb 28 otherwise).
func addMonths(base time.Time, months int) time.Time {
	year := base.Year()
	month := int(base.Month()) + months
	for month > 12 {
		month -= 12
		year++
	}

	day := base.Day()
	if last := lastDayOfMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, base.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GenerateInstallments fans a total out into count installments.
//
// With count == 1 the single installment carries the full amount and falls
// due on the later of dueDate and emission (a zero dueDate means emission).
// With count > 1 each installment carries an equal share (see splitEvenly)
// and installment i falls due i calendar months after emission, the first
// on the emission date itself; dueDate is ignored. Sequences are contiguous
// from 1 and due dates are non-decreasing by sequence.
func GenerateInstallments(total decimal.Decimal, emission time.Time, count int, dueDate time.Time) []InstallmentSpec {
	if count < 1 {
		count = 1
	}

	if count == 1 {
		due := dueDate
		if due.IsZero() || due.Before(emission) {
			due = emission
		}
		return []InstallmentSpec{{Sequence: 1, Amount: total, DueDate: due}}
	}

	share := splitEvenly(total, count)
	specs := make([]InstallmentSpec, 0, count)
	for i := 0; i < count; i++ {
		due := emission
		if i > 0 {
			due = addMonths(emission, i)
		}
		specs = append(specs, InstallmentSpec{
			Sequence: i + 1,
			Amount:   share,
			DueDate:  due,
		})
	}
	return specs
}

// Identification builds the globally unique installment identifier:
// {entry id}-{sequence, zero-padded to 3}-{due year}{due month}. The
// storage-layer unique constraint is the actual collision guarantee.
func Identification(entryID uuid.UUID, sequence int, due time.Time) string {
	return fmt.Sprintf("%s-%03d-%s", entryID, sequence, due.Format("200601"))
}
