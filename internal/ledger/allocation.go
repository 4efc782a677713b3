package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationSpec is one classification allocation before persistence.
type AllocationSpec struct {
	ClassificationID uuid.UUID
	Amount           decimal.Decimal
}

// AllocateEvenly splits total across the resolved classifications. The
// divisor is requestedCount, the number of classifications the caller
// asked for, not the number actually resolved: descriptions that failed
// resolution were skipped upstream, and their share is deliberately left
// unallocated rather than redistributed. An empty id list yields no rows;
// the entry then carries an unclassified total, which is accepted.
func AllocateEvenly(total decimal.Decimal, classificationIDs []uuid.UUID, requestedCount int) []AllocationSpec {
	if len(classificationIDs) == 0 {
		return nil
	}
	if requestedCount < len(classificationIDs) {
		requestedCount = len(classificationIDs)
	}

	share := splitEvenly(total, requestedCount)
	specs := make([]AllocationSpec, 0, len(classificationIDs))
	for _, id := range classificationIDs {
		specs = append(specs, AllocationSpec{ClassificationID: id, Amount: share})
	}
	return specs
}
