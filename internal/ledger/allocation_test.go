package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateEvenly_ThreeWaySplit(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	specs := AllocateEvenly(dec("1000.00"), ids, 3)
	require.Len(t, specs, 3)

	sum := decimal.Zero
	for i, s := range specs {
		assert.Equal(t, ids[i], s.ClassificationID)
		assert.True(t, s.Amount.Equal(dec("333.33")))
		sum = sum.Add(s.Amount)
	}
	assert.True(t, sum.Equal(dec("999.99")), "remainder cent is not redistributed")
}

func TestAllocateEvenly_EmptyYieldsNoRows(t *testing.T) {
	assert.Nil(t, AllocateEvenly(dec("1000.00"), nil, 0))
	assert.Nil(t, AllocateEvenly(dec("1000.00"), []uuid.UUID{}, 2))
}

func TestAllocateEvenly_SkippedDescriptionsKeepTheirShareUnallocated(t *testing.T) {
	// Three classifications were requested but only two resolved: each
	// resolved one still receives one third, leaving a third unallocated.
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	specs := AllocateEvenly(dec("900.00"), ids, 3)
	require.Len(t, specs, 2)

	sum := decimal.Zero
	for _, s := range specs {
		assert.True(t, s.Amount.Equal(dec("300.00")))
		sum = sum.Add(s.Amount)
	}
	assert.True(t, sum.Equal(dec("600.00")))
}
