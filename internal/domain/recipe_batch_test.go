package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeBatch_RoundsYieldWithoutTouchingParams(t *testing.T) {
	yield := &Yield{Qty: 11.6, Unit: UnitCount}
	b, err := NewRecipeBatch("tenant-1", "resto-1", RecipeBatchParams{RecipeName: "brioche", Yield: yield})
	require.NoError(t, err)

	assert.Equal(t, 12.0, b.Yield.Qty)
	assert.Equal(t, 11.6, yield.Qty)
	assert.NotSame(t, yield, b.Yield)

	next := &Yield{Qty: 3.4, Unit: UnitCount}
	require.NoError(t, b.Update(RecipeBatchParams{RecipeName: "brioche", Yield: next}))
	assert.Equal(t, 3.0, b.Yield.Qty)
	assert.Equal(t, 3.4, next.Qty)

	require.NoError(t, b.Update(RecipeBatchParams{RecipeName: "brioche"}))
	assert.Nil(t, b.Yield)
}
