package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/internal/domain"
)

func TestMergeSnapshots(t *testing.T) {
	first := []domain.LotSnapshot{
		{LotID: "a", QtyRemaining: 10},
		{LotID: "b", QtyRemaining: 4},
	}
	second := []domain.LotSnapshot{
		{LotID: "c", QtyRemaining: 1},
		{LotID: "a", QtyRemaining: 7},
	}

	merged := mergeSnapshots(first, second)

	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].LotID)
	assert.Equal(t, 7.0, merged[0].QtyRemaining)
	assert.Equal(t, "b", merged[1].LotID)
	assert.Equal(t, "c", merged[2].LotID)
}

func TestMergeSnapshots_Empty(t *testing.T) {
	assert.Empty(t, mergeSnapshots(nil, nil))
}

func TestToRecipeBatchDTO(t *testing.T) {
	prepared := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	batch := &domain.RecipeBatch{
		ID:         "batch-1",
		RecipeName: "brioche",
		PreparedAt: prepared,
		Yield:      &domain.Yield{Qty: 24, Unit: domain.UnitCount},
		Ingredients: []domain.ConsumptionItem{
			{LotNumber: "FLOUR-1", Quantity: 1.2, Unit: domain.UnitKilogram},
		},
	}

	dto := ToRecipeBatchDTO(batch)

	assert.Equal(t, "batch-1", dto.ID)
	assert.Equal(t, prepared, dto.PreparedAt)
	require.NotNil(t, dto.Yield)
	assert.Equal(t, "unit", dto.Yield.Unit)
	require.Len(t, dto.Ingredients, 1)
	assert.Equal(t, "FLOUR-1", dto.Ingredients[0].LotNumber)
	assert.Equal(t, "kg", dto.Ingredients[0].Unit)
	assert.Nil(t, ToRecipeBatchDTO(nil))
}

func TestToDeliveryDTO(t *testing.T) {
	d := &domain.Delivery{
		ID:       "d-1",
		Supplier: "Metro",
		Lines: []domain.DeliveryLine{
			{ID: "l-1", ProductName: "milk", Unit: domain.UnitLitre, Qty: 6, QtyRemaining: 2, LotID: "lot-1"},
		},
	}

	dto := ToDeliveryDTO(d)

	require.Len(t, dto.Lines, 1)
	assert.Equal(t, "L", dto.Lines[0].Unit)
	assert.Equal(t, 2.0, dto.Lines[0].QtyRemaining)
	assert.Equal(t, "lot-1", dto.Lines[0].LotID)
}
