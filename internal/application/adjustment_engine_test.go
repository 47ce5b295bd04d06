package application

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/internal/domain"
)

var testSource = domain.AdjustmentSource{Type: domain.SourceRecipeBatch, ID: "batch-test"}

func TestAdjustmentEngine_ConvertsIntoLotUnit(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)

	snaps, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: lot.ID, Quantity: 2000, Unit: domain.UnitGram},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, lot.ID, snaps[0].LotID)
	assert.Equal(t, 8.0, snaps[0].QtyRemaining)
	assert.Equal(t, domain.LotStatusInStock, snaps[0].Status)
	assert.Equal(t, 8.0, h.lot(t, lot.ID).QtyRemaining)
}

func TestAdjustmentEngine_RoundsCountUnits(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "EGG-1", domain.UnitCount, 12, 12)

	_, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: lot.ID, Quantity: 1.4, Unit: domain.UnitCount},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	assert.Equal(t, 11.0, h.lot(t, lot.ID).QtyRemaining)
}

func TestAdjustmentEngine_RestoreNeverExceedsReceived(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "MILK-1", domain.UnitLitre, 10, 10)
	items := []domain.ConsumptionItem{{LotID: lot.ID, Quantity: 5, Unit: domain.UnitLitre}}

	for i := 0; i < 3; i++ {
		snaps, err := h.engine.ApplyAdjustments(h.ctx, items, domain.DirectionRestore, testSource)
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, 10.0, snaps[0].QtyRemaining)
	}
	assert.Equal(t, 10.0, h.lot(t, lot.ID).QtyRemaining)
}

// Over-consumption is kept as negative stock rather than rejected or floored at zero.
func TestAdjustmentEngine_OverConsumptionGoesNegative(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "BUTTER-1", domain.UnitKilogram, 1, 1)

	snaps, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: lot.ID, Quantity: 1.5, Unit: domain.UnitKilogram},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, -0.5, snaps[0].QtyRemaining)
	assert.Equal(t, domain.LotStatusUsed, snaps[0].Status)
	assert.Len(t, h.eventsOfType("backoffice.inventory.lot-depleted"), 1)
}

func TestAdjustmentEngine_CrossGroupLeavesAllLotsUntouched(t *testing.T) {
	h := newHarness(t)
	flour := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	eggs := h.seedLot(t, "EGG-1", domain.UnitCount, 12, 12)

	_, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: flour.ID, Quantity: 1, Unit: domain.UnitKilogram},
		{LotID: eggs.ID, Quantity: 1, Unit: domain.UnitKilogram},
	}, domain.DirectionConsume, testSource)
	require.Error(t, err)

	var incompatible *domain.UnitIncompatibilityError
	require.True(t, errors.As(err, &incompatible))
	assert.Equal(t, eggs.ID, incompatible.LotID)
	assert.Equal(t, domain.UnitCount, incompatible.LotUnit)
	assert.Equal(t, domain.UnitKilogram, incompatible.ItemUnit)

	assert.Equal(t, 10.0, h.lot(t, flour.ID).QtyRemaining)
	assert.Equal(t, 12.0, h.lot(t, eggs.ID).QtyRemaining)
	assert.Empty(t, h.store.events)
}

func TestAdjustmentEngine_UnknownLotIDFails(t *testing.T) {
	h := newHarness(t)
	flour := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)

	_, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: flour.ID, Quantity: 1, Unit: domain.UnitKilogram},
		{LotID: "does-not-exist", Quantity: 1, Unit: domain.UnitKilogram},
	}, domain.DirectionConsume, testSource)

	var notFound *domain.LotNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "does-not-exist", notFound.LotID)
	assert.Equal(t, 10.0, h.lot(t, flour.ID).QtyRemaining)
}

func TestAdjustmentEngine_SkipsItemsWithoutStockLinkage(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "SALT-1", domain.UnitGram, 500, 500)

	snaps, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{ProductName: "water", Quantity: 2, Unit: domain.UnitLitre},
		{LotNumber: "NOT-RECEIVED", Quantity: 1, Unit: domain.UnitKilogram},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	assert.Empty(t, snaps)
	assert.Equal(t, 500.0, h.lot(t, lot.ID).QtyRemaining)
	assert.Empty(t, h.store.events)
}

func TestAdjustmentEngine_LotNumberResolvesToNewestLot(t *testing.T) {
	h := newHarness(t)
	older := h.seedLot(t, "SUGAR-7", domain.UnitKilogram, 5, 5)
	backdate(h.lot(t, older.ID), 48*time.Hour)
	newer := h.seedLot(t, "SUGAR-7", domain.UnitKilogram, 5, 5)

	snaps, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotNumber: "SUGAR-7", Quantity: 1, Unit: domain.UnitKilogram},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, newer.ID, snaps[0].LotID)
	assert.Equal(t, 5.0, h.lot(t, older.ID).QtyRemaining)
	assert.Equal(t, 4.0, h.lot(t, newer.ID).QtyRemaining)
}

func TestAdjustmentEngine_LotNumberTieGoesToHighestID(t *testing.T) {
	h := newHarness(t)
	a := h.seedLot(t, "RICE-2", domain.UnitKilogram, 5, 5)
	b := h.seedLot(t, "RICE-2", domain.UnitKilogram, 5, 5)
	h.lot(t, b.ID).CreatedAt = h.lot(t, a.ID).CreatedAt

	expected, other := a.ID, b.ID
	if b.ID > a.ID {
		expected, other = b.ID, a.ID
	}

	_, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotNumber: "RICE-2", Quantity: 2, Unit: domain.UnitKilogram},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	assert.Equal(t, 3.0, h.lot(t, expected).QtyRemaining)
	assert.Equal(t, 5.0, h.lot(t, other).QtyRemaining)
}

func TestAdjustmentEngine_RestoreRevivesUsedLot(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "CREAM-1", domain.UnitLitre, 2, 0)
	require.Equal(t, domain.LotStatusUsed, h.lot(t, lot.ID).Status)

	snaps, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: lot.ID, Quantity: 500, Unit: domain.UnitMillilitre},
	}, domain.DirectionRestore, testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, 0.5, snaps[0].QtyRemaining)
	assert.Equal(t, domain.LotStatusInStock, snaps[0].Status)
}

func TestAdjustmentEngine_StickyStatusesSurviveRestore(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FISH-1", domain.UnitKilogram, 4, 2)
	h.lot(t, lot.ID).Status = domain.LotStatusRecalled

	_, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: lot.ID, Quantity: 1, Unit: domain.UnitKilogram},
	}, domain.DirectionRestore, testSource)
	require.NoError(t, err)

	assert.Equal(t, 3.0, h.lot(t, lot.ID).QtyRemaining)
	assert.Equal(t, domain.LotStatusRecalled, h.lot(t, lot.ID).Status)
}

func TestAdjustmentEngine_SnapshotsFollowFirstTouchOrder(t *testing.T) {
	h := newHarness(t)
	a := h.seedLot(t, "A-1", domain.UnitKilogram, 10, 10)
	b := h.seedLot(t, "B-1", domain.UnitKilogram, 10, 10)

	snaps, err := h.engine.ApplyAdjustments(h.ctx, []domain.ConsumptionItem{
		{LotID: b.ID, Quantity: 1, Unit: domain.UnitKilogram},
		{LotID: a.ID, Quantity: 1, Unit: domain.UnitKilogram},
		{LotID: b.ID, Quantity: 250, Unit: domain.UnitGram},
	}, domain.DirectionConsume, testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	assert.Equal(t, b.ID, snaps[0].LotID)
	assert.Equal(t, 8.75, snaps[0].QtyRemaining)
	assert.Equal(t, a.ID, snaps[1].LotID)
	assert.Equal(t, 9.0, snaps[1].QtyRemaining)
	assert.Len(t, h.eventsOfType("backoffice.inventory.lot-adjusted"), 3)
}

func TestAdjustmentEngine_ApplyDeltaNetsPerLot(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "OIL-1", domain.UnitLitre, 10, 7)

	snaps, err := h.engine.ApplyDelta(h.ctx,
		[]domain.ConsumptionItem{{LotID: lot.ID, Quantity: 3, Unit: domain.UnitLitre}},
		[]domain.ConsumptionItem{{LotID: lot.ID, Quantity: 1500, Unit: domain.UnitMillilitre}},
		testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, 8.5, snaps[0].QtyRemaining)
	require.Len(t, h.eventsOfType("backoffice.inventory.lot-adjusted"), 1)
	adjusted := h.eventsOfType("backoffice.inventory.lot-adjusted")[0].(*domain.LotAdjustedEvent)
	assert.Equal(t, domain.DirectionRestore, adjusted.Direction)
	assert.Equal(t, 1.5, adjusted.Delta)
}

func TestAdjustmentEngine_ApplyDeltaWithSameItemsMovesNothing(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "OIL-1", domain.UnitLitre, 10, 7)
	items := []domain.ConsumptionItem{{LotID: lot.ID, Quantity: 3, Unit: domain.UnitLitre}}

	snaps, err := h.engine.ApplyDelta(h.ctx, items, items, testSource)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, 7.0, snaps[0].QtyRemaining)
	assert.Empty(t, h.store.events)
}
