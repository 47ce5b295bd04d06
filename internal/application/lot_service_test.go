package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	apperrors "github.com/kitchenops/inventory-ledger/pkg/errors"
)

func TestLotService_CreateLot(t *testing.T) {
	h := newHarness(t)

	lot, err := h.lots.CreateLot(h.ctx, CreateLotCommand{
		ProductName: "  saffron ",
		LotNumber:   "SAF-3",
		Unit:        domain.UnitGram,
		QtyReceived: 12.34567,
	})
	require.NoError(t, err)

	assert.Equal(t, "saffron", lot.ProductName)
	assert.Equal(t, 12.346, lot.QtyReceived)
	assert.Equal(t, 12.346, lot.QtyRemaining)
	assert.Equal(t, "in_stock", lot.Status)
	assert.Equal(t, "chef-1", lot.CreatedBy)
	assert.Empty(t, lot.ReceptionID)

	events := h.eventsOfType("backoffice.inventory.lot-received")
	require.Len(t, events, 1)
	assert.Equal(t, lot.ID, events[0].AggregateID())
}

func TestLotService_CreateLotValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.lots.CreateLot(h.ctx, CreateLotCommand{ProductName: "saffron", Unit: domain.UnitGram, QtyReceived: 1})
	requireAppErrorCode(t, err, apperrors.CodeValidationError)

	_, err = h.lots.CreateLot(h.ctx, CreateLotCommand{ProductName: "saffron", LotNumber: "S", Unit: "oz", QtyReceived: 1})
	requireAppErrorCode(t, err, apperrors.CodeValidationError)
}

func TestLotService_CreateLotRollsBackWhenEventsFail(t *testing.T) {
	h := newHarness(t)
	h.store.recordErr = errors.New("outbox unavailable")

	_, err := h.lots.CreateLot(h.ctx, CreateLotCommand{
		ProductName: "saffron",
		LotNumber:   "SAF-3",
		Unit:        domain.UnitGram,
		QtyReceived: 10,
	})
	require.Error(t, err)
	assert.Empty(t, h.store.lots)
}

func TestLotService_ListLotsFilters(t *testing.T) {
	h := newHarness(t)
	h.seedLot(t, "A-1", domain.UnitKilogram, 5, 5)
	h.seedLot(t, "A-1", domain.UnitKilogram, 5, 0)
	h.seedLot(t, "B-1", domain.UnitKilogram, 5, 5)

	byNumber, err := h.lots.ListLots(h.ctx, ListLotsQuery{LotNumber: "A-1"})
	require.NoError(t, err)
	assert.Len(t, byNumber, 2)

	used, err := h.lots.ListLots(h.ctx, ListLotsQuery{Status: domain.LotStatusUsed})
	require.NoError(t, err)
	require.Len(t, used, 1)
	assert.Equal(t, "A-1", used[0].LotNumber)

	_, err = h.lots.ListLots(h.ctx, ListLotsQuery{Status: "lost"})
	requireAppErrorCode(t, err, apperrors.CodeValidationError)
}

func TestLotService_GetAndDeleteLot(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedLot(t, "A-1", domain.UnitKilogram, 5, 5)

	got, err := h.lots.GetLot(h.ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	require.NoError(t, h.lots.DeleteLot(h.ctx, seeded.ID))
	assert.Empty(t, h.store.lots)
	assert.Len(t, h.eventsOfType("backoffice.inventory.lot-deleted"), 1)

	_, err = h.lots.GetLot(h.ctx, seeded.ID)
	requireAppErrorCode(t, err, apperrors.CodeNotFound)

	err = h.lots.DeleteLot(h.ctx, seeded.ID)
	requireAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestPageLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, pageLimit(0))
	assert.Equal(t, 20, pageLimit(20))
	assert.Equal(t, maxListLimit, pageLimit(10_000))
}
