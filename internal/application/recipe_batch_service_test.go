package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	apperrors "github.com/kitchenops/inventory-ledger/pkg/errors"
)

func createBatch(t *testing.T, h *harness, items ...domain.ConsumptionItem) *RecipeBatchResult {
	t.Helper()
	result, err := h.batches.CreateBatch(h.ctx, CreateRecipeBatchCommand{
		RecipeName:  "brioche",
		Ingredients: items,
	})
	require.NoError(t, err)
	return result
}

func requireAppErrorCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// Lot L holds 10 kg; a batch consumes 2000 g.
func TestRecipeBatchService_ScenarioA(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)

	result := createBatch(t, h, domain.ConsumptionItem{LotID: lot.ID, Quantity: 2000, Unit: domain.UnitGram})

	require.Len(t, result.Lots, 1)
	assert.Equal(t, 8.0, result.Lots[0].QtyRemaining)
	assert.Equal(t, domain.LotStatusInStock, result.Lots[0].Status)
	assert.Equal(t, "brioche", result.Batch.RecipeName)
	assert.Contains(t, h.store.batches, result.Batch.ID)
	assert.Equal(t, 1, h.tx.commits)
}

// Continuing from A, a second batch uses the remaining 8 kg; deleting it reverses exactly.
func TestRecipeBatchService_ScenarioBAndC(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	createBatch(t, h, domain.ConsumptionItem{LotID: lot.ID, Quantity: 2000, Unit: domain.UnitGram})

	second := createBatch(t, h, domain.ConsumptionItem{LotID: lot.ID, Quantity: 8, Unit: domain.UnitKilogram})
	require.Len(t, second.Lots, 1)
	assert.Equal(t, 0.0, second.Lots[0].QtyRemaining)
	assert.Equal(t, domain.LotStatusUsed, second.Lots[0].Status)

	deleted, err := h.batches.DeleteBatch(h.ctx, second.Batch.ID)
	require.NoError(t, err)

	require.Len(t, deleted.Lots, 1)
	assert.Equal(t, 8.0, deleted.Lots[0].QtyRemaining)
	assert.Equal(t, domain.LotStatusInStock, deleted.Lots[0].Status)
	assert.NotContains(t, h.store.batches, second.Batch.ID)
}

func TestRecipeBatchService_UpdateWithSameIngredientsIsNoOp(t *testing.T) {
	h := newHarness(t)
	flour := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	eggs := h.seedLot(t, "EGG-1", domain.UnitCount, 30, 30)
	items := []domain.ConsumptionItem{
		{LotID: flour.ID, Quantity: 1.25, Unit: domain.UnitKilogram},
		{LotNumber: "EGG-1", Quantity: 6, Unit: domain.UnitCount},
	}
	created := createBatch(t, h, items...)

	updated, err := h.batches.UpdateBatch(h.ctx, UpdateRecipeBatchCommand{
		BatchID:     created.Batch.ID,
		RecipeName:  "brioche",
		Ingredients: items,
	})
	require.NoError(t, err)

	assert.Equal(t, 8.75, h.lot(t, flour.ID).QtyRemaining)
	assert.Equal(t, 24.0, h.lot(t, eggs.ID).QtyRemaining)
	require.Len(t, updated.Lots, 2)
	assert.Equal(t, flour.ID, updated.Lots[0].LotID)
	assert.Equal(t, eggs.ID, updated.Lots[1].LotID)
}

func TestRecipeBatchService_UpdateMovesStockToNewIngredients(t *testing.T) {
	h := newHarness(t)
	butter := h.seedLot(t, "BUTTER-1", domain.UnitKilogram, 5, 5)
	margarine := h.seedLot(t, "MARG-1", domain.UnitKilogram, 5, 5)
	created := createBatch(t, h, domain.ConsumptionItem{LotID: butter.ID, Quantity: 500, Unit: domain.UnitGram})

	updated, err := h.batches.UpdateBatch(h.ctx, UpdateRecipeBatchCommand{
		BatchID:     created.Batch.ID,
		RecipeName:  "brioche v2",
		Ingredients: []domain.ConsumptionItem{{LotID: margarine.ID, Quantity: 750, Unit: domain.UnitGram}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5.0, h.lot(t, butter.ID).QtyRemaining)
	assert.Equal(t, 4.25, h.lot(t, margarine.ID).QtyRemaining)
	assert.Equal(t, "brioche v2", h.store.batches[created.Batch.ID].RecipeName)
	assert.Len(t, updated.Lots, 2)
}

func TestRecipeBatchService_CreateThenDeleteConservesStock(t *testing.T) {
	h := newHarness(t)
	lots := []*domain.InventoryLot{
		h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 9.5),
		h.seedLot(t, "MILK-1", domain.UnitLitre, 6, 6),
		h.seedLot(t, "EGG-1", domain.UnitCount, 30, 12),
	}
	before := make(map[string]float64)
	for _, l := range lots {
		before[l.ID] = h.lot(t, l.ID).QtyRemaining
	}

	created := createBatch(t, h,
		domain.ConsumptionItem{LotID: lots[0].ID, Quantity: 333.3333, Unit: domain.UnitGram},
		domain.ConsumptionItem{LotID: lots[1].ID, Quantity: 1250, Unit: domain.UnitMillilitre},
		domain.ConsumptionItem{LotNumber: "EGG-1", Quantity: 14, Unit: domain.UnitCount},
		domain.ConsumptionItem{ProductName: "water", Quantity: 1, Unit: domain.UnitLitre},
	)
	assert.Len(t, created.Lots, 3)

	_, err := h.batches.DeleteBatch(h.ctx, created.Batch.ID)
	require.NoError(t, err)

	for _, l := range lots {
		assert.Equal(t, before[l.ID], h.lot(t, l.ID).QtyRemaining, "lot %s", l.LotNumber)
	}
}

func TestRecipeBatchService_UnitIncompatibilityRollsBack(t *testing.T) {
	h := newHarness(t)
	flour := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	eggs := h.seedLot(t, "EGG-1", domain.UnitCount, 12, 12)

	_, err := h.batches.CreateBatch(h.ctx, CreateRecipeBatchCommand{
		RecipeName: "omelette",
		Ingredients: []domain.ConsumptionItem{
			{LotID: flour.ID, Quantity: 1, Unit: domain.UnitKilogram},
			{LotID: eggs.ID, Quantity: 1, Unit: domain.UnitKilogram},
		},
	})

	appErr := requireAppErrorCode(t, err, apperrors.CodeUnitIncompatible)
	assert.Equal(t, eggs.ID, appErr.Details["lotId"])
	assert.Equal(t, "unit", appErr.Details["lotUnit"])
	assert.Equal(t, "kg", appErr.Details["itemUnit"])

	var incompatible *domain.UnitIncompatibilityError
	assert.True(t, errors.As(err, &incompatible))
	assert.Equal(t, 10.0, h.lot(t, flour.ID).QtyRemaining)
	assert.Equal(t, 12.0, h.lot(t, eggs.ID).QtyRemaining)
	assert.Empty(t, h.store.batches)
	assert.Equal(t, 1, h.tx.rollbacks)
}

func TestRecipeBatchService_SaveFailureRollsBackStock(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	h.store.saveBatchErr = errors.New("write conflict")

	_, err := h.batches.CreateBatch(h.ctx, CreateRecipeBatchCommand{
		RecipeName:  "brioche",
		Ingredients: []domain.ConsumptionItem{{LotID: lot.ID, Quantity: 3, Unit: domain.UnitKilogram}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write conflict")

	assert.Equal(t, 10.0, h.lot(t, lot.ID).QtyRemaining)
	assert.Empty(t, h.store.events)
}

func TestRecipeBatchService_UnknownLotIDIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.batches.CreateBatch(h.ctx, CreateRecipeBatchCommand{
		RecipeName:  "brioche",
		Ingredients: []domain.ConsumptionItem{{LotID: "missing", Quantity: 1, Unit: domain.UnitKilogram}},
	})

	appErr := requireAppErrorCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

// A deleted lot keeps its references; restoring them fails and the batch survives.
func TestRecipeBatchService_DeleteAfterLotDeletionFails(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	created := createBatch(t, h, domain.ConsumptionItem{LotID: lot.ID, Quantity: 1, Unit: domain.UnitKilogram})
	require.NoError(t, h.lots.DeleteLot(h.ctx, lot.ID))

	_, err := h.batches.DeleteBatch(h.ctx, created.Batch.ID)

	requireAppErrorCode(t, err, apperrors.CodeNotFound)
	assert.Contains(t, h.store.batches, created.Batch.ID)
}

func TestRecipeBatchService_ValidationErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		cmd  CreateRecipeBatchCommand
	}{
		{"missing recipe name", CreateRecipeBatchCommand{}},
		{"negative quantity", CreateRecipeBatchCommand{
			RecipeName:  "soup",
			Ingredients: []domain.ConsumptionItem{{LotNumber: "X", Quantity: -1, Unit: domain.UnitGram}},
		}},
		{"unknown unit", CreateRecipeBatchCommand{
			RecipeName:  "soup",
			Ingredients: []domain.ConsumptionItem{{LotNumber: "X", Quantity: 1, Unit: "lb"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.batches.CreateBatch(h.ctx, tt.cmd)
			requireAppErrorCode(t, err, apperrors.CodeValidationError)
		})
	}
	assert.Zero(t, h.tx.commits+h.tx.rollbacks)
}

func TestRecipeBatchService_TenantIsolation(t *testing.T) {
	h := newHarness(t)
	lot := h.seedLot(t, "FLOUR-1", domain.UnitKilogram, 10, 10)
	other := tenantContext("tenant-2")

	_, err := h.batches.CreateBatch(other, CreateRecipeBatchCommand{
		RecipeName:  "brioche",
		Ingredients: []domain.ConsumptionItem{{LotID: lot.ID, Quantity: 1, Unit: domain.UnitKilogram}},
	})
	requireAppErrorCode(t, err, apperrors.CodeNotFound)

	created := createBatch(t, h, domain.ConsumptionItem{LotID: lot.ID, Quantity: 1, Unit: domain.UnitKilogram})
	_, err = h.batches.GetBatch(other, created.Batch.ID)
	requireAppErrorCode(t, err, apperrors.CodeNotFound)

	assert.Equal(t, 9.0, h.lot(t, lot.ID).QtyRemaining)
}

func TestRecipeBatchService_RequiresTenant(t *testing.T) {
	h := newHarness(t)

	_, err := h.batches.ListBatches(context.Background(), ListQuery{})
	requireAppErrorCode(t, err, apperrors.CodeUnauthorized)
}

func TestRecipeBatchService_GetAndList(t *testing.T) {
	h := newHarness(t)
	created := createBatch(t, h, domain.ConsumptionItem{ProductName: "water", Quantity: 1, Unit: domain.UnitLitre})

	got, err := h.batches.GetBatch(h.ctx, created.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Batch.ID, got.ID)
	assert.Equal(t, "chef-1", got.PreparedBy)

	list, err := h.batches.ListBatches(h.ctx, ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.batches.GetBatch(h.ctx, "missing")
	requireAppErrorCode(t, err, apperrors.CodeNotFound)
}
