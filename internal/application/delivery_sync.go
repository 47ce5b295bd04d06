package application

import (
	"context"
	"fmt"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/metrics"
)

// SyncResult is the outcome of mirroring one lot onto its delivery line
type SyncResult string

const (
	SyncNoOrigin        SyncResult = "no_origin"
	SyncDeliveryMissing SyncResult = "delivery_missing"
	SyncLineMissing     SyncResult = "line_missing"
	SyncUnitMismatch    SyncResult = "unit_mismatch"
	SyncUnchanged       SyncResult = "unchanged"
	SyncUpdated         SyncResult = "updated"
)

// DeliveryLineSynchronizer copies a lot's remaining quantity onto the delivery line that
// spawned it. It is the only writer of DeliveryLine.qtyRemaining and never reads the line
// back into the lot.
type DeliveryLineSynchronizer struct {
	deliveries domain.DeliveryRepository
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewDeliveryLineSynchronizer creates a DeliveryLineSynchronizer
func NewDeliveryLineSynchronizer(deliveries domain.DeliveryRepository, m *metrics.Metrics, logger *logging.Logger) *DeliveryLineSynchronizer {
	return &DeliveryLineSynchronizer{
		deliveries: deliveries,
		metrics:    m,
		logger:     logger,
	}
}

// Sync mirrors lot.QtyRemaining onto its origin line. Lines are matched by id; lots whose
// line id is unknown fall back to the first line with the same lot number, product name
// and unit, and the value written through that path is bounded to [0, line.qty]. A missing
// delivery, line or convertible unit is a no-op.
func (s *DeliveryLineSynchronizer) Sync(ctx context.Context, lot *domain.InventoryLot) (SyncResult, error) {
	result, err := s.sync(ctx, lot)
	if err == nil {
		s.metrics.RecordDeliveryLineSync(string(result))
	}
	return result, err
}

func (s *DeliveryLineSynchronizer) sync(ctx context.Context, lot *domain.InventoryLot) (SyncResult, error) {
	if !lot.HasOrigin() {
		return SyncNoOrigin, nil
	}

	delivery, err := s.deliveries.FindByID(ctx, lot.ReceptionID)
	if err != nil {
		return "", fmt.Errorf("failed to load delivery %s: %w", lot.ReceptionID, err)
	}
	if delivery == nil {
		return SyncDeliveryMissing, nil
	}

	idx := delivery.LineIndex(lot.ReceptionLineID)
	fallback := idx < 0
	if fallback {
		idx = delivery.MatchLineIndex(lot.LotNumber, lot.ProductName, lot.Unit)
	}
	if idx < 0 {
		s.logger.WithContext(ctx).Debug("No delivery line for lot",
			"lotId", lot.ID, "receptionId", lot.ReceptionID, "receptionLineId", lot.ReceptionLineID)
		return SyncLineMissing, nil
	}
	line := delivery.Lines[idx]

	value, err := domain.Convert(lot.QtyRemaining, lot.Unit, line.Unit)
	if err != nil {
		s.logger.WithContext(ctx).Warn("Delivery line unit does not match lot unit",
			"lotId", lot.ID, "lotUnit", lot.Unit, "lineUnit", line.Unit)
		return SyncUnitMismatch, nil
	}
	value = domain.Round(value, line.Unit)
	if fallback {
		value = boundLineRemaining(value, line.Qty)
	}

	if value == line.QtyRemaining {
		return SyncUnchanged, nil
	}
	matched, err := s.deliveries.SetLineRemaining(ctx, delivery.ID, idx, line, value)
	if err != nil {
		return "", fmt.Errorf("failed to update line %d of delivery %s: %w", idx, delivery.ID, err)
	}
	if !matched {
		s.logger.WithContext(ctx).Debug("Delivery line changed before sync",
			"lotId", lot.ID, "receptionId", lot.ReceptionID, "lineIndex", idx)
		return SyncLineMissing, nil
	}
	return SyncUpdated, nil
}

func boundLineRemaining(value, qty float64) float64 {
	if value < 0 {
		return 0
	}
	if value > qty {
		return qty
	}
	return value
}
