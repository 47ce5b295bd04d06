package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/metrics"
	"github.com/kitchenops/inventory-ledger/pkg/tracing"
)

// AdjustmentEngine is the only writer of InventoryLot.qtyRemaining and status. Callers
// run it inside a transaction; it does not open one itself.
type AdjustmentEngine struct {
	lots    domain.LotRepository
	syncer  *DeliveryLineSynchronizer
	events  domain.EventRecorder
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewAdjustmentEngine creates an AdjustmentEngine. events and m may be nil.
func NewAdjustmentEngine(
	lots domain.LotRepository,
	syncer *DeliveryLineSynchronizer,
	events domain.EventRecorder,
	m *metrics.Metrics,
	logger *logging.Logger,
) *AdjustmentEngine {
	return &AdjustmentEngine{
		lots:    lots,
		syncer:  syncer,
		events:  events,
		metrics: m,
		logger:  logger.WithComponent("adjustment-engine"),
	}
}

// plannedAdjustment is one resolved item: the target lot and the signed delta in the
// lot's own unit.
type plannedAdjustment struct {
	lot   *domain.InventoryLot
	delta float64
}

// touchedSet keeps lot ids in first-touch order
type touchedSet struct {
	ids  []string
	seen map[string]struct{}
}

func newTouchedSet() *touchedSet {
	return &touchedSet{seen: make(map[string]struct{})}
}

func (t *touchedSet) add(id string) {
	if _, ok := t.seen[id]; ok {
		return
	}
	t.seen[id] = struct{}{}
	t.ids = append(t.ids, id)
}

// ApplyAdjustments consumes or restores every item against its lot and returns the final
// state of each lot touched, in the order first touched. Every item is resolved and
// converted before the first write, so a missing lot or an incompatible unit leaves all
// lots as they were. Items without a resolvable lot-number reference are skipped.
func (e *AdjustmentEngine) ApplyAdjustments(ctx context.Context, items []domain.ConsumptionItem, direction domain.Direction, source domain.AdjustmentSource) (_ []domain.LotSnapshot, err error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.ApplyAdjustments", append(sourceAttributes(source),
		attribute.String("ledger.direction", string(direction)),
		attribute.Int("ledger.items", len(items)),
	)...)
	defer func() { tracing.EndSpan(span, err) }()

	if !direction.IsValid() {
		return nil, fmt.Errorf("unknown adjustment direction %q", direction)
	}

	plans, err := e.plan(ctx, items, direction)
	if err != nil {
		return nil, err
	}

	touched := newTouchedSet()
	for _, p := range plans {
		lot, err := e.increment(ctx, p.lot.ID, p.delta)
		if err != nil {
			return nil, err
		}
		if err := e.settle(ctx, lot, direction, p.delta, source); err != nil {
			return nil, err
		}
		touched.add(lot.ID)
	}

	return e.snapshots(ctx, touched.ids)
}

// ApplyDelta moves stock from the effect of oldItems to the effect of newItems in one pass:
// per lot it nets restore(old) against consume(new) and increments once. Every lot in the
// union of old and new targets is then clamped, re-derived and synced, so retargeting an
// item credits the old lot and debits the new one.
func (e *AdjustmentEngine) ApplyDelta(ctx context.Context, oldItems, newItems []domain.ConsumptionItem, source domain.AdjustmentSource) (_ []domain.LotSnapshot, err error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.ApplyDelta", append(sourceAttributes(source),
		attribute.Int("ledger.old_items", len(oldItems)),
		attribute.Int("ledger.new_items", len(newItems)),
	)...)
	defer func() { tracing.EndSpan(span, err) }()

	restores, err := e.plan(ctx, oldItems, domain.DirectionRestore)
	if err != nil {
		return nil, err
	}
	consumes, err := e.plan(ctx, newItems, domain.DirectionConsume)
	if err != nil {
		return nil, err
	}

	touched := newTouchedSet()
	net := make(map[string]float64)
	for _, p := range append(restores, consumes...) {
		touched.add(p.lot.ID)
		net[p.lot.ID] = domain.AddRounded(net[p.lot.ID], p.delta, p.lot.Unit)
	}

	for _, id := range touched.ids {
		delta := net[id]

		var lot *domain.InventoryLot
		if delta != 0 {
			lot, err = e.increment(ctx, id, delta)
		} else {
			lot, err = e.lots.FindByID(ctx, id)
			if err == nil && lot == nil {
				err = &domain.LotNotFoundError{LotID: id}
			}
		}
		if err != nil {
			return nil, err
		}

		direction := domain.DirectionConsume
		if delta > 0 {
			direction = domain.DirectionRestore
		}
		if err := e.settle(ctx, lot, direction, delta, source); err != nil {
			return nil, err
		}
	}

	return e.snapshots(ctx, touched.ids)
}

func sourceAttributes(source domain.AdjustmentSource) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ledger.source_type", source.Type),
		attribute.String("ledger.source_id", source.ID),
	}
}

// plan resolves and converts every item without writing anything.
func (e *AdjustmentEngine) plan(ctx context.Context, items []domain.ConsumptionItem, direction domain.Direction) ([]plannedAdjustment, error) {
	plans := make([]plannedAdjustment, 0, len(items))
	for i, item := range items {
		res, err := e.resolveLot(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		switch res.Kind {
		case domain.ResolutionNotFound:
			return nil, res.Err()
		case domain.ResolutionSkipped:
			e.metrics.RecordSkippedItem()
			e.logger.WithContext(ctx).Debug("Skipping item without stock linkage",
				"index", i, "lotNumber", item.LotNumber, "productName", item.ProductName)
			continue
		}

		lot := res.Lot
		qty, err := domain.Convert(math.Abs(item.Quantity), item.Unit, lot.Unit)
		if err != nil {
			var incompatible *domain.UnitIncompatibilityError
			if errors.As(err, &incompatible) {
				incompatible.LotID = lot.ID
				e.metrics.RecordUnitIncompatibility()
				return nil, incompatible
			}
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		plans = append(plans, plannedAdjustment{
			lot:   lot,
			delta: direction.Sign() * domain.Round(qty, lot.Unit),
		})
	}
	return plans, nil
}

// resolveLot picks the lot an item targets. An explicit id must exist; otherwise the
// newest lot carrying the item's lot number is used, and an item matching nothing is
// skipped.
func (e *AdjustmentEngine) resolveLot(ctx context.Context, item domain.ConsumptionItem) (domain.Resolution, error) {
	if id := strings.TrimSpace(item.LotID); id != "" {
		lot, err := e.lots.FindByID(ctx, id)
		if err != nil {
			return domain.Resolution{}, fmt.Errorf("failed to load lot %s: %w", id, err)
		}
		if lot == nil {
			return domain.NotFound(id), nil
		}
		return domain.Found(lot), nil
	}

	if number := strings.TrimSpace(item.LotNumber); number != "" {
		lot, err := e.lots.FindLatestByLotNumber(ctx, number)
		if err != nil {
			return domain.Resolution{}, fmt.Errorf("failed to resolve lot number %s: %w", number, err)
		}
		if lot != nil {
			return domain.Found(lot), nil
		}
	}

	return domain.Skipped(), nil
}

func (e *AdjustmentEngine) increment(ctx context.Context, id string, delta float64) (*domain.InventoryLot, error) {
	lot, err := e.lots.IncrementRemaining(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust lot %s: %w", id, err)
	}
	if lot == nil {
		return nil, &domain.LotNotFoundError{LotID: id}
	}
	return lot, nil
}

// settle rounds and clamps the post-increment quantity, re-derives status, mirrors the lot
// onto its delivery line and records events. lot is updated in place.
func (e *AdjustmentEngine) settle(ctx context.Context, lot *domain.InventoryLot, direction domain.Direction, delta float64, source domain.AdjustmentSource) error {
	remaining := domain.ClampRemaining(domain.Round(lot.QtyRemaining, lot.Unit), lot.QtyReceived)
	if remaining != lot.QtyRemaining {
		if err := e.lots.SetRemaining(ctx, lot.ID, remaining); err != nil {
			return fmt.Errorf("failed to clamp lot %s: %w", lot.ID, err)
		}
		lot.QtyRemaining = remaining
	}

	previous := lot.Status
	status := domain.DeriveStatus(previous, remaining)
	if status != previous {
		if err := e.lots.SetStatus(ctx, lot.ID, status); err != nil {
			return fmt.Errorf("failed to update status of lot %s: %w", lot.ID, err)
		}
		lot.Status = status
	}

	if _, err := e.syncer.Sync(ctx, lot); err != nil {
		return err
	}

	if delta == 0 {
		return nil
	}
	e.metrics.RecordLotAdjustment(string(direction))
	if remaining < 0 {
		e.logger.WithContext(ctx).Warn("Lot remaining quantity is negative",
			"lotId", lot.ID, "qtyRemaining", remaining, "unit", lot.Unit)
	}

	now := time.Now().UTC()
	events := []domain.DomainEvent{&domain.LotAdjustedEvent{
		LotID:        lot.ID,
		Direction:    direction,
		Delta:        delta,
		Unit:         lot.Unit,
		QtyRemaining: remaining,
		Status:       status,
		Source:       source,
		AdjustedAt:   now,
	}}
	if status == domain.LotStatusUsed && previous != domain.LotStatusUsed {
		e.metrics.RecordLotDepleted()
		events = append(events, &domain.LotDepletedEvent{
			LotID:        lot.ID,
			ProductName:  lot.ProductName,
			LotNumber:    lot.LotNumber,
			QtyRemaining: remaining,
			Unit:         lot.Unit,
			DepletedAt:   now,
		})
	}
	return recordEvents(ctx, e.events, events...)
}

// snapshots re-reads the touched lots and returns them in touch order.
func (e *AdjustmentEngine) snapshots(ctx context.Context, ids []string) ([]domain.LotSnapshot, error) {
	if len(ids) == 0 {
		return []domain.LotSnapshot{}, nil
	}

	lots, err := e.lots.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to reload adjusted lots: %w", err)
	}
	byID := make(map[string]*domain.InventoryLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	out := make([]domain.LotSnapshot, 0, len(ids))
	for _, id := range ids {
		if lot, ok := byID[id]; ok {
			out = append(out, lot.Snapshot())
		}
	}
	return out, nil
}
