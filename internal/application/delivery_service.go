package application

import (
	"context"
	"fmt"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// DeliveryService records goods receipts
type DeliveryService struct {
	tx         domain.TransactionManager
	deliveries domain.DeliveryRepository
	lots       domain.LotRepository
	events     domain.EventRecorder
	logger     *logging.Logger
}

// NewDeliveryService creates a new DeliveryService. events may be nil.
func NewDeliveryService(
	tx domain.TransactionManager,
	deliveries domain.DeliveryRepository,
	lots domain.LotRepository,
	events domain.EventRecorder,
	logger *logging.Logger,
) *DeliveryService {
	return &DeliveryService{
		tx:         tx,
		deliveries: deliveries,
		lots:       lots,
		events:     events,
		logger:     logger,
	}
}

// RecordDelivery stores a delivery and spawns one lot per tracked line, linking each line
// to its lot and each lot back to its line.
func (s *DeliveryService) RecordDelivery(ctx context.Context, cmd RecordDeliveryCommand) (*DeliveryResult, error) {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, toAppError(err)
	}

	params := domain.NewDeliveryParams{
		Supplier:   cmd.Supplier,
		Reference:  cmd.Reference,
		ReceivedAt: cmd.ReceivedAt,
		ReceivedBy: tc.ActorID,
		Notes:      cmd.Notes,
		Lines:      cmd.Lines,
	}
	if _, err := domain.NewDelivery(tc.TenantID, tc.RestaurantID, params); err != nil {
		return nil, toAppError(err)
	}

	var (
		delivery *domain.Delivery
		lots     []*domain.InventoryLot
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// Built inside the transaction so a retried attempt gets fresh ids.
		var err error
		delivery, err = domain.NewDelivery(tc.TenantID, tc.RestaurantID, params)
		if err != nil {
			return err
		}

		lots = make([]*domain.InventoryLot, 0, len(delivery.Lines))
		events := make([]domain.DomainEvent, 0, len(delivery.Lines))
		for i := range delivery.Lines {
			if delivery.Lines[i].Untracked {
				continue
			}
			lot, err := domain.NewInventoryLot(tc.TenantID, tc.RestaurantID, delivery.LotParams(i, tc.ActorID))
			if err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}
			if err := s.lots.Save(ctx, lot); err != nil {
				return fmt.Errorf("failed to save lot for line %d: %w", i, err)
			}
			delivery.Lines[i].LotID = lot.ID
			lots = append(lots, lot)
			events = append(events, receivedEvent(lot))
		}

		if err := s.deliveries.Save(ctx, delivery); err != nil {
			return fmt.Errorf("failed to save delivery: %w", err)
		}
		return recordEvents(ctx, s.events, events...)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to record delivery", "supplier", cmd.Supplier)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "delivery.recorded",
		EntityType: "delivery",
		EntityID:   delivery.ID,
		Action:     "create",
		RelatedIDs: map[string]string{
			"supplier":  delivery.Supplier,
			"lotsCount": fmt.Sprintf("%d", len(lots)),
		},
	})
	return &DeliveryResult{Delivery: ToDeliveryDTO(delivery), Lots: ToLotDTOs(lots)}, nil
}

// GetDelivery returns one delivery
func (s *DeliveryService) GetDelivery(ctx context.Context, id string) (*DeliveryDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	delivery, err := s.deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery %s: %w", id, err)
	}
	if delivery == nil {
		return nil, toAppError(fmt.Errorf("%w: %s", domain.ErrDeliveryNotFound, id))
	}
	return ToDeliveryDTO(delivery), nil
}

// ListDeliveries returns a page of deliveries, most recently received first
func (s *DeliveryService) ListDeliveries(ctx context.Context, query ListQuery) ([]DeliveryDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	deliveries, err := s.deliveries.FindAll(ctx, domain.ListOptions{Limit: pageLimit(query.Limit), Offset: query.Offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	out := make([]DeliveryDTO, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, *ToDeliveryDTO(d))
	}
	return out, nil
}
