package application

import (
	"context"
	"fmt"
	"time"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/errors"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// LotService handles direct lot entry and lookup. It never changes the remaining quantity
// of an existing lot.
type LotService struct {
	tx     domain.TransactionManager
	lots   domain.LotRepository
	events domain.EventRecorder
	logger *logging.Logger
}

// NewLotService creates a new LotService. events may be nil.
func NewLotService(tx domain.TransactionManager, lots domain.LotRepository, events domain.EventRecorder, logger *logging.Logger) *LotService {
	return &LotService{
		tx:     tx,
		lots:   lots,
		events: events,
		logger: logger,
	}
}

// CreateLot enters a lot that did not arrive through a recorded delivery
func (s *LotService) CreateLot(ctx context.Context, cmd CreateLotCommand) (*LotDTO, error) {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, toAppError(err)
	}

	lot, err := domain.NewInventoryLot(tc.TenantID, tc.RestaurantID, domain.NewLotParams{
		ProductName: cmd.ProductName,
		Supplier:    cmd.Supplier,
		LotNumber:   cmd.LotNumber,
		Unit:        cmd.Unit,
		QtyReceived: cmd.QtyReceived,
		ExpiryDate:  cmd.ExpiryDate,
		UseByDate:   cmd.UseByDate,
		Storage:     cmd.Storage,
		CreatedBy:   tc.ActorID,
	})
	if err != nil {
		return nil, toAppError(err)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.lots.Save(ctx, lot); err != nil {
			return fmt.Errorf("failed to save lot: %w", err)
		}
		return recordEvents(ctx, s.events, receivedEvent(lot))
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to create lot", "lotNumber", cmd.LotNumber)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "lot.received",
		EntityType: "lot",
		EntityID:   lot.ID,
		Action:     "create",
		RelatedIDs: map[string]string{"lotNumber": lot.LotNumber},
	})
	return ToLotDTO(lot), nil
}

// GetLot returns one lot
func (s *LotService) GetLot(ctx context.Context, id string) (*LotDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	lot, err := s.lots.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load lot %s: %w", id, err)
	}
	if lot == nil {
		return nil, errors.ErrNotFoundWithID("lot", id)
	}
	return ToLotDTO(lot), nil
}

// ListLots returns lots matching query, newest first
func (s *LotService) ListLots(ctx context.Context, query ListLotsQuery) ([]LotDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	if query.Status != "" && !query.Status.IsValid() {
		return nil, toAppError(fmt.Errorf("%w: %q", domain.ErrInvalidLotStatus, query.Status))
	}

	lots, err := s.lots.FindAll(ctx, domain.LotFilter{
		ProductName: query.ProductName,
		LotNumber:   query.LotNumber,
		Status:      query.Status,
		ReceptionID: query.ReceptionID,
		Limit:       pageLimit(query.Limit),
		Offset:      query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return ToLotDTOs(lots), nil
}

// DeleteLot removes a lot. Documents that reference it keep their references; restoring
// them later fails with a lot-not-found error.
func (s *LotService) DeleteLot(ctx context.Context, id string) error {
	if _, err := tenant.FromContext(ctx); err != nil {
		return toAppError(err)
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.lots.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load lot %s: %w", id, err)
		}
		if lot == nil {
			return &domain.LotNotFoundError{LotID: id}
		}
		if err := s.lots.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete lot %s: %w", id, err)
		}
		return recordEvents(ctx, s.events, &domain.LotDeletedEvent{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			DeletedBy: tenant.GetActorID(ctx),
			DeletedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "lot.deleted",
		EntityType: "lot",
		EntityID:   id,
		Action:     "delete",
	})
	return nil
}

func receivedEvent(lot *domain.InventoryLot) *domain.LotReceivedEvent {
	return &domain.LotReceivedEvent{
		LotID:       lot.ID,
		ProductName: lot.ProductName,
		LotNumber:   lot.LotNumber,
		Unit:        lot.Unit,
		QtyReceived: lot.QtyReceived,
		ReceptionID: lot.ReceptionID,
		ReceivedAt:  lot.CreatedAt,
	}
}

func recordEvents(ctx context.Context, recorder domain.EventRecorder, events ...domain.DomainEvent) error {
	if recorder == nil || len(events) == 0 {
		return nil
	}
	if err := recorder.Record(ctx, events...); err != nil {
		return fmt.Errorf("failed to record ledger events: %w", err)
	}
	return nil
}
