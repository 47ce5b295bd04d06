package application

import (
	"context"
	"fmt"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// RecallService handles recall use cases
type RecallService struct {
	tx      domain.TransactionManager
	recalls domain.RecallRepository
	engine  *AdjustmentEngine
	logger  *logging.Logger
}

// NewRecallService creates a new RecallService
func NewRecallService(
	tx domain.TransactionManager,
	recalls domain.RecallRepository,
	engine *AdjustmentEngine,
	logger *logging.Logger,
) *RecallService {
	return &RecallService{
		tx:      tx,
		recalls: recalls,
		engine:  engine,
		logger:  logger,
	}
}

func recallSource(id string) domain.AdjustmentSource {
	return domain.AdjustmentSource{Type: domain.SourceRecall, ID: id}
}

// CreateRecall pulls the recalled item out of stock and stores the recall.
func (s *RecallService) CreateRecall(ctx context.Context, cmd CreateRecallCommand) (*RecallResult, error) {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, toAppError(err)
	}

	recall, err := domain.NewRecall(tc.TenantID, tc.RestaurantID, domain.RecallParams{
		Source:     cmd.Source,
		Reason:     cmd.Reason,
		Item:       cmd.Item,
		IssuedAt:   cmd.IssuedAt,
		IssuedBy:   tc.ActorID,
		Attachment: cmd.Attachment,
		Notes:      cmd.Notes,
	})
	if err != nil {
		return nil, toAppError(err)
	}

	var lots []domain.LotSnapshot
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		lots, err = s.engine.ApplyAdjustments(ctx, recall.Items(), domain.DirectionConsume, recallSource(recall.ID))
		if err != nil {
			return err
		}
		if err := s.recalls.Save(ctx, recall); err != nil {
			return fmt.Errorf("failed to save recall: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to create recall", "source", cmd.Source)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "recall.created",
		EntityType: "recall",
		EntityID:   recall.ID,
		Action:     "create",
		RelatedIDs: map[string]string{"source": string(recall.Source)},
	})
	return &RecallResult{Recall: ToRecallDTO(recall), Lots: lots}, nil
}

// UpdateRecall replaces a recall. Stock moves by the net difference between the stored
// item and the new one, so each touched lot is adjusted once.
func (s *RecallService) UpdateRecall(ctx context.Context, cmd UpdateRecallCommand) (*RecallResult, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}

	params := domain.RecallParams{
		Source:     cmd.Source,
		Reason:     cmd.Reason,
		Item:       cmd.Item,
		IssuedAt:   cmd.IssuedAt,
		IssuedBy:   tenant.GetActorID(ctx),
		Attachment: cmd.Attachment,
		Notes:      cmd.Notes,
	}

	var (
		recall *domain.Recall
		lots   []domain.LotSnapshot
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		recall, err = s.load(ctx, cmd.RecallID)
		if err != nil {
			return err
		}
		previous := recall.Items()
		if err := recall.Update(params); err != nil {
			return err
		}

		lots, err = s.engine.ApplyDelta(ctx, previous, recall.Items(), recallSource(recall.ID))
		if err != nil {
			return err
		}
		if err := s.recalls.Update(ctx, recall); err != nil {
			return fmt.Errorf("failed to update recall: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to update recall", "recallId", cmd.RecallID)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "recall.updated",
		EntityType: "recall",
		EntityID:   recall.ID,
		Action:     "update",
	})
	return &RecallResult{Recall: ToRecallDTO(recall), Lots: lots}, nil
}

// DeleteRecall puts the recalled quantity back and deletes the recall.
func (s *RecallService) DeleteRecall(ctx context.Context, id string) (*DeletionResult, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}

	var lots []domain.LotSnapshot
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		recall, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		lots, err = s.engine.ApplyAdjustments(ctx, recall.Items(), domain.DirectionRestore, recallSource(recall.ID))
		if err != nil {
			return err
		}
		if err := s.recalls.Delete(ctx, recall.ID); err != nil {
			return fmt.Errorf("failed to delete recall: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to delete recall", "recallId", id)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "recall.deleted",
		EntityType: "recall",
		EntityID:   id,
		Action:     "delete",
	})
	return &DeletionResult{ID: id, Lots: lots}, nil
}

// GetRecall returns one recall
func (s *RecallService) GetRecall(ctx context.Context, id string) (*RecallDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	recall, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToRecallDTO(recall), nil
}

// ListRecalls returns a page of recalls, most recently issued first
func (s *RecallService) ListRecalls(ctx context.Context, query ListQuery) ([]RecallDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	recalls, err := s.recalls.FindAll(ctx, domain.ListOptions{Limit: pageLimit(query.Limit), Offset: query.Offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list recalls: %w", err)
	}
	out := make([]RecallDTO, 0, len(recalls))
	for _, r := range recalls {
		out = append(out, *ToRecallDTO(r))
	}
	return out, nil
}

func (s *RecallService) load(ctx context.Context, id string) (*domain.Recall, error) {
	recall, err := s.recalls.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load recall %s: %w", id, err)
	}
	if recall == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecallNotFound, id)
	}
	return recall, nil
}
