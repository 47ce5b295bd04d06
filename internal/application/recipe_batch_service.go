package application

import (
	"context"
	"fmt"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// RecipeBatchService handles recipe batch use cases. Every write runs in one transaction
// together with the stock movement it causes.
type RecipeBatchService struct {
	tx      domain.TransactionManager
	batches domain.RecipeBatchRepository
	engine  *AdjustmentEngine
	logger  *logging.Logger
}

// NewRecipeBatchService creates a new RecipeBatchService
func NewRecipeBatchService(
	tx domain.TransactionManager,
	batches domain.RecipeBatchRepository,
	engine *AdjustmentEngine,
	logger *logging.Logger,
) *RecipeBatchService {
	return &RecipeBatchService{
		tx:      tx,
		batches: batches,
		engine:  engine,
		logger:  logger,
	}
}

func batchSource(id string) domain.AdjustmentSource {
	return domain.AdjustmentSource{Type: domain.SourceRecipeBatch, ID: id}
}

// CreateBatch consumes the batch's ingredients and stores the batch.
func (s *RecipeBatchService) CreateBatch(ctx context.Context, cmd CreateRecipeBatchCommand) (*RecipeBatchResult, error) {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, toAppError(err)
	}

	batch, err := domain.NewRecipeBatch(tc.TenantID, tc.RestaurantID, domain.RecipeBatchParams{
		RecipeName:  cmd.RecipeName,
		PreparedAt:  cmd.PreparedAt,
		PreparedBy:  tc.ActorID,
		Yield:       cmd.Yield,
		Ingredients: cmd.Ingredients,
		Notes:       cmd.Notes,
	})
	if err != nil {
		return nil, toAppError(err)
	}

	var lots []domain.LotSnapshot
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		lots, err = s.engine.ApplyAdjustments(ctx, batch.Ingredients, domain.DirectionConsume, batchSource(batch.ID))
		if err != nil {
			return err
		}
		if err := s.batches.Save(ctx, batch); err != nil {
			return fmt.Errorf("failed to save recipe batch: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to create recipe batch", "recipeName", cmd.RecipeName)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "recipe_batch.created",
		EntityType: "recipe_batch",
		EntityID:   batch.ID,
		Action:     "create",
		RelatedIDs: map[string]string{"recipeName": batch.RecipeName},
	})
	return &RecipeBatchResult{Batch: ToRecipeBatchDTO(batch), Lots: lots}, nil
}

// UpdateBatch restores the stored ingredients, consumes the new ones and stores the batch.
// Saving unchanged ingredients therefore nets to no stock movement.
func (s *RecipeBatchService) UpdateBatch(ctx context.Context, cmd UpdateRecipeBatchCommand) (*RecipeBatchResult, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}

	params := domain.RecipeBatchParams{
		RecipeName:  cmd.RecipeName,
		PreparedAt:  cmd.PreparedAt,
		PreparedBy:  tenant.GetActorID(ctx),
		Yield:       cmd.Yield,
		Ingredients: cmd.Ingredients,
		Notes:       cmd.Notes,
	}

	var (
		batch *domain.RecipeBatch
		lots  []domain.LotSnapshot
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.load(ctx, cmd.BatchID)
		if err != nil {
			return err
		}
		previous := batch.Ingredients
		if err := batch.Update(params); err != nil {
			return err
		}

		restored, err := s.engine.ApplyAdjustments(ctx, previous, domain.DirectionRestore, batchSource(batch.ID))
		if err != nil {
			return err
		}
		consumed, err := s.engine.ApplyAdjustments(ctx, batch.Ingredients, domain.DirectionConsume, batchSource(batch.ID))
		if err != nil {
			return err
		}
		lots = mergeSnapshots(restored, consumed)

		if err := s.batches.Update(ctx, batch); err != nil {
			return fmt.Errorf("failed to update recipe batch: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to update recipe batch", "batchId", cmd.BatchID)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "recipe_batch.updated",
		EntityType: "recipe_batch",
		EntityID:   batch.ID,
		Action:     "update",
	})
	return &RecipeBatchResult{Batch: ToRecipeBatchDTO(batch), Lots: lots}, nil
}

// DeleteBatch restores the batch's ingredients and deletes it.
func (s *RecipeBatchService) DeleteBatch(ctx context.Context, id string) (*DeletionResult, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}

	var lots []domain.LotSnapshot
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		batch, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		lots, err = s.engine.ApplyAdjustments(ctx, batch.Ingredients, domain.DirectionRestore, batchSource(batch.ID))
		if err != nil {
			return err
		}
		if err := s.batches.Delete(ctx, batch.ID); err != nil {
			return fmt.Errorf("failed to delete recipe batch: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to delete recipe batch", "batchId", id)
		return nil, toAppError(err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "recipe_batch.deleted",
		EntityType: "recipe_batch",
		EntityID:   id,
		Action:     "delete",
	})
	return &DeletionResult{ID: id, Lots: lots}, nil
}

// GetBatch returns one batch
func (s *RecipeBatchService) GetBatch(ctx context.Context, id string) (*RecipeBatchDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	batch, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToRecipeBatchDTO(batch), nil
}

// ListBatches returns a page of batches, most recently prepared first
func (s *RecipeBatchService) ListBatches(ctx context.Context, query ListQuery) ([]RecipeBatchDTO, error) {
	if _, err := tenant.FromContext(ctx); err != nil {
		return nil, toAppError(err)
	}
	batches, err := s.batches.FindAll(ctx, domain.ListOptions{Limit: pageLimit(query.Limit), Offset: query.Offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe batches: %w", err)
	}
	out := make([]RecipeBatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, *ToRecipeBatchDTO(b))
	}
	return out, nil
}

func (s *RecipeBatchService) load(ctx context.Context, id string) (*domain.RecipeBatch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe batch %s: %w", id, err)
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	return batch, nil
}
