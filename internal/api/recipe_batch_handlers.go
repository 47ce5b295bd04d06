package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

// RecipeBatchService is the application surface used by RecipeBatchHandlers
type RecipeBatchService interface {
	CreateBatch(ctx context.Context, cmd application.CreateRecipeBatchCommand) (*application.RecipeBatchResult, error)
	UpdateBatch(ctx context.Context, cmd application.UpdateRecipeBatchCommand) (*application.RecipeBatchResult, error)
	DeleteBatch(ctx context.Context, id string) (*application.DeletionResult, error)
	GetBatch(ctx context.Context, id string) (*application.RecipeBatchDTO, error)
	ListBatches(ctx context.Context, query application.ListQuery) ([]application.RecipeBatchDTO, error)
}

// RecipeBatchHandlers serves /recipe-batches
type RecipeBatchHandlers struct {
	service RecipeBatchService
	logger  *logging.Logger
}

// NewRecipeBatchHandlers creates a new RecipeBatchHandlers
func NewRecipeBatchHandlers(service RecipeBatchService, logger *logging.Logger) *RecipeBatchHandlers {
	return &RecipeBatchHandlers{service: service, logger: logger}
}

// RegisterRoutes registers recipe batch routes on the router
func (h *RecipeBatchHandlers) RegisterRoutes(router *gin.RouterGroup) {
	batches := router.Group("/recipe-batches")
	{
		batches.POST("", h.CreateBatch)
		batches.GET("", h.ListBatches)
		batches.GET("/:batchId", h.GetBatch)
		batches.PUT("/:batchId", h.UpdateBatch)
		batches.DELETE("/:batchId", h.DeleteBatch)
	}
}

// CreateBatch records a batch and consumes its ingredients
func (h *RecipeBatchHandlers) CreateBatch(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	var req RecipeBatchRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.CreateBatch(c.Request.Context(), req.createCommand())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// UpdateBatch replaces a batch, restoring its previous ingredients first
func (h *RecipeBatchHandlers) UpdateBatch(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	batchID := c.Param("batchId")
	middleware.AddSpanAttributes(c, map[string]string{"batch.id": batchID})

	var req RecipeBatchRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.UpdateBatch(c.Request.Context(), req.updateCommand(batchID))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteBatch removes a batch and restores its ingredients
func (h *RecipeBatchHandlers) DeleteBatch(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	batchID := c.Param("batchId")
	middleware.AddSpanAttributes(c, map[string]string{"batch.id": batchID})

	result, err := h.service.DeleteBatch(c.Request.Context(), batchID)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RecipeBatchHandlers) GetBatch(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	batch, err := h.service.GetBatch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (h *RecipeBatchHandlers) ListBatches(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	batches, err := h.service.ListBatches(c.Request.Context(), listQuery(c))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, batches)
}
