package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

// RecallService is the application surface used by RecallHandlers
type RecallService interface {
	CreateRecall(ctx context.Context, cmd application.CreateRecallCommand) (*application.RecallResult, error)
	UpdateRecall(ctx context.Context, cmd application.UpdateRecallCommand) (*application.RecallResult, error)
	DeleteRecall(ctx context.Context, id string) (*application.DeletionResult, error)
	GetRecall(ctx context.Context, id string) (*application.RecallDTO, error)
	ListRecalls(ctx context.Context, query application.ListQuery) ([]application.RecallDTO, error)
}

// RecallHandlers serves /recalls
type RecallHandlers struct {
	service RecallService
	logger  *logging.Logger
}

// NewRecallHandlers creates a new RecallHandlers
func NewRecallHandlers(service RecallService, logger *logging.Logger) *RecallHandlers {
	return &RecallHandlers{service: service, logger: logger}
}

// RegisterRoutes registers recall routes on the router
func (h *RecallHandlers) RegisterRoutes(router *gin.RouterGroup) {
	recalls := router.Group("/recalls")
	{
		recalls.POST("", h.CreateRecall)
		recalls.GET("", h.ListRecalls)
		recalls.GET("/:recallId", h.GetRecall)
		recalls.PUT("/:recallId", h.UpdateRecall)
		recalls.DELETE("/:recallId", h.DeleteRecall)
	}
}

// CreateRecall records a recall and debits its item
func (h *RecallHandlers) CreateRecall(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	var req RecallRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.CreateRecall(c.Request.Context(), req.createCommand())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// UpdateRecall replaces a recall and moves stock by the difference
func (h *RecallHandlers) UpdateRecall(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	recallID := c.Param("recallId")
	middleware.AddSpanAttributes(c, map[string]string{"recall.id": recallID})

	var req RecallRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.UpdateRecall(c.Request.Context(), req.updateCommand(recallID))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteRecall removes a recall and credits its item back
func (h *RecallHandlers) DeleteRecall(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	recallID := c.Param("recallId")
	middleware.AddSpanAttributes(c, map[string]string{"recall.id": recallID})

	result, err := h.service.DeleteRecall(c.Request.Context(), recallID)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RecallHandlers) GetRecall(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	recall, err := h.service.GetRecall(c.Request.Context(), c.Param("recallId"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, recall)
}

func (h *RecallHandlers) ListRecalls(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	recalls, err := h.service.ListRecalls(c.Request.Context(), listQuery(c))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, recalls)
}
