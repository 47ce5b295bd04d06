package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

// DeliveryService is the application surface used by DeliveryHandlers
type DeliveryService interface {
	RecordDelivery(ctx context.Context, cmd application.RecordDeliveryCommand) (*application.DeliveryResult, error)
	GetDelivery(ctx context.Context, id string) (*application.DeliveryDTO, error)
	ListDeliveries(ctx context.Context, query application.ListQuery) ([]application.DeliveryDTO, error)
}

// DeliveryHandlers serves /deliveries
type DeliveryHandlers struct {
	service DeliveryService
	logger  *logging.Logger
}

// NewDeliveryHandlers creates a new DeliveryHandlers
func NewDeliveryHandlers(service DeliveryService, logger *logging.Logger) *DeliveryHandlers {
	return &DeliveryHandlers{service: service, logger: logger}
}

// RegisterRoutes registers delivery routes on the router
func (h *DeliveryHandlers) RegisterRoutes(router *gin.RouterGroup) {
	deliveries := router.Group("/deliveries")
	{
		deliveries.POST("", h.RecordDelivery)
		deliveries.GET("", h.ListDeliveries)
		deliveries.GET("/:deliveryId", h.GetDelivery)
	}
}

// RecordDelivery stores a delivery and spawns one lot per tracked line
func (h *DeliveryHandlers) RecordDelivery(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	var req RecordDeliveryRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]string{"delivery.supplier": req.Supplier})

	result, err := h.service.RecordDelivery(c.Request.Context(), req.command())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *DeliveryHandlers) GetDelivery(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	deliveryID := c.Param("deliveryId")
	middleware.AddSpanAttributes(c, map[string]string{"delivery.id": deliveryID})

	delivery, err := h.service.GetDelivery(c.Request.Context(), deliveryID)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandlers) ListDeliveries(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	deliveries, err := h.service.ListDeliveries(c.Request.Context(), listQuery(c))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, deliveries)
}
