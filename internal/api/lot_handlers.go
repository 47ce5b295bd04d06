package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

// LotService is the application surface used by LotHandlers
type LotService interface {
	CreateLot(ctx context.Context, cmd application.CreateLotCommand) (*application.LotDTO, error)
	GetLot(ctx context.Context, id string) (*application.LotDTO, error)
	ListLots(ctx context.Context, query application.ListLotsQuery) ([]application.LotDTO, error)
	DeleteLot(ctx context.Context, id string) error
}

// LotHandlers serves /lots
type LotHandlers struct {
	service LotService
	logger  *logging.Logger
}

// NewLotHandlers creates a new LotHandlers
func NewLotHandlers(service LotService, logger *logging.Logger) *LotHandlers {
	return &LotHandlers{service: service, logger: logger}
}

// RegisterRoutes registers lot routes on the router
func (h *LotHandlers) RegisterRoutes(router *gin.RouterGroup) {
	lots := router.Group("/lots")
	{
		lots.POST("", h.CreateLot)
		lots.GET("", h.ListLots)
		lots.GET("/:lotId", h.GetLot)
		lots.DELETE("/:lotId", h.DeleteLot)
	}
}

// CreateLot enters a lot that did not arrive through a delivery
func (h *LotHandlers) CreateLot(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	var req CreateLotRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]string{"lot.number": req.LotNumber})

	lot, err := h.service.CreateLot(c.Request.Context(), req.command())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

func (h *LotHandlers) GetLot(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	lotID := c.Param("lotId")
	middleware.AddSpanAttributes(c, map[string]string{"lot.id": lotID})

	lot, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// ListLots filters by productName, lotNumber, status and receptionId
func (h *LotHandlers) ListLots(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	query := application.ListLotsQuery{
		ProductName: c.Query("productName"),
		LotNumber:   c.Query("lotNumber"),
		Status:      domain.LotStatus(c.Query("status")),
		ReceptionID: c.Query("receptionId"),
		Limit:       limit,
		Offset:      offset,
	}

	lots, err := h.service.ListLots(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, lots)
}

func (h *LotHandlers) DeleteLot(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger)

	lotID := c.Param("lotId")
	middleware.AddSpanAttributes(c, map[string]string{"lot.id": lotID})

	if err := h.service.DeleteLot(c.Request.Context(), lotID); err != nil {
		responder.RespondWithError(err)
		return
	}

	c.Status(http.StatusNoContent)
}
