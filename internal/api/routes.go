package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

// Services groups the application services exposed over HTTP
type Services struct {
	Deliveries    DeliveryService
	Lots          LotService
	RecipeBatches RecipeBatchService
	Recalls       RecallService
}

// RegisterRoutes mounts every ledger route under router. All routes require a tenant;
// tenantScoped handlers run after the tenant is resolved.
func RegisterRoutes(router *gin.RouterGroup, services Services, logger *logging.Logger, tenantScoped ...gin.HandlerFunc) error {
	if err := RegisterValidators(); err != nil {
		return err
	}

	router.Use(middleware.RequireTenantAuth())
	router.Use(tenantScoped...)

	NewDeliveryHandlers(services.Deliveries, logger).RegisterRoutes(router)
	NewLotHandlers(services.Lots, logger).RegisterRoutes(router)
	NewRecipeBatchHandlers(services.RecipeBatches, logger).RegisterRoutes(router)
	NewRecallHandlers(services.Recalls, logger).RegisterRoutes(router)
	return nil
}

func listQuery(c *gin.Context) application.ListQuery {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return application.ListQuery{Limit: limit, Offset: offset}
}
