package api

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

var registerOnce sync.Once

// RegisterValidators adds the ledger's custom binding tags. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		err = middleware.RegisterValidation("ledger_unit", "must be one of: kg, g, L, mL, unit", validUnit)
	})
	return err
}

func validUnit(fl validator.FieldLevel) bool {
	_, err := domain.ParseUnit(fl.Field().String())
	return err == nil
}

// unitOf is only called on values that passed ledger_unit.
func unitOf(s string) domain.Unit {
	u, _ := domain.ParseUnit(s)
	return u
}

type ConsumptionItemRequest struct {
	LotID       string  `json:"lotId"`
	LotNumber   string  `json:"lotNumber"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity" binding:"gte=0"`
	Unit        string  `json:"unit" binding:"required,ledger_unit"`
}

func (r ConsumptionItemRequest) toDomain() domain.ConsumptionItem {
	return domain.ConsumptionItem{
		LotID:       r.LotID,
		LotNumber:   r.LotNumber,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		Unit:        unitOf(r.Unit),
	}
}

func toItems(reqs []ConsumptionItemRequest) []domain.ConsumptionItem {
	items := make([]domain.ConsumptionItem, len(reqs))
	for i, r := range reqs {
		items[i] = r.toDomain()
	}
	return items
}

type YieldRequest struct {
	Qty  float64 `json:"qty" binding:"gte=0"`
	Unit string  `json:"unit" binding:"required,ledger_unit"`
}

func (r *YieldRequest) toDomain() *domain.Yield {
	if r == nil {
		return nil
	}
	return &domain.Yield{Qty: r.Qty, Unit: unitOf(r.Unit)}
}

type StorageRequest struct {
	Location     string   `json:"location"`
	TemperatureC *float64 `json:"temperatureC"`
}

func (r StorageRequest) toDomain() domain.Storage {
	return domain.Storage{Location: r.Location, TemperatureC: r.TemperatureC}
}

// RecipeBatchRequest is the body of batch creation and update
type RecipeBatchRequest struct {
	RecipeName  string                   `json:"recipeName" binding:"required,not_blank"`
	PreparedAt  time.Time                `json:"preparedAt"`
	Yield       *YieldRequest            `json:"yield"`
	Ingredients []ConsumptionItemRequest `json:"ingredients" binding:"dive"`
	Notes       string                   `json:"notes"`
}

func (r RecipeBatchRequest) createCommand() application.CreateRecipeBatchCommand {
	return application.CreateRecipeBatchCommand{
		RecipeName:  r.RecipeName,
		PreparedAt:  r.PreparedAt,
		Yield:       r.Yield.toDomain(),
		Ingredients: toItems(r.Ingredients),
		Notes:       r.Notes,
	}
}

func (r RecipeBatchRequest) updateCommand(id string) application.UpdateRecipeBatchCommand {
	return application.UpdateRecipeBatchCommand{
		BatchID:     id,
		RecipeName:  r.RecipeName,
		PreparedAt:  r.PreparedAt,
		Yield:       r.Yield.toDomain(),
		Ingredients: toItems(r.Ingredients),
		Notes:       r.Notes,
	}
}

type AttachmentRequest struct {
	URL    string `json:"url" binding:"required"`
	FileID string `json:"fileId"`
}

// RecallRequest is the body of recall creation and update
type RecallRequest struct {
	Source     string                 `json:"source" binding:"required,oneof=supplier customer authority"`
	Reason     string                 `json:"reason"`
	Item       ConsumptionItemRequest `json:"item"`
	IssuedAt   time.Time              `json:"issuedAt"`
	Attachment *AttachmentRequest     `json:"attachment"`
	Notes      string                 `json:"notes"`
}

func (r RecallRequest) attachment() *domain.Attachment {
	if r.Attachment == nil {
		return nil
	}
	return &domain.Attachment{URL: r.Attachment.URL, FileID: r.Attachment.FileID}
}

func (r RecallRequest) createCommand() application.CreateRecallCommand {
	return application.CreateRecallCommand{
		Source:     domain.RecallSource(r.Source),
		Reason:     r.Reason,
		Item:       r.Item.toDomain(),
		IssuedAt:   r.IssuedAt,
		Attachment: r.attachment(),
		Notes:      r.Notes,
	}
}

func (r RecallRequest) updateCommand(id string) application.UpdateRecallCommand {
	return application.UpdateRecallCommand{
		RecallID:   id,
		Source:     domain.RecallSource(r.Source),
		Reason:     r.Reason,
		Item:       r.Item.toDomain(),
		IssuedAt:   r.IssuedAt,
		Attachment: r.attachment(),
		Notes:      r.Notes,
	}
}

type DeliveryLineRequest struct {
	ProductName string         `json:"productName" binding:"required,not_blank"`
	LotNumber   string         `json:"lotNumber"`
	Unit        string         `json:"unit" binding:"required,ledger_unit"`
	Qty         float64        `json:"qty" binding:"gte=0"`
	ExpiryDate  *time.Time     `json:"expiryDate"`
	UseByDate   *time.Time     `json:"useByDate"`
	Storage     StorageRequest `json:"storage"`
	Untracked   bool           `json:"untracked"`
}

// RecordDeliveryRequest is the body of delivery recording
type RecordDeliveryRequest struct {
	Supplier   string                `json:"supplier" binding:"required,not_blank"`
	Reference  string                `json:"reference"`
	ReceivedAt time.Time             `json:"receivedAt"`
	Notes      string                `json:"notes"`
	Lines      []DeliveryLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r RecordDeliveryRequest) command() application.RecordDeliveryCommand {
	lines := make([]domain.NewDeliveryLineParams, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.NewDeliveryLineParams{
			ProductName: l.ProductName,
			LotNumber:   l.LotNumber,
			Unit:        unitOf(l.Unit),
			Qty:         l.Qty,
			ExpiryDate:  l.ExpiryDate,
			UseByDate:   l.UseByDate,
			Storage:     l.Storage.toDomain(),
			Untracked:   l.Untracked,
		}
	}
	return application.RecordDeliveryCommand{
		Supplier:   r.Supplier,
		Reference:  r.Reference,
		ReceivedAt: r.ReceivedAt,
		Notes:      r.Notes,
		Lines:      lines,
	}
}

// CreateLotRequest is the body of direct lot entry
type CreateLotRequest struct {
	ProductName string         `json:"productName" binding:"required,not_blank"`
	Supplier    string         `json:"supplier"`
	LotNumber   string         `json:"lotNumber" binding:"required,not_blank"`
	Unit        string         `json:"unit" binding:"required,ledger_unit"`
	QtyReceived float64        `json:"qtyReceived" binding:"gte=0"`
	ExpiryDate  *time.Time     `json:"expiryDate"`
	UseByDate   *time.Time     `json:"useByDate"`
	Storage     StorageRequest `json:"storage"`
}

func (r CreateLotRequest) command() application.CreateLotCommand {
	return application.CreateLotCommand{
		ProductName: r.ProductName,
		Supplier:    r.Supplier,
		LotNumber:   r.LotNumber,
		Unit:        unitOf(r.Unit),
		QtyReceived: r.QtyReceived,
		ExpiryDate:  r.ExpiryDate,
		UseByDate:   r.UseByDate,
		Storage:     r.Storage.toDomain(),
	}
}
