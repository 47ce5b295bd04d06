package application

import (
	"time"

	"github.com/kitchenops/inventory-ledger/internal/domain"
)

// CreateRecipeBatchCommand records a prepared batch and consumes its ingredients
type CreateRecipeBatchCommand struct {
	RecipeName  string
	PreparedAt  time.Time
	Yield       *domain.Yield
	Ingredients []domain.ConsumptionItem
	Notes       string
}

// UpdateRecipeBatchCommand replaces a batch; its old ingredients are restored first
type UpdateRecipeBatchCommand struct {
	BatchID     string
	RecipeName  string
	PreparedAt  time.Time
	Yield       *domain.Yield
	Ingredients []domain.ConsumptionItem
	Notes       string
}

// CreateRecallCommand records a recall and consumes its item
type CreateRecallCommand struct {
	Source     domain.RecallSource
	Reason     string
	Item       domain.ConsumptionItem
	IssuedAt   time.Time
	Attachment *domain.Attachment
	Notes      string
}

// UpdateRecallCommand replaces a recall, moving stock by the difference between the old
// and new item
type UpdateRecallCommand struct {
	RecallID   string
	Source     domain.RecallSource
	Reason     string
	Item       domain.ConsumptionItem
	IssuedAt   time.Time
	Attachment *domain.Attachment
	Notes      string
}

// RecordDeliveryCommand records a delivery and spawns a lot per tracked line
type RecordDeliveryCommand struct {
	Supplier   string
	Reference  string
	ReceivedAt time.Time
	Notes      string
	Lines      []domain.NewDeliveryLineParams
}

// CreateLotCommand enters a lot directly, without a delivery
type CreateLotCommand struct {
	ProductName string
	Supplier    string
	LotNumber   string
	Unit        domain.Unit
	QtyReceived float64
	ExpiryDate  *time.Time
	UseByDate   *time.Time
	Storage     domain.Storage
}

// ListLotsQuery filters lot listings
type ListLotsQuery struct {
	ProductName string
	LotNumber   string
	Status      domain.LotStatus
	ReceptionID string
	Limit       int
	Offset      int
}

// ListQuery paginates document listings
type ListQuery struct {
	Limit  int
	Offset int
}
