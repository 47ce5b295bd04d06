package application

import (
	"time"

	"github.com/kitchenops/inventory-ledger/internal/domain"
)

// ConsumptionItemDTO is a consumption item in responses
type ConsumptionItemDTO struct {
	LotID       string  `json:"lotId,omitempty"`
	LotNumber   string  `json:"lotNumber,omitempty"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// YieldDTO is a batch yield in responses
type YieldDTO struct {
	Qty  float64 `json:"qty"`
	Unit string  `json:"unit"`
}

// RecipeBatchDTO represents a recipe batch in responses
type RecipeBatchDTO struct {
	ID           string               `json:"id"`
	RestaurantID string               `json:"restaurantId,omitempty"`
	RecipeName   string               `json:"recipeName"`
	PreparedAt   time.Time            `json:"preparedAt"`
	PreparedBy   string               `json:"preparedBy,omitempty"`
	Yield        *YieldDTO            `json:"yield,omitempty"`
	Ingredients  []ConsumptionItemDTO `json:"ingredients"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// AttachmentDTO is an opaque file reference
type AttachmentDTO struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
}

// RecallDTO represents a recall in responses
type RecallDTO struct {
	ID           string             `json:"id"`
	RestaurantID string             `json:"restaurantId,omitempty"`
	Source       string             `json:"source"`
	Reason       string             `json:"reason,omitempty"`
	Item         ConsumptionItemDTO `json:"item"`
	IssuedAt     time.Time          `json:"issuedAt"`
	IssuedBy     string             `json:"issuedBy,omitempty"`
	Attachment   *AttachmentDTO     `json:"attachment,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// StorageDTO describes where a lot is kept
type StorageDTO struct {
	Location     string   `json:"location,omitempty"`
	TemperatureC *float64 `json:"temperatureC,omitempty"`
}

// LotDTO represents an inventory lot in responses
type LotDTO struct {
	ID              string     `json:"id"`
	RestaurantID    string     `json:"restaurantId,omitempty"`
	ProductName     string     `json:"productName"`
	Supplier        string     `json:"supplier,omitempty"`
	LotNumber       string     `json:"lotNumber"`
	Unit            string     `json:"unit"`
	QtyReceived     float64    `json:"qtyReceived"`
	QtyRemaining    float64    `json:"qtyRemaining"`
	Status          string     `json:"status"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	UseByDate       *time.Time `json:"useByDate,omitempty"`
	Storage         StorageDTO `json:"storage"`
	ReceptionID     string     `json:"receptionId,omitempty"`
	ReceptionLineID string     `json:"receptionLineId,omitempty"`
	CreatedBy       string     `json:"createdBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// DeliveryLineDTO represents a delivery line in responses
type DeliveryLineDTO struct {
	ID           string     `json:"id"`
	ProductName  string     `json:"productName"`
	LotNumber    string     `json:"lotNumber,omitempty"`
	Unit         string     `json:"unit"`
	Qty          float64    `json:"qty"`
	QtyRemaining float64    `json:"qtyRemaining"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	UseByDate    *time.Time `json:"useByDate,omitempty"`
	Storage      StorageDTO `json:"storage"`
	Untracked    bool       `json:"untracked,omitempty"`
	LotID        string     `json:"lotId,omitempty"`
}

// DeliveryDTO represents a delivery in responses
type DeliveryDTO struct {
	ID           string            `json:"id"`
	RestaurantID string            `json:"restaurantId,omitempty"`
	Supplier     string            `json:"supplier"`
	Reference    string            `json:"reference,omitempty"`
	ReceivedAt   time.Time         `json:"receivedAt"`
	ReceivedBy   string            `json:"receivedBy,omitempty"`
	Lines        []DeliveryLineDTO `json:"lines"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// RecipeBatchResult is a batch together with the lots its change touched
type RecipeBatchResult struct {
	Batch *RecipeBatchDTO      `json:"batch"`
	Lots  []domain.LotSnapshot `json:"lots"`
}

// RecallResult is a recall together with the lots its change touched
type RecallResult struct {
	Recall *RecallDTO           `json:"recall"`
	Lots   []domain.LotSnapshot `json:"lots"`
}

// DeletionResult lists the lots restored by a deletion
type DeletionResult struct {
	ID   string               `json:"id"`
	Lots []domain.LotSnapshot `json:"lots"`
}

// DeliveryResult is a recorded delivery with the lots it spawned
type DeliveryResult struct {
	Delivery *DeliveryDTO `json:"delivery"`
	Lots     []LotDTO     `json:"lots"`
}
