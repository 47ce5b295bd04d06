package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LotStatus is the lifecycle state of an inventory lot
type LotStatus string

const (
	LotStatusInStock   LotStatus = "in_stock"
	LotStatusUsed      LotStatus = "used"
	LotStatusExpired   LotStatus = "expired"
	LotStatusDiscarded LotStatus = "discarded"
	LotStatusReturned  LotStatus = "returned"
	LotStatusRecalled  LotStatus = "recalled"
)

// IsValid checks if the lot status is valid
func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusInStock, LotStatusUsed, LotStatusExpired, LotStatusDiscarded,
		LotStatusReturned, LotStatusRecalled:
		return true
	default:
		return false
	}
}

// Storage describes where and how a lot is kept
type Storage struct {
	Location     string   `bson:"location,omitempty" json:"location,omitempty"`
	TemperatureC *float64 `bson:"temperatureC,omitempty" json:"temperatureC,omitempty"`
}

// InventoryLot is one received batch of one product. QtyRemaining and Status are written
// only by the adjustment engine once the lot exists.
type InventoryLot struct {
	ID           string `bson:"_id" json:"id"`
	TenantID     string `bson:"tenantId" json:"tenantId"`
	RestaurantID string `bson:"restaurantId,omitempty" json:"restaurantId,omitempty"`

	ProductName string `bson:"productName" json:"productName"`
	Supplier    string `bson:"supplier,omitempty" json:"supplier,omitempty"`
	LotNumber   string `bson:"lotNumber" json:"lotNumber"`
	Unit        Unit   `bson:"unit" json:"unit"`

	QtyReceived  float64   `bson:"qtyReceived" json:"qtyReceived"`
	QtyRemaining float64   `bson:"qtyRemaining" json:"qtyRemaining"`
	Status       LotStatus `bson:"status" json:"status"`

	ExpiryDate *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	UseByDate  *time.Time `bson:"useByDate,omitempty" json:"useByDate,omitempty"`
	Storage    Storage    `bson:"storage" json:"storage"`

	// Origin delivery line, when the lot was spawned by a delivery
	ReceptionID     string `bson:"receptionId,omitempty" json:"receptionId,omitempty"`
	ReceptionLineID string `bson:"receptionLineId,omitempty" json:"receptionLineId,omitempty"`

	CreatedBy string    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewLotParams holds the receipt-time attributes of a lot
type NewLotParams struct {
	ProductName     string
	Supplier        string
	LotNumber       string
	Unit            Unit
	QtyReceived     float64
	ExpiryDate      *time.Time
	UseByDate       *time.Time
	Storage         Storage
	ReceptionID     string
	ReceptionLineID string
	CreatedBy       string
}

// NewInventoryLot validates p and returns an in-stock lot whose remaining quantity equals
// the (rounded) received quantity.
func NewInventoryLot(tenantID, restaurantID string, p NewLotParams) (*InventoryLot, error) {
	if strings.TrimSpace(p.ProductName) == "" {
		return nil, ErrProductNameMissing
	}
	if strings.TrimSpace(p.LotNumber) == "" {
		return nil, ErrLotNumberMissing
	}
	if !p.Unit.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnit, p.Unit)
	}
	if p.QtyReceived < 0 {
		return nil, fmt.Errorf("%w: received quantity must not be negative", ErrInvalidQuantity)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	received := Round(p.QtyReceived, p.Unit)
	lot := &InventoryLot{
		ID:              NewID(),
		TenantID:        tenantID,
		RestaurantID:    restaurantID,
		ProductName:     strings.TrimSpace(p.ProductName),
		Supplier:        strings.TrimSpace(p.Supplier),
		LotNumber:       strings.TrimSpace(p.LotNumber),
		Unit:            p.Unit,
		QtyReceived:     received,
		QtyRemaining:    received,
		Status:          LotStatusInStock,
		ExpiryDate:      p.ExpiryDate,
		UseByDate:       p.UseByDate,
		Storage:         p.Storage,
		ReceptionID:     p.ReceptionID,
		ReceptionLineID: p.ReceptionLineID,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	lot.Status = DeriveStatus(lot.Status, lot.QtyRemaining)
	return lot, nil
}

// ClampRemaining bounds qty from above by received. There is no lower bound:
// over-consumption is kept as negative stock so shrinkage stays visible.
func ClampRemaining(qty, received float64) float64 {
	if qty > received {
		return received
	}
	return qty
}

// DeriveStatus returns the status a lot should have once its remaining quantity is
// remaining. An empty lot is used; a lot that regains stock after being used up or
// returned goes back in stock. Other statuses (expired, discarded, recalled) are sticky.
func DeriveStatus(current LotStatus, remaining float64) LotStatus {
	if remaining <= 0 {
		return LotStatusUsed
	}
	if current == LotStatusReturned || current == LotStatusUsed {
		return LotStatusInStock
	}
	return current
}

// HasOrigin reports whether the lot was spawned by a delivery line
func (l *InventoryLot) HasOrigin() bool {
	return l.ReceptionID != ""
}

// Snapshot returns the minimal view handed back to callers after an adjustment.
func (l *InventoryLot) Snapshot() LotSnapshot {
	return LotSnapshot{
		LotID:           l.ID,
		ProductName:     l.ProductName,
		LotNumber:       l.LotNumber,
		Unit:            l.Unit,
		QtyRemaining:    Round(l.QtyRemaining, l.Unit),
		QtyReceived:     l.QtyReceived,
		Status:          l.Status,
		ReceptionID:     l.ReceptionID,
		ReceptionLineID: l.ReceptionLineID,
	}
}

// LotSnapshot is the post-adjustment state of one lot.
type LotSnapshot struct {
	LotID           string    `json:"lotId"`
	ProductName     string    `json:"productName"`
	LotNumber       string    `json:"lotNumber"`
	Unit            Unit      `json:"unit"`
	QtyRemaining    float64   `json:"qtyRemaining"`
	QtyReceived     float64   `json:"qtyReceived"`
	Status          LotStatus `json:"status"`
	ReceptionID     string    `json:"receptionId,omitempty"`
	ReceptionLineID string    `json:"receptionLineId,omitempty"`
}

// LotFilter narrows lot listings. Empty fields are ignored.
type LotFilter struct {
	ProductName string
	LotNumber   string
	Status      LotStatus
	ReceptionID string
	Limit       int
	Offset      int
}

// NewID returns a time-ordered identifier, so ids of later documents sort higher.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
