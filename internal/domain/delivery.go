package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryLine is one product received on a delivery. QtyRemaining mirrors the remaining
// quantity of the lot the line spawned and is written only by the delivery-line
// synchronizer after creation.
type DeliveryLine struct {
	ID           string     `bson:"id" json:"id"`
	ProductName  string     `bson:"productName" json:"productName"`
	LotNumber    string     `bson:"lotNumber" json:"lotNumber"`
	Unit         Unit       `bson:"unit" json:"unit"`
	Qty          float64    `bson:"qty" json:"qty"`
	QtyRemaining float64    `bson:"qtyRemaining" json:"qtyRemaining"`
	ExpiryDate   *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	UseByDate    *time.Time `bson:"useByDate,omitempty" json:"useByDate,omitempty"`
	Storage      Storage    `bson:"storage" json:"storage"`

	// Untracked lines (packaging, cleaning supplies) never spawn a lot
	Untracked bool   `bson:"untracked,omitempty" json:"untracked,omitempty"`
	LotID     string `bson:"lotId,omitempty" json:"lotId,omitempty"`
}

// Delivery is a goods-receipt document
type Delivery struct {
	ID           string         `bson:"_id" json:"id"`
	TenantID     string         `bson:"tenantId" json:"tenantId"`
	RestaurantID string         `bson:"restaurantId,omitempty" json:"restaurantId,omitempty"`
	Supplier     string         `bson:"supplier" json:"supplier"`
	Reference    string         `bson:"reference,omitempty" json:"reference,omitempty"`
	ReceivedAt   time.Time      `bson:"receivedAt" json:"receivedAt"`
	ReceivedBy   string         `bson:"receivedBy,omitempty" json:"receivedBy,omitempty"`
	Lines        []DeliveryLine `bson:"lines" json:"lines"`
	Notes        string         `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// NewDeliveryLineParams describes one received line
type NewDeliveryLineParams struct {
	ProductName string
	LotNumber   string
	Unit        Unit
	Qty         float64
	ExpiryDate  *time.Time
	UseByDate   *time.Time
	Storage     Storage
	Untracked   bool
}

// NewDeliveryParams describes a delivery being recorded
type NewDeliveryParams struct {
	Supplier   string
	Reference  string
	ReceivedAt time.Time
	ReceivedBy string
	Notes      string
	Lines      []NewDeliveryLineParams
}

// NewDelivery validates p and assigns ids to the delivery and its lines. Every line starts
// with its full quantity remaining.
func NewDelivery(tenantID, restaurantID string, p NewDeliveryParams) (*Delivery, error) {
	if strings.TrimSpace(p.Supplier) == "" {
		return nil, ErrSupplierMissing
	}
	if len(p.Lines) == 0 {
		return nil, ErrNoDeliveryLines
	}

	lines := make([]DeliveryLine, 0, len(p.Lines))
	for i, lp := range p.Lines {
		if strings.TrimSpace(lp.ProductName) == "" {
			return nil, fmt.Errorf("line %d: %w", i, ErrProductNameMissing)
		}
		if !lp.Unit.IsValid() {
			return nil, fmt.Errorf("line %d: %w: %q", i, ErrInvalidUnit, lp.Unit)
		}
		if lp.Qty < 0 {
			return nil, fmt.Errorf("line %d: %w: quantity must not be negative", i, ErrInvalidQuantity)
		}
		if !lp.Untracked && strings.TrimSpace(lp.LotNumber) == "" {
			return nil, fmt.Errorf("line %d: %w", i, ErrLotNumberMissing)
		}

		qty := Round(lp.Qty, lp.Unit)
		lines = append(lines, DeliveryLine{
			ID:           NewID(),
			ProductName:  strings.TrimSpace(lp.ProductName),
			LotNumber:    strings.TrimSpace(lp.LotNumber),
			Unit:         lp.Unit,
			Qty:          qty,
			QtyRemaining: qty,
			ExpiryDate:   lp.ExpiryDate,
			UseByDate:    lp.UseByDate,
			Storage:      lp.Storage,
			Untracked:    lp.Untracked,
		})
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	receivedAt := p.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}

	return &Delivery{
		ID:           NewID(),
		TenantID:     tenantID,
		RestaurantID: restaurantID,
		Supplier:     strings.TrimSpace(p.Supplier),
		Reference:    p.Reference,
		ReceivedAt:   receivedAt.UTC(),
		ReceivedBy:   p.ReceivedBy,
		Lines:        lines,
		Notes:        p.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// LineIndex returns the index of the line with id lineID, or -1.
func (d *Delivery) LineIndex(lineID string) int {
	if lineID == "" {
		return -1
	}
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// MatchLineIndex returns the index of the first line with the given lot number, product
// name and unit, or -1. Used for lots that predate line ids.
func (d *Delivery) MatchLineIndex(lotNumber, productName string, unit Unit) int {
	for i := range d.Lines {
		l := d.Lines[i]
		if l.LotNumber == lotNumber && l.ProductName == productName && l.Unit == unit {
			return i
		}
	}
	return -1
}

// LotParams returns the attributes of the lot spawned by line i.
func (d *Delivery) LotParams(i int, createdBy string) NewLotParams {
	l := d.Lines[i]
	return NewLotParams{
		ProductName:     l.ProductName,
		Supplier:        d.Supplier,
		LotNumber:       l.LotNumber,
		Unit:            l.Unit,
		QtyReceived:     l.Qty,
		ExpiryDate:      l.ExpiryDate,
		UseByDate:       l.UseByDate,
		Storage:         l.Storage,
		ReceptionID:     d.ID,
		ReceptionLineID: l.ID,
		CreatedBy:       createdBy,
	}
}
