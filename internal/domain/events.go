package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// AdjustmentSource names the document that caused an adjustment
type AdjustmentSource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Source document types
const (
	SourceRecipeBatch = "recipe_batch"
	SourceRecall      = "recall"
)

// LotReceivedEvent is recorded when a lot is created
type LotReceivedEvent struct {
	LotID       string    `json:"lotId"`
	ProductName string    `json:"productName"`
	LotNumber   string    `json:"lotNumber"`
	Unit        Unit      `json:"unit"`
	QtyReceived float64   `json:"qtyReceived"`
	ReceptionID string    `json:"receptionId,omitempty"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

func (e *LotReceivedEvent) EventType() string     { return "backoffice.inventory.lot-received" }
func (e *LotReceivedEvent) AggregateID() string   { return e.LotID }
func (e *LotReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }

// LotAdjustedEvent is recorded for every lot an adjustment touched
type LotAdjustedEvent struct {
	LotID        string           `json:"lotId"`
	Direction    Direction        `json:"direction"`
	Delta        float64          `json:"delta"`
	Unit         Unit             `json:"unit"`
	QtyRemaining float64          `json:"qtyRemaining"`
	Status       LotStatus        `json:"status"`
	Source       AdjustmentSource `json:"source"`
	AdjustedAt   time.Time        `json:"adjustedAt"`
}

func (e *LotAdjustedEvent) EventType() string     { return "backoffice.inventory.lot-adjusted" }
func (e *LotAdjustedEvent) AggregateID() string   { return e.LotID }
func (e *LotAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// LotDepletedEvent is recorded when a lot transitions to used
type LotDepletedEvent struct {
	LotID        string    `json:"lotId"`
	ProductName  string    `json:"productName"`
	LotNumber    string    `json:"lotNumber"`
	QtyRemaining float64   `json:"qtyRemaining"`
	Unit         Unit      `json:"unit"`
	DepletedAt   time.Time `json:"depletedAt"`
}

func (e *LotDepletedEvent) EventType() string     { return "backoffice.inventory.lot-depleted" }
func (e *LotDepletedEvent) AggregateID() string   { return e.LotID }
func (e *LotDepletedEvent) OccurredAt() time.Time { return e.DepletedAt }

// LotDeletedEvent is recorded when a lot is explicitly deleted
type LotDeletedEvent struct {
	LotID     string    `json:"lotId"`
	LotNumber string    `json:"lotNumber"`
	DeletedBy string    `json:"deletedBy,omitempty"`
	DeletedAt time.Time `json:"deletedAt"`
}

func (e *LotDeletedEvent) EventType() string     { return "backoffice.inventory.lot-deleted" }
func (e *LotDeletedEvent) AggregateID() string   { return e.LotID }
func (e *LotDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }
