package domain

import (
	"fmt"
	"time"
)

// RecallSource is who initiated a recall
type RecallSource string

const (
	RecallSourceSupplier  RecallSource = "supplier"
	RecallSourceCustomer  RecallSource = "customer"
	RecallSourceAuthority RecallSource = "authority"
)

// IsValid checks if the recall source is valid
func (s RecallSource) IsValid() bool {
	switch s {
	case RecallSourceSupplier, RecallSourceCustomer, RecallSourceAuthority:
		return true
	default:
		return false
	}
}

// Attachment is an opaque reference into the file store
type Attachment struct {
	URL    string `bson:"url" json:"url"`
	FileID string `bson:"fileId" json:"fileId"`
}

// Recall records one product pulled from stock.
type Recall struct {
	ID           string          `bson:"_id" json:"id"`
	TenantID     string          `bson:"tenantId" json:"tenantId"`
	RestaurantID string          `bson:"restaurantId,omitempty" json:"restaurantId,omitempty"`
	Source       RecallSource    `bson:"source" json:"source"`
	Reason       string          `bson:"reason,omitempty" json:"reason,omitempty"`
	Item         ConsumptionItem `bson:"item" json:"item"`
	IssuedAt     time.Time       `bson:"issuedAt" json:"issuedAt"`
	IssuedBy     string          `bson:"issuedBy,omitempty" json:"issuedBy,omitempty"`
	Attachment   *Attachment     `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Notes        string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// RecallParams holds the caller-editable fields of a recall
type RecallParams struct {
	Source     RecallSource
	Reason     string
	Item       ConsumptionItem
	IssuedAt   time.Time
	IssuedBy   string
	Attachment *Attachment
	Notes      string
}

func (p RecallParams) validate() error {
	if !p.Source.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecallSource, p.Source)
	}
	if err := p.Item.Validate(); err != nil {
		return fmt.Errorf("item: %w", err)
	}
	return nil
}

// NewRecall validates p and returns a new recall
func NewRecall(tenantID, restaurantID string, p RecallParams) (*Recall, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	r := &Recall{
		ID:           NewID(),
		TenantID:     tenantID,
		RestaurantID: restaurantID,
		CreatedAt:    now,
	}
	r.apply(p, now)
	return r, nil
}

// Update replaces the editable fields of r with p
func (r *Recall) Update(p RecallParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	r.apply(p, time.Now().UTC().Truncate(time.Millisecond))
	return nil
}

func (r *Recall) apply(p RecallParams, now time.Time) {
	r.Source = p.Source
	r.Reason = p.Reason
	r.Item = p.Item
	r.IssuedAt = p.IssuedAt.UTC()
	if p.IssuedAt.IsZero() {
		r.IssuedAt = now
	}
	r.IssuedBy = p.IssuedBy
	r.Attachment = p.Attachment
	r.Notes = p.Notes
	r.UpdatedAt = now
}

// Items returns the recall's item as a one-element slice for the adjustment engine
func (r *Recall) Items() []ConsumptionItem {
	return []ConsumptionItem{r.Item}
}
