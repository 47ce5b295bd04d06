package domain

import (
	"fmt"
	"strings"
	"time"
)

// Yield is the amount a batch produced
type Yield struct {
	Qty  float64 `bson:"qty" json:"qty"`
	Unit Unit    `bson:"unit" json:"unit"`
}

// RecipeBatch records a prepared batch of a recipe and the stock its ingredients consumed.
type RecipeBatch struct {
	ID           string            `bson:"_id" json:"id"`
	TenantID     string            `bson:"tenantId" json:"tenantId"`
	RestaurantID string            `bson:"restaurantId,omitempty" json:"restaurantId,omitempty"`
	RecipeName   string            `bson:"recipeName" json:"recipeName"`
	PreparedAt   time.Time         `bson:"preparedAt" json:"preparedAt"`
	PreparedBy   string            `bson:"preparedBy,omitempty" json:"preparedBy,omitempty"`
	Yield        *Yield            `bson:"yield,omitempty" json:"yield,omitempty"`
	Ingredients  []ConsumptionItem `bson:"ingredients" json:"ingredients"`
	Notes        string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// RecipeBatchParams holds the caller-editable fields of a batch
type RecipeBatchParams struct {
	RecipeName  string
	PreparedAt  time.Time
	PreparedBy  string
	Yield       *Yield
	Ingredients []ConsumptionItem
	Notes       string
}

func (p RecipeBatchParams) validate() error {
	if strings.TrimSpace(p.RecipeName) == "" {
		return ErrRecipeNameMissing
	}
	if p.Yield != nil {
		if !p.Yield.Unit.IsValid() {
			return fmt.Errorf("yield: %w: %q", ErrInvalidUnit, p.Yield.Unit)
		}
		if p.Yield.Qty < 0 {
			return fmt.Errorf("yield: %w", ErrInvalidQuantity)
		}
	}
	return ValidateItems(p.Ingredients)
}

// NewRecipeBatch validates p and returns a new batch
func NewRecipeBatch(tenantID, restaurantID string, p RecipeBatchParams) (*RecipeBatch, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	b := &RecipeBatch{
		ID:           NewID(),
		TenantID:     tenantID,
		RestaurantID: restaurantID,
		CreatedAt:    now,
	}
	b.apply(p, now)
	return b, nil
}

// Update replaces the editable fields of b with p
func (b *RecipeBatch) Update(p RecipeBatchParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	b.apply(p, time.Now().UTC().Truncate(time.Millisecond))
	return nil
}

func (b *RecipeBatch) apply(p RecipeBatchParams, now time.Time) {
	b.RecipeName = strings.TrimSpace(p.RecipeName)
	b.PreparedAt = p.PreparedAt.UTC()
	if p.PreparedAt.IsZero() {
		b.PreparedAt = now
	}
	b.PreparedBy = p.PreparedBy
	b.Yield = nil
	if p.Yield != nil {
		y := *p.Yield
		y.Qty = Round(y.Qty, y.Unit)
		b.Yield = &y
	}
	b.Ingredients = append([]ConsumptionItem(nil), p.Ingredients...)
	b.Notes = p.Notes
	b.UpdatedAt = now
}
