package domain

import (
	"fmt"
	"strings"
)

// Direction of an inventory adjustment
type Direction string

const (
	DirectionConsume Direction = "consume"
	DirectionRestore Direction = "restore"
)

// Sign returns -1 for consume and +1 for restore
func (d Direction) Sign() float64 {
	if d == DirectionConsume {
		return -1
	}
	return 1
}

// Inverse returns the opposite direction
func (d Direction) Inverse() Direction {
	if d == DirectionConsume {
		return DirectionRestore
	}
	return DirectionConsume
}

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionConsume || d == DirectionRestore
}

// ConsumptionItem asks for quantity of a lot, referenced by id or, failing that, by lot
// number. An item with neither reference is informational and moves no stock.
type ConsumptionItem struct {
	LotID       string  `bson:"lotId,omitempty" json:"lotId,omitempty"`
	LotNumber   string  `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`
	ProductName string  `bson:"productName,omitempty" json:"productName,omitempty"`
	Quantity    float64 `bson:"quantity" json:"quantity"`
	Unit        Unit    `bson:"unit" json:"unit"`
}

// Validate checks the quantity and unit. Lot references are resolved later.
func (c ConsumptionItem) Validate() error {
	if !c.Unit.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, c.Unit)
	}
	if c.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidQuantity)
	}
	return nil
}

// HasReference reports whether the item points at any lot
func (c ConsumptionItem) HasReference() bool {
	return strings.TrimSpace(c.LotID) != "" || strings.TrimSpace(c.LotNumber) != ""
}

// ValidateItems validates every item, prefixing errors with the item's position.
func ValidateItems(items []ConsumptionItem) error {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
