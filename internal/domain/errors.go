package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUnit         = errors.New("invalid unit")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidLotStatus    = errors.New("invalid lot status")
	ErrProductNameMissing  = errors.New("product name is required")
	ErrLotNumberMissing    = errors.New("lot number is required")
	ErrSupplierMissing     = errors.New("supplier is required")
	ErrNoDeliveryLines     = errors.New("delivery requires at least one line")
	ErrRecipeNameMissing   = errors.New("recipe name is required")
	ErrInvalidRecallSource = errors.New("invalid recall source")
	ErrBatchNotFound       = errors.New("recipe batch not found")
	ErrRecallNotFound      = errors.New("recall not found")
	ErrDeliveryNotFound    = errors.New("delivery not found")
)

// UnitIncompatibilityError reports an item quantity whose unit cannot be converted into
// the unit of the lot it targets.
type UnitIncompatibilityError struct {
	LotID    string
	LotUnit  Unit
	ItemUnit Unit
}

func (e *UnitIncompatibilityError) Error() string {
	if e.LotID == "" {
		return fmt.Sprintf("unit %s (%s) cannot be converted to %s (%s)",
			e.ItemUnit, e.ItemUnit.Group(), e.LotUnit, e.LotUnit.Group())
	}
	return fmt.Sprintf("lot %s is measured in %s (%s); item unit %s (%s) is incompatible",
		e.LotID, e.LotUnit, e.LotUnit.Group(), e.ItemUnit, e.ItemUnit.Group())
}

// LotNotFoundError reports an explicitly referenced lot id that does not exist.
type LotNotFoundError struct {
	LotID string
}

func (e *LotNotFoundError) Error() string {
	return fmt.Sprintf("lot %s not found", e.LotID)
}
