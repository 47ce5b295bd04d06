package application

import (
	stderrors "errors"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/errors"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

var validationErrors = []error{
	domain.ErrInvalidUnit,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidLotStatus,
	domain.ErrProductNameMissing,
	domain.ErrLotNumberMissing,
	domain.ErrSupplierMissing,
	domain.ErrNoDeliveryLines,
	domain.ErrRecipeNameMissing,
	domain.ErrInvalidRecallSource,
}

// toAppError translates domain and tenant errors into the API error taxonomy. Anything
// unrecognised is left to errors.MapDomainError at the HTTP edge.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	var incompatible *domain.UnitIncompatibilityError
	if stderrors.As(err, &incompatible) {
		return errors.ErrUnitIncompatible(incompatible.Error()).
			WithDetail("lotId", incompatible.LotID).
			WithDetail("lotUnit", string(incompatible.LotUnit)).
			WithDetail("itemUnit", string(incompatible.ItemUnit)).
			Wrap(err)
	}

	var notFound *domain.LotNotFoundError
	if stderrors.As(err, &notFound) {
		return errors.ErrNotFoundWithID("lot", notFound.LotID).Wrap(err)
	}

	switch {
	case stderrors.Is(err, domain.ErrBatchNotFound):
		return errors.ErrNotFound("recipe batch").Wrap(err)
	case stderrors.Is(err, domain.ErrRecallNotFound):
		return errors.ErrNotFound("recall").Wrap(err)
	case stderrors.Is(err, domain.ErrDeliveryNotFound):
		return errors.ErrNotFound("delivery").Wrap(err)
	case stderrors.Is(err, tenant.ErrMissingTenantContext):
		return errors.ErrUnauthorized(err.Error()).Wrap(err)
	}

	for _, target := range validationErrors {
		if stderrors.Is(err, target) {
			return errors.ErrValidation(err.Error()).Wrap(err)
		}
	}
	return err
}
