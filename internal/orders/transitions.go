package orders

import (
	"errors"
	"fmt"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"
)

// ErrInvalidTransition is returned in strict mode when the target status is
// not reachable from the current one.
var ErrInvalidTransition = errors.New("invalid status transition")

// nextStatuses is the forward path of an order. Any non-terminal order may
// also be cancelled.
var nextStatuses = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:         models.StatusConfirmed,
	models.StatusConfirmed:       models.StatusPaymentReceived,
	models.StatusPaymentReceived: models.StatusProcessing,
	models.StatusProcessing:      models.StatusShipped,
	models.StatusShipped:         models.StatusDelivered,
}

// CanTransition reports whether strict mode accepts from -> to.
func CanTransition(from, to models.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.StatusCancelled {
		return true
	}
	return nextStatuses[from] == to
}

func checkTransition(strict bool, from, to models.OrderStatus) error {
	if !to.Valid() {
		return apperr.Validation("unknown order status %q", to)
	}
	if strict && !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
