package inventory

import (
	"Larder-Backend/domain"
)

// quantityEpsilon absorbs floating-point drift from repeated partial
// consumption. Absolute tolerance; household quantities are nowhere near the
// scale where a relative one would matter.
const quantityEpsilon = 1e-9

const (
	ActionFull    = "full"
	ActionPartial = "partial"
)

// consumePlan is the outcome of the shared consumption arithmetic for both
// ingredient stacks and food portions. Exhaustion and validation rules live
// here once so the two entity kinds cannot drift apart.
type consumePlan struct {
	Action    string
	Consumed  float64
	Remaining float64
	Removed   bool
}

// planConsumption validates a consumption request against the current
// quantity. A nil request means full consumption. Partial requests that leave
// less than quantityEpsilon behind are promoted to full consumption, because a
// record with zero remaining quantity must not exist.
func planConsumption(current float64, requested *float64) (consumePlan, error) {
	if requested == nil {
		return consumePlan{
			Action:   ActionFull,
			Consumed: current,
			Removed:  true,
		}, nil
	}

	q := *requested
	if q <= 0 {
		return consumePlan{}, domain.ErrInvalidQuantity
	}
	if q > current+quantityEpsilon {
		return consumePlan{}, domain.ErrInsufficientQuantity
	}

	remaining := current - q
	if remaining <= quantityEpsilon {
		return consumePlan{
			Action:   ActionFull,
			Consumed: q,
			Removed:  true,
		}, nil
	}

	return consumePlan{
		Action:    ActionPartial,
		Consumed:  q,
		Remaining: remaining,
	}, nil
}
