package kernel

import (
	"fmt"

	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

var ErrMoneyIsNotConstructed = errs.NewValueIsRequiredError("money must be created via NewMoney")

// Money is a non-negative amount in minor currency units.
type Money struct {
	minor int64
	guard guard.ConstructorGuard
}

func NewMoney(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%d is negative", minor))
	}
	return Money{minor: minor, guard: guard.NewConstructorGuard()}, nil
}

func (m Money) Minor() int64 {
	return m.minor
}

func (m Money) Validate() error {
	return m.guard.Validate(ErrMoneyIsNotConstructed)
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.minor/100, m.minor%100)
}
