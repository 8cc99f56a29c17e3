package coupon

import (
	"time"

	"redeemly/internal/model"
)

// Decision is the outcome of a validation. Reason is nil when Allowed.
type Decision struct {
	Allowed bool
	Reason  *model.DomainError
}

// Err returns the denial as an error, or nil when the attempt is allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason *model.DomainError) Decision {
	return Decision{Reason: reason}
}

// ruleValidator implements Validator. It holds no state and only reads its
// arguments, so it is safe for concurrent and speculative use.
type ruleValidator struct{}

// NewValidator creates a new redemption validator.
func NewValidator() Validator {
	return ruleValidator{}
}

// Validate applies the redemption rules in order.
func (ruleValidator) Validate(c *model.Coupon, prior []model.Redemption, now time.Time) Decision {
	if !c.IsActive {
		return deny(model.ErrCouponInactive)
	}

	if now.Before(c.ValidFrom) {
		return deny(model.ErrCouponNotYet)
	}
	if !now.Before(c.ValidTo) {
		return deny(model.ErrCouponExpired)
	}

	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return deny(model.ErrLimitReached)
	}

	if c.PerRedeemerLimit > model.PerRedeemerUnbounded && len(prior) >= c.PerRedeemerLimit {
		return deny(model.ErrAlreadyRedeemed)
	}

	return allow()
}
