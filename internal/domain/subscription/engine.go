package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fatoora/backend/internal/domain/shared"
)

// DaysPerMonth approximates a subscription month. Expirations are computed
// as months * 30 days, not calendar months.
const DaysPerMonth = 30

const day = 24 * time.Hour

// Config holds the entitlement windows
type Config struct {
	// FreeTrialDays is how long a new user may use the service without paying
	FreeTrialDays int
	// RenewalWindowDays is how long before expiration a new payment may be made
	RenewalWindowDays int
}

// DefaultConfig returns a 10 day trial and a 5 day renewal window
func DefaultConfig() Config {
	return Config{FreeTrialDays: 10, RenewalWindowDays: 5}
}

// Reason explains a denied decision
type Reason string

const (
	ReasonTrialEnded           Reason = "trial_ended"
	ReasonPendingPayment       Reason = "pending_payment"
	ReasonExpired              Reason = "expired"
	ReasonNotActive            Reason = "not_active"
	ReasonOutsideRenewalWindow Reason = "outside_renewal_window"
)

// Message returns the user-facing text of a reason
func (r Reason) Message(cfg Config) string {
	switch r {
	case ReasonTrialEnded:
		return "Your free trial period has ended."
	case ReasonPendingPayment:
		return "Your subscription package is pending. Wait to complete your payment."
	case ReasonExpired:
		return "Your last subscription package has expired. Please renew your subscription package."
	case ReasonNotActive:
		return "Your last subscription package is not active. Please contact support for assistance."
	case ReasonOutsideRenewalWindow:
		return fmt.Sprintf("You can only subscribe again within the last %d days of your active subscription.", cfg.RenewalWindowDays)
	}
	return ""
}

// Decision is the outcome of an entitlement check
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Subscriber is the entitlement input of one user. Records are ordered by
// creation time, oldest first.
type Subscriber struct {
	UserID   uuid.UUID
	JoinedAt time.Time
	Records  []Record
}

// Latest returns the most recently created record, or nil
func (s Subscriber) Latest() *Record {
	if len(s.Records) == 0 {
		return nil
	}
	return &s.Records[len(s.Records)-1]
}

// LastCompleted returns the most recent completed record, or nil
func (s Subscriber) LastCompleted() *Record {
	for i := len(s.Records) - 1; i >= 0; i-- {
		if s.Records[i].Status == RecordStatusCompleted {
			return &s.Records[i]
		}
	}
	return nil
}

// Engine evaluates entitlements against an injected clock
type Engine struct {
	cfg   Config
	clock shared.Clock
}

// NewEngine creates an entitlement engine
func NewEngine(cfg Config, clock shared.Clock) *Engine {
	return &Engine{cfg: cfg, clock: clock}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// FreeTierEnd returns the instant the free trial ends
func (e *Engine) FreeTierEnd(joinedAt time.Time) time.Time {
	return joinedAt.Add(time.Duration(e.cfg.FreeTrialDays) * day)
}

// FreeTierActive reports whether now is within the free trial, end inclusive
func (e *Engine) FreeTierActive(joinedAt time.Time) bool {
	return !e.clock.Now().After(e.FreeTierEnd(joinedAt))
}

// IsExpired reports whether a completed record's expiration has passed.
// Records without an expiration are never expired.
func (e *Engine) IsExpired(r *Record) bool {
	if r == nil || r.ExpirationDate == nil {
		return false
	}
	return r.Status == RecordStatusCompleted && r.ExpirationDate.Before(e.clock.Now())
}

// CanRenewNow reports whether now is inside the renewal window of a
// completed record. The window opens at expiration minus RenewalWindowDays,
// inclusive, so renewal is allowed from that exact instant.
func (e *Engine) CanRenewNow(r *Record) bool {
	if r == nil || r.ExpirationDate == nil {
		return false
	}
	windowStart := r.ExpirationDate.Add(-time.Duration(e.cfg.RenewalWindowDays) * day)
	return r.Status == RecordStatusCompleted && !e.clock.Now().Before(windowStart)
}

// Evaluate decides whether the user may use the service. Rules are checked
// in order and the first match wins.
func (e *Engine) Evaluate(s Subscriber) Decision {
	latest := s.Latest()
	if latest == nil {
		if e.FreeTierActive(s.JoinedAt) {
			return allow()
		}
		return deny(ReasonTrialEnded)
	}

	switch {
	case latest.Status == RecordStatusPending:
		if lc := s.LastCompleted(); lc != nil && lc.IsApplied() && !e.IsExpired(lc) {
			return allow()
		}
		return deny(ReasonPendingPayment)
	case e.IsExpired(latest):
		return deny(ReasonExpired)
	case latest.Status == RecordStatusNotActive:
		return deny(ReasonNotActive)
	}
	return allow()
}

// EvaluateCanPay decides whether the user may create a new payment
func (e *Engine) EvaluateCanPay(s Subscriber) Decision {
	if latest := s.Latest(); latest != nil && latest.Status == RecordStatusPending {
		return deny(ReasonPendingPayment)
	}
	if lc := s.LastCompleted(); lc != nil && !e.CanRenewNow(lc) {
		return deny(ReasonOutsideRenewalWindow)
	}
	return allow()
}

// ApplyCompletedPayment computes the expiration of a completed record that
// has none yet. The new period starts where the current entitlement ends:
// the free-trial end while the trial runs, else the expiration of the
// prior unexpired completed record, else now. It returns false and leaves
// the record untouched when there is nothing to apply.
func (e *Engine) ApplyCompletedPayment(r *Record, s Subscriber, pkg *Package) (bool, error) {
	if r.Status != RecordStatusCompleted || r.IsApplied() {
		return false, nil
	}
	if r.DurationMonths < 1 {
		return false, shared.NewValidationError("INVALID_DURATION", "duration", "duration must be at least one month")
	}
	if err := r.priceFrom(pkg); err != nil {
		return false, err
	}

	now := e.clock.Now()
	start := now
	if e.FreeTierActive(s.JoinedAt) {
		start = e.FreeTierEnd(s.JoinedAt)
	} else if prior := priorActive(s, r.ID, e); prior != nil {
		start = *prior.ExpirationDate
	}

	expiration := start.Add(time.Duration(r.DurationMonths*DaysPerMonth) * day)
	r.ExpirationDate = &expiration
	r.UpdatedAt = now
	return true, nil
}

// priorActive returns the most recent other completed record that is
// applied and not expired
func priorActive(s Subscriber, exclude uuid.UUID, e *Engine) *Record {
	for i := len(s.Records) - 1; i >= 0; i-- {
		r := &s.Records[i]
		if r.ID == exclude || r.Status != RecordStatusCompleted || !r.IsApplied() {
			continue
		}
		if e.IsExpired(r) {
			return nil
		}
		return r
	}
	return nil
}
