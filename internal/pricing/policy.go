package pricing

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
)

// Policy maps a committed trade to the stock's next price. Buys move the
// price up, sells move it down, and larger quantities move it further. Every
// policy floors the result at a configured minimum positive price.
type Policy interface {
	NextPrice(current decimal.Decimal, side domain.Side, quantity int64) decimal.Decimal
}

// Options carries the knobs shared by all policy shapes. Rand must be
// injected so multiplicative pricing stays independently testable.
type Options struct {
	Step       decimal.Decimal // additive: price move per unit quantity
	Floor      decimal.Decimal // minimum price after any sell
	PercentMin float64         // multiplicative: lower bound of the per-trade percent
	PercentMax float64         // multiplicative: upper bound of the per-trade percent
	Rand       *rand.Rand
}

// New constructs the policy selected by name ("additive" or "multiplicative").
func New(name string, o Options) (Policy, error) {
	switch name {
	case "additive":
		return NewAdditive(o.Step, o.Floor), nil
	case "multiplicative":
		return NewMultiplicative(o.PercentMin, o.PercentMax, o.Floor, o.Rand), nil
	default:
		return nil, fmt.Errorf("unknown pricing policy %q", name)
	}
}

// Additive moves the price by a fixed amount per unit quantity.
type Additive struct {
	step  decimal.Decimal
	floor decimal.Decimal
}

// NewAdditive creates an additive policy.
func NewAdditive(step, floor decimal.Decimal) *Additive {
	if !step.IsPositive() {
		panic("pricing: additive step must be positive")
	}
	if !floor.IsPositive() {
		panic("pricing: price floor must be positive")
	}
	return &Additive{step: step, floor: floor}
}

// NextPrice implements Policy.
func (a *Additive) NextPrice(current decimal.Decimal, side domain.Side, quantity int64) decimal.Decimal {
	move := a.step.Mul(decimal.NewFromInt(quantity))
	if side == domain.SideBuy {
		return current.Add(move)
	}
	next := current.Sub(move)
	if next.LessThan(a.floor) {
		return a.floor
	}
	return next
}

// Multiplicative moves the price by a percentage proportional to quantity,
// with the per-trade percent drawn from a bounded range to avoid fully
// predictable price ladders.
type Multiplicative struct {
	pctMin float64
	pctMax float64
	floor  decimal.Decimal
	rng    *rand.Rand
}

// NewMultiplicative creates a multiplicative policy. rng must not be nil.
func NewMultiplicative(pctMin, pctMax float64, floor decimal.Decimal, rng *rand.Rand) *Multiplicative {
	if pctMin <= 0 || pctMax < pctMin {
		panic("pricing: percent range must satisfy 0 < min <= max")
	}
	if !floor.IsPositive() {
		panic("pricing: price floor must be positive")
	}
	if rng == nil {
		panic("pricing: rand source must be injected")
	}
	return &Multiplicative{pctMin: pctMin, pctMax: pctMax, floor: floor, rng: rng}
}

// NextPrice implements Policy.
func (m *Multiplicative) NextPrice(current decimal.Decimal, side domain.Side, quantity int64) decimal.Decimal {
	pct := m.pctMin
	if m.pctMax > m.pctMin {
		pct += m.rng.Float64() * (m.pctMax - m.pctMin)
	}
	move := current.
		Mul(decimal.NewFromFloat(pct / 100)).
		Mul(decimal.NewFromInt(quantity))
	if side == domain.SideBuy {
		return current.Add(move)
	}
	next := current.Sub(move)
	if next.LessThan(m.floor) {
		return m.floor
	}
	return next
}
