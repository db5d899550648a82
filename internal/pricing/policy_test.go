package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
)

func TestAdditive_NextPrice(t *testing.T) {
	p := NewAdditive(decimal.NewFromInt(1), decimal.NewFromInt(1))

	t.Run("Buy Raises Per Share", func(t *testing.T) {
		next := p.NextPrice(decimal.NewFromInt(50), domain.SideBuy, 2)
		if !next.Equal(decimal.NewFromInt(52)) {
			t.Errorf("Expected 52, got %s", next)
		}
	})

	t.Run("Sell Lowers Per Share", func(t *testing.T) {
		next := p.NextPrice(decimal.NewFromInt(50), domain.SideSell, 2)
		if !next.Equal(decimal.NewFromInt(48)) {
			t.Errorf("Expected 48, got %s", next)
		}
	})

	t.Run("Sell Floored At Minimum", func(t *testing.T) {
		next := p.NextPrice(decimal.NewFromInt(3), domain.SideSell, 10)
		if !next.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Price must floor at 1, got %s", next)
		}
	})
}

func TestMultiplicative_NextPrice(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewMultiplicative(1, 5, decimal.NewFromInt(1), rng)
	current := decimal.NewFromInt(100)

	t.Run("Buy Moves Inside Percent Bounds", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			next := p.NextPrice(current, domain.SideBuy, 1)
			move := next.Sub(current)
			if move.LessThan(decimal.NewFromInt(1)) || move.GreaterThan(decimal.NewFromInt(5)) {
				t.Fatalf("Move %s outside [1, 5]", move)
			}
		}
	})

	t.Run("Larger Quantity Moves Further", func(t *testing.T) {
		fixed := NewMultiplicative(2, 2, decimal.NewFromInt(1), rng)
		small := fixed.NextPrice(current, domain.SideBuy, 1)
		large := fixed.NextPrice(current, domain.SideBuy, 10)
		if !large.GreaterThan(small) {
			t.Errorf("Expected quantity 10 to move further: %s vs %s", large, small)
		}
	})

	t.Run("Sell Floored At Minimum", func(t *testing.T) {
		next := p.NextPrice(decimal.NewFromInt(2), domain.SideSell, 1000)
		if !next.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Price must floor at 1, got %s", next)
		}
	})
}

func TestNew(t *testing.T) {
	opts := Options{
		Step:       decimal.NewFromInt(1),
		Floor:      decimal.NewFromInt(1),
		PercentMin: 1,
		PercentMax: 5,
		Rand:       rand.New(rand.NewSource(1)),
	}
	if _, err := New("additive", opts); err != nil {
		t.Errorf("additive: unexpected error %v", err)
	}
	if _, err := New("multiplicative", opts); err != nil {
		t.Errorf("multiplicative: unexpected error %v", err)
	}
	if _, err := New("oracle", opts); err == nil {
		t.Error("Unknown policy name should error")
	}
}
