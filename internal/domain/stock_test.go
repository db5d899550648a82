package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStock_AppendHistory(t *testing.T) {
	t.Run("Oldest Evicted At Limit", func(t *testing.T) {
		s := Stock{}
		for i := 1; i <= 25; i++ {
			s.AppendHistory(decimal.NewFromInt(int64(i)), 20)
		}
		if len(s.History) != 20 {
			t.Fatalf("Expected 20 entries, got %d", len(s.History))
		}
		if !s.History[0].Equal(decimal.NewFromInt(6)) {
			t.Errorf("Expected oldest entry 6, got %s", s.History[0])
		}
		if !s.History[19].Equal(decimal.NewFromInt(25)) {
			t.Errorf("Expected newest entry 25, got %s", s.History[19])
		}
	})

	t.Run("Zero Limit Keeps Everything", func(t *testing.T) {
		s := Stock{}
		for i := 0; i < 50; i++ {
			s.AppendHistory(decimal.NewFromInt(1), 0)
		}
		if len(s.History) != 50 {
			t.Errorf("Expected 50 entries, got %d", len(s.History))
		}
	})
}

func TestStock_Outstanding(t *testing.T) {
	s := Stock{TotalShares: 1000, HouseShares: 930}
	if s.Outstanding() != 70 {
		t.Errorf("Expected 70 outstanding, got %d", s.Outstanding())
	}
}

func TestStock_Clone(t *testing.T) {
	s := Stock{Symbol: "GRAVITY", Price: decimal.NewFromInt(45)}
	s.AppendHistory(decimal.NewFromInt(45), 20)

	cp := s.Clone()
	cp.History[0] = decimal.NewFromInt(999)
	if !s.History[0].Equal(decimal.NewFromInt(45)) {
		t.Error("Clone history must not alias the original")
	}
}

func TestParseSide(t *testing.T) {
	if side, err := ParseSide(" BUY "); err != nil || side != SideBuy {
		t.Errorf("Expected buy, got %v (%v)", side, err)
	}
	if side, err := ParseSide("sell"); err != nil || side != SideSell {
		t.Errorf("Expected sell, got %v (%v)", side, err)
	}
	if _, err := ParseSide("hold"); KindOf(err) != KindValidation {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  doge "); got != "DOGE" {
		t.Errorf("Expected DOGE, got %q", got)
	}
}
