package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPortfolio_RemoveShares(t *testing.T) {
	p := NewPortfolio("mrpoopybutthole", KindChatter, decimal.NewFromInt(500), time.Now())
	p.AddShares("DOGE", 5)

	p.RemoveShares("DOGE", 3)
	if p.Shares("DOGE") != 2 {
		t.Errorf("Expected 2 remaining, got %d", p.Shares("DOGE"))
	}

	p.RemoveShares("DOGE", 2)
	if _, exists := p.Holdings["DOGE"]; exists {
		t.Error("Zero holding must be removed from the map, not stored")
	}
}

func TestPortfolio_StockValue(t *testing.T) {
	p := NewPortfolio("wubbalubba", KindChatter, decimal.Zero, time.Now())
	p.AddShares("DOGE", 3)
	p.AddShares("GONE", 10) // delisted lookups are skipped

	priceOf := func(symbol string) (decimal.Decimal, bool) {
		if symbol == "DOGE" {
			return decimal.NewFromInt(40), true
		}
		return decimal.Zero, false
	}
	if sv := p.StockValue(priceOf); !sv.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Expected 120, got %s", sv)
	}
}

func TestKindFor(t *testing.T) {
	if KindFor(HouseIdentity) != KindHouse {
		t.Error("System should resolve to house")
	}
	if KindFor(PlayerIdentity) != KindPlayer {
		t.Error("Player should resolve to player")
	}
	if KindFor("anyone_else") != KindChatter {
		t.Error("Everyone else is a chatter")
	}
}
