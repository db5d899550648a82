package engine

import "chaos_market/internal/domain"

// refreshTopHolder recomputes a stock's top holder: the non-house participant
// with the strictly largest holding. A challenger that merely ties the
// incumbent does not displace it, so the recorded holder stays stable under
// churn. Returns the new holder identity, "" when no non-house shares exist.
func refreshTopHolder(l *Ledger, s *domain.Stock) string {
	var best int64
	bestID := ""
	if incumbent := l.Portfolio(s.TopHolder); incumbent != nil {
		if held := incumbent.Shares(s.Symbol); held > 0 {
			best = held
			bestID = incumbent.Identity
		}
	}
	for identity, p := range l.portfolios {
		if identity == domain.HouseIdentity || identity == bestID {
			continue
		}
		if held := p.Shares(s.Symbol); held > best {
			best = held
			bestID = identity
		}
	}
	s.TopHolder = bestID
	return bestID
}

// concentration returns the ownership-concentration ratio: the top holder's
// shares over all non-house outstanding shares. Zero when nothing is
// outstanding.
func concentration(l *Ledger, s *domain.Stock) float64 {
	outstanding := s.Outstanding()
	if outstanding <= 0 {
		return 0
	}
	top := l.Portfolio(s.TopHolder)
	if top == nil {
		return 0
	}
	return float64(top.Shares(s.Symbol)) / float64(outstanding)
}

// syncParameter re-derives the bound parameter's value from the stock's
// current ownership concentration. With no non-house shares outstanding the
// parameter returns to its midpoint.
func syncParameter(l *Ledger, s *domain.Stock) domain.ParameterUpdate {
	p := l.Parameter(s.Parameter)
	if p == nil {
		return domain.ParameterUpdate{}
	}
	if s.Outstanding() <= 0 {
		p.Reset()
	} else {
		p.MapConcentration(concentration(l, s))
	}
	return domain.ParameterUpdate{Key: p.Key, Value: p.Value}
}
