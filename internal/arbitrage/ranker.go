package arbitrage

import (
	"sort"
	"sync"

	"github.com/irfndi/cryptogap-go/internal/models"
)

// Rank returns a copy of opportunities sorted by descending gap. Equal gaps
// keep their input order.
func Rank(opportunities []models.ArbitrageOpportunity) []models.ArbitrageOpportunity {
	ranked := make([]models.ArbitrageOpportunity, len(opportunities))
	copy(ranked, opportunities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriceDiffPct.GreaterThan(ranked[j].PriceDiffPct)
	})
	return ranked
}

// LastOpportunity holds the top opportunity of the most recent nonempty
// ranking. Writers replace the whole value; readers get a copy.
type LastOpportunity struct {
	mu  sync.RWMutex
	opp *models.ArbitrageOpportunity
}

// Get returns the last seen opportunity, ok == false if none was ever set.
func (l *LastOpportunity) Get() (models.ArbitrageOpportunity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.opp == nil {
		return models.ArbitrageOpportunity{}, false
	}
	return *l.opp, true
}

// Set overwrites the last seen opportunity.
func (l *LastOpportunity) Set(opp models.ArbitrageOpportunity) {
	l.mu.Lock()
	l.opp = &opp
	l.mu.Unlock()
}

// Update stores ranked[0] and reports whether anything changed. An empty
// ranking leaves the previous value in place.
func (l *LastOpportunity) Update(ranked []models.ArbitrageOpportunity) bool {
	if len(ranked) == 0 {
		return false
	}
	l.Set(ranked[0])
	return true
}
