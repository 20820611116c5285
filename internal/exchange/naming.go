package exchange

import (
	"github.com/irfndi/cryptogap-go/internal/config"
)

// Naming describes how an exchange spells its trading pairs.
type Naming struct {
	// Separator goes between base and quote, e.g. "/" for "BTC/USDT" or "" for "BTCUSDT".
	Separator string
	// Aliases maps a canonical code to the exchange's own code, e.g. BTC -> XBT.
	Aliases map[string]string
	// Inverse allows pricing BASE/QUOTE from a QUOTE/BASE listing.
	Inverse bool
}

// NamingFromConfig builds the strategy for a configured exchange.
func NamingFromConfig(cfg config.ExchangeConfig) Naming {
	return Naming{
		Separator: cfg.Separator,
		Aliases:   cfg.Aliases,
		Inverse:   cfg.Inverse,
	}
}

// Candidate is one pair name to look up and whether its price must be inverted.
type Candidate struct {
	Pair    string
	Inverse bool
}

// Pair joins base and quote with the separator, without aliasing.
func (n Naming) Pair(base, quote string) string {
	return base + n.Separator + quote
}

// TradingPair is the exchange's native name for base/quote, aliases applied.
func (n Naming) TradingPair(base, quote string) string {
	return n.Pair(n.alias(base), n.alias(quote))
}

// Candidates lists the lookups for base/quote in priority order: direct,
// inverse, aliased direct, aliased inverse.
func (n Naming) Candidates(base, quote string) []Candidate {
	candidates := make([]Candidate, 0, 4)
	seen := make(map[Candidate]bool, 4)
	add := func(c Candidate) {
		if !seen[c] {
			seen[c] = true
			candidates = append(candidates, c)
		}
	}

	add(Candidate{Pair: n.Pair(base, quote)})
	if n.Inverse {
		add(Candidate{Pair: n.Pair(quote, base), Inverse: true})
	}

	aliasBase, aliasQuote := n.alias(base), n.alias(quote)
	if aliasBase != base || aliasQuote != quote {
		add(Candidate{Pair: n.Pair(aliasBase, aliasQuote)})
		if n.Inverse {
			add(Candidate{Pair: n.Pair(aliasQuote, aliasBase), Inverse: true})
		}
	}
	return candidates
}

func (n Naming) alias(code string) string {
	if alt, ok := n.Aliases[code]; ok && alt != "" {
		return alt
	}
	return code
}
