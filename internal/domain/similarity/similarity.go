// Package similarity scores how alike two normalized labels are.
//
// The scorer is a small interface so the algorithm can be swapped
// without touching the match scorer's weighting logic. The default
// implementation is an order-insensitive token-set comparison with a
// per-token Levenshtein ratio, which holds up well against bank
// statement noise ("STRIPE PAYOUT 8842" vs "stripe").
package similarity

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Scorer computes a similarity score in [0,1] for two labels.
// 1 means identical, 0 means nothing in common. Implementations must be
// pure and safe for concurrent use.
type Scorer interface {
	Score(a, b string) float64
}

// TokenSet is the default Scorer. For each token of the shorter label it
// takes the best Levenshtein ratio against the other label's tokens,
// then averages. Token order never matters.
type TokenSet struct{}

// NewTokenSet returns the default token-set scorer.
func NewTokenSet() *TokenSet {
	return &TokenSet{}
}

// Score implements Scorer.
func (ts *TokenSet) Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	// Compare from the shorter side so that a label embedded in a longer
	// statement description still scores high.
	if len(aTokens) > len(bTokens) {
		aTokens, bTokens = bTokens, aTokens
	}

	var total float64
	for _, at := range aTokens {
		best := 0.0
		for _, bt := range bTokens {
			r := tokenRatio(at, bt)
			if r > best {
				best = r
			}
			if best == 1 {
				break
			}
		}
		total += best
	}

	return total / float64(len(aTokens))
}

func tokenRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}
