// Package scorer turns candidate pairs into scored, tier-classified
// pairs. Scoring is a pure computation over the pair; the composite is
// a weighted sum of name, amount and date components, and the tier is
// derived from the components plus fee-pattern detection.
package scorer

import (
	"math"
	"time"

	"github.com/ledgerai/reconcile-backend/internal/domain/candidates"
	"github.com/ledgerai/reconcile-backend/internal/domain/record"
	"github.com/ledgerai/reconcile-backend/internal/domain/similarity"
)

// feeAdjustedAmountScore is the near-maximal amount score for a delta
// fully explained by a gateway fee. Kept below 1.0 so exact matches
// still outrank fee-adjusted ones at equal name/date scores.
const feeAdjustedAmountScore = 0.97

// Config holds scoring weights and thresholds.
type Config struct {
	// Component weights. Must sum to 1.
	NameWeight   float64
	AmountWeight float64
	DateWeight   float64

	// WindowDays mirrors the candidate window; the date score decays
	// linearly to zero at its edge.
	WindowDays int

	// FeeTolerancePct and FeeToleranceCapCents bound the amount decay,
	// matching the candidate generator's ceiling.
	FeeTolerancePct      float64
	FeeToleranceCapCents int64

	// AcceptThreshold is the minimum composite for a pair to survive
	// scoring at all.
	AcceptThreshold float64

	// ExactNameThreshold is the minimum name score for the EXACT tier.
	ExactNameThreshold float64

	Gateways []GatewayFee
}

// DefaultConfig returns the documented defaults: weights 0.4/0.4/0.2,
// acceptance at 0.6, a single Stripe-like gateway formula.
func DefaultConfig() Config {
	return Config{
		NameWeight:           0.4,
		AmountWeight:         0.4,
		DateWeight:           0.2,
		WindowDays:           7,
		FeeTolerancePct:      0.05,
		FeeToleranceCapCents: 5000,
		AcceptThreshold:      0.6,
		ExactNameThreshold:   0.85,
		Gateways:             []GatewayFee{DefaultGateway()},
	}
}

// Scorer scores candidate pairs. The name similarity algorithm is
// injected so it can be swapped without touching the weighting logic.
type Scorer struct {
	cfg   Config
	names similarity.Scorer
}

// New creates a scorer. A nil similarity scorer falls back to the
// default token-set implementation.
func New(cfg Config, names similarity.Scorer) *Scorer {
	if names == nil {
		names = similarity.NewTokenSet()
	}
	return &Scorer{cfg: cfg, names: names}
}

// Score computes the scored candidate pair. The second return value is
// false when the pair falls below the acceptance threshold and should
// be discarded rather than carried as noise.
func (s *Scorer) Score(p candidates.Pair) (record.CandidatePair, bool) {
	inv, tx := p.Invoice, p.Transaction

	nameScore := s.names.Score(inv.NormalizedName, tx.NormalizedName)

	delta := inv.AmountCents - tx.AbsAmountCents()
	if delta < 0 {
		delta = -delta
	}

	fee, gateway, feeMatched := MatchFee(s.cfg.Gateways, inv.Currency, inv.AmountCents, tx.AbsAmountCents())
	amountScore := s.amountScore(inv.AmountCents, delta, feeMatched)
	dateScore := s.dateScore(inv.DueDate, tx.PostedDate)

	composite := nameScore*s.cfg.NameWeight + amountScore*s.cfg.AmountWeight + dateScore*s.cfg.DateWeight
	composite = clip01(composite)

	scored := record.CandidatePair{
		InvoiceID:        inv.ID,
		TransactionID:    tx.ID,
		NameScore:        nameScore,
		AmountScore:      amountScore,
		DateScore:        dateScore,
		Confidence:       composite,
		AmountDeltaCents: delta,
	}

	switch {
	case delta == 0 && nameScore >= s.cfg.ExactNameThreshold:
		scored.Tier = record.TierExact
	case feeMatched && composite >= s.cfg.AcceptThreshold:
		scored.Tier = record.TierFeeAdjusted
		scored.InferredFeeCents = fee
		scored.Gateway = gateway
	case composite >= s.cfg.AcceptThreshold:
		scored.Tier = record.TierFuzzy
	case nameScore >= s.cfg.ExactNameThreshold && tx.AbsAmountCents() < inv.AmountCents:
		// A strong-name underpayment may be one installment of a larger
		// invoice. It survives for partial grouping but carries no
		// committable tier, so it can never become a one-to-one match.
		scored.Tier = record.TierUnmatched
	default:
		return record.CandidatePair{}, false
	}

	return scored, true
}

// amountScore is 1.0 for an exact amount, near-maximal for a
// fee-explained delta, and otherwise decays linearly to zero at the
// tolerance ceiling.
func (s *Scorer) amountScore(invoiceAmount, delta int64, feeMatched bool) float64 {
	if delta == 0 {
		return 1.0
	}
	if feeMatched {
		return feeAdjustedAmountScore
	}

	ceiling := int64(float64(invoiceAmount) * s.cfg.FeeTolerancePct)
	if s.cfg.FeeToleranceCapCents < ceiling {
		ceiling = s.cfg.FeeToleranceCapCents
	}
	if ceiling <= 0 || delta > ceiling {
		return 0
	}
	return 1.0 - float64(delta)/float64(ceiling)
}

// dateScore decays linearly from 1.0 at a same-day match to zero at the
// edge of the candidate window.
func (s *Scorer) dateScore(due, posted time.Time) float64 {
	diffDays := math.Abs(posted.Sub(due).Hours() / 24)
	window := float64(s.cfg.WindowDays)
	if window <= 0 {
		if diffDays == 0 {
			return 1
		}
		return 0
	}
	return clip01(1.0 - diffDays/window)
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
