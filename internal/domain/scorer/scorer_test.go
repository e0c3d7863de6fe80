package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerai/reconcile-backend/internal/domain/candidates"
	"github.com/ledgerai/reconcile-backend/internal/domain/record"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pair(invName string, invCents int64, due time.Time, txName string, txCents int64, posted time.Time) candidates.Pair {
	return candidates.Pair{
		Invoice: &record.InvoiceRecord{
			ID:             "inv1",
			TenantID:       "t1",
			NormalizedName: invName,
			AmountCents:    invCents,
			Currency:       "USD",
			DueDate:        due,
		},
		Transaction: &record.BankTransactionRecord{
			ID:             "tx1",
			TenantID:       "t1",
			NormalizedName: txName,
			AmountCents:    txCents,
			Currency:       "USD",
			PostedDate:     posted,
		},
	}
}

func TestScorer_ExactTier(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// "Acme Corp Inc" and "ACME CORP" both normalize to "acme".
	p := pair("acme", 5000, day(2024, 3, 1), "acme", -5000, day(2024, 3, 2))

	scored, ok := s.Score(p)
	require.True(t, ok)
	assert.Equal(t, record.TierExact, scored.Tier)
	assert.Equal(t, 1.0, scored.AmountScore)
	assert.Equal(t, int64(0), scored.AmountDeltaCents)
	assert.Equal(t, 1.0, scored.NameScore)
}

func TestScorer_FeeAdjustedTier(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// 9683 is 10000 less the default 2.9% + 30c gateway fee.
	p := pair("acme", 10000, day(2024, 3, 1), "acme", -9683, day(2024, 3, 2))

	scored, ok := s.Score(p)
	require.True(t, ok)
	assert.Equal(t, record.TierFeeAdjusted, scored.Tier)
	assert.Equal(t, int64(317), scored.InferredFeeCents)
	assert.Equal(t, "default", scored.Gateway)
	assert.InDelta(t, feeAdjustedAmountScore, scored.AmountScore, 0.001)
}

func TestScorer_FuzzyTier(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// Small unexplained delta, same day, same name: fuzzy, not fee
	// adjusted.
	p := pair("globex", 10000, day(2024, 3, 1), "globex", -9900, day(2024, 3, 1))

	scored, ok := s.Score(p)
	require.True(t, ok)
	assert.Equal(t, record.TierFuzzy, scored.Tier)
	assert.Equal(t, int64(0), scored.InferredFeeCents)
	assert.Greater(t, scored.Confidence, 0.6)
}

func TestScorer_BelowThresholdDiscarded(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// Unrelated name, unexplained delta, window edge.
	p := pair("initech", 10000, day(2024, 3, 1), "wayne enterprises", -9990, day(2024, 3, 8))

	_, ok := s.Score(p)
	assert.False(t, ok)
}

func TestScorer_InstallmentKeptForGrouping(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// 60.00 against a 100.00 invoice: amount score is zero and the
	// composite misses the threshold, but the name agrees, so the pair
	// survives as grouping material.
	p := pair("globex", 10000, day(2024, 3, 1), "globex", -6000, day(2024, 3, 3))

	scored, ok := s.Score(p)
	require.True(t, ok)
	assert.Equal(t, record.TierUnmatched, scored.Tier)

	// The same amounts with an unrelated name stay discarded.
	_, ok = s.Score(pair("globex", 10000, day(2024, 3, 1), "wayne enterprises", -6000, day(2024, 3, 3)))
	assert.False(t, ok)
}

func TestScorer_ExactAmountPoorNameIsNotExact(t *testing.T) {
	s := New(DefaultConfig(), nil)

	p := pair("initech", 5000, day(2024, 3, 1), "umbrella holdings", -5000, day(2024, 3, 1))

	scored, ok := s.Score(p)
	if ok {
		assert.NotEqual(t, record.TierExact, scored.Tier)
	}
}

func TestScorer_DateScoreDecay(t *testing.T) {
	s := New(DefaultConfig(), nil)

	sameDay, ok := s.Score(pair("acme", 5000, day(2024, 3, 1), "acme", -5000, day(2024, 3, 1)))
	require.True(t, ok)
	edge, ok := s.Score(pair("acme", 5000, day(2024, 3, 1), "acme", -5000, day(2024, 3, 8)))
	require.True(t, ok)

	assert.Equal(t, 1.0, sameDay.DateScore)
	assert.InDelta(t, 0.0, edge.DateScore, 0.001)
	assert.Greater(t, sameDay.Confidence, edge.Confidence)
}

func TestMatchFee(t *testing.T) {
	gateways := []GatewayFee{DefaultGateway()}

	t.Run("exact formula", func(t *testing.T) {
		// 10000 * (1 - 0.029) - 30 = 9680; slop covers gateway rounding.
		fee, name, ok := MatchFee(gateways, "USD", 10000, 9680)
		require.True(t, ok)
		assert.Equal(t, int64(320), fee)
		assert.Equal(t, "default", name)
	})

	t.Run("within rounding slop", func(t *testing.T) {
		fee, _, ok := MatchFee(gateways, "USD", 10000, 9683)
		require.True(t, ok)
		assert.Equal(t, int64(317), fee)
	})

	t.Run("overpayment never fee", func(t *testing.T) {
		_, _, ok := MatchFee(gateways, "USD", 10000, 10100)
		assert.False(t, ok)
	})

	t.Run("arbitrary delta not fee", func(t *testing.T) {
		_, _, ok := MatchFee(gateways, "USD", 10000, 9000)
		assert.False(t, ok)
	})

	t.Run("currency scoped formula skipped", func(t *testing.T) {
		eur := []GatewayFee{{Name: "eu-gw", Currency: "EUR", Percent: 0.029, FixedCents: 30}}
		_, _, ok := MatchFee(eur, "USD", 10000, 9680)
		assert.False(t, ok)
	})

	t.Run("multiple gateways first match wins", func(t *testing.T) {
		multi := []GatewayFee{
			{Name: "flat", Percent: 0, FixedCents: 100},
			DefaultGateway(),
		}
		fee, name, ok := MatchFee(multi, "USD", 10000, 9900)
		require.True(t, ok)
		assert.Equal(t, int64(100), fee)
		assert.Equal(t, "flat", name)
	})
}
