package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSet_Score(t *testing.T) {
	ts := NewTokenSet()

	t.Run("identical labels", func(t *testing.T) {
		assert.Equal(t, 1.0, ts.Score("acme", "acme"))
	})

	t.Run("order insensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, ts.Score("web amazon services", "amazon web services"))
	})

	t.Run("label embedded in longer description", func(t *testing.T) {
		// Statement descriptions often append reference numbers.
		score := ts.Score("stripe", "stripe payout 8842")
		assert.Equal(t, 1.0, score)
	})

	t.Run("near miss scores high", func(t *testing.T) {
		score := ts.Score("acme", "acm")
		assert.Greater(t, score, 0.7)
		assert.Less(t, score, 1.0)
	})

	t.Run("unrelated labels score low", func(t *testing.T) {
		score := ts.Score("github", "gcp cloud compute")
		assert.Less(t, score, 0.5)
	})

	t.Run("empty labels", func(t *testing.T) {
		assert.Equal(t, 0.0, ts.Score("", ""))
		assert.Equal(t, 0.0, ts.Score("acme", ""))
	})
}
