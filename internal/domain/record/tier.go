package record

// Tier classifies the confidence of a match outcome. Tiers are totally
// ordered: Exact > FeeAdjusted > Fuzzy > Unmatched. The resolver always
// prefers the higher tier when breaking conflicts, so the numeric values
// sort naturally.
type Tier int

const (
	TierUnmatched Tier = iota
	TierFuzzy
	TierFeeAdjusted
	TierExact
)

// String returns the stable wire name for a tier.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "EXACT"
	case TierFeeAdjusted:
		return "FEE_ADJUSTED"
	case TierFuzzy:
		return "FUZZY"
	default:
		return "UNMATCHED"
	}
}

// TierFromString parses a wire name back into a Tier. Unknown names map
// to TierUnmatched.
func TierFromString(s string) Tier {
	switch s {
	case "EXACT":
		return TierExact
	case "FEE_ADJUSTED":
		return TierFeeAdjusted
	case "FUZZY":
		return TierFuzzy
	default:
		return TierUnmatched
	}
}
