package scorer

import "github.com/shopspring/decimal"

// feeMatchSlopCents absorbs per-gateway rounding differences when
// checking whether a delta is explained by a fee formula. Gateways
// round percentage fees in slightly different ways, so an exact
// comparison would miss real fee-adjusted payments by a cent or two.
const feeMatchSlopCents = 5

// GatewayFee is a percentage-plus-fixed payment gateway fee formula.
// The fee model is configuration, not a hardcoded constant: deployments
// list the gateways their tenants actually pay through.
type GatewayFee struct {
	Name string `yaml:"name"`

	// Currency the formula applies to; empty means any currency.
	Currency string `yaml:"currency"`

	// Percent is the proportional part (0.029 = 2.9%).
	Percent float64 `yaml:"percent"`

	// FixedCents is the flat part in minor units.
	FixedCents int64 `yaml:"fixed_cents"`
}

// DefaultGateway is the Stripe-like 2.9% + 30c formula.
func DefaultGateway() GatewayFee {
	return GatewayFee{
		Name:       "default",
		Percent:    0.029,
		FixedCents: 30,
	}
}

// NetCents returns what a gross invoice amount pays out after this fee.
func (g GatewayFee) NetCents(grossCents int64) int64 {
	gross := decimal.New(grossCents, 0)
	fee := gross.Mul(decimal.NewFromFloat(g.Percent)).Round(0).IntPart() + g.FixedCents
	return grossCents - fee
}

// MatchFee reports whether the paid amount is explained by one of the
// configured gateway formulas applied to the invoice amount. On a match
// it returns the inferred fee and the gateway name. Formulas are tried
// in configuration order; the first match wins.
func MatchFee(gateways []GatewayFee, currency string, invoiceCents, paidCents int64) (feeCents int64, gateway string, ok bool) {
	if paidCents >= invoiceCents {
		// Fees only ever reduce the paid amount.
		return 0, "", false
	}

	for _, g := range gateways {
		if g.Currency != "" && g.Currency != currency {
			continue
		}
		expected := g.NetCents(invoiceCents)
		diff := paidCents - expected
		if diff < 0 {
			diff = -diff
		}
		if diff <= feeMatchSlopCents {
			return invoiceCents - paidCents, g.Name, true
		}
	}

	return 0, "", false
}
