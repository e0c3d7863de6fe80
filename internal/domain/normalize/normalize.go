// Package normalize canonicalizes the raw fields coming out of the
// extractor and the bank feed: vendor labels, money amounts and dates.
//
// Every function here is a pure function of its input. Failures are
// typed (record.InvalidAmountError, record.InvalidDateError) so callers
// can isolate a single bad record without aborting the run.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ledgerai/reconcile-backend/internal/domain/record"
)

// legalSuffixes are entity-form tokens that carry no identity signal.
// "ACME CORP" and "Acme Corp Inc" should normalize to the same label.
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"llp":          true,
	"lp":           true,
	"ltd":          true,
	"limited":      true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"gmbh":         true,
	"plc":          true,
	"pte":          true,
	"pty":          true,
	"pvt":          true,
	"sa":           true,
	"srl":          true,
}

// Name canonicalizes a vendor or counterparty label: case-folded,
// punctuation replaced with spaces, legal-entity suffixes dropped,
// whitespace collapsed.
//
// If stripping suffixes would leave nothing (the label was all entity
// tokens), the cleaned label is kept as-is so the record still has
// something to compare against.
func Name(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if legalSuffixes[tok] {
			continue
		}
		kept = append(kept, tok)
	}

	if len(kept) == 0 {
		kept = tokens
	}

	return strings.Join(kept, " ")
}

// Amount parses a raw money string into minor units (cents).
//
// Currency symbols, thousands separators and surrounding whitespace are
// tolerated. Sub-cent precision is rounded half-up. When allowNegative
// is false a negative amount is rejected, which is the rule for invoice
// totals; bank transactions pass allowNegative=true since debits are
// negative by convention.
func Amount(raw string, allowNegative bool) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '₹', ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return 0, &record.InvalidAmountError{Raw: raw, Reason: "empty"}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, &record.InvalidAmountError{Raw: raw, Reason: "not a number"}
	}

	if d.IsNegative() && !allowNegative {
		return 0, &record.InvalidAmountError{Raw: raw, Reason: "negative amount not allowed"}
	}

	return d.Shift(2).Round(0).IntPart(), nil
}

// AmountFromFloat converts an already-numeric amount (e.g. a JSON
// number from the extractor) into minor units, with the same sign rule
// as Amount.
func AmountFromFloat(v float64, allowNegative bool) (int64, error) {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() && !allowNegative {
		return 0, &record.InvalidAmountError{Raw: d.String(), Reason: "negative amount not allowed"}
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// dateLayouts are tried in order. The first is the extractor's preferred
// output format.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// Date parses a raw date string into a UTC date (time truncated to
// midnight). Returns record.InvalidDateError when no known layout fits.
func Date(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &record.InvalidDateError{Raw: raw}
}
