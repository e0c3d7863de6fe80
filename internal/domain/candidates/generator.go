// Package candidates bounds which invoice/transaction pairs are worth
// scoring at all. Pairing every invoice against every transaction is
// O(n*m); instead transactions are indexed by posted day and by absolute
// amount, and a pair is generated only when the transaction falls inside
// the date window around the invoice due date or its amount is within
// the fee-tolerance ceiling.
//
// Every exact match (same amount, same date) is guaranteed to be
// generated. Fuzzy matches outside both windows are deliberately lost;
// that trade is what keeps large tenants sub-quadratic.
package candidates

import (
	"sort"
	"time"

	"github.com/ledgerai/reconcile-backend/internal/domain/record"
)

// Config bounds the candidate search.
type Config struct {
	// WindowDays is the +/- range around the invoice due date.
	WindowDays int

	// FeeTolerancePct is the maximum amount delta as a fraction of the
	// invoice amount (0.05 = 5%).
	FeeTolerancePct float64

	// FeeToleranceCapCents is a fixed ceiling on the amount delta. The
	// effective ceiling per invoice is the smaller of the two bounds.
	FeeToleranceCapCents int64
}

// DefaultConfig returns the documented defaults: +/-7 days, 5% delta
// capped at $50.
func DefaultConfig() Config {
	return Config{
		WindowDays:           7,
		FeeTolerancePct:      0.05,
		FeeToleranceCapCents: 5000,
	}
}

// Pair references the two records of an unscored candidate.
type Pair struct {
	Invoice     *record.InvoiceRecord
	Transaction *record.BankTransactionRecord
}

// Generator produces candidate pairs for one tenant's records.
type Generator struct {
	cfg Config
}

// NewGenerator creates a generator with the given bounds.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// ceilingCents returns the effective amount-delta ceiling for an invoice.
func (g *Generator) ceilingCents(invoiceAmount int64) int64 {
	pctCeiling := int64(float64(invoiceAmount) * g.cfg.FeeTolerancePct)
	if g.cfg.FeeToleranceCapCents < pctCeiling {
		return g.cfg.FeeToleranceCapCents
	}
	return pctCeiling
}

// Generate returns all pairs worth scoring. Output order is
// deterministic: sorted by (invoice ID, transaction ID). Pairs never
// cross tenant or currency boundaries.
func (g *Generator) Generate(invoices []record.InvoiceRecord, transactions []record.BankTransactionRecord) []Pair {
	byDay := make(map[int64][]*record.BankTransactionRecord, len(transactions))

	// Secondary index: transactions sorted by absolute amount for the
	// fee-tolerance range scan.
	byAmount := make([]*record.BankTransactionRecord, 0, len(transactions))

	for i := range transactions {
		tx := &transactions[i]
		day := dayKey(tx.PostedDate)
		byDay[day] = append(byDay[day], tx)
		byAmount = append(byAmount, tx)
	}
	sort.Slice(byAmount, func(i, j int) bool {
		ai, aj := byAmount[i].AbsAmountCents(), byAmount[j].AbsAmountCents()
		if ai != aj {
			return ai < aj
		}
		return byAmount[i].ID < byAmount[j].ID
	})

	var pairs []Pair
	for i := range invoices {
		inv := &invoices[i]
		seen := make(map[string]bool)

		// Date window pass.
		base := dayKey(inv.DueDate)
		for offset := -int64(g.cfg.WindowDays); offset <= int64(g.cfg.WindowDays); offset++ {
			for _, tx := range byDay[base+offset] {
				if !pairable(inv, tx) || seen[tx.ID] {
					continue
				}
				seen[tx.ID] = true
				pairs = append(pairs, Pair{Invoice: inv, Transaction: tx})
			}
		}

		// Amount tolerance pass: a nonzero delta inside the ceiling
		// looks like a gateway fee and may pair outside the date
		// window. A delta of exactly zero with a far-off date is just
		// a coincidental amount and stays unpaired.
		ceiling := g.ceilingCents(inv.AmountCents)
		lo := inv.AmountCents - ceiling
		hi := inv.AmountCents + ceiling
		start := sort.Search(len(byAmount), func(j int) bool {
			return byAmount[j].AbsAmountCents() >= lo
		})
		for j := start; j < len(byAmount) && byAmount[j].AbsAmountCents() <= hi; j++ {
			tx := byAmount[j]
			if tx.AbsAmountCents() == inv.AmountCents {
				continue
			}
			if !pairable(inv, tx) || seen[tx.ID] {
				continue
			}
			seen[tx.ID] = true
			pairs = append(pairs, Pair{Invoice: inv, Transaction: tx})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Invoice.ID != pairs[j].Invoice.ID {
			return pairs[i].Invoice.ID < pairs[j].Invoice.ID
		}
		return pairs[i].Transaction.ID < pairs[j].Transaction.ID
	})

	return pairs
}

// pairable enforces the boundaries no candidate may cross.
func pairable(inv *record.InvoiceRecord, tx *record.BankTransactionRecord) bool {
	if inv.TenantID != tx.TenantID {
		return false
	}
	return inv.Currency == tx.Currency
}

func dayKey(t time.Time) int64 {
	return t.Unix() / (24 * 60 * 60)
}
