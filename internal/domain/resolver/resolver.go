// Package resolver selects a conflict-free assignment set from the
// scored candidates. Treated as maximum-weight bipartite matching and
// resolved greedily: candidates are processed in descending (tier,
// confidence) order, and a candidate is accepted only if neither of its
// records is already committed. Ties break on identifiers so the result
// is reproducible regardless of input order.
//
// The greedy commit is inherently sequential and runs single-threaded;
// parallelism belongs upstream in candidate generation and scoring.
package resolver

import (
	"sort"

	"github.com/ledgerai/reconcile-backend/internal/domain/record"
)

// Config controls partial-payment grouping.
type Config struct {
	// EnablePartials turns on one-to-many grouping of several
	// transactions paying one invoice.
	EnablePartials bool

	// PartialSumToleranceCents is how far the group sum may drift from
	// the invoice amount.
	PartialSumToleranceCents int64

	// MaxPartialGroup bounds how many transactions a partial group may
	// contain.
	MaxPartialGroup int
}

// DefaultConfig enables partials with a 2-cent sum tolerance, matching
// the rounding drift two separately-rounded charges can accumulate.
func DefaultConfig() Config {
	return Config{
		EnablePartials:           true,
		PartialSumToleranceCents: 2,
		MaxPartialGroup:          4,
	}
}

// Resolver commits candidates into assignments.
type Resolver struct {
	cfg Config
}

// New creates a resolver.
func New(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve produces the final conflict-free assignment set for one
// tenant. Every invoice and transaction ends up in exactly one
// assignment; records with no accepted pairing become unmatched
// entries. An absent match is a normal outcome, never an error;
// ReconciliationError is reserved for structurally invalid input.
func (r *Resolver) Resolve(
	tenantID string,
	invoices []record.InvoiceRecord,
	transactions []record.BankTransactionRecord,
	cands []record.CandidatePair,
) ([]record.MatchAssignment, error) {
	if tenantID == "" {
		return nil, &record.ReconciliationError{Reason: "missing tenant identifier"}
	}
	for i := range invoices {
		if invoices[i].TenantID != tenantID {
			return nil, &record.ReconciliationError{Reason: "invoice " + invoices[i].ID + " belongs to a different tenant"}
		}
	}
	for i := range transactions {
		if transactions[i].TenantID != tenantID {
			return nil, &record.ReconciliationError{Reason: "transaction " + transactions[i].ID + " belongs to a different tenant"}
		}
	}

	ordered := make([]record.CandidatePair, len(cands))
	copy(ordered, cands)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.InvoiceID != b.InvoiceID {
			return a.InvoiceID < b.InvoiceID
		}
		return a.TransactionID < b.TransactionID
	})

	usedInvoice := make(map[string]bool)
	usedTransaction := make(map[string]bool)
	var assignments []record.MatchAssignment

	commit := func(minTier record.Tier) {
		for _, c := range ordered {
			if c.Tier < minTier {
				continue
			}
			if usedInvoice[c.InvoiceID] || usedTransaction[c.TransactionID] {
				continue
			}
			usedInvoice[c.InvoiceID] = true
			usedTransaction[c.TransactionID] = true
			assignments = append(assignments, record.MatchAssignment{
				InvoiceID:        c.InvoiceID,
				TransactionIDs:   []string{c.TransactionID},
				Kind:             record.KindOneToOne,
				Tier:             c.Tier,
				Confidence:       c.Confidence,
				AmountDeltaCents: c.AmountDeltaCents,
				InferredFeeCents: c.InferredFeeCents,
				NameSimilarity:   c.NameScore,
				Gateway:          c.Gateway,
			})
		}
	}

	// Exact and fee-adjusted candidates commit one-to-one first. Partial
	// grouping then runs on what is left, before the fuzzy one-to-one
	// pass: a fuzzy candidate covering only part of an invoice must not
	// steal a transaction that belongs to a confirmed partial group.
	commit(record.TierFeeAdjusted)
	if r.cfg.EnablePartials {
		assignments = append(assignments, r.resolvePartials(invoices, transactions, ordered, usedInvoice, usedTransaction)...)
	}
	commit(record.TierFuzzy)

	// Everything left over terminates as unmatched.
	for i := range invoices {
		if usedInvoice[invoices[i].ID] {
			continue
		}
		assignments = append(assignments, record.MatchAssignment{
			InvoiceID: invoices[i].ID,
			Kind:      record.KindUnmatchedInvoice,
			Tier:      record.TierUnmatched,
		})
	}
	for i := range transactions {
		if usedTransaction[transactions[i].ID] {
			continue
		}
		assignments = append(assignments, record.MatchAssignment{
			TransactionIDs: []string{transactions[i].ID},
			Kind:           record.KindUnmatchedTransaction,
			Tier:           record.TierUnmatched,
		})
	}

	return assignments, nil
}

// resolvePartials groups leftover transactions that together pay one
// leftover invoice. A group is committed only when the summed amounts
// agree with the invoice amount within tolerance; anything weaker stays
// unmatched rather than guessing.
func (r *Resolver) resolvePartials(
	invoices []record.InvoiceRecord,
	transactions []record.BankTransactionRecord,
	ordered []record.CandidatePair,
	usedInvoice, usedTransaction map[string]bool,
) []record.MatchAssignment {
	invoiceByID := make(map[string]*record.InvoiceRecord, len(invoices))
	for i := range invoices {
		invoiceByID[invoices[i].ID] = &invoices[i]
	}
	txByID := make(map[string]*record.BankTransactionRecord, len(transactions))
	for i := range transactions {
		txByID[transactions[i].ID] = &transactions[i]
	}

	// Remaining candidates per invoice, already in deterministic order.
	remaining := make(map[string][]record.CandidatePair)
	var invoiceOrder []string
	for _, c := range ordered {
		if usedInvoice[c.InvoiceID] || usedTransaction[c.TransactionID] {
			continue
		}
		if _, seen := remaining[c.InvoiceID]; !seen {
			invoiceOrder = append(invoiceOrder, c.InvoiceID)
		}
		remaining[c.InvoiceID] = append(remaining[c.InvoiceID], c)
	}
	sort.Strings(invoiceOrder)

	var assignments []record.MatchAssignment
	for _, invID := range invoiceOrder {
		if usedInvoice[invID] {
			continue
		}
		inv := invoiceByID[invID]
		if inv == nil {
			continue
		}

		group, sum := r.collectGroup(inv, remaining[invID], usedTransaction, txByID)
		if len(group) < 2 {
			continue
		}
		drift := inv.AmountCents - sum
		if drift < 0 {
			drift = -drift
		}
		if drift > r.cfg.PartialSumToleranceCents {
			continue
		}

		usedInvoice[invID] = true
		txIDs := make([]string, 0, len(group))
		var confidence, nameScore float64
		for _, c := range group {
			usedTransaction[c.TransactionID] = true
			txIDs = append(txIDs, c.TransactionID)
			confidence += c.Confidence
			if c.NameScore > nameScore {
				nameScore = c.NameScore
			}
		}
		sort.Strings(txIDs)

		assignments = append(assignments, record.MatchAssignment{
			InvoiceID:        invID,
			TransactionIDs:   txIDs,
			Kind:             record.KindPartial,
			Tier:             record.TierFuzzy,
			Confidence:       confidence / float64(len(group)),
			AmountDeltaCents: drift,
			NameSimilarity:   nameScore,
		})
	}

	return assignments
}

// collectGroup greedily accumulates unused candidate transactions for
// an invoice, largest amounts first, while the running sum stays within
// the invoice amount plus tolerance.
func (r *Resolver) collectGroup(
	inv *record.InvoiceRecord,
	cands []record.CandidatePair,
	usedTransaction map[string]bool,
	txByID map[string]*record.BankTransactionRecord,
) ([]record.CandidatePair, int64) {
	pool := make([]record.CandidatePair, 0, len(cands))
	for _, c := range cands {
		if !usedTransaction[c.TransactionID] && txByID[c.TransactionID] != nil {
			pool = append(pool, c)
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		ai := txByID[pool[i].TransactionID].AbsAmountCents()
		aj := txByID[pool[j].TransactionID].AbsAmountCents()
		if ai != aj {
			return ai > aj
		}
		return pool[i].TransactionID < pool[j].TransactionID
	})

	limit := r.cfg.MaxPartialGroup
	if limit <= 0 {
		limit = len(pool)
	}

	var group []record.CandidatePair
	var sum int64
	for _, c := range pool {
		if len(group) == limit {
			break
		}
		amount := txByID[c.TransactionID].AbsAmountCents()
		if sum+amount > inv.AmountCents+r.cfg.PartialSumToleranceCents {
			continue
		}
		group = append(group, c)
		sum += amount
	}

	return group, sum
}
