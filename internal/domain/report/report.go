// Package report aggregates a run's assignments and records into the
// audit-ready reconciliation report. Building is pure aggregation:
// scores and fees computed upstream are carried through, never
// recomputed.
package report

import (
	"time"

	"github.com/ledgerai/reconcile-backend/internal/domain/record"
)

// Report is the exportable result of one reconciliation run. Callers
// hold the returned value; there is no shared evolving report state.
type Report struct {
	TenantID    string    `json:"tenant_id"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Matched               []MatchedEntry     `json:"matched"`
	Partial               []PartialEntry     `json:"partial"`
	UnmatchedInvoices     []InvoiceEntry     `json:"unmatched_invoices"`
	UnmatchedTransactions []TransactionEntry `json:"unmatched_transactions"`
	Unprocessable         []record.Unprocessable `json:"unprocessable"`

	Summary Summary `json:"summary"`
}

// MatchedEntry is a one-to-one match with its audit explanation.
type MatchedEntry struct {
	Invoice     InvoiceEntry     `json:"invoice"`
	Transaction TransactionEntry `json:"transaction"`

	Tier             string  `json:"tier"`
	Confidence       float64 `json:"confidence"`
	AmountDeltaCents int64   `json:"amount_delta_cents"`
	InferredFeeCents int64   `json:"inferred_fee_cents,omitempty"`
	Gateway          string  `json:"gateway,omitempty"`
	NameSimilarity   float64 `json:"name_similarity"`
}

// PartialEntry is a one-to-many match: several transactions paying one
// invoice.
type PartialEntry struct {
	Invoice      InvoiceEntry       `json:"invoice"`
	Transactions []TransactionEntry `json:"transactions"`

	Confidence       float64 `json:"confidence"`
	AmountDeltaCents int64   `json:"amount_delta_cents"`
	NameSimilarity   float64 `json:"name_similarity"`
}

// InvoiceEntry is the invoice projection used in report rows.
type InvoiceEntry struct {
	ID            string    `json:"id"`
	VendorName    string    `json:"vendor_name"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	DueDate       time.Time `json:"due_date"`
}

// TransactionEntry is the bank transaction projection used in report
// rows.
type TransactionEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PostedDate  time.Time `json:"posted_date"`
}

// Summary carries the aggregate figures the query layer answers from.
type Summary struct {
	TotalInvoices     int `json:"total_invoices"`
	TotalTransactions int `json:"total_transactions"`

	ExactCount       int `json:"exact_count"`
	FeeAdjustedCount int `json:"fee_adjusted_count"`
	FuzzyCount       int `json:"fuzzy_count"`
	PartialCount     int `json:"partial_count"`

	UnmatchedInvoiceCount     int `json:"unmatched_invoice_count"`
	UnmatchedTransactionCount int `json:"unmatched_transaction_count"`
	UnprocessableCount        int `json:"unprocessable_count"`

	MatchedAmountCents              int64 `json:"matched_amount_cents"`
	UnmatchedInvoiceAmountCents     int64 `json:"unmatched_invoice_amount_cents"`
	UnmatchedTransactionAmountCents int64 `json:"unmatched_transaction_amount_cents"`
	InferredFeeCents                int64 `json:"inferred_fee_cents"`
}

// Build assembles the report for one run. Assignments reference records
// by identifier; records missing from the lookup maps are skipped
// rather than invented.
func Build(
	tenantID, runID string,
	generatedAt time.Time,
	assignments []record.MatchAssignment,
	invoices []record.InvoiceRecord,
	transactions []record.BankTransactionRecord,
	unprocessable []record.Unprocessable,
) *Report {
	invoiceByID := make(map[string]*record.InvoiceRecord, len(invoices))
	for i := range invoices {
		invoiceByID[invoices[i].ID] = &invoices[i]
	}
	txByID := make(map[string]*record.BankTransactionRecord, len(transactions))
	for i := range transactions {
		txByID[transactions[i].ID] = &transactions[i]
	}

	rep := &Report{
		TenantID:      tenantID,
		RunID:         runID,
		GeneratedAt:   generatedAt,
		Unprocessable: unprocessable,
		Summary: Summary{
			TotalInvoices:      len(invoices),
			TotalTransactions:  len(transactions),
			UnprocessableCount: len(unprocessable),
		},
	}

	for _, a := range assignments {
		switch a.Kind {
		case record.KindOneToOne:
			inv := invoiceByID[a.InvoiceID]
			if inv == nil || len(a.TransactionIDs) == 0 {
				continue
			}
			tx := txByID[a.TransactionIDs[0]]
			if tx == nil {
				continue
			}
			rep.Matched = append(rep.Matched, MatchedEntry{
				Invoice:          invoiceEntry(inv),
				Transaction:      transactionEntry(tx),
				Tier:             a.Tier.String(),
				Confidence:       a.Confidence,
				AmountDeltaCents: a.AmountDeltaCents,
				InferredFeeCents: a.InferredFeeCents,
				Gateway:          a.Gateway,
				NameSimilarity:   a.NameSimilarity,
			})
			rep.Summary.MatchedAmountCents += inv.AmountCents
			rep.Summary.InferredFeeCents += a.InferredFeeCents
			switch a.Tier {
			case record.TierExact:
				rep.Summary.ExactCount++
			case record.TierFeeAdjusted:
				rep.Summary.FeeAdjustedCount++
			default:
				rep.Summary.FuzzyCount++
			}

		case record.KindPartial:
			inv := invoiceByID[a.InvoiceID]
			if inv == nil {
				continue
			}
			entry := PartialEntry{
				Invoice:          invoiceEntry(inv),
				Confidence:       a.Confidence,
				AmountDeltaCents: a.AmountDeltaCents,
				NameSimilarity:   a.NameSimilarity,
			}
			for _, txID := range a.TransactionIDs {
				if tx := txByID[txID]; tx != nil {
					entry.Transactions = append(entry.Transactions, transactionEntry(tx))
				}
			}
			rep.Partial = append(rep.Partial, entry)
			rep.Summary.PartialCount++
			rep.Summary.MatchedAmountCents += inv.AmountCents

		case record.KindUnmatchedInvoice:
			inv := invoiceByID[a.InvoiceID]
			if inv == nil {
				continue
			}
			rep.UnmatchedInvoices = append(rep.UnmatchedInvoices, invoiceEntry(inv))
			rep.Summary.UnmatchedInvoiceCount++
			rep.Summary.UnmatchedInvoiceAmountCents += inv.AmountCents

		case record.KindUnmatchedTransaction:
			if len(a.TransactionIDs) == 0 {
				continue
			}
			tx := txByID[a.TransactionIDs[0]]
			if tx == nil {
				continue
			}
			rep.UnmatchedTransactions = append(rep.UnmatchedTransactions, transactionEntry(tx))
			rep.Summary.UnmatchedTransactionCount++
			rep.Summary.UnmatchedTransactionAmountCents += tx.AbsAmountCents()
		}
	}

	return rep
}

func invoiceEntry(inv *record.InvoiceRecord) InvoiceEntry {
	return InvoiceEntry{
		ID:            inv.ID,
		VendorName:    inv.VendorName,
		InvoiceNumber: inv.InvoiceNumber,
		AmountCents:   inv.AmountCents,
		Currency:      inv.Currency,
		DueDate:       inv.DueDate,
	}
}

func transactionEntry(tx *record.BankTransactionRecord) TransactionEntry {
	return TransactionEntry{
		ID:          tx.ID,
		Description: tx.Description,
		AmountCents: tx.AmountCents,
		Currency:    tx.Currency,
		PostedDate:  tx.PostedDate,
	}
}
