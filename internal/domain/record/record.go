// Package record defines the immutable data model shared by the
// reconciliation pipeline: invoice records, bank transaction records,
// scored candidate pairs and finalized match assignments.
//
// Records are created once at the ingest boundary and never mutated by
// the matching core. Re-running reconciliation produces a fresh
// assignment set; nothing in this package carries run state.
package record

import "time"

// InvoiceRecord is a vendor invoice extracted from a source document.
type InvoiceRecord struct {
	// ID is the source document identifier.
	ID string

	// TenantID scopes the record. Records from different tenants are
	// never matched against each other.
	TenantID string

	// VendorName is the raw extracted vendor label.
	VendorName string

	// NormalizedName is the canonical form of VendorName used for
	// similarity scoring.
	NormalizedName string

	// InvoiceNumber is the vendor's own invoice reference, if known.
	InvoiceNumber string

	// AmountCents is the invoice total in minor units. Always positive.
	AmountCents int64

	Currency string
	DueDate  time.Time
}

// BankTransactionRecord is a single statement line from a bank feed.
type BankTransactionRecord struct {
	// ID is the bank's transaction identifier.
	ID string

	TenantID string

	// Description is the raw counterparty label from the statement.
	Description string

	NormalizedName string

	// AmountCents is signed: negative for debits (payments out),
	// positive for credits.
	AmountCents int64

	Currency   string
	PostedDate time.Time
}

// AbsAmountCents returns the transaction amount with the sign dropped.
func (t BankTransactionRecord) AbsAmountCents() int64 {
	if t.AmountCents < 0 {
		return -t.AmountCents
	}
	return t.AmountCents
}

// CandidatePair is a scored invoice/transaction pairing. Pairs reference
// records by identifier only; they do not own them. Candidate pairs are
// ephemeral and live for a single reconciliation run.
type CandidatePair struct {
	InvoiceID     string
	TransactionID string

	NameScore   float64
	AmountScore float64
	DateScore   float64

	// Confidence is the weighted composite of the three component
	// scores, clipped to [0,1].
	Confidence float64

	Tier Tier

	// AmountDeltaCents is |invoice amount - |transaction amount||.
	AmountDeltaCents int64

	// InferredFeeCents is the gateway fee that explains the amount
	// delta, or zero when no fee pattern matched.
	InferredFeeCents int64

	// Gateway names the fee formula that matched, if any.
	Gateway string
}

// AssignmentKind distinguishes the shapes an assignment can take.
type AssignmentKind string

const (
	// KindOneToOne pairs exactly one invoice with one transaction.
	KindOneToOne AssignmentKind = "one_to_one"

	// KindPartial pairs one invoice with several transactions whose
	// amounts sum to the invoice total within tolerance.
	KindPartial AssignmentKind = "partial"

	// KindUnmatchedInvoice is an invoice with no accepted pairing.
	KindUnmatchedInvoice AssignmentKind = "unmatched_invoice"

	// KindUnmatchedTransaction is a transaction with no accepted pairing.
	KindUnmatchedTransaction AssignmentKind = "unmatched_transaction"
)

// MatchAssignment is a finalized pairing produced by the resolver.
// Assignments are never mutated after the resolver commits them.
type MatchAssignment struct {
	// InvoiceID is empty for KindUnmatchedTransaction.
	InvoiceID string

	// TransactionIDs holds one entry for one-to-one assignments and
	// unmatched transactions, several for partial assignments, and
	// none for unmatched invoices.
	TransactionIDs []string

	Kind AssignmentKind
	Tier Tier

	Confidence       float64
	AmountDeltaCents int64
	InferredFeeCents int64
	NameSimilarity   float64
	Gateway          string
}

// Unprocessable records an input that failed normalization and was
// excluded from matching. These surface in the report as a data-quality
// bucket distinct from unmatched records.
type Unprocessable struct {
	TenantID string

	// Source is "invoice" or "bank_transaction".
	Source string

	SourceID string
	Reason   string
}
