package storage

import "time"

// StoredInvoice is the persisted form of an invoice record. Raw and
// normalized fields are both kept so a run can be replayed or audited
// without re-normalizing.
type StoredInvoice struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	VendorName     string    `json:"vendor_name"`
	NormalizedName string    `json:"normalized_name"`
	InvoiceNumber  string    `json:"invoice_number,omitempty"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	DueDate        time.Time `json:"due_date"`
	IngestedAt     time.Time `json:"ingested_at"`
}

// StoredTransaction is the persisted form of a bank transaction.
type StoredTransaction struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Description    string    `json:"description"`
	NormalizedName string    `json:"normalized_name"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	PostedDate     time.Time `json:"posted_date"`
	IngestedAt     time.Time `json:"ingested_at"`
}

// ReconciliationRun is one completed reconciliation for a tenant.
type ReconciliationRun struct {
	RunID       string    `json:"run_id"`
	TenantID    string    `json:"tenant_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	InvoiceCount     int `json:"invoice_count"`
	TransactionCount int `json:"transaction_count"`

	ExactCount       int `json:"exact_count"`
	FeeAdjustedCount int `json:"fee_adjusted_count"`
	FuzzyCount       int `json:"fuzzy_count"`
	PartialCount     int `json:"partial_count"`

	UnmatchedInvoiceCount     int `json:"unmatched_invoice_count"`
	UnmatchedTransactionCount int `json:"unmatched_transaction_count"`
	UnprocessableCount        int `json:"unprocessable_count"`

	MatchedAmountCents int64 `json:"matched_amount_cents"`
	InferredFeeCents   int64 `json:"inferred_fee_cents"`
}

// StoredAssignment is the persisted form of a finalized match
// assignment. TransactionIDs are stored as a JSON array so partial
// assignments keep their full group.
type StoredAssignment struct {
	ID               int64    `json:"id"`
	RunID            string   `json:"run_id"`
	TenantID         string   `json:"tenant_id"`
	InvoiceID        string   `json:"invoice_id,omitempty"`
	TransactionIDs   []string `json:"transaction_ids"`
	Kind             string   `json:"kind"`
	Tier             string   `json:"tier"`
	Confidence       float64  `json:"confidence"`
	AmountDeltaCents int64    `json:"amount_delta_cents"`
	InferredFeeCents int64    `json:"inferred_fee_cents"`
	NameSimilarity   float64  `json:"name_similarity"`
	Gateway          string   `json:"gateway,omitempty"`
}
