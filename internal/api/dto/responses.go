package dto

import (
	"time"

	"github.com/ledgerai/reconcile-backend/internal/domain/record"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/storage"
	"github.com/ledgerai/reconcile-backend/internal/ingest"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// SubmitResponse is returned after an ingest batch is processed.
type SubmitResponse struct {
	Accepted      int                    `json:"accepted"`
	Unprocessable []record.Unprocessable `json:"unprocessable,omitempty"`
	RowErrors     []ingest.RowError      `json:"row_errors,omitempty"`
}

// RunResponse represents a persisted reconciliation run.
type RunResponse struct {
	RunID       string `json:"run_id"`
	TenantID    string `json:"tenant_id"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`

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

// NewRunResponse converts a stored run into its API shape.
func NewRunResponse(run *storage.ReconciliationRun) RunResponse {
	return RunResponse{
		RunID:       run.RunID,
		TenantID:    run.TenantID,
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt: run.CompletedAt.UTC().Format(time.RFC3339),

		InvoiceCount:     run.InvoiceCount,
		TransactionCount: run.TransactionCount,

		ExactCount:       run.ExactCount,
		FeeAdjustedCount: run.FeeAdjustedCount,
		FuzzyCount:       run.FuzzyCount,
		PartialCount:     run.PartialCount,

		UnmatchedInvoiceCount:     run.UnmatchedInvoiceCount,
		UnmatchedTransactionCount: run.UnmatchedTransactionCount,
		UnprocessableCount:        run.UnprocessableCount,

		MatchedAmountCents: run.MatchedAmountCents,
		InferredFeeCents:   run.InferredFeeCents,
	}
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
