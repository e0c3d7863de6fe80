package dto

import "github.com/ledgerai/reconcile-backend/internal/ingest"

// SubmitInvoicesRequest is the body of POST /api/tenants/:tenantId/invoices.
type SubmitInvoicesRequest struct {
	Invoices []ingest.InvoiceInput `json:"invoices" binding:"required"`
}

// SubmitTransactionsRequest is the body of
// POST /api/tenants/:tenantId/transactions.
type SubmitTransactionsRequest struct {
	Transactions []ingest.TransactionInput `json:"transactions" binding:"required"`
}
