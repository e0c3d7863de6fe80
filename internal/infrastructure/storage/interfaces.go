package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL,
// etc.) and makes testing with mocks straightforward. The matching core
// never touches storage; persistence happens around it.
type Repository interface {
	InvoiceRepository
	TransactionRepository
	RunRepository
	Close() error
}

// InvoiceRepository handles invoice record persistence.
type InvoiceRepository interface {
	// SaveInvoices inserts or replaces invoice rows for a tenant.
	SaveInvoices(invoices []StoredInvoice) error

	// ListInvoices returns all invoices for a tenant.
	ListInvoices(tenantID string) ([]StoredInvoice, error)
}

// TransactionRepository handles bank transaction persistence.
type TransactionRepository interface {
	// SaveTransactions inserts or replaces transaction rows for a tenant.
	SaveTransactions(transactions []StoredTransaction) error

	// ListTransactions returns all bank transactions for a tenant.
	ListTransactions(tenantID string) ([]StoredTransaction, error)
}

// RunRepository persists reconciliation runs and their assignments.
type RunRepository interface {
	// SaveRun records a completed run and its full assignment set.
	SaveRun(run *ReconciliationRun, assignments []StoredAssignment) error

	// GetLatestRun returns the most recent run for a tenant, or nil
	// when the tenant has never been reconciled.
	GetLatestRun(tenantID string) (*ReconciliationRun, error)

	// ListAssignments returns the assignment set of a run.
	ListAssignments(runID string) ([]StoredAssignment, error)
}
