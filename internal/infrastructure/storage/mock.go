package storage

import "sort"

// MockRepository is an in-memory implementation of Repository for
// testing. It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	invoices     map[string]map[string]StoredInvoice
	transactions map[string]map[string]StoredTransaction
	runs         []*ReconciliationRun
	assignments  map[string][]StoredAssignment

	// Error injection for testing error paths
	SaveInvoicesErr     error
	SaveTransactionsErr error
	SaveRunErr          error

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *ReconciliationRun
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		invoices:     make(map[string]map[string]StoredInvoice),
		transactions: make(map[string]map[string]StoredTransaction),
		assignments:  make(map[string][]StoredAssignment),
	}
}

// SaveInvoices stores invoices keyed by tenant and id.
func (m *MockRepository) SaveInvoices(invoices []StoredInvoice) error {
	if m.SaveInvoicesErr != nil {
		return m.SaveInvoicesErr
	}
	for _, inv := range invoices {
		if m.invoices[inv.TenantID] == nil {
			m.invoices[inv.TenantID] = make(map[string]StoredInvoice)
		}
		m.invoices[inv.TenantID][inv.ID] = inv
	}
	return nil
}

// ListInvoices returns a tenant's invoices sorted by id.
func (m *MockRepository) ListInvoices(tenantID string) ([]StoredInvoice, error) {
	var out []StoredInvoice
	for _, inv := range m.invoices[tenantID] {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveTransactions stores transactions keyed by tenant and id.
func (m *MockRepository) SaveTransactions(transactions []StoredTransaction) error {
	if m.SaveTransactionsErr != nil {
		return m.SaveTransactionsErr
	}
	for _, t := range transactions {
		if m.transactions[t.TenantID] == nil {
			m.transactions[t.TenantID] = make(map[string]StoredTransaction)
		}
		m.transactions[t.TenantID][t.ID] = t
	}
	return nil
}

// ListTransactions returns a tenant's transactions sorted by id.
func (m *MockRepository) ListTransactions(tenantID string) ([]StoredTransaction, error) {
	var out []StoredTransaction
	for _, t := range m.transactions[tenantID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveRun records the run and its assignments.
func (m *MockRepository) SaveRun(run *ReconciliationRun, assignments []StoredAssignment) error {
	m.SaveRunCalled = true
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	m.LastSavedRun = run
	m.runs = append(m.runs, run)
	m.assignments[run.RunID] = assignments
	return nil
}

// GetLatestRun returns the last saved run for a tenant.
func (m *MockRepository) GetLatestRun(tenantID string) (*ReconciliationRun, error) {
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].TenantID == tenantID {
			return m.runs[i], nil
		}
	}
	return nil, nil
}

// ListAssignments returns the stored assignment set of a run.
func (m *MockRepository) ListAssignments(runID string) ([]StoredAssignment, error) {
	return m.assignments[runID], nil
}

// Close is a no-op for the mock.
func (m *MockRepository) Close() error {
	return nil
}
