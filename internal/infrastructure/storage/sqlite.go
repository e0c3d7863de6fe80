package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for reconciliation data.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance backed by SQLite.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveInvoices inserts or replaces invoice rows in one transaction.
func (s *Storage) SaveInvoices(invoices []StoredInvoice) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO invoices
	(id, tenant_id, vendor_name, normalized_name, invoice_number,
	 amount_cents, currency, due_date, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, inv := range invoices {
		if _, err := stmt.Exec(
			inv.ID, inv.TenantID, inv.VendorName, inv.NormalizedName,
			inv.InvoiceNumber, inv.AmountCents, inv.Currency,
			inv.DueDate, inv.IngestedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save invoice %s: %w", inv.ID, err)
		}
	}

	return tx.Commit()
}

// ListInvoices returns all invoices for a tenant ordered by identifier.
func (s *Storage) ListInvoices(tenantID string) ([]StoredInvoice, error) {
	rows, err := s.db.Query(`
	SELECT id, tenant_id, vendor_name, normalized_name, invoice_number,
	       amount_cents, currency, due_date, ingested_at
	FROM invoices WHERE tenant_id = ? ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredInvoice
	for rows.Next() {
		var inv StoredInvoice
		var invoiceNumber sql.NullString
		if err := rows.Scan(
			&inv.ID, &inv.TenantID, &inv.VendorName, &inv.NormalizedName,
			&invoiceNumber, &inv.AmountCents, &inv.Currency,
			&inv.DueDate, &inv.IngestedAt,
		); err != nil {
			return nil, err
		}
		inv.InvoiceNumber = invoiceNumber.String
		out = append(out, inv)
	}
	return out, rows.Err()
}

// SaveTransactions inserts or replaces bank transaction rows in one
// transaction.
func (s *Storage) SaveTransactions(transactions []StoredTransaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO bank_transactions
	(id, tenant_id, description, normalized_name, amount_cents,
	 currency, posted_date, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range transactions {
		if _, err := stmt.Exec(
			t.ID, t.TenantID, t.Description, t.NormalizedName,
			t.AmountCents, t.Currency, t.PostedDate, t.IngestedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns all bank transactions for a tenant ordered
// by identifier.
func (s *Storage) ListTransactions(tenantID string) ([]StoredTransaction, error) {
	rows, err := s.db.Query(`
	SELECT id, tenant_id, description, normalized_name, amount_cents,
	       currency, posted_date, ingested_at
	FROM bank_transactions WHERE tenant_id = ? ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		var t StoredTransaction
		if err := rows.Scan(
			&t.ID, &t.TenantID, &t.Description, &t.NormalizedName,
			&t.AmountCents, &t.Currency, &t.PostedDate, &t.IngestedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveRun records a completed run and its assignments atomically.
func (s *Storage) SaveRun(run *ReconciliationRun, assignments []StoredAssignment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
	INSERT INTO reconciliation_runs
	(run_id, tenant_id, started_at, completed_at, invoice_count,
	 transaction_count, exact_count, fee_adjusted_count, fuzzy_count,
	 partial_count, unmatched_invoice_count, unmatched_transaction_count,
	 unprocessable_count, matched_amount_cents, inferred_fee_cents)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.TenantID, run.StartedAt, run.CompletedAt,
		run.InvoiceCount, run.TransactionCount, run.ExactCount,
		run.FeeAdjustedCount, run.FuzzyCount, run.PartialCount,
		run.UnmatchedInvoiceCount, run.UnmatchedTransactionCount,
		run.UnprocessableCount, run.MatchedAmountCents, run.InferredFeeCents,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO match_assignments
	(run_id, tenant_id, invoice_id, transaction_ids_json, kind, tier,
	 confidence, amount_delta_cents, inferred_fee_cents, name_similarity, gateway)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, a := range assignments {
		idsJSON, _ := json.Marshal(a.TransactionIDs)
		if _, err := stmt.Exec(
			run.RunID, a.TenantID, a.InvoiceID, string(idsJSON),
			a.Kind, a.Tier, a.Confidence, a.AmountDeltaCents,
			a.InferredFeeCents, a.NameSimilarity, a.Gateway,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save assignment: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestRun returns the most recent run for a tenant, or nil when
// none exists.
func (s *Storage) GetLatestRun(tenantID string) (*ReconciliationRun, error) {
	row := s.db.QueryRow(`
	SELECT run_id, tenant_id, started_at, completed_at, invoice_count,
	       transaction_count, exact_count, fee_adjusted_count, fuzzy_count,
	       partial_count, unmatched_invoice_count, unmatched_transaction_count,
	       unprocessable_count, matched_amount_cents, inferred_fee_cents
	FROM reconciliation_runs
	WHERE tenant_id = ?
	ORDER BY completed_at DESC, run_id DESC
	LIMIT 1`, tenantID)

	var run ReconciliationRun
	err := row.Scan(
		&run.RunID, &run.TenantID, &run.StartedAt, &run.CompletedAt,
		&run.InvoiceCount, &run.TransactionCount, &run.ExactCount,
		&run.FeeAdjustedCount, &run.FuzzyCount, &run.PartialCount,
		&run.UnmatchedInvoiceCount, &run.UnmatchedTransactionCount,
		&run.UnprocessableCount, &run.MatchedAmountCents, &run.InferredFeeCents,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListAssignments returns the assignment set of a run ordered by row id.
func (s *Storage) ListAssignments(runID string) ([]StoredAssignment, error) {
	rows, err := s.db.Query(`
	SELECT id, run_id, tenant_id, invoice_id, transaction_ids_json, kind,
	       tier, confidence, amount_delta_cents, inferred_fee_cents,
	       name_similarity, gateway
	FROM match_assignments WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredAssignment
	for rows.Next() {
		var a StoredAssignment
		var invoiceID, gateway sql.NullString
		var idsJSON string
		if err := rows.Scan(
			&a.ID, &a.RunID, &a.TenantID, &invoiceID, &idsJSON, &a.Kind,
			&a.Tier, &a.Confidence, &a.AmountDeltaCents,
			&a.InferredFeeCents, &a.NameSimilarity, &gateway,
		); err != nil {
			return nil, err
		}
		a.InvoiceID = invoiceID.String
		a.Gateway = gateway.String
		if err := json.Unmarshal([]byte(idsJSON), &a.TransactionIDs); err != nil {
			return nil, fmt.Errorf("corrupt transaction_ids_json on assignment %d: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
