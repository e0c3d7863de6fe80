package storage

import (
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order.
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_runs_and_assignments",
		Up:      migration002AddRunsAndAssignments,
	},
	{
		Version: 3,
		Name:    "add_tenant_indexes",
		Up:      migration003AddTenantIndexes,
	},
}

// runMigrations executes all pending migrations.
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migration001InitialSchema(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		vendor_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		invoice_number TEXT,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		due_date TIMESTAMP NOT NULL,
		ingested_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);

	CREATE TABLE IF NOT EXISTS bank_transactions (
		id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		description TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		posted_date TIMESTAMP NOT NULL,
		ingested_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tenant_id, id)
	)`)
	return err
}

func migration002AddRunsAndAssignments(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		run_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		invoice_count INTEGER NOT NULL DEFAULT 0,
		transaction_count INTEGER NOT NULL DEFAULT 0,
		exact_count INTEGER NOT NULL DEFAULT 0,
		fee_adjusted_count INTEGER NOT NULL DEFAULT 0,
		fuzzy_count INTEGER NOT NULL DEFAULT 0,
		partial_count INTEGER NOT NULL DEFAULT 0,
		unmatched_invoice_count INTEGER NOT NULL DEFAULT 0,
		unmatched_transaction_count INTEGER NOT NULL DEFAULT 0,
		unprocessable_count INTEGER NOT NULL DEFAULT 0,
		matched_amount_cents INTEGER NOT NULL DEFAULT 0,
		inferred_fee_cents INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS match_assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		invoice_id TEXT,
		transaction_ids_json TEXT NOT NULL,
		kind TEXT NOT NULL,
		tier TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		amount_delta_cents INTEGER NOT NULL DEFAULT 0,
		inferred_fee_cents INTEGER NOT NULL DEFAULT 0,
		name_similarity REAL NOT NULL DEFAULT 0,
		gateway TEXT,
		FOREIGN KEY (run_id) REFERENCES reconciliation_runs(run_id) ON DELETE CASCADE
	)`)
	return err
}

func migration003AddTenantIndexes(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE INDEX IF NOT EXISTS idx_invoices_tenant ON invoices(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_tenant ON bank_transactions(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_runs_tenant ON reconciliation_runs(tenant_id, completed_at);
	CREATE INDEX IF NOT EXISTS idx_assignments_run ON match_assignments(run_id)`)
	return err
}
