package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ledgerai/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerai/reconcile-backend/internal/export"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/config"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/logging"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/storage"
	"github.com/ledgerai/reconcile-backend/internal/ingest"
)

// ReconcileFlags holds the flags for the one-shot reconcile command.
type ReconcileFlags struct {
	Tenant       string
	InvoicesPath string
	BankCSVPath  string
	OutputPath   string
	Verbose      bool
}

// ParseReconcileFlags parses command line flags for the reconcile
// command.
func ParseReconcileFlags() *ReconcileFlags {
	flags := &ReconcileFlags{}
	flag.StringVar(&flags.Tenant, "tenant", "default", "Tenant to reconcile")
	flag.StringVar(&flags.InvoicesPath, "invoices", "", "Invoice JSON file to ingest before the run")
	flag.StringVar(&flags.BankCSVPath, "statement", "", "Bank statement CSV to ingest before the run")
	flag.StringVar(&flags.OutputPath, "out", "", "Write the report to a .csv or .xlsx file")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunReconcile ingests any provided files, runs one reconciliation for
// the tenant and prints the summary.
func RunReconcile(cfg *config.Config, flags *ReconcileFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "reconcile")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	service := reconcile.NewService(cfg, store, logger)
	ctx := context.Background()

	if flags.InvoicesPath != "" {
		data, err := os.ReadFile(flags.InvoicesPath)
		if err != nil {
			return fmt.Errorf("failed to read invoices file: %w", err)
		}
		invoices, err := ingest.ParseInvoiceJSON(data)
		if err != nil {
			return err
		}
		result, err := service.SubmitInvoices(ctx, flags.Tenant, invoices)
		if err != nil {
			return err
		}
		fmt.Printf("Invoices: accepted=%d unprocessable=%d\n", result.Accepted, len(result.Unprocessable))
	}

	if flags.BankCSVPath != "" {
		f, err := os.Open(flags.BankCSVPath)
		if err != nil {
			return fmt.Errorf("failed to open statement file: %w", err)
		}
		txns, rowErrs, err := ingest.ReadBankCSV(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		for _, re := range rowErrs {
			fmt.Printf("  statement row %d skipped: %s\n", re.Row, re.Reason)
		}
		result, err := service.SubmitTransactions(ctx, flags.Tenant, txns)
		if err != nil {
			return err
		}
		fmt.Printf("Transactions: accepted=%d unprocessable=%d\n", result.Accepted, len(result.Unprocessable))
	}

	rep, err := service.Reconcile(ctx, flags.Tenant)
	if err != nil {
		return err
	}

	PrintReportSummary(rep)

	if flags.OutputPath != "" {
		out, err := os.Create(flags.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = out.Close() }()

		if strings.HasSuffix(flags.OutputPath, ".xlsx") {
			err = export.WriteXLSX(out, rep)
		} else {
			err = export.WriteCSV(out, rep)
		}
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", flags.OutputPath)
	}

	return nil
}
