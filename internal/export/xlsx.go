package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerai/reconcile-backend/internal/domain/report"
)

const (
	sheetMatches = "Matches"
	sheetSummary = "Summary"
)

// WriteXLSX writes the report as a two-sheet workbook: a Matches sheet
// with the same columns as the CSV export and a Summary sheet with the
// run totals.
func WriteXLSX(w io.Writer, rep *report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetMatches)
	if err := writeSheet(f, sheetMatches, append([][]string{columns}, rows(rep)...)); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][]string{
		{"tenant_id", rep.TenantID},
		{"run_id", rep.RunID},
		{"generated_at", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"invoices", fmt.Sprintf("%d", rep.Summary.TotalInvoices)},
		{"transactions", fmt.Sprintf("%d", rep.Summary.TotalTransactions)},
		{"exact", fmt.Sprintf("%d", rep.Summary.ExactCount)},
		{"fee_adjusted", fmt.Sprintf("%d", rep.Summary.FeeAdjustedCount)},
		{"fuzzy", fmt.Sprintf("%d", rep.Summary.FuzzyCount)},
		{"partial", fmt.Sprintf("%d", rep.Summary.PartialCount)},
		{"unmatched_invoices", fmt.Sprintf("%d", rep.Summary.UnmatchedInvoiceCount)},
		{"unmatched_transactions", fmt.Sprintf("%d", rep.Summary.UnmatchedTransactionCount)},
		{"unprocessable", fmt.Sprintf("%d", rep.Summary.UnprocessableCount)},
		{"matched_amount", cents(rep.Summary.MatchedAmountCents)},
		{"inferred_fees", cents(rep.Summary.InferredFeeCents)},
	}
	if err := writeSheet(f, sheetSummary, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, data [][]string) error {
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return nil
}
