// Package export renders reconciliation reports as downloadable
// tabular files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledgerai/reconcile-backend/internal/domain/report"
)

var columns = []string{
	"tier", "invoice_id", "vendor_name", "invoice_amount",
	"transaction_ids", "paid_amount", "inferred_fee", "confidence", "note",
}

// rows flattens a report into one row per assignment plus one row per
// unmatched record, in the report's own order.
func rows(rep *report.Report) [][]string {
	out := make([][]string, 0,
		len(rep.Matched)+len(rep.Partial)+len(rep.UnmatchedInvoices)+len(rep.UnmatchedTransactions))

	for _, m := range rep.Matched {
		out = append(out, []string{
			m.Tier, m.Invoice.ID, m.Invoice.VendorName, cents(m.Invoice.AmountCents),
			m.Transaction.ID, cents(m.Transaction.AmountCents), cents(m.InferredFeeCents),
			confidence(m.Confidence), m.Gateway,
		})
	}
	for _, p := range rep.Partial {
		txIDs := make([]string, 0, len(p.Transactions))
		var paid int64
		for _, tx := range p.Transactions {
			txIDs = append(txIDs, tx.ID)
			paid += tx.AmountCents
		}
		out = append(out, []string{
			"PARTIAL", p.Invoice.ID, p.Invoice.VendorName, cents(p.Invoice.AmountCents),
			strings.Join(txIDs, ";"), cents(paid), "",
			confidence(p.Confidence), "",
		})
	}
	for _, inv := range rep.UnmatchedInvoices {
		out = append(out, []string{
			"UNMATCHED", inv.ID, inv.VendorName, cents(inv.AmountCents),
			"", "", "", "", "no matching transaction",
		})
	}
	for _, tx := range rep.UnmatchedTransactions {
		out = append(out, []string{
			"UNMATCHED", "", tx.Description, "",
			tx.ID, cents(tx.AmountCents), "", "", "no matching invoice",
		})
	}
	return out
}

// WriteCSV writes the report as CSV with a header row.
func WriteCSV(w io.Writer, rep *report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows(rep) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cents(c int64) string {
	d := c / 100
	r := c % 100
	if r < 0 {
		r = -r
	}
	if c < 0 && d == 0 {
		return fmt.Sprintf("-0.%02d", r)
	}
	return fmt.Sprintf("%d.%02d", d, r)
}

func confidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
