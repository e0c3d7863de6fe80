package cli

import (
	"fmt"
	"strings"

	"github.com/ledgerai/reconcile-backend/internal/domain/report"
)

// PrintReportSummary prints a run's outcome to stdout.
func PrintReportSummary(rep *report.Report) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Run %s (tenant %s)\n", rep.RunID, rep.TenantID)
	fmt.Printf("Invoices=%d Transactions=%d\n",
		rep.Summary.TotalInvoices, rep.Summary.TotalTransactions)
	fmt.Printf("Matched: exact=%d fee_adjusted=%d fuzzy=%d partial=%d\n",
		rep.Summary.ExactCount,
		rep.Summary.FeeAdjustedCount,
		rep.Summary.FuzzyCount,
		rep.Summary.PartialCount)
	fmt.Printf("Unmatched: invoices=%d transactions=%d unprocessable=%d\n",
		rep.Summary.UnmatchedInvoiceCount,
		rep.Summary.UnmatchedTransactionCount,
		rep.Summary.UnprocessableCount)
	fmt.Printf("Matched amount=$%.2f Inferred fees=$%.2f\n",
		float64(rep.Summary.MatchedAmountCents)/100,
		float64(rep.Summary.InferredFeeCents)/100)

	if len(rep.Unprocessable) > 0 {
		fmt.Println("\nUnprocessable records:")
		for _, u := range rep.Unprocessable {
			fmt.Printf("  - %s %s: %s\n", u.Source, u.SourceID, u.Reason)
		}
	}
}
