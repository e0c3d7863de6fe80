package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerai/reconcile-backend/internal/domain/report"
)

func sampleReport() *report.Report {
	due := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)
	return &report.Report{
		TenantID:    "tenant-a",
		RunID:       "run-1",
		GeneratedAt: time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC),
		Matched: []report.MatchedEntry{
			{
				Invoice:          report.InvoiceEntry{ID: "inv-1", VendorName: "Acme Corp Inc", AmountCents: 10000, Currency: "USD", DueDate: due},
				Transaction:      report.TransactionEntry{ID: "tx-1", Description: "ACME CORP", AmountCents: 9683, Currency: "USD", PostedDate: due},
				Tier:             "FEE_ADJUSTED",
				Confidence:       0.91,
				InferredFeeCents: 317,
				Gateway:          "default",
			},
		},
		Partial: []report.PartialEntry{
			{
				Invoice: report.InvoiceEntry{ID: "inv-2", VendorName: "Globex", AmountCents: 10000, Currency: "USD", DueDate: due},
				Transactions: []report.TransactionEntry{
					{ID: "tx-2", AmountCents: 6000},
					{ID: "tx-3", AmountCents: 4000},
				},
				Confidence: 0.8,
			},
		},
		UnmatchedInvoices: []report.InvoiceEntry{
			{ID: "inv-3", VendorName: "Initech", AmountCents: 5000, Currency: "USD", DueDate: due},
		},
		UnmatchedTransactions: []report.TransactionEntry{
			{ID: "tx-9", Description: "UNKNOWN DEPOSIT", AmountCents: 123, Currency: "USD", PostedDate: due},
		},
		Summary: report.Summary{
			TotalInvoices:     3,
			TotalTransactions: 4,
			FeeAdjustedCount:  1,
			PartialCount:      1,
			InferredFeeCents:  317,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, columns, records[0])
	assert.Equal(t, "FEE_ADJUSTED", records[1][0])
	assert.Equal(t, "100.00", records[1][3])
	assert.Equal(t, "96.83", records[1][5])
	assert.Equal(t, "3.17", records[1][6])

	assert.Equal(t, "PARTIAL", records[2][0])
	assert.Equal(t, "tx-2;tx-3", records[2][4])
	assert.Equal(t, "100.00", records[2][5])

	assert.Equal(t, "no matching transaction", records[3][8])
	assert.Equal(t, "no matching invoice", records[4][8])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetMatches)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "tier", rows[0][0])
	assert.Equal(t, "inv-1", rows[1][1])

	summary, err := f.GetRows(sheetSummary)
	require.NoError(t, err)
	found := map[string]string{}
	for _, row := range summary {
		if len(row) >= 2 {
			found[row[0]] = row[1]
		}
	}
	assert.Equal(t, "tenant-a", found["tenant_id"])
	assert.Equal(t, "3.17", found["inferred_fees"])
}

func TestCents(t *testing.T) {
	assert.Equal(t, "0.00", cents(0))
	assert.Equal(t, "1.05", cents(105))
	assert.Equal(t, "-0.30", cents(-30))
	assert.Equal(t, "-12.00", cents(-1200))
	assert.True(t, strings.HasPrefix(cents(9683), "96."))
}
