package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBankCSV(t *testing.T) {
	t.Run("reads a typical statement", func(t *testing.T) {
		data := `Date,Description,Amount,Type
2025-01-15,STRIPE PAYOUT 8842,9683.00,Credit
2025-01-16,ACME CORP,-50.00,Debit
`
		txns, rowErrs, err := ReadBankCSV(strings.NewReader(data))

		require.NoError(t, err)
		assert.Empty(t, rowErrs)
		require.Len(t, txns, 2)
		assert.Equal(t, "stmt-1", txns[0].ID)
		assert.Equal(t, "STRIPE PAYOUT 8842", txns[0].Description)
		assert.Equal(t, "9683.00", txns[0].Amount)
		assert.Equal(t, "2025-01-15", txns[0].PostedDate)
	})

	t.Run("column order and header case do not matter", func(t *testing.T) {
		data := `AMOUNT,date,Description
100.00,2025-02-01,Vendor A
`
		txns, _, err := ReadBankCSV(strings.NewReader(data))

		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "Vendor A", txns[0].Description)
	})

	t.Run("debit type flips unsigned amounts negative", func(t *testing.T) {
		data := `Date,Description,Amount,Type
2025-01-16,OFFICE SUPPLIES,42.00,Debit
2025-01-17,REFUND,-10.00,Debit
`
		txns, _, err := ReadBankCSV(strings.NewReader(data))

		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "-42.00", txns[0].Amount)
		assert.Equal(t, "-10.00", txns[1].Amount)
	})

	t.Run("bad rows are collected not fatal", func(t *testing.T) {
		data := `Date,Description,Amount
2025-01-15,Good Row,100.00
,Missing Date,50.00
2025-01-17,Also Good,25.00
`
		txns, rowErrs, err := ReadBankCSV(strings.NewReader(data))

		require.NoError(t, err)
		assert.Len(t, txns, 2)
		require.Len(t, rowErrs, 1)
		assert.Equal(t, 3, rowErrs[0].Row)
	})

	t.Run("missing required column is fatal", func(t *testing.T) {
		data := `Date,Description
2025-01-15,No Amount Column
`
		_, _, err := ReadBankCSV(strings.NewReader(data))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "amount")
	})
}

func TestParseInvoiceJSON(t *testing.T) {
	t.Run("decodes extractor output", func(t *testing.T) {
		data := []byte(`[
			{"source_id":"inv-001","vendor_name":"Acme Corp Inc","invoice_number":"INV-100","total_amount":2500.00,"due_date":"2025-01-14"},
			{"vendor_name":"Globex LLC","total_amount":96.83,"currency":"USD","due_date":"2025-01-20"}
		]`)

		invoices, err := ParseInvoiceJSON(data)

		require.NoError(t, err)
		require.Len(t, invoices, 2)
		assert.Equal(t, "inv-001", invoices[0].SourceID)
		assert.Equal(t, "2500.00", invoices[0].Amount)
		assert.Equal(t, "INV-100", invoices[0].InvoiceNumber)
		// Missing source IDs get a positional fallback.
		assert.Equal(t, "doc-2", invoices[1].SourceID)
		assert.Equal(t, "96.83", invoices[1].Amount)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := ParseInvoiceJSON([]byte(`{"not":"an array"}`))
		assert.Error(t, err)
	})
}
