package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerai/reconcile-backend/internal/domain/record"
)

func TestBuild(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	invoices := []record.InvoiceRecord{
		{ID: "inv1", TenantID: "t1", VendorName: "Acme Corp Inc", AmountCents: 10000, Currency: "USD", DueDate: due},
		{ID: "inv2", TenantID: "t1", VendorName: "Globex Ltd", AmountCents: 5000, Currency: "USD", DueDate: due},
		{ID: "inv3", TenantID: "t1", VendorName: "Initech", AmountCents: 8000, Currency: "USD", DueDate: due},
	}
	transactions := []record.BankTransactionRecord{
		{ID: "tx1", TenantID: "t1", Description: "ACME CORP", AmountCents: -9683, Currency: "USD", PostedDate: due},
		{ID: "tx2", TenantID: "t1", Description: "INITECH PART 1", AmountCents: -5000, Currency: "USD", PostedDate: due},
		{ID: "tx3", TenantID: "t1", Description: "INITECH PART 2", AmountCents: -3000, Currency: "USD", PostedDate: due},
		{ID: "tx4", TenantID: "t1", Description: "MYSTERY DEBIT", AmountCents: -1234, Currency: "USD", PostedDate: due},
	}
	assignments := []record.MatchAssignment{
		{
			InvoiceID:        "inv1",
			TransactionIDs:   []string{"tx1"},
			Kind:             record.KindOneToOne,
			Tier:             record.TierFeeAdjusted,
			Confidence:       0.95,
			AmountDeltaCents: 317,
			InferredFeeCents: 317,
			Gateway:          "default",
			NameSimilarity:   1.0,
		},
		{
			InvoiceID:      "inv3",
			TransactionIDs: []string{"tx2", "tx3"},
			Kind:           record.KindPartial,
			Tier:           record.TierFuzzy,
			Confidence:     0.8,
			NameSimilarity: 0.9,
		},
		{InvoiceID: "inv2", Kind: record.KindUnmatchedInvoice, Tier: record.TierUnmatched},
		{TransactionIDs: []string{"tx4"}, Kind: record.KindUnmatchedTransaction, Tier: record.TierUnmatched},
	}
	unprocessable := []record.Unprocessable{
		{TenantID: "t1", Source: "invoice", SourceID: "inv-bad", Reason: `invalid amount "ten dollars": not a number`},
	}

	rep := Build("t1", "run-1", now, assignments, invoices, transactions, unprocessable)

	require.Len(t, rep.Matched, 1)
	assert.Equal(t, "FEE_ADJUSTED", rep.Matched[0].Tier)
	assert.Equal(t, int64(317), rep.Matched[0].InferredFeeCents)
	assert.Equal(t, "Acme Corp Inc", rep.Matched[0].Invoice.VendorName)

	require.Len(t, rep.Partial, 1)
	assert.Len(t, rep.Partial[0].Transactions, 2)

	require.Len(t, rep.UnmatchedInvoices, 1)
	assert.Equal(t, "inv2", rep.UnmatchedInvoices[0].ID)

	require.Len(t, rep.UnmatchedTransactions, 1)
	assert.Equal(t, "tx4", rep.UnmatchedTransactions[0].ID)

	require.Len(t, rep.Unprocessable, 1)

	s := rep.Summary
	assert.Equal(t, 3, s.TotalInvoices)
	assert.Equal(t, 4, s.TotalTransactions)
	assert.Equal(t, 1, s.FeeAdjustedCount)
	assert.Equal(t, 1, s.PartialCount)
	assert.Equal(t, 1, s.UnmatchedInvoiceCount)
	assert.Equal(t, 1, s.UnmatchedTransactionCount)
	assert.Equal(t, 1, s.UnprocessableCount)
	assert.Equal(t, int64(18000), s.MatchedAmountCents)
	assert.Equal(t, int64(5000), s.UnmatchedInvoiceAmountCents)
	assert.Equal(t, int64(1234), s.UnmatchedTransactionAmountCents)
	assert.Equal(t, int64(317), s.InferredFeeCents)
}

func TestBuild_EmptyRun(t *testing.T) {
	rep := Build("t1", "run-1", time.Now(), nil, nil, nil, nil)
	assert.Empty(t, rep.Matched)
	assert.Empty(t, rep.Partial)
	assert.Equal(t, 0, rep.Summary.TotalInvoices)
}
