package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_InvoiceRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	invoices := []StoredInvoice{
		{
			ID:             "inv1",
			TenantID:       "t1",
			VendorName:     "Acme Corp Inc",
			NormalizedName: "acme",
			InvoiceNumber:  "INV-1042",
			AmountCents:    10000,
			Currency:       "USD",
			DueDate:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			IngestedAt:     now,
		},
		{ID: "inv2", TenantID: "t1", VendorName: "Globex", NormalizedName: "globex", AmountCents: 5000, Currency: "USD", DueDate: now, IngestedAt: now},
		{ID: "inv1", TenantID: "t2", VendorName: "Other Tenant", NormalizedName: "other tenant", AmountCents: 100, Currency: "USD", DueDate: now, IngestedAt: now},
	}
	require.NoError(t, s.SaveInvoices(invoices))

	got, err := s.ListInvoices("t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "inv1", got[0].ID)
	assert.Equal(t, "INV-1042", got[0].InvoiceNumber)
	assert.Equal(t, int64(10000), got[0].AmountCents)

	// Same id under a different tenant stays separate.
	other, err := s.ListInvoices("t2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "Other Tenant", other[0].VendorName)
}

func TestStorage_SaveInvoicesIsUpsert(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now().UTC()

	inv := StoredInvoice{ID: "inv1", TenantID: "t1", VendorName: "Acme", NormalizedName: "acme", AmountCents: 100, Currency: "USD", DueDate: now, IngestedAt: now}
	require.NoError(t, s.SaveInvoices([]StoredInvoice{inv}))

	inv.AmountCents = 200
	require.NoError(t, s.SaveInvoices([]StoredInvoice{inv}))

	got, err := s.ListInvoices("t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(200), got[0].AmountCents)
}

func TestStorage_TransactionRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now().UTC()

	transactions := []StoredTransaction{
		{ID: "tx1", TenantID: "t1", Description: "ACME CORP", NormalizedName: "acme", AmountCents: -9683, Currency: "USD", PostedDate: now, IngestedAt: now},
	}
	require.NoError(t, s.SaveTransactions(transactions))

	got, err := s.ListTransactions("t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(-9683), got[0].AmountCents)
}

func TestStorage_RunRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	run := &ReconciliationRun{
		RunID:            "run-1",
		TenantID:         "t1",
		StartedAt:        now,
		CompletedAt:      now.Add(2 * time.Second),
		InvoiceCount:     2,
		TransactionCount: 3,
		FeeAdjustedCount: 1,
		MatchedAmountCents: 10000,
		InferredFeeCents:   317,
	}
	assignments := []StoredAssignment{
		{
			TenantID:         "t1",
			InvoiceID:        "inv1",
			TransactionIDs:   []string{"tx1"},
			Kind:             "one_to_one",
			Tier:             "FEE_ADJUSTED",
			Confidence:       0.95,
			AmountDeltaCents: 317,
			InferredFeeCents: 317,
			Gateway:          "default",
		},
		{
			TenantID:       "t1",
			InvoiceID:      "inv2",
			TransactionIDs: []string{"tx2", "tx3"},
			Kind:           "partial",
			Tier:           "FUZZY",
			Confidence:     0.8,
		},
	}
	require.NoError(t, s.SaveRun(run, assignments))

	latest, err := s.GetLatestRun("t1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-1", latest.RunID)
	assert.Equal(t, int64(317), latest.InferredFeeCents)

	stored, err := s.ListAssignments("run-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []string{"tx1"}, stored[0].TransactionIDs)
	assert.Equal(t, []string{"tx2", "tx3"}, stored[1].TransactionIDs)
	assert.Equal(t, "partial", stored[1].Kind)
}

func TestStorage_GetLatestRunPicksNewest(t *testing.T) {
	s := newTestStorage(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2"} {
		run := &ReconciliationRun{
			RunID:       id,
			TenantID:    "t1",
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.SaveRun(run, nil))
	}

	latest, err := s.GetLatestRun("t1")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
}

func TestStorage_GetLatestRunUnknownTenant(t *testing.T) {
	s := newTestStorage(t)
	latest, err := s.GetLatestRun("nobody")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
