package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerai/reconcile-backend/internal/api/dto"
	"github.com/ledgerai/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerai/reconcile-backend/internal/domain/report"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/config"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := reconcile.NewService(config.Default(), storage.NewMockRepository(), logger)
	return NewServer(DefaultConfig(), svc, logger)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestSubmitInvoices(t *testing.T) {
	t.Run("wrapped request body", func(t *testing.T) {
		s := newTestServer(t)

		rec := doJSON(t, s, http.MethodPost, "/api/tenants/tenant-a/invoices",
			`{"invoices":[{"source_id":"inv-1","vendor_name":"Acme Corp Inc","total_amount":"50.00","due_date":"2025-01-14"}]}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.SubmitResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Accepted)
	})

	t.Run("bare extractor array", func(t *testing.T) {
		s := newTestServer(t)

		rec := doJSON(t, s, http.MethodPost, "/api/tenants/tenant-a/invoices",
			`[{"vendor_name":"Globex","total_amount":96.83,"due_date":"2025-01-20"}]`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.SubmitResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Accepted)
	})

	t.Run("rejects unparseable body", func(t *testing.T) {
		s := newTestServer(t)

		rec := doJSON(t, s, http.MethodPost, "/api/tenants/tenant-a/invoices", `not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatementUpload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Date,Description,Amount,Type\n2025-01-15,ACME CORP,50.00,Debit\n,broken row,,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tenants/tenant-a/transactions/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SubmitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Accepted)
	assert.Len(t, resp.RowErrors, 1)
}

func TestReconcileFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tenants/tenant-a/invoices",
		`{"invoices":[{"source_id":"inv-1","vendor_name":"Acme Corp Inc","total_amount":"50.00","due_date":"2025-01-14"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/tenants/tenant-a/transactions",
		`{"transactions":[{"id":"tx-1","description":"ACME CORP","amount":"-50.00","date":"2025-01-15"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/tenants/tenant-a/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep report.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	require.Len(t, rep.Matched, 1)
	assert.Equal(t, "EXACT", rep.Matched[0].Tier)

	t.Run("report is queryable after the run", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-a/report", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("summary reads the persisted run", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-a/summary", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 1, resp.ExactCount)
		assert.Equal(t, rep.RunID, resp.RunID)
	})

	t.Run("csv export streams a download", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-a/export?format=csv", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, rec.Body.String(), "EXACT")
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-a/export?format=pdf", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other tenants see nothing", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-b/report", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReportBeforeAnyRun(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-a/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/tenants/tenant-a/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
