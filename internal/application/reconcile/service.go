// Package reconcile orchestrates the full reconciliation pipeline:
// normalize, generate candidates, score, resolve, report. The service
// owns persistence and run bookkeeping; the domain packages underneath
// it stay pure.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerai/reconcile-backend/internal/domain/candidates"
	"github.com/ledgerai/reconcile-backend/internal/domain/normalize"
	"github.com/ledgerai/reconcile-backend/internal/domain/record"
	"github.com/ledgerai/reconcile-backend/internal/domain/report"
	"github.com/ledgerai/reconcile-backend/internal/domain/resolver"
	"github.com/ledgerai/reconcile-backend/internal/domain/scorer"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/config"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/storage"
	"github.com/ledgerai/reconcile-backend/internal/ingest"
)

// Service runs reconciliations for any number of tenants. Safe for
// concurrent use; runs for different tenants may overlap, runs for the
// same tenant are serialized by the caller or simply produce two
// reports with the later one winning the cache.
type Service struct {
	cfg    *config.Config
	repo   storage.Repository
	logger *slog.Logger

	generator *candidates.Generator
	scorer    *scorer.Scorer
	resolver  *resolver.Resolver

	mu            sync.RWMutex
	latestReports map[string]*report.Report
	unprocessable map[string][]record.Unprocessable
}

// NewService wires the pipeline from validated configuration.
func NewService(cfg *config.Config, repo storage.Repository, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		generator: candidates.NewGenerator(candidates.Config{
			WindowDays:           cfg.Reconcile.WindowDays,
			FeeTolerancePct:      cfg.Reconcile.FeeTolerancePct,
			FeeToleranceCapCents: cfg.Reconcile.FeeToleranceCapCents,
		}),
		scorer:        scorer.New(cfg.ScorerConfig(), nil),
		resolver:      resolver.New(resolver.DefaultConfig()),
		latestReports: make(map[string]*report.Report),
		unprocessable: make(map[string][]record.Unprocessable),
	}
}

// SubmitResult reports what happened to a batch of submitted records.
type SubmitResult struct {
	Accepted      int                    `json:"accepted"`
	Unprocessable []record.Unprocessable `json:"unprocessable,omitempty"`
}

// SubmitInvoices normalizes and persists a batch of raw invoices.
// Records that fail normalization land in the tenant's unprocessable
// bucket and surface in the next report; they never abort the batch.
func (s *Service) SubmitInvoices(ctx context.Context, tenantID string, inputs []ingest.InvoiceInput) (*SubmitResult, error) {
	if tenantID == "" {
		return nil, &record.ReconciliationError{Reason: "missing tenant identifier"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &SubmitResult{}
	rows := make([]storage.StoredInvoice, 0, len(inputs))

	for _, in := range inputs {
		amountCents, err := normalize.Amount(in.Amount, false)
		if err != nil {
			result.Unprocessable = append(result.Unprocessable, unprocessableFor(tenantID, "invoice", in.SourceID, err))
			continue
		}
		dueDate, err := normalize.Date(in.DueDate)
		if err != nil {
			result.Unprocessable = append(result.Unprocessable, unprocessableFor(tenantID, "invoice", in.SourceID, err))
			continue
		}

		rows = append(rows, storage.StoredInvoice{
			ID:             in.SourceID,
			TenantID:       tenantID,
			VendorName:     in.VendorName,
			NormalizedName: normalize.Name(in.VendorName),
			InvoiceNumber:  in.InvoiceNumber,
			AmountCents:    amountCents,
			Currency:       currencyOrDefault(in.Currency),
			DueDate:        dueDate,
			IngestedAt:     now,
		})
	}

	if len(rows) > 0 {
		if err := s.repo.SaveInvoices(rows); err != nil {
			return nil, fmt.Errorf("failed to save invoices: %w", err)
		}
	}
	result.Accepted = len(rows)
	s.recordUnprocessable(tenantID, result.Unprocessable)

	s.logger.Info("invoices submitted",
		"tenant_id", tenantID,
		"accepted", result.Accepted,
		"unprocessable", len(result.Unprocessable))
	return result, nil
}

// SubmitTransactions normalizes and persists a batch of bank statement
// lines.
func (s *Service) SubmitTransactions(ctx context.Context, tenantID string, inputs []ingest.TransactionInput) (*SubmitResult, error) {
	if tenantID == "" {
		return nil, &record.ReconciliationError{Reason: "missing tenant identifier"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &SubmitResult{}
	rows := make([]storage.StoredTransaction, 0, len(inputs))

	for _, in := range inputs {
		amountCents, err := normalize.Amount(in.Amount, true)
		if err != nil {
			result.Unprocessable = append(result.Unprocessable, unprocessableFor(tenantID, "bank_transaction", in.ID, err))
			continue
		}
		postedDate, err := normalize.Date(in.PostedDate)
		if err != nil {
			result.Unprocessable = append(result.Unprocessable, unprocessableFor(tenantID, "bank_transaction", in.ID, err))
			continue
		}

		rows = append(rows, storage.StoredTransaction{
			ID:             in.ID,
			TenantID:       tenantID,
			Description:    in.Description,
			NormalizedName: normalize.Name(in.Description),
			AmountCents:    amountCents,
			Currency:       currencyOrDefault(in.Currency),
			PostedDate:     postedDate,
			IngestedAt:     now,
		})
	}

	if len(rows) > 0 {
		if err := s.repo.SaveTransactions(rows); err != nil {
			return nil, fmt.Errorf("failed to save transactions: %w", err)
		}
	}
	result.Accepted = len(rows)
	s.recordUnprocessable(tenantID, result.Unprocessable)

	s.logger.Info("transactions submitted",
		"tenant_id", tenantID,
		"accepted", result.Accepted,
		"unprocessable", len(result.Unprocessable))
	return result, nil
}

// Reconcile runs the full pipeline over everything stored for one
// tenant and persists the resulting run. The returned report is also
// cached for query endpoints.
func (s *Service) Reconcile(ctx context.Context, tenantID string) (*report.Report, error) {
	if tenantID == "" {
		return nil, &record.ReconciliationError{Reason: "missing tenant identifier"}
	}
	startedAt := time.Now().UTC()

	invoices, transactions, err := s.loadRecords(tenantID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := s.generator.Generate(invoices, transactions)
	scored := s.scoreAll(ctx, pairs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assignments, err := s.resolver.Resolve(tenantID, invoices, transactions, scored)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	rep := report.Build(tenantID, runID, time.Now().UTC(), assignments, invoices, transactions, s.takeUnprocessable(tenantID))

	if err := s.persistRun(tenantID, runID, startedAt, rep, assignments); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latestReports[tenantID] = rep
	s.mu.Unlock()

	s.logger.Info("reconciliation completed",
		"tenant_id", tenantID,
		"run_id", runID,
		"invoices", rep.Summary.TotalInvoices,
		"transactions", rep.Summary.TotalTransactions,
		"matched", len(rep.Matched),
		"partial", len(rep.Partial),
		"unmatched_invoices", rep.Summary.UnmatchedInvoiceCount,
		"duration_ms", time.Since(startedAt).Milliseconds())
	return rep, nil
}

// TenantResult is one tenant's outcome from a multi-tenant run.
type TenantResult struct {
	TenantID string
	Report   *report.Report
	Err      error
}

// ReconcileAll runs every tenant concurrently. One tenant's failure
// never blocks another's run; results come back in input order.
func (s *Service) ReconcileAll(ctx context.Context, tenantIDs []string) []TenantResult {
	results := make([]TenantResult, len(tenantIDs))

	var wg sync.WaitGroup
	for i, tenantID := range tenantIDs {
		wg.Add(1)
		go func(i int, tenantID string) {
			defer wg.Done()
			rep, err := s.Reconcile(ctx, tenantID)
			results[i] = TenantResult{TenantID: tenantID, Report: rep, Err: err}
		}(i, tenantID)
	}
	wg.Wait()

	return results
}

// LatestReport returns the most recent in-memory report for a tenant.
func (s *Service) LatestReport(tenantID string) (*report.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.latestReports[tenantID]
	return rep, ok
}

// LatestRun returns the persisted summary of the tenant's most recent
// run, surviving restarts. Nil when the tenant has never reconciled.
func (s *Service) LatestRun(tenantID string) (*storage.ReconciliationRun, error) {
	return s.repo.GetLatestRun(tenantID)
}

// LatestOrStoredReport returns the cached report, rebuilding it from
// the persisted run when the cache is cold, e.g. after a restart. Nil
// without error when the tenant has never reconciled. The rebuilt
// report omits the original run's unprocessable entries; those are
// drained into exactly one live report.
func (s *Service) LatestOrStoredReport(tenantID string) (*report.Report, error) {
	if rep, ok := s.LatestReport(tenantID); ok {
		return rep, nil
	}

	run, err := s.repo.GetLatestRun(tenantID)
	if err != nil || run == nil {
		return nil, err
	}
	stored, err := s.repo.ListAssignments(run.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	assignments := make([]record.MatchAssignment, 0, len(stored))
	for _, a := range stored {
		assignments = append(assignments, record.MatchAssignment{
			InvoiceID:        a.InvoiceID,
			TransactionIDs:   a.TransactionIDs,
			Kind:             record.AssignmentKind(a.Kind),
			Tier:             record.TierFromString(a.Tier),
			Confidence:       a.Confidence,
			AmountDeltaCents: a.AmountDeltaCents,
			InferredFeeCents: a.InferredFeeCents,
			NameSimilarity:   a.NameSimilarity,
			Gateway:          a.Gateway,
		})
	}

	invoices, transactions, err := s.loadRecords(tenantID)
	if err != nil {
		return nil, err
	}

	rep := report.Build(tenantID, run.RunID, run.CompletedAt, assignments, invoices, transactions, nil)

	s.mu.Lock()
	s.latestReports[tenantID] = rep
	s.mu.Unlock()
	return rep, nil
}

// loadRecords reads a tenant's stored records back into pipeline form.
func (s *Service) loadRecords(tenantID string) ([]record.InvoiceRecord, []record.BankTransactionRecord, error) {
	storedInvoices, err := s.repo.ListInvoices(tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	storedTxns, err := s.repo.ListTransactions(tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	invoices := make([]record.InvoiceRecord, 0, len(storedInvoices))
	for _, row := range storedInvoices {
		invoices = append(invoices, record.InvoiceRecord{
			ID:             row.ID,
			TenantID:       row.TenantID,
			VendorName:     row.VendorName,
			NormalizedName: row.NormalizedName,
			InvoiceNumber:  row.InvoiceNumber,
			AmountCents:    row.AmountCents,
			Currency:       row.Currency,
			DueDate:        row.DueDate,
		})
	}
	transactions := make([]record.BankTransactionRecord, 0, len(storedTxns))
	for _, row := range storedTxns {
		transactions = append(transactions, record.BankTransactionRecord{
			ID:             row.ID,
			TenantID:       row.TenantID,
			Description:    row.Description,
			NormalizedName: row.NormalizedName,
			AmountCents:    row.AmountCents,
			Currency:       row.Currency,
			PostedDate:     row.PostedDate,
		})
	}
	return invoices, transactions, nil
}

// scoreAll fans candidate scoring out over a worker pool. Scoring is
// pure per pair, so chunks are scored independently and merged back in
// input order to keep the result deterministic.
func (s *Service) scoreAll(ctx context.Context, pairs []candidates.Pair) []record.CandidatePair {
	workers := s.cfg.Reconcile.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers <= 1 {
		out := make([]record.CandidatePair, 0, len(pairs))
		for _, p := range pairs {
			if scored, ok := s.scorer.Score(p); ok {
				out = append(out, scored)
			}
		}
		return out
	}

	type slot struct {
		pair record.CandidatePair
		ok   bool
	}
	slots := make([]slot, len(pairs))

	var wg sync.WaitGroup
	chunk := (len(pairs) + workers - 1) / workers
	for start := 0; start < len(pairs); start += chunk {
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				scored, ok := s.scorer.Score(pairs[i])
				slots[i] = slot{pair: scored, ok: ok}
			}
		}(start, end)
	}
	wg.Wait()

	out := make([]record.CandidatePair, 0, len(pairs))
	for _, sl := range slots {
		if sl.ok {
			out = append(out, sl.pair)
		}
	}
	return out
}

func (s *Service) persistRun(tenantID, runID string, startedAt time.Time, rep *report.Report, assignments []record.MatchAssignment) error {
	run := &storage.ReconciliationRun{
		RunID:       runID,
		TenantID:    tenantID,
		StartedAt:   startedAt,
		CompletedAt: rep.GeneratedAt,

		InvoiceCount:     rep.Summary.TotalInvoices,
		TransactionCount: rep.Summary.TotalTransactions,

		ExactCount:       rep.Summary.ExactCount,
		FeeAdjustedCount: rep.Summary.FeeAdjustedCount,
		FuzzyCount:       rep.Summary.FuzzyCount,
		PartialCount:     rep.Summary.PartialCount,

		UnmatchedInvoiceCount:     rep.Summary.UnmatchedInvoiceCount,
		UnmatchedTransactionCount: rep.Summary.UnmatchedTransactionCount,
		UnprocessableCount:        rep.Summary.UnprocessableCount,

		MatchedAmountCents: rep.Summary.MatchedAmountCents,
		InferredFeeCents:   rep.Summary.InferredFeeCents,
	}

	rows := make([]storage.StoredAssignment, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, storage.StoredAssignment{
			RunID:            runID,
			TenantID:         tenantID,
			InvoiceID:        a.InvoiceID,
			TransactionIDs:   a.TransactionIDs,
			Kind:             string(a.Kind),
			Tier:             a.Tier.String(),
			Confidence:       a.Confidence,
			AmountDeltaCents: a.AmountDeltaCents,
			InferredFeeCents: a.InferredFeeCents,
			NameSimilarity:   a.NameSimilarity,
			Gateway:          a.Gateway,
		})
	}

	if err := s.repo.SaveRun(run, rows); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	return nil
}

func (s *Service) recordUnprocessable(tenantID string, entries []record.Unprocessable) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	s.unprocessable[tenantID] = append(s.unprocessable[tenantID], entries...)
	s.mu.Unlock()
}

// takeUnprocessable drains the tenant's bucket; each entry surfaces in
// exactly one report.
func (s *Service) takeUnprocessable(tenantID string) []record.Unprocessable {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.unprocessable[tenantID]
	delete(s.unprocessable, tenantID)
	return entries
}

func unprocessableFor(tenantID, source, sourceID string, err error) record.Unprocessable {
	return record.Unprocessable{
		TenantID: tenantID,
		Source:   source,
		SourceID: sourceID,
		Reason:   err.Error(),
	}
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
