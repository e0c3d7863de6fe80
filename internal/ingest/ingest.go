// Package ingest adapts external record sources into the raw inputs
// the reconciliation pipeline consumes: bank statement CSV files and
// the document extractor's structured invoice JSON.
//
// Ingest never normalizes; it only reshapes. Normalization and its
// per-record error isolation happen inside the pipeline so that both
// ingest paths and direct API submissions share the same handling.
package ingest

import (
	"encoding/json"
	"fmt"
)

// InvoiceInput is a raw invoice as produced by the document extractor.
// All fields are strings; parsing and validation happen downstream.
type InvoiceInput struct {
	SourceID      string `json:"source_id"`
	VendorName    string `json:"vendor_name"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Amount        string `json:"total_amount"`
	Currency      string `json:"currency,omitempty"`
	DueDate       string `json:"due_date"`
}

// TransactionInput is a raw bank statement line.
type TransactionInput struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	// Type is "Debit" or "Credit"; statements that carry unsigned
	// amounts use it to recover the sign.
	Type       string `json:"type,omitempty"`
	Currency   string `json:"currency,omitempty"`
	PostedDate string `json:"date"`
}

// extractorInvoice matches the extractor's JSON output, where the
// amount arrives as a JSON number.
type extractorInvoice struct {
	SourceID      string      `json:"source_id"`
	VendorName    string      `json:"vendor_name"`
	InvoiceNumber string      `json:"invoice_number"`
	Amount        json.Number `json:"total_amount"`
	Currency      string      `json:"currency"`
	DueDate       string      `json:"due_date"`
}

// ParseInvoiceJSON decodes an array of extractor invoice objects.
// Numeric amounts are carried through as their literal decimal text so
// no float round-trip corrupts them.
func ParseInvoiceJSON(data []byte) ([]InvoiceInput, error) {
	var raw []extractorInvoice
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse invoice JSON: %w", err)
	}

	out := make([]InvoiceInput, 0, len(raw))
	for i, r := range raw {
		in := InvoiceInput{
			SourceID:      r.SourceID,
			VendorName:    r.VendorName,
			InvoiceNumber: r.InvoiceNumber,
			Amount:        r.Amount.String(),
			Currency:      r.Currency,
			DueDate:       r.DueDate,
		}
		if in.SourceID == "" {
			in.SourceID = fmt.Sprintf("doc-%d", i+1)
		}
		out = append(out, in)
	}
	return out, nil
}
