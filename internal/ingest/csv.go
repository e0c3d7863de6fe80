package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RowError records a statement line that could not be read. The row
// index is 1-based and counts the header.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ReadBankCSV reads a bank statement export. The header row names the
// columns; Date, Description and Amount are required, Type and
// Currency are optional. Column order does not matter and header
// matching is case-insensitive.
//
// Malformed rows are collected rather than aborting the read, so one
// bad line does not discard a whole statement.
func ReadBankCSV(r io.Reader) ([]TransactionInput, []RowError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("CSV header missing required column %q", required)
		}
	}

	var (
		txns    []TransactionInput
		rowErrs []RowError
		row     = 1
	)
	for {
		row++
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: row, Reason: err.Error()})
			continue
		}

		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[idx])
		}

		tx := TransactionInput{
			ID:          get("id"),
			Description: get("description"),
			Amount:      get("amount"),
			Type:        get("type"),
			Currency:    get("currency"),
			PostedDate:  get("date"),
		}
		if tx.ID == "" {
			tx.ID = fmt.Sprintf("stmt-%d", row-1)
		}
		if tx.Amount == "" || tx.PostedDate == "" {
			rowErrs = append(rowErrs, RowError{Row: row, Reason: "missing amount or date"})
			continue
		}

		// Unsigned statements mark direction in the Type column.
		if strings.EqualFold(tx.Type, "debit") && !strings.HasPrefix(tx.Amount, "-") {
			tx.Amount = "-" + tx.Amount
		}

		txns = append(txns, tx)
	}
	return txns, rowErrs, nil
}
