package record

import "fmt"

// InvalidAmountError reports a malformed or disallowed amount. It is
// fatal to the single record that carried the amount, not to the run;
// the record lands in the report's unprocessable bucket.
type InvalidAmountError struct {
	Raw    string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Raw, e.Reason)
}

// InvalidDateError reports an unparseable date. Same per-record handling
// as InvalidAmountError.
type InvalidDateError struct {
	Raw string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q", e.Raw)
}

// ReconciliationError reports structurally invalid run input, such as a
// missing tenant identifier or a record that belongs to a different
// tenant than the run. It is fatal to the whole run. The absence of
// matches is never a ReconciliationError.
type ReconciliationError struct {
	Reason string
}

func (e *ReconciliationError) Error() string {
	return "reconciliation: " + e.Reason
}
