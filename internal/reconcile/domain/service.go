package domain

import (
	"context"
	"errors"
)

type ReconcileRequest struct {
	// OrderIDs limits the run to specific orders; empty means every
	// confirmed order with a payment reference.
	OrderIDs []string `json:"order_ids"`
	Limit    int      `json:"limit"`
}

type OrderResult struct {
	OrderID        string `json:"order_id"`
	PaymentRef     string `json:"payment_ref,omitempty"`
	OrderAmount    int64  `json:"order_amount"`
	ChargedAmount  int64  `json:"charged_amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
	PaymentStatus  string `json:"payment_status,omitempty"`
	Outcome        string `json:"outcome"`
	MismatchReason string `json:"mismatch_reason,omitempty"`
}

// Reconciliation outcomes per order.
const (
	OutcomeMatched    = "matched"
	OutcomeMismatched = "mismatched"
	OutcomeNoPayment  = "no_payment_ref"
	OutcomeLookupFail = "lookup_failed"
)

type Report struct {
	Checked    int           `json:"checked"`
	Matched    int           `json:"matched"`
	Mismatched int           `json:"mismatched"`
	Skipped    int           `json:"skipped"`
	Results    []OrderResult `json:"results"`
}

// Service compares order retail totals against the payment provider's
// records. Per-order lookup failures are reported and skipped, never fatal.
type Service interface {
	ReconcileOrders(ctx context.Context, req ReconcileRequest) (Report, error)
}

var (
	ErrForbidden     = errors.New("reconcile_forbidden")
	ErrNotConfigured = errors.New("reconcile_not_configured")
)
