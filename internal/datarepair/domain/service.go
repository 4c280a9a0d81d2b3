package domain

import (
	"context"
	"errors"
)

const DefaultLimit = 500

// Options apply to every repair operation. DryRun reports without mutating;
// Limit bounds how many records one pass touches.
type Options struct {
	DryRun bool `json:"dry_run"`
	Limit  int  `json:"limit"`
}

type RecordDetail struct {
	Table  string `json:"table,omitempty"`
	Column string `json:"column,omitempty"`
	ID     string `json:"id"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type Report struct {
	Operation string         `json:"operation"`
	DryRun    bool           `json:"dry_run"`
	Scanned   int            `json:"scanned"`
	Affected  int            `json:"affected"`
	Repaired  int            `json:"repaired"`
	Details   []RecordDetail `json:"details"`
}

// Service implements the one-off data repair operations. All of them are
// idempotent: a second run after a successful fix finds nothing to repair.
type Service interface {
	// FixNullBytes strips interior NUL bytes from a fixed set of text
	// columns.
	FixNullBytes(ctx context.Context, opts Options) (Report, error)
	// FixDuplicateOfferings deletes surplus offering relationship rows,
	// keeping the oldest per offering.
	FixDuplicateOfferings(ctx context.Context, opts Options) (Report, error)
	// FixOrphanedOfferings creates the missing relationship row for
	// offerings that have none, matched by the offering's name-derived
	// domain; offerings with no matching website are reported unchanged.
	FixOrphanedOfferings(ctx context.Context, opts Options) (Report, error)
}

var ErrForbidden = errors.New("repair_forbidden")
