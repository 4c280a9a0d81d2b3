package domain

import (
	"context"
	"errors"
)

type AddDomainsRequest struct {
	ProjectID string
	Domains   []string
}

type QualifyDomainsRequest struct {
	ProjectID string
}

type QualifyDomainsResponse struct {
	Qualified int `json:"qualified"`
	Skipped   int `json:"skipped"`
}

type Service interface {
	ListProjects(ctx context.Context, clientID string) ([]BulkAnalysisProject, error)
	ListDomains(ctx context.Context, projectID string) ([]BulkAnalysisDomain, error)
	AddDomains(ctx context.Context, req AddDomainsRequest) ([]BulkAnalysisDomain, error)
	// QualifyDomains runs AI qualification over every pending domain in the
	// project. Per-domain failures are skipped, never fatal.
	QualifyDomains(ctx context.Context, req QualifyDomainsRequest) (QualifyDomainsResponse, error)
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidDomain  = errors.New("invalid_domain")
	ErrNotFound       = errors.New("project_not_found")
	ErrDuplicateOrder = errors.New("duplicate_order_project")
)
