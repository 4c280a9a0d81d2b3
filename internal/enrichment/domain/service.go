package domain

import (
	"context"
	"errors"
)

// PageEnrichment is the generated copy for one target page.
type PageEnrichment struct {
	Keywords    string
	Description string
}

// DomainVerdict is the AI qualification result for one candidate domain.
type DomainVerdict struct {
	Domain    string
	Status    string
	Reasoning string
}

// Qualification statuses for candidate domains.
const (
	StatusHighQuality    = "high_quality"
	StatusAverageQuality = "average_quality"
	StatusDisqualified   = "disqualified"
)

// Service generates keywords, descriptions and domain qualification verdicts.
// Callers treat every method as best-effort: an error skips the item, it never
// aborts the surrounding operation.
type Service interface {
	EnrichTargetPage(ctx context.Context, pageURL string) (PageEnrichment, error)
	QualifyDomain(ctx context.Context, domainName string, targetURLs []string) (DomainVerdict, error)
}

var (
	ErrNotConfigured   = errors.New("enrichment_not_configured")
	ErrMalformedOutput = errors.New("enrichment_malformed_output")
)
