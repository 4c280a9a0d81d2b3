package domain

import (
	"context"
)

// OrderSummary is the read-only slice of the order exposed to token holders.
// Wholesale pricing is never included.
type OrderSummary struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	State          string `json:"state,omitempty"`
	RetailTotal    int64  `json:"retail_total"`
	Currency       string `json:"currency"`
	CreatedAt      string `json:"created_at"`
	ShareExpiresAt string `json:"share_expires_at,omitempty"`
}

type LineItemView struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	RetailPrice      int64  `json:"retail_price"`
	TargetPageID     string `json:"target_page_id,omitempty"`
	TargetPageURL    string `json:"target_page_url,omitempty"`
	AssignedDomainID string `json:"assigned_domain_id,omitempty"`
	AssignedDomain   string `json:"assigned_domain,omitempty"`
}

type CandidateDomain struct {
	ID                  string `json:"id"`
	ProjectID           string `json:"project_id"`
	Domain              string `json:"domain"`
	QualificationStatus string `json:"qualification_status"`
	AlreadyAssigned     bool   `json:"already_assigned"`
}

type ClientGroup struct {
	ClientID   string            `json:"client_id"`
	ClientName string            `json:"client_name,omitempty"`
	LineItems  []LineItemView    `json:"line_items"`
	Domains    []CandidateDomain `json:"domains"`
}

type OrderView struct {
	Order   OrderSummary  `json:"order"`
	Clients []ClientGroup `json:"clients"`
}

// Service resolves a share token into the read-only order view.
type Service interface {
	Resolve(ctx context.Context, token string) (OrderView, error)
}
