package domain

import (
	"context"
	"errors"

	"github.com/linkwell/orderdesk/pkg/db/pagination"
)

type CreatePublisherRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Source string `json:"source"`
}

type CreateWebsiteRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

type CreateOfferingRequest struct {
	Name         string `json:"name"`
	OfferingType string `json:"offering_type"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	PublisherID  string `json:"publisher_id"`
	WebsiteID    string `json:"website_id"`
}

type ListPublishersRequest struct {
	Source    string
	PageToken string
	PageSize  int32
}

type ListPublishersResponse struct {
	Publishers []Publisher         `json:"publishers"`
	PageInfo   pagination.PageInfo `json:"page_info"`
}

type ListOfferingsRequest struct {
	PageToken string
	PageSize  int32
}

type OfferingDetail struct {
	Offering      PublisherOffering               `json:"offering"`
	Relationships []PublisherOfferingRelationship `json:"relationships"`
}

type ListOfferingsResponse struct {
	Offerings []OfferingDetail    `json:"offerings"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

type Service interface {
	CreatePublisher(ctx context.Context, req CreatePublisherRequest) (Publisher, error)
	GetPublisher(ctx context.Context, id string) (Publisher, error)
	ListPublishers(ctx context.Context, req ListPublishersRequest) (ListPublishersResponse, error)
	CreateWebsite(ctx context.Context, req CreateWebsiteRequest) (Website, error)
	// CreateOffering writes the offering and its relationship row in one
	// transaction.
	CreateOffering(ctx context.Context, req CreateOfferingRequest) (OfferingDetail, error)
	ListOfferings(ctx context.Context, req ListOfferingsRequest) (ListOfferingsResponse, error)
}

var (
	ErrInvalidID       = errors.New("invalid_publisher_id")
	ErrInvalidName     = errors.New("invalid_publisher_name")
	ErrInvalidDomain   = errors.New("invalid_website_domain")
	ErrInvalidSource   = errors.New("invalid_publisher_source")
	ErrNotFound        = errors.New("publisher_not_found")
	ErrWebsiteExists   = errors.New("website_exists")
	ErrOfferingInvalid = errors.New("invalid_offering")
)
