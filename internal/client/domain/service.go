package domain

import (
	"context"
	"errors"

	"github.com/linkwell/orderdesk/pkg/db/pagination"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int32
	Name      string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type CreateClientRequest struct {
	Name    string
	Email   string
	Website string
}

type CreateTargetPageRequest struct {
	ClientID string
	URL      string
}

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
	GetByID(ctx context.Context, id string) (Client, error)
	ListTargetPages(ctx context.Context, clientID string) ([]TargetPage, error)
	CreateTargetPage(ctx context.Context, req CreateTargetPageRequest) (TargetPage, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidURL   = errors.New("invalid_url")
	ErrNotFound     = errors.New("not_found")
	ErrForbidden    = errors.New("client_forbidden")
)
