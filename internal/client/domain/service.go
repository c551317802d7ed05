package domain

import (
	"context"
	"errors"

	"github.com/teblo/teblo/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name    string
	Email   string
	Address string
	TaxID   string
	Phone   string
}

type UpdateClientRequest struct {
	ID      string
	Name    *string
	Email   *string
	Address *string
	TaxID   *string
	Phone   *string
}

type ListClientRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Email     string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
	GetByID(ctx context.Context, id string) (Client, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
	ErrClientHasInvoices = errors.New("client_has_invoices")
)
