package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type UpdateSettingsRequest struct {
	CompanyName    *string
	Address        *string
	TaxID          *string
	Email          *string
	Phone          *string
	Currency       *string
	InvoicePrefix  *string
	ProFormaPrefix *string
	DefaultVATRate *decimal.Decimal
	PaymentTerms   *string
}

type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (Settings, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidVATRate  = errors.New("invalid_vat_rate")
)
