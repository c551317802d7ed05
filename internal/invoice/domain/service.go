package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teblo/teblo/pkg/db/pagination"
)

type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
}

type CreateInvoiceRequest struct {
	ClientID string
	ProForma bool
	DueAt    *time.Time
	Notes    string
	Items    []LineItemInput
}

type ReplaceItemsRequest struct {
	ID    string
	Items []LineItemInput
}

type RecordPaymentRequest struct {
	InvoiceID string
	Amount    decimal.Decimal
	PaidAt    time.Time
	Type      PaymentType
	Note      string
	Reference string
}

// RecordPaymentResponse carries the refreshed invoice plus the ledger view,
// including the non-fatal overpayment notice.
type RecordPaymentResponse struct {
	Invoice Invoice `json:"invoice"`
	Ledger  Ledger  `json:"ledger"`
	Payment Payment `json:"payment"`
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	Status     *InvoiceStatus
	ClientID   string
	IssuedFrom *time.Time
	IssuedTo   *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type GetInvoiceResponse struct {
	Invoice Invoice `json:"invoice"`
	Ledger  Ledger  `json:"ledger"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (GetInvoiceResponse, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	ReplaceItems(context.Context, ReplaceItemsRequest) (Invoice, error)
	RecordPayment(context.Context, RecordPaymentRequest) (RecordPaymentResponse, error)
	Cancel(ctx context.Context, id string) (Invoice, error)
	ConvertToDefinitive(ctx context.Context, id string) (Invoice, error)
	Delete(ctx context.Context, id string) error
	View(ctx context.Context, id string) (InvoiceView, error)
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidLineItem      = errors.New("invalid_line_item")
	ErrNoLineItems          = errors.New("no_line_items")
	ErrInvalidPaymentAmount = errors.New("invalid_payment_amount")
	ErrInvalidPaymentType   = errors.New("invalid_payment_type")
	ErrInvoiceCancelled     = errors.New("invoice_cancelled")
	ErrInvoiceNotPayable    = errors.New("invoice_not_payable")
	ErrInvoiceNotProForma   = errors.New("invoice_not_pro_forma")
	ErrInvoiceHasPayments   = errors.New("invoice_has_payments")
	ErrNotFound             = errors.New("not_found")
)
