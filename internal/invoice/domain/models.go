// Package domain contains the invoice models and the pure money math the
// rest of the application builds on: totals, the payment ledger, and the
// invoice status machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusProForma      InvoiceStatus = "PRO_FORMA"
	InvoiceStatusPending       InvoiceStatus = "PENDING"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// Valid reports whether s is a known lifecycle state.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusProForma, InvoiceStatusPending, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusCancelled
}

// PaymentType records how the caller declared a payment.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "FULL"
	PaymentTypePartial PaymentType = "PARTIAL"
)

// Invoice is the persisted invoice aggregate root.
//
// SubtotalAmount, TaxAmount, TotalAmount, and AmountPaid are stored
// redundantly for listing and reporting; the service layer recomputes all
// four from items and payments inside the same transaction whenever either
// changes, so they are never written independently.
type Invoice struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID   string       `gorm:"not null;index" json:"-"`
	ClientID snowflake.ID `gorm:"not null;index" json:"client_id"`

	// InvoiceNumber is the definitive sequence, assigned at creation for
	// definitive invoices and at conversion for pro-formas. ProFormaNumber
	// is kept after conversion so the pro-forma sequence stays monotonic.
	InvoiceNumber  int64             `gorm:"not null;default:0" json:"invoice_number,omitempty"`
	ProFormaNumber int64             `gorm:"not null;default:0" json:"pro_forma_number,omitempty"`
	DisplayNumber  string            `gorm:"type:text;not null" json:"display_number"`
	Status         InvoiceStatus     `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	Currency       string            `gorm:"type:text;not null" json:"currency"`
	SubtotalAmount decimal.Decimal   `gorm:"type:numeric(18,6);not null" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal   `gorm:"type:numeric(18,6);not null" json:"tax_amount"`
	TotalAmount    decimal.Decimal   `gorm:"type:numeric(18,6);not null" json:"total_amount"`
	AmountPaid     decimal.Decimal   `gorm:"type:numeric(18,6);not null" json:"amount_paid"`
	IssuedAt       time.Time         `gorm:"not null" json:"issued_at"`
	DueAt          *time.Time        `json:"due_at,omitempty"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
	ConvertedAt    *time.Time        `json:"converted_at,omitempty"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items    []LineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments []Payment  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one priced row on an invoice. Position preserves display
// order; it carries no computational meaning.
type LineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"unit_price"`
	VATRate     decimal.Decimal `gorm:"type:numeric(9,4);not null" json:"vat_rate"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_items" }

// Subtotal returns quantity * unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Tax returns the VAT surcharge on the line subtotal.
func (li LineItem) Tax() decimal.Decimal {
	return li.Subtotal().Mul(li.VATRate).Div(hundred)
}

// Total returns subtotal plus tax.
func (li LineItem) Total() decimal.Decimal {
	return li.Subtotal().Add(li.Tax())
}

// Payment is one recorded payment event against an invoice. Payments are
// append-only: there is no update or delete; a retraction is a new event.
type Payment struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"amount"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	Type      PaymentType     `gorm:"type:text;not null" json:"type"`
	Note      string          `gorm:"type:text" json:"note,omitempty"`
	Reference string          `gorm:"type:text;not null" json:"reference"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "invoice_payments" }
