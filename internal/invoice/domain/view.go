package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceView is the precomputed view model handed to renderers. Renderers
// format and lay out; every figure below is already final, so any totals
// math inside a renderer is a duplication bug.
type InvoiceView struct {
	Number   string        `json:"number"`
	Status   InvoiceStatus `json:"status"`
	Currency string        `json:"currency"`
	IssuedAt time.Time     `json:"issued_at"`
	DueAt    *time.Time    `json:"due_at,omitempty"`
	Notes    string        `json:"notes,omitempty"`

	Company CompanyView `json:"company"`
	Client  ClientView  `json:"client"`

	Items []LineItemView `json:"items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	RecognizedPaid decimal.Decimal `json:"recognized_paid"`
	Pending        decimal.Decimal `json:"pending"`
}

// CompanyView is the issuing company block from settings.
type CompanyView struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	TaxID    string `json:"tax_id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Footnote string `json:"footnote,omitempty"`
}

// ClientView is the billed-party block.
type ClientView struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
	Email   string `json:"email"`
}

// LineItemView is one display row with its derived amounts.
type LineItemView struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// BuildView assembles the view model from an invoice, its ledger, and the
// company/client blocks supplied by collaborators.
func BuildView(inv Invoice, ledger Ledger, company CompanyView, client ClientView) InvoiceView {
	items := make([]LineItemView, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, LineItemView{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Subtotal:    item.Subtotal(),
			Tax:         item.Tax(),
			Total:       item.Total(),
		})
	}

	return InvoiceView{
		Number:         inv.DisplayNumber,
		Status:         inv.Status,
		Currency:       inv.Currency,
		IssuedAt:       inv.IssuedAt,
		DueAt:          inv.DueAt,
		Notes:          inv.Notes,
		Company:        company,
		Client:         client,
		Items:          items,
		Subtotal:       inv.SubtotalAmount,
		Tax:            inv.TaxAmount,
		Total:          inv.TotalAmount,
		TotalPaid:      ledger.TotalPaid,
		RecognizedPaid: ledger.RecognizedPaid,
		Pending:        ledger.Pending,
	}
}
