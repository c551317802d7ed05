package domain

import "github.com/shopspring/decimal"

// Ledger is the accumulated payment state of one invoice.
//
// TotalPaid keeps the true sum of every recorded payment for audit.
// RecognizedPaid caps it at the invoice total; callers pick whichever
// figure fits their reporting. Over-payment is representable, surfaced
// through Overpaid, and never an error: reacting to it is a status or UI
// decision, not ledger arithmetic.
type Ledger struct {
	InvoiceTotal   decimal.Decimal `json:"invoice_total"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	RecognizedPaid decimal.Decimal `json:"recognized_paid"`
	Pending        decimal.Decimal `json:"pending"`
	IsFullyPaid    bool            `json:"is_fully_paid"`
	Overpaid       bool            `json:"overpaid"`
}

// BuildLedger folds the payments recorded against an invoice into the
// derived paid/pending amounts. Payment order does not affect the result.
func BuildLedger(invoiceTotal decimal.Decimal, payments []Payment) Ledger {
	totalPaid := decimal.Zero
	for _, payment := range payments {
		totalPaid = totalPaid.Add(payment.Amount)
	}

	pending := invoiceTotal.Sub(totalPaid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	recognized := totalPaid
	if recognized.GreaterThan(invoiceTotal) {
		recognized = invoiceTotal
	}

	return Ledger{
		InvoiceTotal:   invoiceTotal,
		TotalPaid:      totalPaid,
		RecognizedPaid: recognized,
		Pending:        pending,
		IsFullyPaid:    totalPaid.GreaterThanOrEqual(invoiceTotal),
		Overpaid:       totalPaid.GreaterThan(invoiceTotal),
	}
}

// Append returns the ledger after one more payment, leaving the receiver
// untouched. The amount must already be validated.
func (l Ledger) Append(payment Payment) Ledger {
	totalPaid := l.TotalPaid.Add(payment.Amount)

	pending := l.InvoiceTotal.Sub(totalPaid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	recognized := totalPaid
	if recognized.GreaterThan(l.InvoiceTotal) {
		recognized = l.InvoiceTotal
	}

	return Ledger{
		InvoiceTotal:   l.InvoiceTotal,
		TotalPaid:      totalPaid,
		RecognizedPaid: recognized,
		Pending:        pending,
		IsFullyPaid:    totalPaid.GreaterThanOrEqual(l.InvoiceTotal),
		Overpaid:       totalPaid.GreaterThan(l.InvoiceTotal),
	}
}

// ValidatePayment rejects payments the ledger must never see.
func ValidatePayment(payment Payment) error {
	if !payment.Amount.IsPositive() {
		return ErrInvalidPaymentAmount
	}
	return nil
}
