package domain

// Action is an explicit lifecycle trigger on an invoice.
type Action string

const (
	ActionRecordPayment Action = "record_payment"
	ActionCancel        Action = "cancel"
	ActionConvert       Action = "convert_to_definitive"
	ActionReplaceItems  Action = "replace_items"
)

// Transition computes the next status from the previous status, the current
// ledger, and an explicit action.
//
// changed reports whether the invoice actually moved; a recognized but
// redundant trigger (cancel on CANCELLED, convert on a definitive invoice)
// is an idempotent no-op with changed=false, which callers log as an
// inconsistent-state warning rather than fail. Only actions that would
// corrupt the ledger are errors.
func Transition(prev InvoiceStatus, ledger Ledger, action Action) (next InvoiceStatus, changed bool, err error) {
	switch action {
	case ActionRecordPayment:
		if prev == InvoiceStatusCancelled {
			// Cancellation is final for ledger purposes.
			return prev, false, ErrInvoiceCancelled
		}
		if prev == InvoiceStatusProForma {
			return prev, false, ErrInvoiceNotPayable
		}
		next = paymentStatus(ledger)
		return next, next != prev, nil

	case ActionCancel:
		switch prev {
		case InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
			return InvoiceStatusCancelled, true, nil
		default:
			// CANCELLED and PRO_FORMA: no-op. Pro-forma invoices are deleted,
			// not cancelled.
			return prev, false, nil
		}

	case ActionConvert:
		if prev == InvoiceStatusProForma {
			return InvoiceStatusPending, true, nil
		}
		return prev, false, nil

	case ActionReplaceItems:
		if prev == InvoiceStatusCancelled {
			return prev, false, ErrInvoiceCancelled
		}
		// Items changed: keep pro-forma as-is, re-derive payable states from
		// the ledger against the new total.
		if prev == InvoiceStatusProForma {
			return prev, false, nil
		}
		next = paymentStatus(ledger)
		return next, next != prev, nil

	default:
		return prev, false, nil
	}
}

// paymentStatus derives the payable state from ledger amounts:
// nothing paid keeps PENDING, a partial sum is PARTIALLY_PAID as a
// first-class state, and reaching the total (or beyond) is PAID.
func paymentStatus(ledger Ledger) InvoiceStatus {
	switch {
	case ledger.IsFullyPaid:
		return InvoiceStatusPaid
	case ledger.TotalPaid.IsPositive():
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusPending
	}
}
