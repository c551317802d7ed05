package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerOf(total string, paid ...string) Ledger {
	payments := make([]Payment, 0, len(paid))
	for _, p := range paid {
		payments = append(payments, payment(p))
	}
	return BuildLedger(decimal.RequireFromString(total), payments)
}

func TestTransition_PaymentMovesPendingToPartiallyPaid(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusPending, ledgerOf("100", "30"), ActionRecordPayment)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, InvoiceStatusPartiallyPaid, next)
}

func TestTransition_PaymentReachingTotalIsPaid(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusPartiallyPaid, ledgerOf("100", "60", "40"), ActionRecordPayment)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, InvoiceStatusPaid, next)
}

func TestTransition_OverpaymentStillPaid(t *testing.T) {
	next, _, err := Transition(InvoiceStatusPending, ledgerOf("100", "150"), ActionRecordPayment)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, next)
}

func TestTransition_PaymentOnCancelledRejected(t *testing.T) {
	_, _, err := Transition(InvoiceStatusCancelled, ledgerOf("100", "30"), ActionRecordPayment)
	assert.ErrorIs(t, err, ErrInvoiceCancelled)
}

func TestTransition_PaymentOnProFormaRejected(t *testing.T) {
	_, _, err := Transition(InvoiceStatusProForma, ledgerOf("100", "30"), ActionRecordPayment)
	assert.ErrorIs(t, err, ErrInvoiceNotPayable)
}

func TestTransition_CancelFromPayableStates(t *testing.T) {
	for _, prev := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusPaid} {
		next, changed, err := Transition(prev, ledgerOf("100"), ActionCancel)
		require.NoError(t, err)
		assert.True(t, changed, "from %s", prev)
		assert.Equal(t, InvoiceStatusCancelled, next)
	}
}

func TestTransition_CancelIdempotent(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusCancelled, ledgerOf("100"), ActionCancel)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, InvoiceStatusCancelled, next)
}

func TestTransition_CancelProFormaIsNoOp(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusProForma, ledgerOf("100"), ActionCancel)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, InvoiceStatusProForma, next)
}

func TestTransition_ConvertProForma(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusProForma, ledgerOf("100"), ActionConvert)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, InvoiceStatusPending, next)
}

func TestTransition_ConvertDefinitiveIsNoOp(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusPending, ledgerOf("100"), ActionConvert)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, InvoiceStatusPending, next)
}

func TestTransition_ReplaceItemsRederivesStatus(t *testing.T) {
	// Payments that covered the old total may no longer cover the new one.
	next, changed, err := Transition(InvoiceStatusPaid, ledgerOf("200", "100"), ActionReplaceItems)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, InvoiceStatusPartiallyPaid, next)
}

func TestTransition_ReplaceItemsOnCancelledRejected(t *testing.T) {
	_, _, err := Transition(InvoiceStatusCancelled, ledgerOf("100"), ActionReplaceItems)
	assert.ErrorIs(t, err, ErrInvoiceCancelled)
}

func TestTransition_ReplaceItemsKeepsProForma(t *testing.T) {
	next, changed, err := Transition(InvoiceStatusProForma, ledgerOf("150"), ActionReplaceItems)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, InvoiceStatusProForma, next)
}

// Recomputing from the same ledger twice lands on the same status.
func TestTransition_Idempotent(t *testing.T) {
	ledger := ledgerOf("100", "30")

	first, _, err := Transition(InvoiceStatusPending, ledger, ActionRecordPayment)
	require.NoError(t, err)
	second, changed, err := Transition(first, ledger, ActionRecordPayment)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, changed)
}
