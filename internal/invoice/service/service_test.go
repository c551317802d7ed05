package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auditrepo "github.com/teblo/teblo/internal/audit/repository"
	auditservice "github.com/teblo/teblo/internal/audit/service"
	clientdomain "github.com/teblo/teblo/internal/client/domain"
	clientrepo "github.com/teblo/teblo/internal/client/repository"
	clientservice "github.com/teblo/teblo/internal/client/service"
	"github.com/teblo/teblo/internal/invoice/domain"
	invoicerepo "github.com/teblo/teblo/internal/invoice/repository"
	"github.com/teblo/teblo/internal/migration"
	settingsrepo "github.com/teblo/teblo/internal/settings/repository"
	settingsservice "github.com/teblo/teblo/internal/settings/service"
	"github.com/teblo/teblo/internal/userctx"
	"github.com/teblo/teblo/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc       domain.Service
	clientSvc clientdomain.Service
	db        *gorm.DB
	ctx       context.Context
	clientID  string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()

	settingsSvc := settingsservice.New(settingsservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  settingsrepo.Provide(),
	})
	clientSvc := clientservice.New(clientservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  clientrepo.Provide(),
	})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	svc := New(Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Repo:        invoicerepo.Provide(),
		SettingsSvc: settingsSvc,
		ClientSvc:   clientSvc,
		AuditSvc:    auditSvc,
	})

	ctx := userctx.WithUserID(context.Background(), "user-1")

	client, err := clientSvc.Create(ctx, clientdomain.CreateClientRequest{
		Name:  "Acme S.L.",
		Email: "billing@acme.test",
	})
	require.NoError(t, err)

	return &fixture{
		svc:       svc,
		clientSvc: clientSvc,
		db:        conn,
		ctx:       ctx,
		clientID:  client.ID.String(),
	}
}

func lineItems(amounts ...string) []domain.LineItemInput {
	items := make([]domain.LineItemInput, 0, len(amounts))
	for _, amount := range amounts {
		items = append(items, domain.LineItemInput{
			Description: "services",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString(amount),
			VATRate:     decimal.NewFromInt(21),
		})
	}
	return items
}

func (f *fixture) createInvoice(t *testing.T, proForma bool, amounts ...string) domain.Invoice {
	t.Helper()
	invoice, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID: f.clientID,
		ProForma: proForma,
		Items:    lineItems(amounts...),
	})
	require.NoError(t, err)
	return invoice
}

func TestCreateInvoice_ComputesTotalsAndNumber(t *testing.T) {
	f := setup(t)

	invoice := f.createInvoice(t, false, "50", "50")

	assert.Equal(t, domain.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, int64(1), invoice.InvoiceNumber)
	assert.Equal(t, "F-0001", invoice.DisplayNumber)
	assert.Equal(t, "EUR", invoice.Currency)
	assert.True(t, invoice.SubtotalAmount.Equal(decimal.RequireFromString("100")))
	assert.True(t, invoice.TaxAmount.Equal(decimal.RequireFromString("21")))
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("121")))
	assert.True(t, invoice.AmountPaid.IsZero())
	assert.Len(t, invoice.Items, 2)
}

func TestCreateInvoice_SequencePerUser(t *testing.T) {
	f := setup(t)

	first := f.createInvoice(t, false, "10")
	second := f.createInvoice(t, false, "20")

	assert.Equal(t, int64(1), first.InvoiceNumber)
	assert.Equal(t, int64(2), second.InvoiceNumber)

	// Another user starts its own sequence.
	otherCtx := userctx.WithUserID(context.Background(), "user-2")
	otherClient, err := f.clientSvc.Create(otherCtx, clientdomain.CreateClientRequest{Name: "Other"})
	require.NoError(t, err)
	otherInvoice, err := f.svc.Create(otherCtx, domain.CreateInvoiceRequest{
		ClientID: otherClient.ID.String(),
		Items:    lineItems("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherInvoice.InvoiceNumber)
}

func TestCreateInvoice_ProFormaUsesOwnSequence(t *testing.T) {
	f := setup(t)

	f.createInvoice(t, false, "10")
	proForma := f.createInvoice(t, true, "10")

	assert.Equal(t, domain.InvoiceStatusProForma, proForma.Status)
	assert.Equal(t, int64(0), proForma.InvoiceNumber)
	assert.Equal(t, int64(1), proForma.ProFormaNumber)
	assert.Contains(t, proForma.DisplayNumber, "PF-")
}

func TestCreateInvoice_Validation(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{ClientID: f.clientID})
	assert.ErrorIs(t, err, domain.ErrNoLineItems)

	_, err = f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID: "not-a-client",
		Items:    lineItems("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidClient)

	_, err = f.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		ClientID: f.clientID,
		Items:    lineItems("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestCreateInvoice_ClientOwnershipEnforced(t *testing.T) {
	f := setup(t)

	otherCtx := userctx.WithUserID(context.Background(), "user-2")
	_, err := f.svc.Create(otherCtx, domain.CreateInvoiceRequest{
		ClientID: f.clientID,
		Items:    lineItems("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidClient)
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100") // total 121

	resp, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("21"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartiallyPaid, resp.Invoice.Status)
	assert.True(t, resp.Ledger.Pending.Equal(decimal.RequireFromString("100")))
	assert.False(t, resp.Ledger.IsFullyPaid)

	resp, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, resp.Invoice.Status)
	assert.True(t, resp.Ledger.IsFullyPaid)
	assert.True(t, resp.Ledger.Pending.IsZero())
	assert.NotNil(t, resp.Invoice.PaidAt)

	// Persisted snapshot matches the ledger.
	got, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, got.Invoice.Status)
	assert.True(t, got.Invoice.AmountPaid.Equal(decimal.RequireFromString("121")))
	assert.Len(t, got.Invoice.Payments, 2)
}

func TestRecordPayment_Overpayment(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100") // total 121

	resp, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("150"),
	})
	require.NoError(t, err, "overpayment is accepted, not rejected")
	assert.Equal(t, domain.InvoiceStatusPaid, resp.Invoice.Status)
	assert.True(t, resp.Ledger.Overpaid)
	assert.True(t, resp.Ledger.TotalPaid.Equal(decimal.RequireFromString("150")))
	assert.True(t, resp.Ledger.RecognizedPaid.Equal(decimal.RequireFromString("121")))
}

func TestRecordPayment_Rejections(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100")

	_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)

	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("-5"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)

	proForma := f.createInvoice(t, true, "100")
	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: proForma.ID.String(),
		Amount:    decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotPayable)

	_, err = f.svc.Cancel(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceCancelled)
}

func TestCancel_PreservesPaymentHistory(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100")

	_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("30"),
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	got, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Len(t, got.Invoice.Payments, 1, "history survives cancellation")
	assert.True(t, got.Ledger.TotalPaid.Equal(decimal.RequireFromString("30")))
}

func TestCancel_Idempotent(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100")

	_, err := f.svc.Cancel(f.ctx, invoice.ID.String())
	require.NoError(t, err)

	again, err := f.svc.Cancel(f.ctx, invoice.ID.String())
	require.NoError(t, err, "repeat cancel is a warning, not a failure")
	assert.Equal(t, domain.InvoiceStatusCancelled, again.Status)
}

func TestConvertToDefinitive(t *testing.T) {
	f := setup(t)
	f.createInvoice(t, false, "10") // takes definitive seq 1
	proForma := f.createInvoice(t, true, "100")

	converted, err := f.svc.ConvertToDefinitive(f.ctx, proForma.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, converted.Status)
	assert.Equal(t, int64(2), converted.InvoiceNumber)
	assert.Equal(t, "F-0002", converted.DisplayNumber)
	assert.Equal(t, int64(1), converted.ProFormaNumber, "pro-forma number is kept")
	assert.NotNil(t, converted.ConvertedAt)
	assert.True(t, converted.TotalAmount.Equal(proForma.TotalAmount), "totals untouched")

	_, err = f.svc.ConvertToDefinitive(f.ctx, converted.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotProForma)

	// Payments now work.
	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: converted.ID.String(),
		Amount:    decimal.RequireFromString("121"),
	})
	require.NoError(t, err)
}

func TestReplaceItems_RederivesTotalsAndStatus(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100") // total 121

	_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("121"),
	})
	require.NoError(t, err)

	// Doubling the items drops the invoice back to PARTIALLY_PAID.
	updated, err := f.svc.ReplaceItems(f.ctx, domain.ReplaceItemsRequest{
		ID:    invoice.ID.String(),
		Items: lineItems("100", "100"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartiallyPaid, updated.Status)
	assert.True(t, updated.TotalAmount.Equal(decimal.RequireFromString("242")))
	assert.Len(t, updated.Items, 2)

	got, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.True(t, got.Ledger.Pending.Equal(decimal.RequireFromString("121")))
}

func TestReplaceItems_OnCancelledRejected(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100")
	_, err := f.svc.Cancel(f.ctx, invoice.ID.String())
	require.NoError(t, err)

	_, err = f.svc.ReplaceItems(f.ctx, domain.ReplaceItemsRequest{
		ID:    invoice.ID.String(),
		Items: lineItems("50"),
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceCancelled)
}

func TestDelete_BlockedByPayments(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100")

	_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvoiceHasPayments)
}

func TestDelete_RemovesInvoiceAndItems(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "100")

	require.NoError(t, f.svc.Delete(f.ctx, invoice.ID.String()))

	_, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var itemCount int64
	require.NoError(t, f.db.Model(&domain.LineItem{}).Where("invoice_id = ?", invoice.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestList_FiltersAndPagination(t *testing.T) {
	f := setup(t)
	for i := 0; i < 3; i++ {
		f.createInvoice(t, false, "10")
		time.Sleep(2 * time.Millisecond) // distinct created_at for cursor ordering
	}
	cancelled := f.createInvoice(t, false, "10")
	_, err := f.svc.Cancel(f.ctx, cancelled.ID.String())
	require.NoError(t, err)

	status := domain.InvoiceStatusPending
	resp, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{Status: &status})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 3)

	page, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Invoices, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	rest, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, rest.Invoices, 2)
	for _, earlier := range rest.Invoices {
		for _, later := range page.Invoices {
			assert.NotEqual(t, later.ID, earlier.ID)
		}
	}
}

func TestList_ScopedToUser(t *testing.T) {
	f := setup(t)
	f.createInvoice(t, false, "10")

	otherCtx := userctx.WithUserID(context.Background(), "user-2")
	resp, err := f.svc.List(otherCtx, domain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
}

func TestView_AssemblesCompanyAndClient(t *testing.T) {
	f := setup(t)
	invoice := f.createInvoice(t, false, "50", "50")

	view, err := f.svc.View(f.ctx, invoice.ID.String())
	require.NoError(t, err)

	assert.Equal(t, invoice.DisplayNumber, view.Number)
	assert.Equal(t, "Acme S.L.", view.Client.Name)
	assert.Len(t, view.Items, 2)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("121")))
	assert.True(t, view.Pending.Equal(decimal.RequireFromString("121")))
}
