package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	auditdomain "github.com/teblo/teblo/internal/audit/domain"
	clientdomain "github.com/teblo/teblo/internal/client/domain"
	"github.com/teblo/teblo/internal/invoice/domain"
	"github.com/teblo/teblo/internal/invoice/format"
	"github.com/teblo/teblo/internal/invoice/repository"
	settingsdomain "github.com/teblo/teblo/internal/settings/domain"
	"github.com/teblo/teblo/internal/userctx"
	"github.com/teblo/teblo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        repository.Repository
	SettingsSvc settingsdomain.Service
	ClientSvc   clientdomain.Service
	AuditSvc    auditdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        repository.Repository
	settingsSvc settingsdomain.Service
	clientSvc   clientdomain.Service
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		settingsSvc: p.SettingsSvc,
		clientSvc:   p.ClientSvc,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return domain.Invoice{}, domain.ErrInvalidClient
	}

	if len(req.Items) == 0 {
		return domain.Invoice{}, domain.ErrNoLineItems
	}

	items := buildItems(s.genID, 0, req.Items)
	totals, err := domain.ComputeTotals(items)
	if err != nil {
		return domain.Invoice{}, err
	}

	settings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}

	var invoice domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.ClientExists(ctx, tx, userID, clientID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrInvalidClient
		}

		now := time.Now().UTC()
		invoice = domain.Invoice{
			ID:             s.genID.Generate(),
			UserID:         userID,
			ClientID:       clientID,
			Status:         domain.InvoiceStatusPending,
			Currency:       settings.Currency,
			SubtotalAmount: totals.Subtotal,
			TaxAmount:      totals.Tax,
			TotalAmount:    totals.Total,
			AmountPaid:     decimal.Zero,
			IssuedAt:       now,
			DueAt:          req.DueAt,
			Notes:          strings.TrimSpace(req.Notes),
			Metadata:       datatypes.JSONMap{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if req.ProForma {
			seq, err := s.repo.NextProFormaSequence(ctx, tx, userID)
			if err != nil {
				return err
			}
			number, err := format.FormatNumber(format.DefaultProFormaNumberTemplate, settings.ProFormaPrefix, now, seq)
			if err != nil {
				return err
			}
			invoice.Status = domain.InvoiceStatusProForma
			invoice.ProFormaNumber = seq
			invoice.DisplayNumber = number
		} else {
			seq, err := s.repo.NextInvoiceSequence(ctx, tx, userID)
			if err != nil {
				return err
			}
			number, err := format.FormatNumber(format.DefaultInvoiceNumberTemplate, settings.InvoicePrefix, now, seq)
			if err != nil {
				return err
			}
			invoice.InvoiceNumber = seq
			invoice.DisplayNumber = number
		}

		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		invoice.Items = items

		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.created", invoice.ID, map[string]any{
		"display_number": invoice.DisplayNumber,
		"status":         string(invoice.Status),
		"total":          invoice.TotalAmount.String(),
		"client_id":      invoice.ClientID.String(),
	})

	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.GetInvoiceResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.GetInvoiceResponse{}, domain.ErrInvalidUser
	}

	invoiceID, err := s.parseID(id)
	if err != nil {
		return domain.GetInvoiceResponse{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, userID, invoiceID)
	if err != nil {
		return domain.GetInvoiceResponse{}, err
	}
	if invoice == nil {
		return domain.GetInvoiceResponse{}, domain.ErrNotFound
	}

	return domain.GetInvoiceResponse{
		Invoice: *invoice,
		Ledger:  domain.BuildLedger(invoice.TotalAmount, invoice.Payments),
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, userID, req, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

// ReplaceItems swaps the invoice's line items wholesale and re-derives
// totals, amount paid, and status against the new total in the same
// transaction, so the persisted snapshot can never mix old and new figures.
func (s *Service) ReplaceItems(ctx context.Context, req domain.ReplaceItemsRequest) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoiceID, err := s.parseID(req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	if len(req.Items) == 0 {
		return domain.Invoice{}, domain.ErrNoLineItems
	}

	items := buildItems(s.genID, invoiceID, req.Items)
	totals, err := domain.ComputeTotals(items)
	if err != nil {
		return domain.Invoice{}, err
	}

	var updated domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		ledger := domain.BuildLedger(totals.Total, invoice.Payments)
		next, _, err := domain.Transition(invoice.Status, ledger, domain.ActionReplaceItems)
		if err != nil {
			return err
		}

		if err := s.repo.ReplaceItems(ctx, tx, invoiceID, items); err != nil {
			return err
		}

		now := time.Now().UTC()
		update := repository.InvoiceUpdate{
			Status:         next,
			AmountPaid:     ledger.TotalPaid,
			SubtotalAmount: &totals.Subtotal,
			TaxAmount:      &totals.Tax,
			TotalAmount:    &totals.Total,
			UpdatedAt:      now,
		}
		if next == domain.InvoiceStatusPaid && invoice.PaidAt == nil {
			update.PaidAt = &now
		}
		if err := s.repo.ApplyInvoiceUpdate(ctx, tx, invoiceID, update); err != nil {
			return err
		}

		updated = *invoice
		updated.Status = next
		updated.SubtotalAmount = totals.Subtotal
		updated.TaxAmount = totals.Tax
		updated.TotalAmount = totals.Total
		updated.AmountPaid = ledger.TotalPaid
		updated.Items = items
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.items_replaced", updated.ID, map[string]any{
		"display_number": updated.DisplayNumber,
		"status":         string(updated.Status),
		"total":          updated.TotalAmount.String(),
		"item_count":     len(items),
	})

	return updated, nil
}

func (s *Service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (domain.RecordPaymentResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.RecordPaymentResponse{}, domain.ErrInvalidUser
	}

	invoiceID, err := s.parseID(req.InvoiceID)
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}

	paymentType := req.Type
	if paymentType == "" {
		paymentType = domain.PaymentTypePartial
	}
	if paymentType != domain.PaymentTypeFull && paymentType != domain.PaymentTypePartial {
		return domain.RecordPaymentResponse{}, domain.ErrInvalidPaymentType
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}

	payment := domain.Payment{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		PaidAt:    paidAt,
		Type:      paymentType,
		Note:      strings.TrimSpace(req.Note),
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	}
	if err := domain.ValidatePayment(payment); err != nil {
		return domain.RecordPaymentResponse{}, err
	}

	var resp domain.RecordPaymentResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		ledger := domain.BuildLedger(invoice.TotalAmount, invoice.Payments).Append(payment)
		next, _, err := domain.Transition(invoice.Status, ledger, domain.ActionRecordPayment)
		if err != nil {
			return err
		}

		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		now := time.Now().UTC()
		update := repository.InvoiceUpdate{
			Status:     next,
			AmountPaid: ledger.TotalPaid,
			UpdatedAt:  now,
		}
		if next == domain.InvoiceStatusPaid && invoice.PaidAt == nil {
			update.PaidAt = &paidAt
		}
		if err := s.repo.ApplyInvoiceUpdate(ctx, tx, invoiceID, update); err != nil {
			return err
		}

		updated := *invoice
		updated.Status = next
		updated.AmountPaid = ledger.TotalPaid
		updated.Payments = append(updated.Payments, payment)
		updated.UpdatedAt = now
		if update.PaidAt != nil {
			updated.PaidAt = update.PaidAt
		}

		resp = domain.RecordPaymentResponse{
			Invoice: updated,
			Ledger:  ledger,
			Payment: payment,
		}
		return nil
	})
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}

	if resp.Ledger.Overpaid {
		// Non-fatal: the append stands, the caller shows a warning.
		s.log.Warn("invoice overpaid",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("total", resp.Ledger.InvoiceTotal.String()),
			zap.String("total_paid", resp.Ledger.TotalPaid.String()),
		)
	}

	s.emitAudit(ctx, "invoice.payment_recorded", invoiceID, map[string]any{
		"payment_id": payment.ID.String(),
		"amount":     payment.Amount.String(),
		"type":       string(payment.Type),
		"status":     string(resp.Invoice.Status),
		"overpaid":   resp.Ledger.Overpaid,
	})

	return resp, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoiceID, err := s.parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	var cancelled domain.Invoice
	var changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		ledger := domain.BuildLedger(invoice.TotalAmount, invoice.Payments)
		next, didChange, err := domain.Transition(invoice.Status, ledger, domain.ActionCancel)
		if err != nil {
			return err
		}
		changed = didChange
		cancelled = *invoice
		if !didChange {
			return nil
		}

		now := time.Now().UTC()
		update := repository.InvoiceUpdate{
			Status:      next,
			AmountPaid:  ledger.TotalPaid,
			CancelledAt: &now,
			UpdatedAt:   now,
		}
		if err := s.repo.ApplyInvoiceUpdate(ctx, tx, invoiceID, update); err != nil {
			return err
		}

		cancelled.Status = next
		cancelled.CancelledAt = &now
		cancelled.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	if !changed {
		s.log.Warn("ignoring unrecognized cancel transition",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("status", string(cancelled.Status)),
		)
		return cancelled, nil
	}

	s.emitAudit(ctx, "invoice.cancelled", invoiceID, map[string]any{
		"display_number": cancelled.DisplayNumber,
	})

	return cancelled, nil
}

// ConvertToDefinitive turns a pro-forma invoice into a definitive PENDING
// one, assigning the next definitive number. Totals are untouched.
func (s *Service) ConvertToDefinitive(ctx context.Context, id string) (domain.Invoice, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidUser
	}

	invoiceID, err := s.parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	settings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}

	var converted domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		ledger := domain.BuildLedger(invoice.TotalAmount, invoice.Payments)
		next, changed, err := domain.Transition(invoice.Status, ledger, domain.ActionConvert)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrInvoiceNotProForma
		}

		now := time.Now().UTC()
		seq, err := s.repo.NextInvoiceSequence(ctx, tx, userID)
		if err != nil {
			return err
		}
		number, err := format.FormatNumber(format.DefaultInvoiceNumberTemplate, settings.InvoicePrefix, now, seq)
		if err != nil {
			return err
		}

		update := repository.InvoiceUpdate{
			Status:        next,
			AmountPaid:    ledger.TotalPaid,
			InvoiceNumber: &seq,
			DisplayNumber: &number,
			ConvertedAt:   &now,
			UpdatedAt:     now,
		}
		if err := s.repo.ApplyInvoiceUpdate(ctx, tx, invoiceID, update); err != nil {
			return err
		}

		converted = *invoice
		converted.Status = next
		converted.InvoiceNumber = seq
		converted.DisplayNumber = number
		converted.ConvertedAt = &now
		converted.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.converted", invoiceID, map[string]any{
		"display_number": converted.DisplayNumber,
	})

	return converted, nil
}

// Delete removes an invoice that has no payments. Invoices with recorded
// payments stay; cancel them instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	invoiceID, err := s.parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		count, err := s.repo.CountPayments(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrInvoiceHasPayments
		}

		return s.repo.Delete(ctx, tx, userID, invoiceID)
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, "invoice.deleted", invoiceID, nil)
	return nil
}

// View assembles the render-ready view model: invoice, ledger, and the
// company/client blocks. Renderers receive finished figures only.
func (s *Service) View(ctx context.Context, id string) (domain.InvoiceView, error) {
	resp, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.InvoiceView{}, err
	}

	settings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		return domain.InvoiceView{}, err
	}

	client, err := s.clientSvc.GetByID(ctx, resp.Invoice.ClientID.String())
	if err != nil {
		return domain.InvoiceView{}, err
	}

	company := domain.CompanyView{
		Name:     settings.CompanyName,
		Address:  settings.Address,
		TaxID:    settings.TaxID,
		Email:    settings.Email,
		Phone:    settings.Phone,
		Footnote: settings.PaymentTerms,
	}
	billed := domain.ClientView{
		Name:    client.Name,
		Address: client.Address,
		TaxID:   client.TaxID,
		Email:   client.Email,
	}

	return domain.BuildView(resp.Invoice, resp.Ledger, company, billed), nil
}

func (s *Service) emitAudit(ctx context.Context, action string, invoiceID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, action, "invoice", invoiceID.String(), metadata)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func buildItems(genID *snowflake.Node, invoiceID snowflake.ID, inputs []domain.LineItemInput) []domain.LineItem {
	now := time.Now().UTC()
	items := make([]domain.LineItem, 0, len(inputs))
	for i, input := range inputs {
		items = append(items, domain.LineItem{
			ID:          genID.Generate(),
			InvoiceID:   invoiceID,
			Position:    i,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			VATRate:     input.VATRate,
			CreatedAt:   now,
		})
	}
	return items
}
