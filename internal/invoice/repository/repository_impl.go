package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/teblo/teblo/internal/invoice/domain"
	"github.com/teblo/teblo/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the invoice persistence boundary. Mutating methods expect
// the transaction started by the service; the service holds the invoice
// row lock for the whole recompute-decide-persist cycle.
type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Invoice, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, userID string, id snowflake.ID) (*domain.Invoice, error)
	List(ctx context.Context, db *gorm.DB, userID string, filter domain.ListInvoiceRequest, page pagination.Pagination) ([]*domain.Invoice, error)

	ReplaceItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, items []domain.LineItem) error
	InsertPayment(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error
	CountPayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (int64, error)

	ApplyInvoiceUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID, update InvoiceUpdate) error
	Delete(ctx context.Context, tx *gorm.DB, userID string, id snowflake.ID) error

	NextInvoiceSequence(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	NextProFormaSequence(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	ClientExists(ctx context.Context, db *gorm.DB, userID string, clientID snowflake.ID) (bool, error)
}

// InvoiceUpdate bundles every field a lifecycle transition may touch so the
// write is one UPDATE, never three. Nil pointers leave columns untouched.
type InvoiceUpdate struct {
	Status         domain.InvoiceStatus
	AmountPaid     decimal.Decimal
	SubtotalAmount *decimal.Decimal
	TaxAmount      *decimal.Decimal
	TotalAmount    *decimal.Decimal
	InvoiceNumber  *int64
	DisplayNumber  *string
	PaidAt         *time.Time
	CancelledAt    *time.Time
	ConvertedAt    *time.Time
	UpdatedAt      time.Time
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at asc, id asc")
		}).
		Where("user_id = ? AND id = ?", userID, id).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindForUpdate(ctx context.Context, tx *gorm.DB, userID string, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	stmt := tx.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id)
	stmt = withRowLock(stmt)
	err := stmt.First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	if err := tx.WithContext(ctx).
		Where("invoice_id = ?", id).
		Order("position asc").
		Find(&invoice.Items).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).
		Where("invoice_id = ?", id).
		Order("paid_at asc, id asc").
		Find(&invoice.Payments).Error; err != nil {
		return nil, err
	}

	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID string, filter domain.ListInvoiceRequest, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("user_id = ?", userID)
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != "" {
		clientID, err := snowflake.ParseString(filter.ClientID)
		if err != nil {
			return nil, domain.ErrInvalidClient
		}
		stmt = stmt.Where("client_id = ?", clientID)
	}
	if filter.IssuedFrom != nil {
		stmt = stmt.Where("issued_at >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		stmt = stmt.Where("issued_at <= ?", *filter.IssuedTo)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeTypedCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// ReplaceItems implements the wholesale item swap: delete everything, then
// recreate in the given order.
func (r *repo) ReplaceItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, items []domain.LineItem) error {
	if err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&domain.LineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *repo) InsertPayment(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *repo) CountPayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count, err
}

func (r *repo) ApplyInvoiceUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID, update InvoiceUpdate) error {
	fields := map[string]any{
		"status":      update.Status,
		"amount_paid": update.AmountPaid,
		"updated_at":  update.UpdatedAt,
	}
	if update.SubtotalAmount != nil {
		fields["subtotal_amount"] = *update.SubtotalAmount
	}
	if update.TaxAmount != nil {
		fields["tax_amount"] = *update.TaxAmount
	}
	if update.TotalAmount != nil {
		fields["total_amount"] = *update.TotalAmount
	}
	if update.InvoiceNumber != nil {
		fields["invoice_number"] = *update.InvoiceNumber
	}
	if update.DisplayNumber != nil {
		fields["display_number"] = *update.DisplayNumber
	}
	if update.PaidAt != nil {
		fields["paid_at"] = *update.PaidAt
	}
	if update.CancelledAt != nil {
		fields["cancelled_at"] = *update.CancelledAt
	}
	if update.ConvertedAt != nil {
		fields["converted_at"] = *update.ConvertedAt
	}

	return tx.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, tx *gorm.DB, userID string, id snowflake.ID) error {
	if err := tx.WithContext(ctx).
		Where("invoice_id = ?", id).
		Delete(&domain.LineItem{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).
		Where("invoice_id = ?", id).
		Delete(&domain.Payment{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&domain.Invoice{}).Error
}

func (r *repo) NextInvoiceSequence(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(invoice_number), 0) + 1
		 FROM invoices
		 WHERE user_id = ?`,
		userID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) NextProFormaSequence(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(pro_forma_number), 0) + 1
		 FROM invoices
		 WHERE user_id = ?`,
		userID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) ClientExists(ctx context.Context, db *gorm.DB, userID string, clientID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("clients").
		Where("user_id = ? AND id = ?", userID, clientID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// withRowLock takes a FOR UPDATE lock where the dialect supports it.
// sqlite serializes writers on its own.
func withRowLock(stmt *gorm.DB) *gorm.DB {
	switch stmt.Dialector.Name() {
	case "postgres", "mysql":
		return stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return stmt
	}
}
