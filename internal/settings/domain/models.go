package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Settings is the per-user company profile. One row per user; created with
// defaults on first read so the invoice service can always rely on it.
type Settings struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID         string          `gorm:"not null;uniqueIndex" json:"-"`
	CompanyName    string          `gorm:"type:text" json:"company_name"`
	Address        string          `gorm:"type:text" json:"address,omitempty"`
	TaxID          string          `gorm:"type:text" json:"tax_id,omitempty"`
	Email          string          `gorm:"type:text" json:"email,omitempty"`
	Phone          string          `gorm:"type:text" json:"phone,omitempty"`
	Currency       string          `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	InvoicePrefix  string          `gorm:"type:text;not null;default:'F-'" json:"invoice_prefix"`
	ProFormaPrefix string          `gorm:"type:text;not null;default:'PF-'" json:"pro_forma_prefix"`
	DefaultVATRate decimal.Decimal `gorm:"type:numeric(9,4);not null" json:"default_vat_rate"`
	PaymentTerms   string          `gorm:"type:text" json:"payment_terms,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Settings) TableName() string { return "settings" }
