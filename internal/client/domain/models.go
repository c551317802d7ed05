package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Client is a billable party owned by one user.
type Client struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"not null;index" json:"-"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"type:text" json:"email,omitempty"`
	Address   string            `gorm:"type:text" json:"address,omitempty"`
	TaxID     string            `gorm:"type:text" json:"tax_id,omitempty"`
	Phone     string            `gorm:"type:text" json:"phone,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
