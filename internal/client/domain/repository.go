package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/teblo/teblo/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListClientFilter struct {
	Name  string
	Email string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, userID string, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
	Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) error
	CountInvoices(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (int64, error)
}
