// Package seed bootstraps demo data for local development. It only runs
// when authentication is disabled, so the seeded rows belong to the dev user.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/teblo/teblo/internal/client/domain"
	"github.com/teblo/teblo/internal/config"
	settingsdomain "github.com/teblo/teblo/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const devUserID = "dev"

var Module = fx.Invoke(Run)

type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

// Run seeds the dev user's company profile and a sample client. Production
// and token-authenticated setups are left untouched.
func Run(p Params) error {
	if !p.Cfg.AuthDisabled || p.Cfg.IsProduction() {
		return nil
	}

	ctx := context.Background()
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSettings(ctx, tx, p.GenID); err != nil {
			return err
		}
		if err := ensureDemoClient(ctx, tx, p.GenID); err != nil {
			return err
		}
		p.Log.Named("seed").Info("dev demo data ready", zap.String("user_id", devUserID))
		return nil
	})
}

func ensureSettings(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var existing settingsdomain.Settings
	err := tx.WithContext(ctx).Where("user_id = ?", devUserID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	settings := settingsdomain.Settings{
		ID:             node.Generate(),
		UserID:         devUserID,
		CompanyName:    "Demo Studio",
		Address:        "1 Example Street",
		Email:          "hello@demo.test",
		Currency:       "EUR",
		InvoicePrefix:  "F-",
		ProFormaPrefix: "PF-",
		DefaultVATRate: decimal.NewFromInt(21),
		PaymentTerms:   "Payable within 30 days.",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return tx.WithContext(ctx).Create(&settings).Error
}

func ensureDemoClient(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&clientdomain.Client{}).
		Where("user_id = ?", devUserID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	client := clientdomain.Client{
		ID:        node.Generate(),
		UserID:    devUserID,
		Name:      "Acme Consulting",
		Email:     "billing@acme.test",
		Address:   "42 Client Road",
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&client).Error
}
