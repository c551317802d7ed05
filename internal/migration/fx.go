package migration

import (
	auditdomain "github.com/teblo/teblo/internal/audit/domain"
	clientdomain "github.com/teblo/teblo/internal/client/domain"
	"github.com/teblo/teblo/internal/config"
	invoicedomain "github.com/teblo/teblo/internal/invoice/domain"
	settingsdomain "github.com/teblo/teblo/internal/settings/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}
		return AutoMigrate(conn)
	}),
)

// AutoMigrate creates the schema through gorm. Used for sqlite and mysql,
// where the embedded postgres migrations do not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&clientdomain.Client{},
		&settingsdomain.Settings{},
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.Payment{},
		&auditdomain.AuditLog{},
	)
}
