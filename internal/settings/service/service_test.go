package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teblo/teblo/internal/migration"
	"github.com/teblo/teblo/internal/settings/domain"
	settingsrepo "github.com/teblo/teblo/internal/settings/repository"
	"github.com/teblo/teblo/internal/userctx"
	"github.com/teblo/teblo/pkg/db"
	"go.uber.org/zap"
)

func setup(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  settingsrepo.Provide(),
	})

	return svc, userctx.WithUserID(context.Background(), "user-1")
}

func TestGet_CreatesDefaultsOnFirstAccess(t *testing.T) {
	svc, ctx := setup(t)

	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", settings.Currency)
	assert.Equal(t, "F-", settings.InvoicePrefix)
	assert.Equal(t, "PF-", settings.ProFormaPrefix)
	assert.True(t, settings.DefaultVATRate.Equal(decimal.NewFromInt(21)))

	again, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID, "same row on repeat access")
}

func TestGet_RequiresUser(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestUpdate_PartialAndValidated(t *testing.T) {
	svc, ctx := setup(t)

	name := "Teblo Studio"
	currency := "usd"
	updated, err := svc.Update(ctx, domain.UpdateSettingsRequest{
		CompanyName: &name,
		Currency:    &currency,
	})
	require.NoError(t, err)
	assert.Equal(t, "Teblo Studio", updated.CompanyName)
	assert.Equal(t, "USD", updated.Currency, "currency is normalized")
	assert.Equal(t, "F-", updated.InvoicePrefix, "untouched fields keep defaults")

	bad := "euros"
	_, err = svc.Update(ctx, domain.UpdateSettingsRequest{Currency: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(ctx, domain.UpdateSettingsRequest{DefaultVATRate: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidVATRate)
}

func TestSettings_PerUser(t *testing.T) {
	svc, ctx := setup(t)

	name := "First User Co"
	_, err := svc.Update(ctx, domain.UpdateSettingsRequest{CompanyName: &name})
	require.NoError(t, err)

	otherCtx := userctx.WithUserID(context.Background(), "user-2")
	other, err := svc.Get(otherCtx)
	require.NoError(t, err)
	assert.Empty(t, other.CompanyName, "each user gets their own row")
}
