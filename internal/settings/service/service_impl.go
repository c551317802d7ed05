package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/teblo/teblo/internal/settings/domain"
	"github.com/teblo/teblo/internal/settings/repository"
	"github.com/teblo/teblo/internal/userctx"
	"github.com/teblo/teblo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Get returns the user's settings, creating a default row on first access.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok {
		return domain.Settings{}, domain.ErrInvalidUser
	}

	settings, err := s.repo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	if settings != nil {
		return *settings, nil
	}

	created := s.defaults(userID)
	if err := s.repo.Insert(ctx, s.db, &created); err != nil {
		// A concurrent first request may have inserted the row already.
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByUser(ctx, s.db, userID)
			if findErr == nil && existing != nil {
				return *existing, nil
			}
		}
		return domain.Settings{}, err
	}

	return created, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (domain.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	if req.CompanyName != nil {
		settings.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Address != nil {
		settings.Address = strings.TrimSpace(*req.Address)
	}
	if req.TaxID != nil {
		settings.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.Email != nil {
		settings.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		settings.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return domain.Settings{}, domain.ErrInvalidCurrency
		}
		settings.Currency = currency
	}
	if req.InvoicePrefix != nil {
		settings.InvoicePrefix = strings.TrimSpace(*req.InvoicePrefix)
	}
	if req.ProFormaPrefix != nil {
		settings.ProFormaPrefix = strings.TrimSpace(*req.ProFormaPrefix)
	}
	if req.DefaultVATRate != nil {
		if req.DefaultVATRate.IsNegative() {
			return domain.Settings{}, domain.ErrInvalidVATRate
		}
		settings.DefaultVATRate = *req.DefaultVATRate
	}
	if req.PaymentTerms != nil {
		settings.PaymentTerms = strings.TrimSpace(*req.PaymentTerms)
	}
	settings.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, s.db, &settings); err != nil {
		return domain.Settings{}, err
	}

	return settings, nil
}

func (s *Service) defaults(userID string) domain.Settings {
	now := time.Now().UTC()
	return domain.Settings{
		ID:             s.genID.Generate(),
		UserID:         userID,
		Currency:       "EUR",
		InvoicePrefix:  "F-",
		ProFormaPrefix: "PF-",
		DefaultVATRate: decimal.NewFromInt(21),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
