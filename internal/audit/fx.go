package audit

import (
	"github.com/teblo/teblo/internal/audit/repository"
	"github.com/teblo/teblo/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
