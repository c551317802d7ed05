package settings

import (
	"github.com/teblo/teblo/internal/settings/repository"
	"github.com/teblo/teblo/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
