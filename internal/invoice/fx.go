package invoice

import (
	"github.com/teblo/teblo/internal/invoice/repository"
	"github.com/teblo/teblo/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
