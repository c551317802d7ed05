package client

import (
	"github.com/teblo/teblo/internal/client/repository"
	"github.com/teblo/teblo/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
