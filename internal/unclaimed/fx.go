package unclaimed

import (
	"github.com/smallbiznis/tapcard/internal/unclaimed/repository"
	"github.com/smallbiznis/tapcard/internal/unclaimed/service"
	"go.uber.org/fx"
)

var Module = fx.Module("unclaimed",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
