package card

import (
	"github.com/smallbiznis/tapcard/internal/card/repository"
	"github.com/smallbiznis/tapcard/internal/card/service"
	"go.uber.org/fx"
)

var Module = fx.Module("card",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
