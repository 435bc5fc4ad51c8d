package customer

import (
	"github.com/smallbiznis/tapcard/internal/customer/repository"
	"github.com/smallbiznis/tapcard/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
