package stripe

import (
	"github.com/smallbiznis/tapcard/internal/config"
	"github.com/smallbiznis/tapcard/internal/processor"
	"go.uber.org/fx"
)

var Module = fx.Module("processor.stripe",
	fx.Provide(ProvideClient),
)

func ProvideClient(cfg config.Config) processor.Client {
	return NewClient(Config{
		SecretKey: cfg.StripeSecretKey,
		BaseURL:   cfg.StripeBaseURL,
		Timeout:   cfg.StripeTimeout,
	})
}
