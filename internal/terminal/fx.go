package terminal

import (
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tapcard/internal/config"
	"github.com/smallbiznis/tapcard/internal/terminal/cache"
	"github.com/smallbiznis/tapcard/internal/terminal/repository"
	"github.com/smallbiznis/tapcard/internal/terminal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("terminal",
	fx.Provide(
		repository.Provide,
		ProvideCache,
		service.NewService,
	),
)

// ProvideCache picks redis when an address is configured, otherwise the
// in-process cache. Redis makes revocation visible across instances within
// one TTL.
func ProvideCache(cfg config.Config, log *zap.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		log.Named("terminal.cache").Info("redis not configured, using in-process api key cache")
		return cache.NewMemory()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return cache.NewRedis(client)
}
