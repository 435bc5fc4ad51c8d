package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/account"
	"github.com/smallbiznis/tapcard/internal/audit"
	"github.com/smallbiznis/tapcard/internal/card"
	"github.com/smallbiznis/tapcard/internal/clock"
	"github.com/smallbiznis/tapcard/internal/config"
	"github.com/smallbiznis/tapcard/internal/customer"
	"github.com/smallbiznis/tapcard/internal/ledger"
	"github.com/smallbiznis/tapcard/internal/migration"
	"github.com/smallbiznis/tapcard/internal/observability/metrics"
	"github.com/smallbiznis/tapcard/internal/payment"
	"github.com/smallbiznis/tapcard/internal/processor/stripe"
	"github.com/smallbiznis/tapcard/internal/scheduler"
	"github.com/smallbiznis/tapcard/internal/server"
	"github.com/smallbiznis/tapcard/internal/terminal"
	"github.com/smallbiznis/tapcard/internal/unclaimed"
	"github.com/smallbiznis/tapcard/pkg/db"
	"github.com/smallbiznis/tapcard/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		// Domains
		account.Module,
		audit.Module,
		ledger.Module,
		card.Module,
		unclaimed.Module,
		customer.Module,
		stripe.Module,
		payment.Module,
		terminal.Module,

		// Surfaces
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
