// Package scheduler runs the periodic maintenance sweeps, currently just the
// expired pairing-code cleanup.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/tapcard/internal/clock"
	terminaldomain "github.com/smallbiznis/tapcard/internal/terminal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	TerminalSvc terminaldomain.Service
	Config      Config `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	terminalSvc terminaldomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.TerminalSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler"),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		terminalSvc: p.TerminalSvc,
	}, nil
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SweepTimeout)
	defer cancel()

	if _, err := s.terminalSvc.CleanupExpiredPairingCodes(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
