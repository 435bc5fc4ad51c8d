package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/clock"
	terminaldomain "github.com/smallbiznis/tapcard/internal/terminal/domain"
	"github.com/smallbiznis/tapcard/internal/terminalctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTerminalSvc struct {
	cleanups int
	err      error
}

func (s *stubTerminalSvc) GeneratePairingCode(context.Context, snowflake.ID, string) (*terminaldomain.Terminal, error) {
	return nil, nil
}
func (s *stubTerminalSvc) Pair(context.Context, string, string, string) (*terminaldomain.PairResult, error) {
	return nil, nil
}
func (s *stubTerminalSvc) ValidateAPIKey(context.Context, string) (terminalctx.Identity, error) {
	return terminalctx.Identity{}, nil
}
func (s *stubTerminalSvc) Revoke(context.Context, snowflake.ID, snowflake.ID) error { return nil }
func (s *stubTerminalSvc) UpdateLastSeen(snowflake.ID)                              {}
func (s *stubTerminalSvc) CleanupExpiredPairingCodes(ctx context.Context) (int64, error) {
	s.cleanups++
	return 0, s.err
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop(), Clock: clock.NewFakeClock(time.Now())})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Params{
		Log:         zap.NewNop(),
		Clock:       clock.NewFakeClock(time.Now()),
		TerminalSvc: &stubTerminalSvc{},
	})
	assert.NoError(t, err)
}

func TestRunOnceSweepsPairingCodes(t *testing.T) {
	stub := &stubTerminalSvc{}
	s, err := New(Params{
		Log:         zap.NewNop(),
		Clock:       clock.NewFakeClock(time.Now()),
		TerminalSvc: stub,
	})
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, stub.cleanups)
}

func TestRunOncePropagatesSweepError(t *testing.T) {
	sweepErr := errors.New("database unavailable")
	stub := &stubTerminalSvc{err: sweepErr}
	s, err := New(Params{
		Log:         zap.NewNop(),
		Clock:       clock.NewFakeClock(time.Now()),
		TerminalSvc: stub,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.RunOnce(context.Background()), sweepErr)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Greater(t, cfg.RunInterval, time.Duration(0))
	assert.Greater(t, cfg.SweepTimeout, time.Duration(0))

	custom := Config{RunInterval: time.Minute, SweepTimeout: 5 * time.Second}.withDefaults()
	assert.Equal(t, time.Minute, custom.RunInterval)
	assert.Equal(t, 5*time.Second, custom.SweepTimeout)
}
