package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/tapcard/internal/audit/domain"
	auditservice "github.com/smallbiznis/tapcard/internal/audit/service"
	"github.com/smallbiznis/tapcard/internal/clock"
	"github.com/smallbiznis/tapcard/internal/config"
	"github.com/smallbiznis/tapcard/internal/observability/metrics"
	"github.com/smallbiznis/tapcard/internal/terminal/cache"
	"github.com/smallbiznis/tapcard/internal/terminal/domain"
	"github.com/smallbiznis/tapcard/internal/terminal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_terminal_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Terminal{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)
	logger := zap.NewNop()

	m, err := metrics.New()
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   logger,
		GenID: node,
		Cfg: config.Config{
			PairingCodeTTL: 10 * time.Minute,
			APIKeyCacheTTL: 30 * time.Second,
		},
		Clock:   fake,
		Repo:    repository.Provide(),
		Cache:   cache.NewMemory(),
		Audit:   auditservice.NewService(auditservice.Params{DB: db, Log: logger, GenID: node}),
		Metrics: m,
	})
	return &fixture{db: db, svc: svc, clock: fake, node: node}
}

func TestGenerateAndPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()

	terminal, err := f.svc.GeneratePairingCode(ctx, accountID, "Front Counter")
	require.NoError(t, err)
	require.NotNil(t, terminal.PairingCode)
	assert.Len(t, *terminal.PairingCode, 6)
	require.NotNil(t, terminal.PairingExpiresAt)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), terminal.PairingExpiresAt.UTC())

	result, err := f.svc.Pair(ctx, *terminal.PairingCode, "Model X", "dev-001")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.APIKey, domain.APIKeyPrefix))
	require.NotNil(t, result.Terminal.PairedAt)

	var stored domain.Terminal
	require.NoError(t, f.db.First(&stored, "id = ?", terminal.ID).Error)
	require.NotNil(t, stored.APIKeyHash)
	assert.Equal(t, domain.HashAPIKey(result.APIKey), *stored.APIKeyHash)
	assert.Equal(t, "Model X", stored.DeviceModel)
	assert.NotContains(t, result.APIKey, *stored.APIKeyHash)
}

func TestPairRejectsReplayedAndUnknownCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	terminal, err := f.svc.GeneratePairingCode(ctx, f.node.Generate(), "Bar")
	require.NoError(t, err)
	code := *terminal.PairingCode

	_, err = f.svc.Pair(ctx, code, "Model X", "dev-1")
	require.NoError(t, err)

	_, err = f.svc.Pair(ctx, code, "Model Y", "dev-2")
	assert.ErrorIs(t, err, domain.ErrPairingAlreadyUsed)

	_, err = f.svc.Pair(ctx, "ZZZZZZ", "Model Y", "dev-2")
	assert.ErrorIs(t, err, domain.ErrPairingNotFound)
}

func TestPairRejectsExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	terminal, err := f.svc.GeneratePairingCode(ctx, f.node.Generate(), "Patio")
	require.NoError(t, err)

	f.clock.Advance(10*time.Minute + time.Second)

	_, err = f.svc.Pair(ctx, *terminal.PairingCode, "Model X", "dev-3")
	assert.ErrorIs(t, err, domain.ErrPairingExpired)
}

func TestValidateAPIKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()

	terminal, err := f.svc.GeneratePairingCode(ctx, accountID, "Register 2")
	require.NoError(t, err)
	result, err := f.svc.Pair(ctx, *terminal.PairingCode, "Model X", "dev-4")
	require.NoError(t, err)

	identity, err := f.svc.ValidateAPIKey(ctx, result.APIKey)
	require.NoError(t, err)
	assert.Equal(t, accountID, identity.AccountID)
	assert.Equal(t, terminal.ID, identity.TerminalID)
	assert.Equal(t, "Register 2", identity.Label)

	// Second validation is served from the cache.
	cached, err := f.svc.ValidateAPIKey(ctx, result.APIKey)
	require.NoError(t, err)
	assert.Equal(t, identity, cached)

	_, err = f.svc.ValidateAPIKey(ctx, "not-a-key")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	_, err = f.svc.ValidateAPIKey(ctx, domain.APIKeyPrefix+"deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestRevokeInvalidatesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()

	terminal, err := f.svc.GeneratePairingCode(ctx, accountID, "Kiosk")
	require.NoError(t, err)
	result, err := f.svc.Pair(ctx, *terminal.PairingCode, "Model X", "dev-5")
	require.NoError(t, err)

	_, err = f.svc.ValidateAPIKey(ctx, result.APIKey)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, accountID, terminal.ID))

	_, err = f.svc.ValidateAPIKey(ctx, result.APIKey)
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	err = f.svc.Revoke(ctx, accountID, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateLastSeen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	terminal, err := f.svc.GeneratePairingCode(ctx, f.node.Generate(), "Drive Thru")
	require.NoError(t, err)
	_, err = f.svc.Pair(ctx, *terminal.PairingCode, "Model X", "dev-6")
	require.NoError(t, err)

	f.svc.UpdateLastSeen(terminal.ID)

	assert.Eventually(t, func() bool {
		var stored domain.Terminal
		if err := f.db.First(&stored, "id = ?", terminal.ID).Error; err != nil {
			return false
		}
		return stored.LastSeenAt != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCleanupExpiredPairingCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()

	expired, err := f.svc.GeneratePairingCode(ctx, accountID, "Old Kiosk")
	require.NoError(t, err)

	paired, err := f.svc.GeneratePairingCode(ctx, accountID, "Live Kiosk")
	require.NoError(t, err)
	_, err = f.svc.Pair(ctx, *paired.PairingCode, "Model X", "dev-7")
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)

	live, err := f.svc.GeneratePairingCode(ctx, accountID, "Fresh Kiosk")
	require.NoError(t, err)

	cleared, err := f.svc.CleanupExpiredPairingCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	var expiredRow domain.Terminal
	require.NoError(t, f.db.First(&expiredRow, "id = ?", expired.ID).Error)
	assert.Nil(t, expiredRow.PairingCode)

	var liveRow domain.Terminal
	require.NoError(t, f.db.First(&liveRow, "id = ?", live.ID).Error)
	assert.NotNil(t, liveRow.PairingCode)

	// Paired terminals keep their code for replay detection.
	var pairedRow domain.Terminal
	require.NoError(t, f.db.First(&pairedRow, "id = ?", paired.ID).Error)
	assert.NotNil(t, pairedRow.PairingCode)
}
