package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/tapcard/internal/audit/domain"
	"github.com/smallbiznis/tapcard/internal/clock"
	"github.com/smallbiznis/tapcard/internal/config"
	"github.com/smallbiznis/tapcard/internal/observability/metrics"
	"github.com/smallbiznis/tapcard/internal/terminal/cache"
	"github.com/smallbiznis/tapcard/internal/terminal/domain"
	"github.com/smallbiznis/tapcard/internal/terminalctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// codeAlphabet omits 0/O/1/I so codes survive being read out loud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config
	Clock   clock.Clock
	Repo    domain.Repository
	Cache   cache.Cache
	Audit   auditdomain.Service
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	cfg     config.Config
	clock   clock.Clock
	repo    domain.Repository
	cache   cache.Cache
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("terminal.service"),
		genID:   p.GenID,
		cfg:     p.Cfg,
		clock:   p.Clock,
		repo:    p.Repo,
		cache:   p.Cache,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) GeneratePairingCode(ctx context.Context, accountID snowflake.ID, label string) (*domain.Terminal, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, domain.ErrInvalidLabel
	}

	now := s.clock.Now()
	code, err := s.uniqueCode(ctx, now)
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(s.cfg.PairingCodeTTL)

	terminal := &domain.Terminal{
		ID:               s.genID.Generate(),
		AccountID:        accountID,
		Label:            label,
		PairingCode:      &code,
		PairingExpiresAt: &expiresAt,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, terminal); err != nil {
		return nil, err
	}

	s.log.Info("pairing code generated",
		zap.String("account_id", accountID.String()),
		zap.String("terminal_id", terminal.ID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return terminal, nil
}

func (s *Service) Pair(ctx context.Context, code, deviceModel, deviceID string) (*domain.PairResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		s.metrics.Pairings.WithLabelValues("not_found").Inc()
		return nil, domain.ErrPairingNotFound
	}

	terminal, err := s.repo.FindByPairingCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if terminal == nil {
		s.metrics.Pairings.WithLabelValues("not_found").Inc()
		return nil, domain.ErrPairingNotFound
	}
	if terminal.APIKeyHash != nil {
		s.metrics.Pairings.WithLabelValues("already_used").Inc()
		return nil, domain.ErrPairingAlreadyUsed
	}
	if terminal.PairingExpiresAt == nil || !s.clock.Now().Before(*terminal.PairingExpiresAt) {
		s.metrics.Pairings.WithLabelValues("expired").Inc()
		return nil, domain.ErrPairingExpired
	}

	rawKey, err := mintAPIKey()
	if err != nil {
		return nil, err
	}
	keyHash := domain.HashAPIKey(rawKey)
	pairedAt := s.clock.Now()

	rows, err := s.repo.CompletePairing(ctx, s.db, code, keyHash, strings.TrimSpace(deviceModel), strings.TrimSpace(deviceID), pairedAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if !s.clock.Now().Before(*terminal.PairingExpiresAt) {
			s.metrics.Pairings.WithLabelValues("expired").Inc()
			return nil, domain.ErrPairingExpired
		}
		s.metrics.Pairings.WithLabelValues("already_used").Inc()
		return nil, domain.ErrPairingAlreadyUsed
	}

	terminal.APIKeyHash = &keyHash
	terminal.DeviceModel = strings.TrimSpace(deviceModel)
	terminal.DeviceID = strings.TrimSpace(deviceID)
	terminal.PairedAt = &pairedAt

	s.metrics.Pairings.WithLabelValues("paired").Inc()
	s.log.Info("terminal paired",
		zap.String("account_id", terminal.AccountID.String()),
		zap.String("terminal_id", terminal.ID.String()),
	)

	target := terminal.ID.String()
	if err := s.audit.AuditLog(ctx, &terminal.AccountID, auditdomain.ActionTerminalPaired, "terminal", &target, map[string]any{
		"label":        terminal.Label,
		"device_model": terminal.DeviceModel,
	}); err != nil {
		s.log.Warn("audit write failed for pairing", zap.Error(err))
	}

	return &domain.PairResult{Terminal: terminal, APIKey: rawKey}, nil
}

func (s *Service) ValidateAPIKey(ctx context.Context, rawKey string) (terminalctx.Identity, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" || !strings.HasPrefix(rawKey, domain.APIKeyPrefix) {
		return terminalctx.Identity{}, domain.ErrInvalidAPIKey
	}
	keyHash := domain.HashAPIKey(rawKey)

	if entry, ok, err := s.cache.Get(ctx, keyHash); err != nil {
		s.log.Warn("api key cache read failed", zap.Error(err))
	} else if ok {
		return terminalctx.Identity{
			AccountID:  entry.AccountID,
			TerminalID: entry.TerminalID,
			Label:      entry.Label,
		}, nil
	}

	terminal, err := s.repo.FindActiveByKeyHash(ctx, s.db, keyHash)
	if err != nil {
		return terminalctx.Identity{}, err
	}
	if terminal == nil || terminal.APIKeyHash == nil {
		return terminalctx.Identity{}, domain.ErrInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(*terminal.APIKeyHash), []byte(keyHash)) != 1 {
		return terminalctx.Identity{}, domain.ErrInvalidAPIKey
	}

	if err := s.cache.Set(ctx, keyHash, cache.Entry{
		TerminalID: terminal.ID,
		AccountID:  terminal.AccountID,
		Label:      terminal.Label,
	}, s.cfg.APIKeyCacheTTL); err != nil {
		s.log.Warn("api key cache write failed", zap.Error(err))
	}

	return terminalctx.Identity{
		AccountID:  terminal.AccountID,
		TerminalID: terminal.ID,
		Label:      terminal.Label,
	}, nil
}

func (s *Service) Revoke(ctx context.Context, accountID, terminalID snowflake.ID) error {
	terminal, err := s.repo.FindByID(ctx, s.db, accountID, terminalID)
	if err != nil {
		return err
	}
	if terminal == nil {
		return domain.ErrNotFound
	}

	rows, err := s.repo.Deactivate(ctx, s.db, accountID, terminalID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	if terminal.APIKeyHash != nil {
		if err := s.cache.Delete(ctx, *terminal.APIKeyHash); err != nil {
			s.log.Warn("api key cache invalidation failed",
				zap.String("terminal_id", terminalID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("terminal revoked",
		zap.String("account_id", accountID.String()),
		zap.String("terminal_id", terminalID.String()),
	)

	target := terminalID.String()
	if err := s.audit.AuditLog(ctx, &accountID, auditdomain.ActionTerminalRevoked, "terminal", &target, map[string]any{
		"label": terminal.Label,
	}); err != nil {
		s.log.Warn("audit write failed for revocation", zap.Error(err))
	}
	return nil
}

func (s *Service) UpdateLastSeen(terminalID snowflake.ID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.TouchLastSeen(ctx, s.db, terminalID, s.clock.Now()); err != nil {
			s.log.Warn("last seen update failed",
				zap.String("terminal_id", terminalID.String()),
				zap.Error(err),
			)
		}
	}()
}

func (s *Service) CleanupExpiredPairingCodes(ctx context.Context) (int64, error) {
	cleared, err := s.repo.ClearExpiredCodes(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		s.log.Info("expired pairing codes cleared", zap.Int64("count", cleared))
	}
	return cleared, nil
}

// uniqueCode retries generation until the code collides with no live
// unpaired row. Collisions are rare at 32^6 but codes are short-lived and
// user-visible, so they must be unambiguous.
func (s *Service) uniqueCode(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		inUse, err := s.repo.CodeInUse(ctx, s.db, code, now)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", fmt.Errorf("pairing code space exhausted after retries")
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}

func mintAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return domain.APIKeyPrefix + hex.EncodeToString(buf), nil
}
