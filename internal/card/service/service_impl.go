package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	carddomain "github.com/smallbiznis/tapcard/internal/card/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo carddomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo carddomain.Repository
}

func NewService(p Params) carddomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("card.service"),
		repo: p.Repo,
	}
}

func (s *Service) Resolve(ctx context.Context, accountID snowflake.ID, fingerprint string) (*carddomain.Resolution, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if accountID == 0 || fingerprint == "" {
		return nil, carddomain.ErrUnknownCard
	}

	card, err := s.repo.FindByFingerprint(ctx, s.db, accountID, fingerprint)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, carddomain.ErrUnknownCard
	}

	return &carddomain.Resolution{CustomerID: card.CustomerID, Card: card}, nil
}
