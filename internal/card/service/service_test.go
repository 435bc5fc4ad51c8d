package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tapcard/internal/card/domain"
	"github.com/smallbiznis/tapcard/internal/card/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_card_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Card{}))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	svc := NewService(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})
	return db, svc, node
}

func TestResolveKnownCard(t *testing.T) {
	db, svc, node := newTestService(t)
	accountID := node.Generate()
	customerID := node.Generate()

	require.NoError(t, db.Create(&domain.Card{
		ID:          node.Generate(),
		AccountID:   accountID,
		Fingerprint: "fp_resolve",
		CustomerID:  customerID,
		Brand:       "visa",
		Last4:       "4242",
		CreatedAt:   time.Now().UTC(),
	}).Error)

	resolution, err := svc.Resolve(context.Background(), accountID, "fp_resolve")
	require.NoError(t, err)
	assert.Equal(t, customerID, resolution.CustomerID)
	require.NotNil(t, resolution.Card)
	assert.Equal(t, "visa", resolution.Card.Brand)
}

func TestResolveUnknownCard(t *testing.T) {
	_, svc, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, node.Generate(), "fp_missing")
	assert.ErrorIs(t, err, domain.ErrUnknownCard)

	_, err = svc.Resolve(ctx, node.Generate(), "  ")
	assert.ErrorIs(t, err, domain.ErrUnknownCard)
}

func TestResolveNeverCreatesRows(t *testing.T) {
	db, svc, node := newTestService(t)

	_, err := svc.Resolve(context.Background(), node.Generate(), "fp_probe")
	assert.ErrorIs(t, err, domain.ErrUnknownCard)

	var count int64
	require.NoError(t, db.Model(&domain.Card{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestResolveScopesByAccount(t *testing.T) {
	db, svc, node := newTestService(t)
	accountA := node.Generate()
	accountB := node.Generate()

	require.NoError(t, db.Create(&domain.Card{
		ID:          node.Generate(),
		AccountID:   accountA,
		Fingerprint: "fp_shared",
		CustomerID:  node.Generate(),
		CreatedAt:   time.Now().UTC(),
	}).Error)

	_, err := svc.Resolve(context.Background(), accountB, "fp_shared")
	assert.ErrorIs(t, err, domain.ErrUnknownCard)
}
