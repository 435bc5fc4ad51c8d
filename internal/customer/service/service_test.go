package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/tapcard/internal/account/domain"
	accountrepo "github.com/smallbiznis/tapcard/internal/account/repository"
	carddomain "github.com/smallbiznis/tapcard/internal/card/domain"
	cardrepo "github.com/smallbiznis/tapcard/internal/card/repository"
	"github.com/smallbiznis/tapcard/internal/customer/domain"
	"github.com/smallbiznis/tapcard/internal/customer/repository"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/tapcard/internal/ledger/service"
	unclaimeddomain "github.com/smallbiznis/tapcard/internal/unclaimed/domain"
	unclaimedrepo "github.com/smallbiznis/tapcard/internal/unclaimed/repository"
	unclaimedservice "github.com/smallbiznis/tapcard/internal/unclaimed/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_customer_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&domain.Customer{},
		&carddomain.Card{},
		&ledgerdomain.Transaction{},
		&unclaimeddomain.UnclaimedTransaction{},
	))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	logger := zap.NewNop()

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{Log: logger, GenID: node})
	unclaimedSvc := unclaimedservice.NewService(unclaimedservice.Params{
		DB: db, Log: logger, GenID: node, LedgerSvc: ledgerSvc, Repo: unclaimedrepo.Provide(),
	})
	svc := NewService(Params{
		DB:           db,
		Log:          logger,
		GenID:        node,
		Repo:         repository.Provide(),
		AccountRepo:  accountrepo.Provide(),
		CardRepo:     cardrepo.Provide(),
		LedgerSvc:    ledgerSvc,
		UnclaimedSvc: unclaimedSvc,
	})
	return db, svc, node
}

func seedAccount(t *testing.T, db *gorm.DB, node *snowflake.Node, welcome int64) *accountdomain.Account {
	t.Helper()
	account := &accountdomain.Account{
		ID:                   node.Generate(),
		Name:                 "Corner Cafe",
		LoyaltySystemType:    accountdomain.LoyaltySystemPoints,
		PointsRateHundredths: 100,
		WelcomeIncentive:     welcome,
		Currency:             "USD",
		CreatedAt:            time.Now().UTC(),
		UpdatedAt:            time.Now().UTC(),
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestRegisterClaimsHistoryAndGrantsWelcomeIncentive(t *testing.T) {
	db, svc, node := newTestService(t)
	account := seedAccount(t, db, node, 500)
	ctx := context.Background()

	for _, points := range []int64{30, 70} {
		require.NoError(t, db.Create(&unclaimeddomain.UnclaimedTransaction{
			ID:              node.Generate(),
			AccountID:       account.ID,
			CardFingerprint: "fp_register",
			PaymentID:       node.Generate(),
			Points:          points,
			CreatedAt:       time.Now().UTC(),
		}).Error)
	}

	result, err := svc.Register(ctx, domain.RegisterRequest{
		AccountID:   account.ID,
		Name:        "Dana",
		Email:       "Dana@Example.com",
		Fingerprint: "fp_register",
		Brand:       "visa",
		Last4:       "4242",
	})
	require.NoError(t, err)

	assert.Equal(t, "dana@example.com", result.Customer.Email)
	assert.Equal(t, int64(100), result.Claimed.Points)
	assert.Equal(t, int64(600), result.Customer.PointsBalance)

	var card carddomain.Card
	require.NoError(t, db.First(&card, "fingerprint = ?", "fp_register").Error)
	assert.Equal(t, result.Customer.ID, card.CustomerID)

	var types []string
	require.NoError(t, db.Model(&ledgerdomain.Transaction{}).
		Order("id asc").Pluck("type", &types).Error)
	assert.Equal(t, []string{"welcome_bonus", "welcome_bonus"}, types)
}

func TestRegisterWithNoHistory(t *testing.T) {
	db, svc, node := newTestService(t)
	account := seedAccount(t, db, node, 0)

	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		AccountID:   account.ID,
		Name:        "Robin",
		Email:       "robin@example.com",
		Fingerprint: "fp_fresh",
	})
	require.NoError(t, err)
	assert.True(t, result.Claimed.IsZero())
	assert.Equal(t, int64(0), result.Customer.PointsBalance)

	var count int64
	require.NoError(t, db.Model(&ledgerdomain.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRegisterValidation(t *testing.T) {
	db, svc, node := newTestService(t)
	account := seedAccount(t, db, node, 0)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{
		AccountID: account.ID, Name: " ", Email: "a@b.c", Fingerprint: "fp",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Register(ctx, domain.RegisterRequest{
		AccountID: account.ID, Name: "Kim", Email: "not-an-email", Fingerprint: "fp",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, domain.RegisterRequest{
		AccountID: account.ID, Name: "Kim", Email: "kim@example.com", Fingerprint: "",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFingerprint)

	_, err = svc.Register(ctx, domain.RegisterRequest{
		AccountID: node.Generate(), Name: "Kim", Email: "kim@example.com", Fingerprint: "fp",
	})
	assert.ErrorIs(t, err, accountdomain.ErrNotFound)
}

func TestGet(t *testing.T) {
	db, svc, node := newTestService(t)
	account := seedAccount(t, db, node, 0)
	ctx := context.Background()

	result, err := svc.Register(ctx, domain.RegisterRequest{
		AccountID: account.ID, Name: "Alex", Email: "alex@example.com", Fingerprint: "fp_get",
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, account.ID, result.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Customer.ID, got.ID)

	_, err = svc.Get(ctx, account.ID, node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
