package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	customerdomain "github.com/smallbiznis/tapcard/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/tapcard/internal/ledger/service"
	"github.com/smallbiznis/tapcard/internal/unclaimed/domain"
	"github.com/smallbiznis/tapcard/internal/unclaimed/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_unclaimed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&ledgerdomain.Transaction{},
		&domain.UnclaimedTransaction{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	logger := zap.NewNop()

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{Log: logger, GenID: node})
	svc := NewService(Params{
		DB: db, Log: logger, GenID: node, LedgerSvc: ledgerSvc, Repo: repository.Provide(),
	})
	return db, svc, node
}

func TestAccrueAndTotalUnclaimed(t *testing.T) {
	db, svc, node := newTestService(t)
	accountID := node.Generate()
	ctx := context.Background()

	for _, points := range []int64{10, 25} {
		require.NoError(t, svc.Accrue(ctx, db, &domain.UnclaimedTransaction{
			AccountID:       accountID,
			CardFingerprint: "fp_accrue",
			PaymentID:       node.Generate(),
			Points:          points,
			Amount:          points * 100,
		}))
	}

	totals, err := svc.TotalUnclaimed(ctx, accountID, "fp_accrue")
	require.NoError(t, err)
	assert.Equal(t, int64(35), totals.Points)
	assert.Equal(t, int64(0), totals.Cashback)

	other, err := svc.TotalUnclaimed(ctx, accountID, "fp_other")
	require.NoError(t, err)
	assert.True(t, other.IsZero())

	_, err = svc.TotalUnclaimed(ctx, accountID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidFingerprint)
}

func TestClaimAllConsolidatesAndIsOneShot(t *testing.T) {
	db, svc, node := newTestService(t)
	accountID := node.Generate()
	ctx := context.Background()

	customer := &customerdomain.Customer{
		ID:        node.Generate(),
		AccountID: accountID,
		Name:      "Robin",
		Email:     "robin@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(customer).Error)

	require.NoError(t, svc.Accrue(ctx, db, &domain.UnclaimedTransaction{
		AccountID: accountID, CardFingerprint: "fp_claim", PaymentID: node.Generate(), Points: 40,
	}))
	require.NoError(t, svc.Accrue(ctx, db, &domain.UnclaimedTransaction{
		AccountID: accountID, CardFingerprint: "fp_claim", PaymentID: node.Generate(), Points: 60,
	}))

	var totals domain.Totals
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		totals, err = svc.ClaimAll(ctx, tx, accountID, "fp_claim", customer.ID)
		return err
	}))
	assert.Equal(t, int64(100), totals.Points)

	var txns []ledgerdomain.Transaction
	require.NoError(t, db.Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, ledgerdomain.TypeWelcomeBonus, txns[0].Type)
	assert.Equal(t, int64(100), txns[0].Points)

	var fresh customerdomain.Customer
	require.NoError(t, db.First(&fresh, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(100), fresh.PointsBalance)

	var unstamped int64
	require.NoError(t, db.Model(&domain.UnclaimedTransaction{}).
		Where("claimed_at IS NULL").Count(&unstamped).Error)
	assert.Equal(t, int64(0), unstamped)

	// Replaying the claim stamps nothing and posts nothing.
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		totals, err = svc.ClaimAll(ctx, tx, accountID, "fp_claim", customer.ID)
		return err
	}))
	assert.True(t, totals.IsZero())

	require.NoError(t, db.Find(&txns).Error)
	assert.Len(t, txns, 1)
}

func TestClaimAllLeavesLateAccrualsUnclaimed(t *testing.T) {
	db, svc, node := newTestService(t)
	accountID := node.Generate()
	ctx := context.Background()

	customer := &customerdomain.Customer{
		ID:        node.Generate(),
		AccountID: accountID,
		Name:      "Sam",
		Email:     "sam@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(customer).Error)

	require.NoError(t, svc.Accrue(ctx, db, &domain.UnclaimedTransaction{
		AccountID: accountID, CardFingerprint: "fp_late", PaymentID: node.Generate(), Points: 15,
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.ClaimAll(ctx, tx, accountID, "fp_late", customer.ID)
		return err
	}))

	require.NoError(t, svc.Accrue(ctx, db, &domain.UnclaimedTransaction{
		AccountID: accountID, CardFingerprint: "fp_late", PaymentID: node.Generate(), Points: 5,
	}))

	totals, err := svc.TotalUnclaimed(ctx, accountID, "fp_late")
	require.NoError(t, err)
	assert.Equal(t, int64(5), totals.Points)
}
