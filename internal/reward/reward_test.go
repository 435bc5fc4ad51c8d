package reward

import (
	"testing"

	accountdomain "github.com/smallbiznis/tapcard/internal/account/domain"
	"github.com/stretchr/testify/assert"
)

func cashbackAccount(bps int64) *accountdomain.Account {
	return &accountdomain.Account{
		LoyaltySystemType: accountdomain.LoyaltySystemCashback,
		CashbackRateBps:   bps,
	}
}

func pointsAccount(rateHundredths int64) *accountdomain.Account {
	return &accountdomain.Account{
		LoyaltySystemType:    accountdomain.LoyaltySystemPoints,
		PointsRateHundredths: rateHundredths,
	}
}

func TestComputeCashbackRoundsHalfUp(t *testing.T) {
	// 5.00% of $12.34 is $0.617 and must land as exactly 62 cents.
	got := Compute(cashbackAccount(500), 1234)
	assert.Equal(t, int64(62), got.CashbackMinor)
	assert.Equal(t, int64(0), got.Points)

	// 5% of $20.00 is an even 100 cents.
	got = Compute(cashbackAccount(500), 2000)
	assert.Equal(t, int64(100), got.CashbackMinor)

	// Below half a cent rounds down: 1% of $0.49 = 0.49 cents.
	got = Compute(cashbackAccount(100), 49)
	assert.Equal(t, int64(0), got.CashbackMinor)

	// Exactly half a cent rounds up: 1% of $0.50.
	got = Compute(cashbackAccount(100), 50)
	assert.Equal(t, int64(1), got.CashbackMinor)
}

func TestComputePointsFloorsFractionalUnits(t *testing.T) {
	// Rate 2.0 on $10.00.
	got := Compute(pointsAccount(200), 1000)
	assert.Equal(t, int64(20), got.Points)
	assert.Equal(t, int64(0), got.CashbackMinor)

	// Rate 1.0 on $10.99: fractional dollars truncated.
	got = Compute(pointsAccount(100), 1099)
	assert.Equal(t, int64(10), got.Points)

	// Rate 1.5 on $3.33 -> 4.995 -> 4.
	got = Compute(pointsAccount(150), 333)
	assert.Equal(t, int64(4), got.Points)
}

func TestComputeZeroAmount(t *testing.T) {
	assert.Equal(t, Reward{}, Compute(cashbackAccount(500), 0))
	assert.Equal(t, Reward{}, Compute(pointsAccount(100), 0))
}

func TestComputePanicsOnNegativeAmount(t *testing.T) {
	assert.Panics(t, func() {
		Compute(pointsAccount(100), -1)
	})
}

func TestRedeemDelta(t *testing.T) {
	got := RedeemDelta(pointsAccount(100), 1000)
	assert.Equal(t, int64(-1000), got.Points)
	assert.Equal(t, int64(0), got.CashbackMinor)

	got = RedeemDelta(cashbackAccount(500), 250)
	assert.Equal(t, int64(-250), got.CashbackMinor)
	assert.Equal(t, int64(0), got.Points)
}
