// Package reward holds the loyalty arithmetic. Everything here is pure:
// amounts in, deltas out, no I/O. Money is int64 minor currency units.
package reward

import (
	"fmt"

	accountdomain "github.com/smallbiznis/tapcard/internal/account/domain"
)

// Reward is the loyalty value earned for a captured charge. Exactly one of
// Points / CashbackMinor is non-zero depending on the account's system type.
type Reward struct {
	Points        int64
	CashbackMinor int64
}

// Compute converts a charged amount into the account's loyalty value.
//
// Cashback accounts: chargedMinor x rate, rounded half-up to whole minor
// units. Points accounts: major units x rate, fractional result floored.
// A negative charged amount is a caller contract violation.
func Compute(account *accountdomain.Account, chargedMinor int64) Reward {
	if chargedMinor < 0 {
		panic(fmt.Sprintf("reward: negative charged amount %d", chargedMinor))
	}

	if account.LoyaltySystemType == accountdomain.LoyaltySystemCashback {
		return Reward{CashbackMinor: roundHalfUpBps(chargedMinor, account.CashbackRateBps)}
	}
	return Reward{Points: floorPoints(chargedMinor, account.PointsRateHundredths)}
}

// RedeemDelta converts a credit redemption in minor units into the negative
// ledger delta for the account's system type. Credit is stored in minor
// units on both systems (one point redeems one minor unit).
func RedeemDelta(account *accountdomain.Account, creditMinor int64) Reward {
	if creditMinor < 0 {
		panic(fmt.Sprintf("reward: negative redemption amount %d", creditMinor))
	}

	if account.LoyaltySystemType == accountdomain.LoyaltySystemCashback {
		return Reward{CashbackMinor: -creditMinor}
	}
	return Reward{Points: -creditMinor}
}

// roundHalfUpBps computes amount x bps / 10000 with half-up rounding, in
// integer space so no float drift can leak into balances.
func roundHalfUpBps(amountMinor, rateBps int64) int64 {
	return (amountMinor*rateBps + 5000) / 10000
}

// floorPoints computes floor(majorUnits x rate) where rate is scaled by 100.
// amountMinor/100 x rateHundredths/100 collapses to one integer division.
func floorPoints(amountMinor, rateHundredths int64) int64 {
	return amountMinor * rateHundredths / 10000
}
