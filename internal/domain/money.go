package domain

import "github.com/shopspring/decimal"

// Balances and transacted amounts are decimals rounded to 2 places.
// The fee is charged to the debited party and credited in full to the
// counterparty as commission, so a cash-out moves exactly
// amount + Fee(amount, rate) out of one wallet and into the other.

// Fee returns the proportional fee on a transacted amount, rounded to 2 dp.
func Fee(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// FeeInclusiveTotal returns the full debit a cash-out costs the payer.
func FeeInclusiveTotal(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Add(Fee(amount, rate))
}
