package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFee(t *testing.T) {
	rate := decimal.RequireFromString("0.0185")

	fee := Fee(decimal.NewFromInt(100), rate)
	assert.True(t, fee.Equal(decimal.RequireFromString("1.85")), "fee was %s", fee)

	total := FeeInclusiveTotal(decimal.NewFromInt(100), rate)
	assert.True(t, total.Equal(decimal.RequireFromString("101.85")), "total was %s", total)
}

func TestFeeRounding(t *testing.T) {
	rate := decimal.RequireFromString("0.0185")

	// 33 * 0.0185 = 0.6105 -> 0.61 at 2 dp
	fee := Fee(decimal.NewFromInt(33), rate)
	assert.True(t, fee.Equal(decimal.RequireFromString("0.61")), "fee was %s", fee)

	total := FeeInclusiveTotal(decimal.NewFromInt(33), rate)
	assert.True(t, total.Equal(decimal.RequireFromString("33.61")), "total was %s", total)
}

func TestFeeZeroRate(t *testing.T) {
	total := FeeInclusiveTotal(decimal.NewFromInt(50), decimal.Zero)
	assert.True(t, total.Equal(decimal.NewFromInt(50)))
}

func TestKindOf(t *testing.T) {
	err := E(KindInsufficient, "insufficient balance")
	assert.Equal(t, KindInsufficient, KindOf(err))
	assert.True(t, IsKind(err, KindInsufficient))

	wrapped := fmt.Errorf("send money: %w", err)
	assert.Equal(t, KindInsufficient, KindOf(wrapped))

	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
}
