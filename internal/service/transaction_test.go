package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

func TestTransactionsForUser(t *testing.T) {
	e := newEnv(t)
	h1 := e.holder(t, "amina")
	h2 := e.holder(t, "badal")
	h3 := e.holder(t, "chitra")

	_, err := e.wallets.AddMoney(context.Background(), h1.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = e.wallets.SendMoney(context.Background(), h1.ID, h2.ID, decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = e.wallets.SendMoney(context.Background(), h2.ID, h3.ID, decimal.NewFromInt(10))
	require.NoError(t, err)

	// h1 sees their deposit plus both sides of their own transfer, but not
	// the transfer between the other two.
	entries, total, err := e.txns.ForUser(context.Background(), h1.ID, repository.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, en := range entries {
		involved := en.InitiatedBy == h1.ID || (en.ReceivedBy != nil && *en.ReceivedBy == h1.ID)
		assert.True(t, involved, "entry %s does not involve the caller", en.ID)
	}

	// h3 only received.
	_, total, err = e.txns.ForUser(context.Background(), h3.ID, repository.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestTransactionsPagination(t *testing.T) {
	e := newEnv(t)
	holder := e.holder(t, "amina")

	for i := 1; i <= 7; i++ {
		_, err := e.wallets.AddMoney(context.Background(), holder.ID, decimal.NewFromInt(int64(i)))
		require.NoError(t, err)
	}

	page1, total, err := e.txns.All(context.Background(), repository.ListParams{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, page1, 3)

	page3, _, err := e.txns.All(context.Background(), repository.ListParams{Page: 3, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	// Newest first: the last deposit leads the first page.
	assertDecimal(t, "7", page1[0].Amount)
}
