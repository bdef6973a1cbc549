package service

import (
	"testing"

	apperrors "afisha/internal/errors"
	"afisha/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRechargeWallet(t *testing.T) {
	wallets := newFakeWallets()
	svc := NewWalletService(wallets)

	wallet, transaction, err := svc.Recharge(userCtx(1, models.RoleUser), 1, &models.RechargeWalletRequest{
		Amount:        decimal.NewFromInt(200),
		PaymentMethod: models.MethodStripe,
	})
	require.NoError(t, err)

	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.TxCredit, transaction.Type)
	assert.Equal(t, models.MethodStripe, transaction.PaymentMethod)
}

func TestRechargeWalletRejectsNonPositiveAmount(t *testing.T) {
	svc := NewWalletService(newFakeWallets())

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, _, err := svc.Recharge(userCtx(1, models.RoleUser), 1, &models.RechargeWalletRequest{
			Amount:        amount,
			PaymentMethod: models.MethodStripe,
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation, "amount %s", amount)
	}
}

func TestWalletAccessForbiddenForOtherUser(t *testing.T) {
	svc := NewWalletService(newFakeWallets())

	_, err := svc.Get(userCtx(2, models.RoleUser), 1)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Admins can inspect any wallet
	_, err = svc.Get(userCtx(2, models.RoleAdmin), 1)
	assert.NoError(t, err)
}

func TestWalletTransactionsFilterAndOrder(t *testing.T) {
	wallets := newFakeWallets()
	svc := NewWalletService(wallets)
	ctx := userCtx(1, models.RoleUser)

	_, _, err := svc.Recharge(ctx, 1, &models.RechargeWalletRequest{
		Amount: decimal.NewFromInt(100), PaymentMethod: models.MethodStripe,
	})
	require.NoError(t, err)
	_, err = wallets.Debit(ctx, 1, decimal.NewFromInt(30), "Payment for booking EVT-TEST", nil)
	require.NoError(t, err)

	resp, err := svc.Transactions(ctx, 1, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, models.TxDebit, resp.Transactions[0].Type, "newest first")
	assert.True(t, resp.Wallet.Balance.Equal(decimal.NewFromInt(70)))

	resp, err = svc.Transactions(ctx, 1, 1, 10, models.TxCredit)
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, models.TxCredit, resp.Transactions[0].Type)

	_, err = svc.Transactions(ctx, 1, 1, 10, "withdrawal")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
