package service

import (
	"context"
	"fmt"

	apperrors "afisha/internal/errors"
	"afisha/internal/metrics"
	"afisha/internal/middleware"
	"afisha/internal/models"
)

type WalletService struct {
	wallets WalletLedger
}

func NewWalletService(wallets WalletLedger) *WalletService {
	return &WalletService{wallets: wallets}
}

// Get returns the wallet of the given user, creating it on first access.
// Users see only their own wallet; admins see any.
func (s *WalletService) Get(ctx context.Context, userID int64) (*models.Wallet, error) {
	if err := authorizeWalletAccess(ctx, userID); err != nil {
		return nil, err
	}

	wallet, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return wallet, nil
}

// Recharge credits the wallet. The external payment is assumed captured by the
// time this is called; only the ledger side lives here.
func (s *WalletService) Recharge(ctx context.Context, userID int64, req *models.RechargeWalletRequest) (*models.Wallet, *models.WalletTransaction, error) {
	if err := authorizeWalletAccess(ctx, userID); err != nil {
		return nil, nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Wallet recharge via %s", req.PaymentMethod)
	}

	transaction, err := s.wallets.Credit(ctx, userID, req.Amount, description, req.PaymentMethod, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to recharge wallet: %w", err)
	}
	metrics.WalletTransactions.WithLabelValues(models.TxCredit).Inc()

	wallet, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return wallet, transaction, nil
}

// Transactions returns a page of the wallet history, newest first
func (s *WalletService) Transactions(ctx context.Context, userID int64, page, pageSize int, typeFilter string) (*models.TransactionListResponse, error) {
	if err := authorizeWalletAccess(ctx, userID); err != nil {
		return nil, err
	}

	switch typeFilter {
	case "", models.TxCredit, models.TxDebit, models.TxRefund:
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, typeFilter)
	}

	page, pageSize = normalizePage(page, pageSize)
	transactions, total, err := s.wallets.ListTransactions(ctx, userID, page, pageSize, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	wallet, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &models.TransactionListResponse{
		Transactions: transactions,
		Pagination:   paginate(page, pageSize, total),
		Wallet: models.WalletSummary{
			Balance:  wallet.Balance,
			Currency: wallet.Currency,
		},
	}, nil
}

func authorizeWalletAccess(ctx context.Context, userID int64) error {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	if user.UserID != userID && !user.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}
