package repository

import (
	"context"
	"database/sql"
	"fmt"

	"afisha/internal/database"
	apperrors "afisha/internal/errors"
	"afisha/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository is the wallet ledger. The balance is only ever mutated through
// Credit, Debit and Refund, each of which appends a completed transaction row in
// the same database transaction as the balance change. Transaction rows are
// append-only; corrections are new compensating transactions.
type WalletRepository struct {
	db *database.DB
}

func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Get returns the user's wallet, creating an empty one on first access
func (r *WalletRepository) Get(ctx context.Context, userID int64) (*models.Wallet, error) {
	if err := r.ensureWallet(ctx, r.db.DB, userID); err != nil {
		return nil, err
	}

	wallet := &models.Wallet{}
	query := `
		SELECT user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.Balance,
		&wallet.Currency,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}

	return wallet, nil
}

// Credit increases the balance and appends a completed credit transaction
func (r *WalletRepository) Credit(ctx context.Context, userID int64, amount decimal.Decimal, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error) {
	return r.addFunds(ctx, userID, amount, models.TxCredit, description, paymentMethod, bookingID)
}

// Refund increases the balance and appends a completed refund transaction.
// Unlike Debit it never checks sufficiency and always succeeds barring storage errors.
func (r *WalletRepository) Refund(ctx context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error) {
	return r.addFunds(ctx, userID, amount, models.TxRefund, description, models.MethodRefund, bookingID)
}

// Debit decreases the balance if and only if it covers the amount. The check and
// the decrement are a single conditional UPDATE, so two concurrent debits can never
// both pass against a stale balance.
func (r *WalletRepository) Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string, bookingID *int64) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin debit transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.ensureWallet(ctx, tx, userID); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1`,
		amount, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet for user %d: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		var available decimal.Decimal
		if err := tx.QueryRowContext(ctx,
			`SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&available); err != nil {
			return nil, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
		}
		return nil, &apperrors.InsufficientBalanceError{Required: amount, Available: available}
	}

	transaction := newTransaction(userID, models.TxDebit, amount, description, models.MethodWallet, bookingID)
	if err := appendTransaction(ctx, tx, transaction); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit debit for user %d: %w", userID, err)
	}

	return transaction, nil
}

// ListTransactions returns a page of the user's transactions, newest first,
// optionally filtered by type. The second return value is the total matching count.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID int64, page, pageSize int, typeFilter string) ([]models.WalletTransaction, int, error) {
	var args []interface{}
	args = append(args, userID)
	argIndex := 2

	countQuery := `SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1`
	query := `
		SELECT id, user_id, type, amount, description, booking_id, payment_method, status, created_at
		FROM wallet_transactions
		WHERE user_id = $1`

	if typeFilter != "" {
		filter := fmt.Sprintf(" AND type = $%d", argIndex)
		countQuery += filter
		query += filter
		args = append(args, typeFilter)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Type,
			&t.Amount,
			&t.Description,
			&t.BookingID,
			&t.PaymentMethod,
			&t.Status,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, t)
	}

	return transactions, total, rows.Err()
}

func (r *WalletRepository) addFunds(ctx context.Context, userID int64, amount decimal.Decimal, txType, description, paymentMethod string, bookingID *int64) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin %s transaction: %w", txType, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + $2, updated_at = NOW()`,
		userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to %s wallet for user %d: %w", txType, userID, err)
	}

	transaction := newTransaction(userID, txType, amount, description, paymentMethod, bookingID)
	if err := appendTransaction(ctx, tx, transaction); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit %s for user %d: %w", txType, userID, err)
	}

	return transaction, nil
}

// ensureWallet lazily creates the wallet row on first access
func (r *WalletRepository) ensureWallet(ctx context.Context, execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}, userID int64) error {
	_, err := execer.ExecContext(ctx,
		`INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("failed to initialize wallet for user %d: %w", userID, err)
	}
	return nil
}

func newTransaction(userID int64, txType string, amount decimal.Decimal, description, paymentMethod string, bookingID *int64) *models.WalletTransaction {
	return &models.WalletTransaction{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		Description:   description,
		BookingID:     bookingID,
		PaymentMethod: paymentMethod,
		Status:        "completed",
	}
}

func appendTransaction(ctx context.Context, tx *sql.Tx, t *models.WalletTransaction) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, description, booking_id, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		t.ID, t.UserID, t.Type, t.Amount, t.Description, t.BookingID, t.PaymentMethod, t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append wallet transaction: %w", err)
	}
	return nil
}
