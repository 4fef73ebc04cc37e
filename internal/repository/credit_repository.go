package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jobos/jobos-backend/internal/model"
)

// CreditRepo provides data access to the `credit_balances` and
// `credit_transactions` tables.  Every balance mutation happens inside a
// transaction holding a row lock on the balance (SELECT ... FOR UPDATE),
// so the check-and-decrement of a deduction is atomic and the balance can
// never go negative.  The ledger row is appended in the same transaction
// with the balance it produced, which is what makes the ledger auditable:
// replaying the signed amounts reproduces the balance exactly.
type CreditRepo struct{ DB *sql.DB }

func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{DB: db} }

// GetBalance returns the user's balance, lazily creating a zero row on
// first access.
func (r *CreditRepo) GetBalance(ctx context.Context, userID uint64) (model.CreditBalance, error) {
	// INSERT IGNORE keeps the lazy init race-free: the loser of a
	// concurrent first access just hits the existing row.
	if _, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO credit_balances (user_id, balance) VALUES (?, 0)", userID); err != nil {
		return model.CreditBalance{}, err
	}
	var b model.CreditBalance
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, balance, created_at, updated_at FROM credit_balances WHERE user_id=?",
		userID).Scan(&b.UserID, &b.Balance, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// Add credits the user's balance by amount and appends a ledger row of
// the given type.  Returns the new balance.
func (r *CreditRepo) Add(ctx context.Context, userID uint64, amount int64, txType, description string) (int64, error) {
	return r.mutate(ctx, userID, amount, txType, description)
}

// Deduct debits the user's balance by amount and appends a DEDUCTION
// ledger row.  Returns ErrInsufficientCredits, leaving the balance
// untouched, when the balance is smaller than amount.
func (r *CreditRepo) Deduct(ctx context.Context, userID uint64, amount int64, description string) (int64, error) {
	return r.mutate(ctx, userID, -amount, model.TxDeduction, description)
}

// mutate applies a signed delta to the balance row under a row lock and
// records the ledger entry in the same transaction.
func (r *CreditRepo) mutate(ctx context.Context, userID uint64, delta int64, txType, description string) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO credit_balances (user_id, balance) VALUES (?, 0)", userID); err != nil {
		return 0, err
	}
	var balance int64
	if err := tx.QueryRowContext(ctx,
		"SELECT balance FROM credit_balances WHERE user_id=? FOR UPDATE", userID).Scan(&balance); err != nil {
		return 0, err
	}
	newBalance := balance + delta
	if newBalance < 0 {
		return 0, ErrInsufficientCredits
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE credit_balances SET balance=? WHERE user_id=?", newBalance, userID); err != nil {
		return 0, err
	}
	amount := delta
	if amount < 0 {
		amount = -amount
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO credit_transactions (id, user_id, type, amount, resulting_balance, description) VALUES (?,?,?,?,?,?)",
		uuid.NewString(), userID, txType, amount, newBalance, description); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return newBalance, nil
}

// ListTransactions returns one page of the user's ledger, newest first.
// Page is 1-based; the listing has no side effects.
func (r *CreditRepo) ListTransactions(ctx context.Context, userID uint64, page, size int) ([]model.CreditTransaction, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, type, amount, resulting_balance, description, created_at
		 FROM credit_transactions
		 WHERE user_id=?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, size, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txs := make([]model.CreditTransaction, 0)
	for rows.Next() {
		var t model.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.ResultingBalance, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
