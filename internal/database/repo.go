package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/internal/models"
)

// StartingCash is credited to every account at registration.
var StartingCash = decimal.RequireFromString("10000.00")

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) CreateAccount(ctx context.Context, username, passwordHash string) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return models.Account{}, models.ErrInvalidInput
	}
	var acc models.Account
	q := `INSERT INTO accounts (id, username, password_hash, cash) VALUES ($1, $2, $3, $4::numeric)
	      RETURNING id, username, password_hash, cash, created_at`
	err := r.db.GetContext(ctx, &acc, q, uuid.New().String(), username, passwordHash, StartingCash.String())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return models.Account{}, models.ErrUsernameTaken
		}
		return models.Account{}, err
	}
	return acc, nil
}

func (r *Repo) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	var acc models.Account
	err := r.db.GetContext(ctx, &acc, `SELECT id, username, password_hash, cash, created_at FROM accounts WHERE id = $1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	return acc, err
}

func (r *Repo) GetAccountByUsername(ctx context.Context, username string) (models.Account, error) {
	var acc models.Account
	err := r.db.GetContext(ctx, &acc, `SELECT id, username, password_hash, cash, created_at FROM accounts WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	return acc, err
}

func (r *Repo) UpdatePassword(ctx context.Context, accountID, newHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`, newHash, accountID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// BuyShares debits cash, appends a positive ledger entry and upserts the
// holding as one transaction. The account row is locked for the duration so
// the affordability check and the debit cannot interleave with another
// operation on the same account.
func (r *Repo) BuyShares(ctx context.Context, accountID, symbol string, shares int64, price decimal.Decimal) (decimal.Decimal, int64, error) {
	if shares <= 0 || strings.TrimSpace(symbol) == "" || price.Sign() <= 0 {
		return decimal.Zero, 0, models.ErrInvalidInput
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	cost := price.Mul(decimal.NewFromInt(shares))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, 0, err
	}
	defer tx.Rollback()

	var cash decimal.Decimal
	if err := tx.QueryRowContext(ctx, `SELECT cash FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&cash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, 0, models.ErrAccountNotFound
		}
		return decimal.Zero, 0, err
	}
	if cash.LessThan(cost) {
		return decimal.Zero, 0, models.ErrInsufficientFunds
	}

	newCash := cash.Sub(cost)
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET cash = $1::numeric WHERE id = $2`, newCash.String(), accountID); err != nil {
		return decimal.Zero, 0, err
	}

	q := `INSERT INTO transactions (account_id, symbol, shares, price) VALUES ($1, $2, $3, $4::numeric)`
	if _, err := tx.ExecContext(ctx, q, accountID, symbol, shares, price.String()); err != nil {
		return decimal.Zero, 0, err
	}

	var held int64
	upsert := `INSERT INTO holdings (account_id, symbol, amount) VALUES ($1, $2, $3)
	           ON CONFLICT (account_id, symbol) DO UPDATE SET amount = holdings.amount + $3
	           RETURNING amount`
	if err := tx.QueryRowContext(ctx, upsert, accountID, symbol, shares).Scan(&held); err != nil {
		return decimal.Zero, 0, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, 0, err
	}
	return newCash, held, nil
}

// SellShares credits cash, appends a negative ledger entry and decrements
// the holding, deleting the row when it reaches zero. Same locking
// discipline as BuyShares.
func (r *Repo) SellShares(ctx context.Context, accountID, symbol string, shares int64, price decimal.Decimal) (decimal.Decimal, int64, error) {
	if shares <= 0 || strings.TrimSpace(symbol) == "" || price.Sign() <= 0 {
		return decimal.Zero, 0, models.ErrInvalidInput
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	proceeds := price.Mul(decimal.NewFromInt(shares))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, 0, err
	}
	defer tx.Rollback()

	var cash decimal.Decimal
	if err := tx.QueryRowContext(ctx, `SELECT cash FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&cash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, 0, models.ErrAccountNotFound
		}
		return decimal.Zero, 0, err
	}

	var held int64
	err = tx.QueryRowContext(ctx, `SELECT amount FROM holdings WHERE account_id = $1 AND symbol = $2 FOR UPDATE`, accountID, symbol).Scan(&held)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && held == 0) {
		return decimal.Zero, 0, models.ErrNoHolding
	}
	if err != nil {
		return decimal.Zero, 0, err
	}
	if shares > held {
		return decimal.Zero, 0, models.ErrInsufficientShares
	}

	newCash := cash.Add(proceeds)
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET cash = $1::numeric WHERE id = $2`, newCash.String(), accountID); err != nil {
		return decimal.Zero, 0, err
	}

	q := `INSERT INTO transactions (account_id, symbol, shares, price) VALUES ($1, $2, $3, $4::numeric)`
	if _, err := tx.ExecContext(ctx, q, accountID, symbol, -shares, price.String()); err != nil {
		return decimal.Zero, 0, err
	}

	remaining := held - shares
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE account_id = $1 AND symbol = $2`, accountID, symbol); err != nil {
			return decimal.Zero, 0, err
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE holdings SET amount = $1 WHERE account_id = $2 AND symbol = $3`, remaining, accountID, symbol); err != nil {
			return decimal.Zero, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, 0, err
	}
	return newCash, remaining, nil
}

// DepositCash credits the account. Credential and card checks happen in the
// handler before this is called; the credit itself is a single statement.
func (r *Repo) DepositCash(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, models.ErrInvalidInput
	}
	var cash decimal.Decimal
	err := r.db.QueryRowContext(ctx, `UPDATE accounts SET cash = cash + $1::numeric WHERE id = $2 RETURNING cash`, amount.String(), accountID).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return cash, nil
}

func (r *Repo) ListHoldings(ctx context.Context, accountID string) ([]models.Holding, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT symbol, amount FROM holdings WHERE account_id = $1 ORDER BY id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r *Repo) ListTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, symbol, shares, price, executed_at FROM transactions WHERE account_id = $1 ORDER BY id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.StructScan(&t); err != nil {
			r.log.Warnf("scan transaction failed: %v", err)
			continue
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
