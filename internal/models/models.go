package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSymbolNotFound indicates the quote provider does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrQuoteUnavailable indicates the quote provider could not be reached
	// within the bounded retry attempts.
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrInsufficientFunds indicates account cash cannot cover a purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares indicates a sell exceeds the held amount.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrNoHolding indicates the account holds no shares of the symbol.
	ErrNoHolding = errors.New("no holding for symbol")
	// ErrInvalidCredential indicates a password check failed.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidInput indicates a non-positive share count, empty symbol or
	// otherwise malformed request, caught before any mutation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAccountNotFound indicates no account matches the identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken indicates a registration clashed with an existing name.
	ErrUsernameTaken = errors.New("username already taken")
)

type Account struct {
	ID           string          `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Cash         decimal.Decimal `db:"cash" json:"cash"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

type Holding struct {
	Symbol string `db:"symbol" json:"symbol"`
	Amount int64  `db:"amount" json:"amount"`
}

// Transaction is an append-only ledger entry. Shares is signed: positive for
// a buy, negative for a sell. Price is the quote at execution time and is
// never adjusted afterwards.
type Transaction struct {
	ID         int64           `db:"id" json:"id"`
	Symbol     string          `db:"symbol" json:"symbol"`
	Shares     int64           `db:"shares" json:"shares"`
	Price      decimal.Decimal `db:"price" json:"price"`
	ExecutedAt time.Time       `db:"executed_at" json:"executed_at"`
}
