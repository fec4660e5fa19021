package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"papertrade/internal/auth"
	"papertrade/internal/card"
	"papertrade/internal/database"
	"papertrade/internal/models"
	"papertrade/internal/quote"
)

type Handler struct {
	repo      *database.Repo
	quotes    quote.Provider
	jwtSecret string
	log       *logrus.Logger
}

func NewHandler(r *database.Repo, q quote.Provider, jwtSecret string, log *logrus.Logger) *Handler {
	return &Handler{repo: r, quotes: q, jwtSecret: jwtSecret, log: log}
}

type RegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid register body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password != req.Confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password does not match confirmation"})
		return
	}
	if !auth.ValidatePasswordPolicy(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8-30 characters and include a number, an uppercase and a lowercase letter"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Errorf("hash password failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	acc, err := h.repo.CreateAccount(c.Request.Context(), req.Username, hash)
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		h.log.Errorf("create account failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": acc.ID, "username": acc.Username, "cash": acc.Cash.StringFixed(2)})
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acc, err := h.repo.GetAccountByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if err := auth.CheckPassword(acc.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	token, err := auth.GenerateToken(h.jwtSecret, acc.ID)
	if err != nil {
		h.log.Errorf("generate token failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.SetCookie("token", token, 86400, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.quotes.Lookup(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.quoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": q.Symbol, "price": q.Price.StringFixed(2)})
}

type TradeRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares int64  `json:"shares" binding:"required"`
}

func (h *Handler) Buy(c *gin.Context) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Shares <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shares must be a positive integer"})
		return
	}

	// Quote lookup completes before the ledger transaction begins, so no
	// account lock is held during provider I/O.
	q, err := h.quotes.Lookup(c.Request.Context(), req.Symbol)
	if err != nil {
		h.quoteError(c, err)
		return
	}
	cash, held, err := h.repo.BuyShares(c.Request.Context(), accountID, q.Symbol, req.Shares, q.Price)
	if err != nil {
		h.ledgerError(c, "buy", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": q.Symbol, "shares": req.Shares, "price": q.Price.StringFixed(2), "cash": cash.StringFixed(2), "held": held})
}

func (h *Handler) Sell(c *gin.Context) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Shares <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shares must be a positive integer"})
		return
	}

	q, err := h.quotes.LookupWithRetry(c.Request.Context(), req.Symbol)
	if err != nil {
		h.quoteError(c, err)
		return
	}
	cash, held, err := h.repo.SellShares(c.Request.Context(), accountID, q.Symbol, req.Shares, q.Price)
	if err != nil {
		h.ledgerError(c, "sell", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": q.Symbol, "shares": req.Shares, "price": q.Price.StringFixed(2), "cash": cash.StringFixed(2), "held": held})
}

type DepositRequest struct {
	Amount     string `json:"amount" binding:"required"`
	CardNumber string `json:"card_number" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *Handler) Deposit(c *gin.Context) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}
	if card.Classify(req.CardNumber) == card.Invalid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card number"})
		return
	}

	acc, err := h.repo.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.ledgerError(c, "deposit", err)
		return
	}
	if err := auth.CheckPassword(acc.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "incorrect password"})
		return
	}

	cash, err := h.repo.DepositCash(c.Request.Context(), accountID, amount)
	if err != nil {
		h.ledgerError(c, "deposit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cash": cash.StringFixed(2)})
}

type ChangePasswordRequest struct {
	Password     string `json:"password" binding:"required"`
	NewPassword  string `json:"new_password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.NewPassword != req.Confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new password does not match confirmation"})
		return
	}
	if !auth.ValidatePasswordPolicy(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8-30 characters and include a number, an uppercase and a lowercase letter"})
		return
	}
	acc, err := h.repo.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.ledgerError(c, "change password", err)
		return
	}
	if err := auth.CheckPassword(acc.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "incorrect password"})
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.log.Errorf("hash password failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), accountID, hash); err != nil {
		h.ledgerError(c, "change password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

type PortfolioLine struct {
	Symbol string `json:"symbol"`
	Amount int64  `json:"amount"`
	Price  string `json:"price"`
	Value  string `json:"value"`
}

// Portfolio prices every holding at the current quote. An unavailable quote
// for a held symbol is surfaced, never silently valued at zero.
func (h *Handler) Portfolio(c *gin.Context) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	acc, err := h.repo.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.ledgerError(c, "portfolio", err)
		return
	}
	holdings, err := h.repo.ListHoldings(c.Request.Context(), accountID)
	if err != nil {
		h.log.Errorf("list holdings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	lines := []PortfolioLine{}
	total := acc.Cash
	for _, hd := range holdings {
		q, err := h.quotes.LookupWithRetry(c.Request.Context(), hd.Symbol)
		if err != nil {
			h.log.Warnf("valuation quote for %s failed: %v", hd.Symbol, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "quote unavailable for " + hd.Symbol})
			return
		}
		value := q.Price.Mul(decimal.NewFromInt(hd.Amount))
		lines = append(lines, PortfolioLine{Symbol: hd.Symbol, Amount: hd.Amount, Price: q.Price.StringFixed(2), Value: value.StringFixed(2)})
		total = total.Add(value)
	}
	c.JSON(http.StatusOK, gin.H{"holdings": lines, "cash": acc.Cash.StringFixed(2), "total": total.StringFixed(2)})
}

func (h *Handler) History(c *gin.Context) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	trans, err := h.repo.ListTransactions(c.Request.Context(), accountID)
	if err != nil {
		h.log.Errorf("list transactions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, trans)
}

func (h *Handler) quoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
	case errors.Is(err, models.ErrSymbolNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not found"})
	case errors.Is(err, models.ErrQuoteUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "quote unavailable"})
	default:
		h.log.Errorf("quote lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

func (h *Handler) ledgerError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, models.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient funds"})
	case errors.Is(err, models.ErrInsufficientShares):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient shares"})
	case errors.Is(err, models.ErrNoHolding):
		c.JSON(http.StatusConflict, gin.H{"error": "no shares held for symbol"})
	case errors.Is(err, models.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	default:
		h.log.Errorf("%s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
