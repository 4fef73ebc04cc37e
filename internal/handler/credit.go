package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jobos/jobos-backend/internal/model"
	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/service"
)

// CreditHandler exposes the credit balance, the transaction ledger and
// the subscription plan catalogue. All routes require JWTAuth.
type CreditHandler struct {
	Credits *service.CreditService
}

func NewCreditHandler(credits *service.CreditService) *CreditHandler {
	return &CreditHandler{Credits: credits}
}

type purchaseReq struct {
	Amount int64 `json:"amount"`
}
type subscribeReq struct {
	PlanID       string `json:"plan_id"`
	BillingCycle string `json:"billing_cycle"` // MONTHLY | YEARLY
}

type txPart struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Amount           int64     `json:"amount"`
	ResultingBalance int64     `json:"resulting_balance"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
}

type planPart struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	MonthlyPrice   int64  `json:"monthly_price_cents"`
	YearlyPrice    int64  `json:"yearly_price_cents"`
	MonthlyCredits int64  `json:"monthly_credits"`
}

func toPlanPart(p model.SubscriptionPlan) planPart {
	return planPart{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		MonthlyPrice:   p.MonthlyPrice,
		YearlyPrice:    p.YearlyPrice,
		MonthlyCredits: p.MonthlyCredits,
	}
}

// Balance returns the caller's credit balance, creating the zero row on
// first access.
func (h *CreditHandler) Balance(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bal, err := h.Credits.GetBalance(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load balance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": bal.Balance})
}

// Purchase credits the caller's balance and records a PURCHASE ledger
// entry.
func (h *CreditHandler) Purchase(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	balance, err := h.Credits.PurchaseCredits(ctx, userID, req.Amount)
	if err != nil {
		if service.IsBadAmount(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

// Transactions returns one page of the caller's ledger, newest first.
// ?page=N is 1-based and defaults to 1.
func (h *CreditHandler) Transactions(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txs, err := h.Credits.ListTransactions(ctx, userID, page)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load transactions failed"})
	}

	out := make([]txPart, 0, len(txs))
	for _, t := range txs {
		out = append(out, txPart{
			ID:               t.ID,
			Type:             t.Type,
			Amount:           t.Amount,
			ResultingBalance: t.ResultingBalance,
			Description:      t.Description,
			CreatedAt:        t.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"page": page, "transactions": out})
}

// Plans lists the offered subscription plans. Sits behind the Redis
// response cache.
func (h *CreditHandler) Plans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plans, err := h.Credits.ListPlans(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load plans failed"})
	}
	out := make([]planPart, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanPart(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}

// Subscribe switches the caller to a plan and grants its monthly
// credits as a BONUS ledger entry.
func (h *CreditHandler) Subscribe(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req subscribeReq
	if err := c.Bind(&req); err != nil || req.PlanID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Credits.Subscribe(ctx, userID, req.PlanID, req.BillingCycle)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "subscribe failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"plan": toPlanPart(plan)})
}
