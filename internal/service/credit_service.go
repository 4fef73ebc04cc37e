package service

import (
	"context"
	"errors"
	"time"

	"github.com/jobos/jobos-backend/internal/model"
)

// Billing cycles accepted by Subscribe.
const (
	BillingMonthly = "MONTHLY"
	BillingYearly  = "YEARLY"
)

var errBadAmount = errors.New("amount must be positive")

// CreditService maintains the strictly non-negative credit balance and
// its append-only transaction ledger.  The store serializes mutations
// per user, so the invariants hold under concurrent calls: the balance
// always equals the signed sum of the ledger and never goes below zero.
type CreditService struct {
	credits  CreditStore
	plans    PlanStore
	users    UserStore
	pageSize int
	now      func() time.Time
}

func NewCreditService(credits CreditStore, plans PlanStore, users UserStore, pageSize int) *CreditService {
	if pageSize < 1 {
		pageSize = 20
	}
	return &CreditService{
		credits:  credits,
		plans:    plans,
		users:    users,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// WithClock overrides the time source used for subscription windows.
func (s *CreditService) WithClock(now func() time.Time) *CreditService {
	s.now = now
	return s
}

// GetBalance returns the user's balance, creating the zero row on first
// access.
func (s *CreditService) GetBalance(ctx context.Context, userID uint64) (model.CreditBalance, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.CreditBalance{}, err
	}
	return s.credits.GetBalance(ctx, userID)
}

// PurchaseCredits credits the balance and records a PURCHASE ledger
// entry.  Returns the new balance.
func (s *CreditService) PurchaseCredits(ctx context.Context, userID uint64, amount int64) (int64, error) {
	return s.AddCredits(ctx, userID, amount, model.TxPurchase, "Credit purchase")
}

// AddCredits credits the balance by amount with the given transaction
// type and description.
func (s *CreditService) AddCredits(ctx context.Context, userID uint64, amount int64, txType, description string) (int64, error) {
	if amount <= 0 {
		return 0, errBadAmount
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return 0, err
	}
	return s.credits.Add(ctx, userID, amount, txType, description)
}

// DeductCredits debits the balance.  When the balance is smaller than
// amount it fails with ErrInsufficientCredits and the balance stays
// untouched; it never goes negative, concurrent callers included.
func (s *CreditService) DeductCredits(ctx context.Context, userID uint64, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, errBadAmount
	}
	return s.credits.Deduct(ctx, userID, amount, description)
}

// ListTransactions returns one page of the ledger, newest first.  Page
// is 1-based.
func (s *CreditService) ListTransactions(ctx context.Context, userID uint64, page int) ([]model.CreditTransaction, error) {
	return s.credits.ListTransactions(ctx, userID, page, s.pageSize)
}

// ListPlans returns the currently offered subscription plans.
func (s *CreditService) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	return s.plans.ListActive(ctx)
}

// Subscribe switches the user to the plan and grants its monthly credits
// as a BONUS ledger entry.  billingCycle is MONTHLY (30 days) or YEARLY
// (365 days); anything else falls back to monthly.
func (s *CreditService) Subscribe(ctx context.Context, userID uint64, planID, billingCycle string) (model.SubscriptionPlan, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.SubscriptionPlan{}, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return model.SubscriptionPlan{}, err
	}
	start := s.now()
	end := start.Add(30 * 24 * time.Hour)
	if billingCycle == BillingYearly {
		end = start.Add(365 * 24 * time.Hour)
	}
	if err := s.plans.Subscribe(ctx, userID, plan.ID, start, end); err != nil {
		return model.SubscriptionPlan{}, err
	}
	if plan.MonthlyCredits > 0 {
		if _, err := s.credits.Add(ctx, userID, plan.MonthlyCredits, model.TxBonus,
			"Monthly credits from "+plan.Name+" subscription"); err != nil {
			return model.SubscriptionPlan{}, err
		}
	}
	return plan, nil
}

// IsBadAmount reports whether the error came from a non-positive amount,
// so handlers can map it to a 400 without exporting the sentinel.
func IsBadAmount(err error) bool { return errors.Is(err, errBadAmount) }
