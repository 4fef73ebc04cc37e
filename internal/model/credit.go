package model

import "time"

// Ledger transaction types.  PURCHASE and BONUS add credits, DEDUCTION
// removes them.
const (
	TxPurchase  = "PURCHASE"
	TxDeduction = "DEDUCTION"
	TxBonus     = "BONUS"
)

// CreditBalance models a row in the `credit_balances` table.  There is
// one row per user, created lazily on first access.  The balance never
// goes below zero.
type CreditBalance struct {
	UserID    uint64    // credit_balances.user_id
	Balance   int64     // credit_balances.balance
	CreatedAt time.Time // credit_balances.created_at
	UpdatedAt time.Time // credit_balances.updated_at
}

// CreditTransaction models a row in the `credit_transactions` table.
// Rows are append-only: they are never updated or deleted.  Replaying
// the signed amounts of a user's transactions reproduces the current
// balance, and ResultingBalance records the balance immediately after
// each mutation so corruption can be detected.
type CreditTransaction struct {
	ID               string    // credit_transactions.id (uuid)
	UserID           uint64    // credit_transactions.user_id
	Type             string    // credit_transactions.type
	Amount           int64     // credit_transactions.amount (always positive; Type carries the sign)
	ResultingBalance int64     // credit_transactions.resulting_balance
	Description      string    // credit_transactions.description
	CreatedAt        time.Time // credit_transactions.created_at
}

// SubscriptionPlan models a row in the `subscription_plans` table.
// Subscribing to a plan grants its monthly credits as a BONUS ledger
// entry.
type SubscriptionPlan struct {
	ID             string // subscription_plans.id (uuid)
	Name           string // subscription_plans.name
	Description    string // subscription_plans.description
	MonthlyPrice   int64  // subscription_plans.monthly_price_cents
	YearlyPrice    int64  // subscription_plans.yearly_price_cents
	MonthlyCredits int64  // subscription_plans.monthly_credits
	IsActive       bool   // subscription_plans.is_active
}

// UserSubscription models a row in the `user_subscriptions` table.  A
// user has at most one active subscription at a time.
type UserSubscription struct {
	ID        string    // user_subscriptions.id (uuid)
	UserID    uint64    // user_subscriptions.user_id
	PlanID    string    // user_subscriptions.plan_id
	StartDate time.Time // user_subscriptions.start_date
	EndDate   time.Time // user_subscriptions.end_date
	IsActive  bool      // user_subscriptions.is_active
}
