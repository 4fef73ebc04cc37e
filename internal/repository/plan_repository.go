package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jobos/jobos-backend/internal/model"
)

// PlanRepo provides data access to subscription plans and user
// subscriptions.  Subscribing is the producer of BONUS ledger entries;
// the credit mutation itself goes through CreditRepo.
type PlanRepo struct{ DB *sql.DB }

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{DB: db} }

// ListActive returns all currently offered plans.
func (r *PlanRepo) ListActive(ctx context.Context) ([]model.SubscriptionPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, description, monthly_price_cents, yearly_price_cents, monthly_credits, is_active
		 FROM subscription_plans WHERE is_active = 1 ORDER BY monthly_price_cents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := make([]model.SubscriptionPlan, 0)
	for rows.Next() {
		var p model.SubscriptionPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.MonthlyPrice, &p.YearlyPrice, &p.MonthlyCredits, &p.IsActive); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetByID fetches one plan.  Returns ErrPlanNotFound when no row exists.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, description, monthly_price_cents, yearly_price_cents, monthly_credits, is_active
		 FROM subscription_plans WHERE id=? LIMIT 1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.MonthlyPrice, &p.YearlyPrice, &p.MonthlyCredits, &p.IsActive)
	if err == sql.ErrNoRows {
		return model.SubscriptionPlan{}, ErrPlanNotFound
	}
	return p, err
}

// Subscribe deactivates any current subscription and records a new one
// running from start to end.
func (r *PlanRepo) Subscribe(ctx context.Context, userID uint64, planID string, start, end time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		"UPDATE user_subscriptions SET is_active=0 WHERE user_id=? AND is_active=1", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_subscriptions (id, user_id, plan_id, start_date, end_date, is_active) VALUES (?,?,?,?,?,1)",
		uuid.NewString(), userID, planID, start, end); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
