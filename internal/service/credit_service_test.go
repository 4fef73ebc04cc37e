package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jobos/jobos-backend/internal/model"
	"github.com/jobos/jobos-backend/internal/repository"
)

func creditFixture(t *testing.T, plans ...model.SubscriptionPlan) (*CreditService, *fakeUserStore, *fakeCreditStore, uint64) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return now }

	users := newFakeUserStore()
	credits := newFakeCreditStore(clock)
	svc := NewCreditService(credits, newFakePlanStore(plans...), users, 20).WithClock(clock)
	uid := seedUser(t, users, "a@example.com")
	return svc, users, credits, uid
}

func TestBalanceStartsAtZero(t *testing.T) {
	svc, _, _, uid := creditFixture(t)

	bal, err := svc.GetBalance(context.Background(), uid)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal.Balance != 0 {
		t.Fatalf("fresh balance = %d, want 0", bal.Balance)
	}
}

func TestPurchaseAndDeduct(t *testing.T) {
	svc, _, credits, uid := creditFixture(t)
	ctx := context.Background()

	if _, err := svc.PurchaseCredits(ctx, uid, 100); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	balance, err := svc.DeductCredits(ctx, uid, 30, "Job posting")
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if balance != 70 {
		t.Fatalf("balance = %d, want 70", balance)
	}

	// Over-deduction fails cleanly and changes nothing.
	if _, err := svc.DeductCredits(ctx, uid, 71, "Job posting"); !errors.Is(err, repository.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	bal, _ := svc.GetBalance(ctx, uid)
	if bal.Balance != 70 {
		t.Fatalf("balance after failed deduct = %d, want 70", bal.Balance)
	}

	// The ledger replays to the balance and records no row for the failure.
	if got := credits.replay(uid); got != 70 {
		t.Fatalf("ledger replay = %d, want 70", got)
	}
	txs, err := svc.ListTransactions(ctx, uid, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("ledger rows = %d, want 2", len(txs))
	}
	// Newest first: the deduction precedes the purchase in the listing.
	if txs[0].Type != model.TxDeduction || txs[0].ResultingBalance != 70 {
		t.Fatalf("newest row = %+v, want DEDUCTION at 70", txs[0])
	}
	if txs[1].Type != model.TxPurchase || txs[1].Amount != 100 {
		t.Fatalf("oldest row = %+v, want PURCHASE of 100", txs[1])
	}
}

func TestRejectsNonPositiveAmounts(t *testing.T) {
	svc, _, _, uid := creditFixture(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -5} {
		if _, err := svc.PurchaseCredits(ctx, uid, amount); !IsBadAmount(err) {
			t.Fatalf("purchase %d err = %v, want bad amount", amount, err)
		}
		if _, err := svc.DeductCredits(ctx, uid, amount, "x"); !IsBadAmount(err) {
			t.Fatalf("deduct %d err = %v, want bad amount", amount, err)
		}
	}
}

func TestConcurrentDeductExactlyOneSucceeds(t *testing.T) {
	svc, _, credits, uid := creditFixture(t)
	ctx := context.Background()

	if _, err := svc.PurchaseCredits(ctx, uid, 10); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	// Two racing deductions of 10 against a balance of 10.
	const racers = 2
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.DeductCredits(ctx, uid, 10, "Job posting")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, repository.ErrInsufficientCredits) {
			t.Fatalf("unexpected racer error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d deductions succeeded, want exactly 1", succeeded)
	}

	bal, _ := svc.GetBalance(ctx, uid)
	if bal.Balance != 0 {
		t.Fatalf("balance = %d, want 0", bal.Balance)
	}
	if got := credits.replay(uid); got != 0 {
		t.Fatalf("ledger replay = %d, want 0", got)
	}
}

func TestSubscribeGrantsBonus(t *testing.T) {
	plan := model.SubscriptionPlan{
		ID:             "plan-pro",
		Name:           "Pro",
		MonthlyCredits: 50,
		IsActive:       true,
	}
	svc, _, credits, uid := creditFixture(t, plan)
	ctx := context.Background()

	got, err := svc.Subscribe(ctx, uid, "plan-pro", BillingMonthly)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got.ID != plan.ID {
		t.Fatalf("plan = %s, want %s", got.ID, plan.ID)
	}

	bal, _ := svc.GetBalance(ctx, uid)
	if bal.Balance != 50 {
		t.Fatalf("balance after subscribe = %d, want 50", bal.Balance)
	}
	txs, _ := svc.ListTransactions(ctx, uid, 1)
	if len(txs) != 1 || txs[0].Type != model.TxBonus {
		t.Fatalf("ledger = %+v, want one BONUS row", txs)
	}
	if txs[0].Description != "Monthly credits from Pro subscription" {
		t.Fatalf("description = %q", txs[0].Description)
	}
	if got := credits.replay(uid); got != 50 {
		t.Fatalf("ledger replay = %d, want 50", got)
	}
}

func TestSubscribeUnknownPlan(t *testing.T) {
	svc, _, _, uid := creditFixture(t)

	_, err := svc.Subscribe(context.Background(), uid, "no-such-plan", BillingYearly)
	if !errors.Is(err, repository.ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}
