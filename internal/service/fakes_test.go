package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobos/jobos-backend/internal/model"
	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/utils"
)

// In-memory store fakes. Every method takes the mutex so the concurrency
// tests exercise the same serialization the MySQL repositories provide
// with row locks and guarded updates.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint64]model.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	f.nextID++
	f.users[f.nextID] = model.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
	}
	return f.nextID, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) suspend(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.Status = model.StatusSuspended
	f.users[id] = u
}

type fakeSessionStore struct {
	mu       sync.Mutex
	nextID   uint64
	sessions []model.Session
}

func newFakeSessionStore() *fakeSessionStore { return &fakeSessionStore{} }

func (f *fakeSessionStore) Create(ctx context.Context, sessionID string, userID uint64, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sessions = append(f.sessions, model.Session{
		ID:        f.nextID,
		SessionID: sessionID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	})
	return nil
}

func (f *fakeSessionStore) FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash {
			return s, nil
		}
	}
	return model.Session{}, repository.ErrInvalidToken
}

func (f *fakeSessionStore) RevokeBySessionID(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := range f.sessions {
		if f.sessions[i].SessionID == sessionID && f.sessions[i].RevokedAt == nil {
			f.sessions[i].RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := range f.sessions {
		if f.sessions[i].UserID == userID && f.sessions[i].RevokedAt == nil {
			f.sessions[i].RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionStore) liveCount(userID uint64, now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i := range f.sessions {
		if f.sessions[i].UserID == userID && f.sessions[i].Live(now) {
			n++
		}
	}
	return n
}

type fakeResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]model.PasswordResetToken // by id
	clock  func() time.Time
}

func newFakeResetTokenStore(clock func() time.Time) *fakeResetTokenStore {
	return &fakeResetTokenStore{tokens: make(map[string]model.PasswordResetToken), clock: clock}
}

func (f *fakeResetTokenStore) Create(ctx context.Context, email, otpHash string, expiresAt time.Time, maxAttempts int) (model.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := model.PasswordResetToken{
		ID:          uuid.NewString(),
		Email:       email,
		OtpHash:     otpHash,
		ExpiresAt:   expiresAt,
		MaxAttempts: maxAttempts,
		CreatedAt:   f.clock(),
	}
	f.tokens[t.ID] = t
	return t, nil
}

func (f *fakeResetTokenStore) FindActiveByEmail(ctx context.Context, email string) (model.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.Email == email && t.UsedAt == nil {
			return t, nil
		}
	}
	return model.PasswordResetToken{}, repository.ErrInvalidToken
}

func (f *fakeResetTokenStore) DeleteByEmail(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.tokens {
		if t.Email == email {
			delete(f.tokens, id)
		}
	}
	return nil
}

func (f *fakeResetTokenStore) RegisterFailedAttempt(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return 0, repository.ErrInvalidToken
	}
	if t.Attempts < t.MaxAttempts {
		t.Attempts++
		f.tokens[id] = t
	}
	return t.Attempts, nil
}

func (f *fakeResetTokenStore) Consume(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok || t.UsedAt != nil {
		return repository.ErrInvalidToken
	}
	now := f.clock()
	t.UsedAt = &now
	f.tokens[id] = t
	return nil
}

type fakeCreditStore struct {
	mu       sync.Mutex
	balances map[uint64]int64
	ledger   map[uint64][]model.CreditTransaction
	clock    func() time.Time
}

func newFakeCreditStore(clock func() time.Time) *fakeCreditStore {
	return &fakeCreditStore{
		balances: make(map[uint64]int64),
		ledger:   make(map[uint64][]model.CreditTransaction),
		clock:    clock,
	}
}

func (f *fakeCreditStore) GetBalance(ctx context.Context, userID uint64) (model.CreditBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.balances[userID]; !ok {
		f.balances[userID] = 0
	}
	return model.CreditBalance{UserID: userID, Balance: f.balances[userID]}, nil
}

func (f *fakeCreditStore) Add(ctx context.Context, userID uint64, amount int64, txType, description string) (int64, error) {
	return f.mutate(userID, amount, txType, description)
}

func (f *fakeCreditStore) Deduct(ctx context.Context, userID uint64, amount int64, description string) (int64, error) {
	return f.mutate(userID, -amount, model.TxDeduction, description)
}

func (f *fakeCreditStore) mutate(userID uint64, delta int64, txType, description string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	newBalance := f.balances[userID] + delta
	if newBalance < 0 {
		return 0, repository.ErrInsufficientCredits
	}
	f.balances[userID] = newBalance
	amount := delta
	if amount < 0 {
		amount = -amount
	}
	f.ledger[userID] = append(f.ledger[userID], model.CreditTransaction{
		ID:               uuid.NewString(),
		UserID:           userID,
		Type:             txType,
		Amount:           amount,
		ResultingBalance: newBalance,
		Description:      description,
		CreatedAt:        f.clock(),
	})
	return newBalance, nil
}

func (f *fakeCreditStore) ListTransactions(ctx context.Context, userID uint64, page, size int) ([]model.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.ledger[userID]
	// Newest first.
	out := make([]model.CreditTransaction, 0, size)
	start := (page - 1) * size
	for i := len(all) - 1 - start; i >= 0 && len(out) < size; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (f *fakeCreditStore) replay(userID uint64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, t := range f.ledger[userID] {
		if t.Type == model.TxDeduction {
			sum -= t.Amount
		} else {
			sum += t.Amount
		}
	}
	return sum
}

type fakePlanStore struct {
	mu    sync.Mutex
	plans map[string]model.SubscriptionPlan
	subs  []model.UserSubscription
}

func newFakePlanStore(plans ...model.SubscriptionPlan) *fakePlanStore {
	f := &fakePlanStore{plans: make(map[string]model.SubscriptionPlan)}
	for _, p := range plans {
		f.plans[p.ID] = p
	}
	return f
}

func (f *fakePlanStore) ListActive(ctx context.Context) ([]model.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.SubscriptionPlan, 0, len(f.plans))
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlanStore) GetByID(ctx context.Context, id string) (model.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return model.SubscriptionPlan{}, repository.ErrPlanNotFound
	}
	return p, nil
}

func (f *fakePlanStore) Subscribe(ctx context.Context, userID uint64, planID string, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subs {
		if f.subs[i].UserID == userID {
			f.subs[i].IsActive = false
		}
	}
	f.subs = append(f.subs, model.UserSubscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	})
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string // OTPs in dispatch order
	fail bool
}

func (f *fakeNotifier) SendOtp(ctx context.Context, email, otp string, expiresIn time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, otp)
	return nil
}

func (f *fakeNotifier) lastOtp() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}
