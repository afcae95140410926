package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/gateway"
	"invest_platform/internal/repository/sqlite"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", what, got.String(), want)
	}
}

type fakeGateway struct {
	name domain.Gateway
	err  error

	mu   sync.Mutex
	reqs []gateway.InvoiceRequest
}

func (f *fakeGateway) Name() domain.Gateway { return f.name }

func (f *fakeGateway) CreateInvoice(ctx context.Context, req gateway.InvoiceRequest) (*gateway.Invoice, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Invoice{
		Reference:  "ref-" + req.OrderID,
		PaymentURL: "https://pay.test/checkout/" + req.OrderID,
	}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (r *recorder) Notify(ctx context.Context, ev domain.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) last() domain.StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type testEnv struct {
	t      *testing.T
	ctx    context.Context
	store  *sqlite.Store
	engine *Engine
	plan   *domain.Plan
	coin   *fakeGateway
	events *recorder
}

// newTestEnv builds an engine on a private in-memory database with a default
// plan: withdrawals 500/day, deposits 10000/day, profit 100/day, bounds 1..50000.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(sqlite.MemoryDSN())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	plan := &domain.Plan{
		Name:                 "starter",
		DailyDepositLimit:    dec("10000"),
		DailyWithdrawalLimit: dec("500"),
		DailyProfitLimit:     dec("100"),
		MinAmount:            dec("1"),
		MaxAmount:            dec("50000"),
		IsDefault:            true,
	}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	coin := &fakeGateway{name: domain.GatewayCoinGate}
	engine := NewEngine(store, []gateway.Client{coin}, EngineConfig{
		Location:             time.UTC,
		ReferralBonusPercent: dec("10"),
		PublicBaseURL:        "https://invest.test",
	})
	events := &recorder{}
	engine.Subscribe(events)

	return &testEnv{t: t, ctx: ctx, store: store, engine: engine, plan: plan, coin: coin, events: events}
}

func (e *testEnv) user() *domain.User {
	e.t.Helper()
	return e.userReferredBy(nil)
}

var userSeq struct {
	sync.Mutex
	n int
}

func (e *testEnv) userReferredBy(referrer *int64) *domain.User {
	e.t.Helper()
	userSeq.Lock()
	userSeq.n++
	n := userSeq.n
	userSeq.Unlock()

	u := &domain.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		Username:     fmt.Sprintf("user%d", n),
		ReferralCode: fmt.Sprintf("REF%d", n),
		ReferredBy:   referrer,
	}
	if err := e.store.CreateUser(e.ctx, u); err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	return u
}

// fund gives the user a balance through an approved manual deposit.
func (e *testEnv) fund(userID int64, amount string) {
	e.t.Helper()
	userSeq.Lock()
	userSeq.n++
	ref := fmt.Sprintf("fund-%d", userSeq.n)
	userSeq.Unlock()

	p, err := e.engine.SubmitManualDeposit(e.ctx, userID, dec(amount), ref, "bkash", "01700000000")
	if err != nil {
		e.t.Fatalf("fund deposit: %v", err)
	}
	if _, err := e.engine.Approve(e.ctx, domain.RecordPayment, p.ID, ""); err != nil {
		e.t.Fatalf("fund approve: %v", err)
	}
}

func (e *testEnv) balance(userID int64) decimal.Decimal {
	e.t.Helper()
	u, err := e.store.GetUser(e.ctx, userID)
	if err != nil {
		e.t.Fatalf("get user: %v", err)
	}
	return u.Balance
}

func (e *testEnv) mandatoryTasks(n int) []*domain.Task {
	e.t.Helper()
	tasks := make([]*domain.Task, 0, n)
	for i := 0; i < n; i++ {
		task := &domain.Task{Title: fmt.Sprintf("task %d", i+1), IsMandatory: true}
		if err := e.store.CreateTask(e.ctx, task); err != nil {
			e.t.Fatalf("create task: %v", err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// assertConsistent checks the balance equals what the ledger implies.
func (e *testEnv) assertConsistent(userID int64) {
	e.t.Helper()
	rec, err := e.engine.Reconcile(e.ctx, userID)
	if err != nil {
		e.t.Fatalf("reconcile: %v", err)
	}
	if !rec.Consistent() {
		e.t.Fatalf("balance %s drifts from ledger %s", rec.Balance, rec.Expected)
	}
}

var bkash = map[string]string{"phone": "01711111111"}
