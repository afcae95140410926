package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryDSN())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(t *testing.T, s *Store, code string) *domain.User {
	t.Helper()
	u := &domain.User{Email: code + "@example.com", Username: code, ReferralCode: code}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestUserRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := newUser(t, s, "alice")

	if err := s.SetUserBalance(ctx, u.ID, amt("12.34")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUserBlocked(ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetUserByReferralCode(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(amt("12.34")) || !got.IsBlocked {
		t.Fatalf("user = %+v", got)
	}

	if _, err := s.GetUser(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing user: %v", err)
	}
	if err := s.SetUserBlocked(ctx, 404, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing user: %v", err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := newUser(t, s, "bob")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Store) error {
		if err := tx.SetUserBalance(ctx, u.ID, amt("99")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if !got.Balance.IsZero() {
		t.Fatalf("balance = %s after rollback", got.Balance)
	}
}

func TestBalanceEntryKeyIsUnique(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := newUser(t, s, "carol")

	e := &domain.BalanceEntry{UserID: u.ID, Delta: amt("5"), Reason: "deposit", RecordKey: "payment:1:credit", BalanceAfter: amt("5")}
	ok, err := s.InsertBalanceEntry(ctx, e)
	if err != nil || !ok {
		t.Fatalf("first insert: %v %v", ok, err)
	}
	ok, err = s.InsertBalanceEntry(ctx, &domain.BalanceEntry{UserID: u.ID, Delta: amt("5"), Reason: "deposit", RecordKey: "payment:1:credit", BalanceAfter: amt("10")})
	if err != nil || ok {
		t.Fatalf("duplicate insert: %v %v", ok, err)
	}
}

func TestFinalizeIsConditional(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := newUser(t, s, "dave")

	tx := &domain.Transaction{UserID: u.ID, Amount: amt("10"), Type: domain.TxTypeWithdrawal, Status: domain.TxStatusPending}
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}
	w := &domain.Withdrawal{TransactionID: tx.ID, UserID: u.ID, Amount: amt("10"), PaymentMethod: domain.MethodBkash,
		PaymentDetails: map[string]string{"phone": "017"}, Status: domain.WithdrawalStatusPending}
	if err := s.CreateWithdrawal(ctx, w); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	if err := s.FinalizeWithdrawal(ctx, w.ID, domain.WithdrawalStatusApproved, "ok", now); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if err := s.FinalizeWithdrawal(ctx, w.ID, domain.WithdrawalStatusRejected, "no", now); !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("second finalize: %v", err)
	}
	if err := s.FinalizeWithdrawal(ctx, 777, domain.WithdrawalStatusApproved, "", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}

	got, _ := s.GetWithdrawal(ctx, w.ID)
	if got.Status != domain.WithdrawalStatusApproved || got.AdminNote != "ok" || got.ReviewedAt == nil {
		t.Fatalf("withdrawal = %+v", got)
	}
	if got.PaymentDetails["phone"] != "017" {
		t.Fatalf("details = %v", got.PaymentDetails)
	}
}

func TestSumTransactionsWindow(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := newUser(t, s, "erin")

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	add := func(at time.Time, amount string, typ domain.TransactionType, st domain.TransactionStatus) {
		s.SetClock(func() time.Time { return at })
		if err := s.CreateTransaction(ctx, &domain.Transaction{UserID: u.ID, Amount: amt(amount), Type: typ, Status: st}); err != nil {
			t.Fatal(err)
		}
	}
	add(day.Add(-time.Nanosecond), "1000", domain.TxTypeDeposit, domain.TxStatusCompleted)
	add(day, "10.10", domain.TxTypeDeposit, domain.TxStatusCompleted)
	add(day.Add(23*time.Hour), "0.20", domain.TxTypeDeposit, domain.TxStatusCompleted)
	add(day.Add(time.Hour), "500", domain.TxTypeDeposit, domain.TxStatusPending)
	add(day.Add(time.Hour), "7", domain.TxTypeBonus, domain.TxStatusCompleted)
	add(day.AddDate(0, 0, 1), "3000", domain.TxTypeDeposit, domain.TxStatusCompleted)

	got, err := s.SumTransactions(ctx, domain.TxFilter{
		UserID:   u.ID,
		Types:    []domain.TransactionType{domain.TxTypeDeposit},
		Statuses: []domain.TransactionStatus{domain.TxStatusCompleted},
		From:     day,
		To:       day.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(amt("10.30")) {
		t.Fatalf("sum = %s, want 10.30", got)
	}

	all, _ := s.SumTransactions(ctx, domain.TxFilter{UserID: u.ID})
	if !all.Equal(amt("4517.30")) {
		t.Fatalf("unfiltered sum = %s", all)
	}
}

func TestTaskProgress(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := newUser(t, s, "frank")

	must := &domain.Task{Title: "join channel", IsMandatory: true}
	extra := &domain.Task{Title: "rate app"}
	for _, task := range []*domain.Task{must, extra} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := s.CompleteTask(ctx, u.ID, must.ID); err != nil {
			t.Fatalf("CompleteTask #%d: %v", i, err)
		}
	}
	if err := s.CompleteTask(ctx, u.ID, extra.ID); err != nil {
		t.Fatal(err)
	}

	p, err := s.TaskProgress(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.CompletedMandatory != 1 || p.TotalMandatory != 1 {
		t.Fatalf("progress = %+v", p)
	}
}

func TestListPlansOrderedByPrice(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for _, p := range []*domain.Plan{
		{Name: "gold", Price: amt("1500")},
		{Name: "basic", Price: amt("0"), IsDefault: true},
		{Name: "silver", Price: amt("200")},
	} {
		if err := s.CreatePlan(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	plans, err := s.ListPlans(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 3 || plans[0].Name != "basic" || plans[1].Name != "silver" || plans[2].Name != "gold" {
		t.Fatalf("plans = %+v", plans)
	}

	def, err := s.GetDefaultPlan(ctx)
	if err != nil || def.Name != "basic" {
		t.Fatalf("default = %+v, %v", def, err)
	}
}
