package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"invest_platform/internal/domain"
)

func TestManualDepositApproveCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	var u *domain.User
	for i := 0; i < 7; i++ {
		u = env.user()
	}
	if u.ID != 7 {
		t.Fatalf("expected user id 7, got %d", u.ID)
	}

	p, err := env.engine.SubmitManualDeposit(env.ctx, 7, dec("500"), "TRX-500", "bkash", "01700000000")
	if err != nil {
		t.Fatalf("SubmitManualDeposit: %v", err)
	}
	if p.Status != domain.PaymentStatusPending {
		t.Fatalf("payment status = %s", p.Status)
	}
	assertDec(t, "balance after submit", env.balance(7), "0")

	ev, err := env.engine.Approve(env.ctx, domain.RecordPayment, p.ID, "")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if ev.Status != string(domain.PaymentStatusCompleted) || ev.UserID != 7 {
		t.Fatalf("event = %+v", ev)
	}
	assertDec(t, "balance after approve", env.balance(7), "500")

	tx, err := env.store.GetTransaction(env.ctx, p.TransactionID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx.Status != domain.TxStatusCompleted {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	_, err = env.engine.Approve(env.ctx, domain.RecordPayment, p.ID, "")
	if !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("second approve: expected AlreadyFinalized, got %v", err)
	}
	_, err = env.engine.Reject(env.ctx, domain.RecordPayment, p.ID, "late")
	if !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("reject after approve: expected AlreadyFinalized, got %v", err)
	}
	assertDec(t, "balance after retries", env.balance(7), "500")
	env.assertConsistent(7)
}

func TestWithdrawalReservationAndReject(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()
	env.fund(u.ID, "1000")

	// raise the withdrawal limit via a dedicated plan
	plan := &domain.Plan{Name: "pro", DailyDepositLimit: dec("10000"), DailyWithdrawalLimit: dec("1000"), DailyProfitLimit: dec("100"), MinAmount: dec("1")}
	if err := env.store.CreatePlan(env.ctx, plan); err != nil {
		t.Fatal(err)
	}
	if err := env.store.SetUserPlan(env.ctx, u.ID, plan.ID); err != nil {
		t.Fatal(err)
	}

	w, err := env.engine.SubmitWithdrawal(env.ctx, u.ID, dec("400"), domain.MethodBkash, bkash)
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}
	if w.Status != domain.WithdrawalStatusPending {
		t.Fatalf("status = %s", w.Status)
	}
	assertDec(t, "balance after submit", env.balance(u.ID), "600")
	env.assertConsistent(u.ID)

	if _, err := env.engine.Reject(env.ctx, domain.RecordWithdrawal, w.ID, "invalid account"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	assertDec(t, "balance after reject", env.balance(u.ID), "1000")

	got, err := env.store.GetWithdrawal(env.ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.WithdrawalStatusRejected || got.AdminNote != "invalid account" {
		t.Fatalf("withdrawal = %+v", got)
	}
	if got.ReviewedAt == nil {
		t.Fatal("reviewed_at not set")
	}

	_, err = env.engine.Reject(env.ctx, domain.RecordWithdrawal, w.ID, "invalid account")
	if !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("second reject: expected AlreadyFinalized, got %v", err)
	}
	assertDec(t, "balance after second reject", env.balance(u.ID), "1000")
	env.assertConsistent(u.ID)
}

func TestWithdrawalApproveKeepsReservation(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()
	env.fund(u.ID, "800")

	w, err := env.engine.SubmitWithdrawal(env.ctx, u.ID, dec("300"), domain.MethodNagad, map[string]string{"phone": "01800000000"})
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}
	if _, err := env.engine.Approve(env.ctx, domain.RecordWithdrawal, w.ID, "paid out"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	assertDec(t, "balance", env.balance(u.ID), "500")

	tx, err := env.store.GetTransaction(env.ctx, w.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != domain.TxStatusCompleted {
		t.Fatalf("transaction status = %s", tx.Status)
	}
	env.assertConsistent(u.ID)
}

func TestConcurrentApprovalRace(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()
	env.fund(u.ID, "1000")

	w, err := env.engine.SubmitWithdrawal(env.ctx, u.ID, dec("250"), domain.MethodBkash, bkash)
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		finalized int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.Approve(env.ctx, domain.RecordWithdrawal, w.ID, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyFinalized):
				finalized++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || finalized != n-1 {
		t.Fatalf("successes=%d finalized=%d", successes, finalized)
	}
	assertDec(t, "balance", env.balance(u.ID), "750")
	env.assertConsistent(u.ID)

	got, err := env.store.GetWithdrawal(env.ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.WithdrawalStatusApproved {
		t.Fatalf("withdrawal status = %s", got.Status)
	}
	tx, err := env.store.GetTransaction(env.ctx, w.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != domain.TxStatusCompleted {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	approvals := 0
	env.events.mu.Lock()
	for _, ev := range env.events.events {
		if ev.RecordType == domain.RecordWithdrawal && ev.RecordID == w.ID && ev.Status == string(domain.WithdrawalStatusApproved) {
			approvals++
		}
	}
	env.events.mu.Unlock()
	if approvals != 1 {
		t.Fatalf("approval events = %d, want 1", approvals)
	}
}

func TestConcurrentRejectReleasesOnce(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()
	env.fund(u.ID, "1000")

	w, err := env.engine.SubmitWithdrawal(env.ctx, u.ID, dec("500"), domain.MethodBkash, bkash)
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.engine.Reject(env.ctx, domain.RecordWithdrawal, w.ID, "duplicate")
		}()
	}
	wg.Wait()

	assertDec(t, "balance", env.balance(u.ID), "1000")
	env.assertConsistent(u.ID)
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()
	p, err := env.engine.SubmitManualDeposit(env.ctx, u.ID, dec("100"), "TRX-1", "bkash", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.engine.Reject(env.ctx, domain.RecordPayment, p.ID, "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	ev, err := env.engine.Reject(env.ctx, domain.RecordPayment, p.ID, "no such transfer")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if ev.Status != string(domain.PaymentStatusFailed) {
		t.Fatalf("status = %s", ev.Status)
	}
	assertDec(t, "balance", env.balance(u.ID), "0")

	tx, _ := env.store.GetTransaction(env.ctx, p.TransactionID)
	if tx.Status != domain.TxStatusRejected {
		t.Fatalf("transaction status = %s", tx.Status)
	}
}

func TestApproveUnknownRecord(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Approve(env.ctx, domain.RecordWithdrawal, 999, "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	_, err = env.engine.Approve(env.ctx, domain.RecordType("loan"), 1, "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestKYCApproveVerifiesUser(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	d, err := env.engine.SubmitKYC(env.ctx, u.ID, domain.DocumentPassport, "https://cdn/front.jpg", "", "https://cdn/selfie.jpg")
	if err != nil {
		t.Fatalf("SubmitKYC: %v", err)
	}
	if _, err := env.engine.Approve(env.ctx, domain.RecordKYC, d.ID, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	got, _ := env.store.GetUser(env.ctx, u.ID)
	if !got.IsKYCVerified {
		t.Fatal("user not verified")
	}
	assertDec(t, "balance", got.Balance, "0")
}

func TestGatewayCallback(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	p, url, err := env.engine.SubmitGatewayDeposit(env.ctx, u.ID, dec("300"), domain.GatewayCoinGate)
	if err != nil {
		t.Fatalf("SubmitGatewayDeposit: %v", err)
	}
	if url == "" || p.GatewayReference == "" {
		t.Fatalf("payment = %+v url = %q", p, url)
	}

	_, err = env.engine.GatewayCallback(env.ctx, p.ID, "paid", "someone-else")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("mismatched reference: expected ValidationError, got %v", err)
	}
	_, err = env.engine.GatewayCallback(env.ctx, p.ID, "confirming", p.GatewayReference)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("non-final status: expected ValidationError, got %v", err)
	}

	ev, err := env.engine.GatewayCallback(env.ctx, p.ID, "PAID", p.GatewayReference)
	if err != nil {
		t.Fatalf("GatewayCallback: %v", err)
	}
	if ev.Note != "gateway:paid" {
		t.Fatalf("note = %q", ev.Note)
	}
	assertDec(t, "balance", env.balance(u.ID), "300")

	_, err = env.engine.GatewayCallback(env.ctx, p.ID, "paid", p.GatewayReference)
	if !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("replayed callback: expected AlreadyFinalized, got %v", err)
	}
	assertDec(t, "balance after replay", env.balance(u.ID), "300")
	env.assertConsistent(u.ID)
}

func TestGatewayCallbackReject(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	p, _, err := env.engine.SubmitGatewayDeposit(env.ctx, u.ID, dec("300"), domain.GatewayCoinGate)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := env.engine.GatewayCallback(env.ctx, p.ID, "expired", p.GatewayReference)
	if err != nil {
		t.Fatalf("GatewayCallback: %v", err)
	}
	if ev.Status != string(domain.PaymentStatusFailed) || ev.Note != "gateway:expired" {
		t.Fatalf("event = %+v", ev)
	}
	assertDec(t, "balance", env.balance(u.ID), "0")
}

func TestExpireStalePayments(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	past := time.Now().Add(-3 * time.Hour)
	env.store.SetClock(func() time.Time { return past })
	stale, _, err := env.engine.SubmitGatewayDeposit(env.ctx, u.ID, dec("100"), domain.GatewayCoinGate)
	if err != nil {
		t.Fatal(err)
	}
	env.store.SetClock(time.Now)
	fresh, _, err := env.engine.SubmitGatewayDeposit(env.ctx, u.ID, dec("100"), domain.GatewayCoinGate)
	if err != nil {
		t.Fatal(err)
	}

	n, err := env.engine.ExpireStalePayments(env.ctx, time.Hour)
	if err != nil {
		t.Fatalf("ExpireStalePayments: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d payments, want 1", n)
	}

	got, _ := env.store.GetPayment(env.ctx, stale.ID)
	if got.Status != domain.PaymentStatusFailed || got.AdminNote != "expired" {
		t.Fatalf("stale payment = %+v", got)
	}
	got, _ = env.store.GetPayment(env.ctx, fresh.ID)
	if got.Status != domain.PaymentStatusPending {
		t.Fatalf("fresh payment status = %s", got.Status)
	}
}

func TestTransitionsNotifyOwner(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	p, err := env.engine.SubmitManualDeposit(env.ctx, u.ID, dec("100"), "TRX-N", "nagad", "")
	if err != nil {
		t.Fatal(err)
	}
	if ev := env.events.last(); ev.Status != "pending" || ev.RecordID != p.ID {
		t.Fatalf("submission event = %+v", ev)
	}

	if _, err := env.engine.Approve(env.ctx, domain.RecordPayment, p.ID, "ok"); err != nil {
		t.Fatal(err)
	}
	ev := env.events.last()
	if ev.UserID != u.ID || ev.RecordType != domain.RecordPayment || ev.Status != "completed" {
		t.Fatalf("approval event = %+v", ev)
	}
}
