package bot

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository/sqlite"
	"invest_platform/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func setup(t *testing.T) (*AdminBot, *fakeSender, *service.Engine, *domain.User) {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryDSN())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	plan := &domain.Plan{
		Name:                 "starter",
		DailyDepositLimit:    decimal.NewFromInt(10000),
		DailyWithdrawalLimit: decimal.NewFromInt(500),
		DailyProfitLimit:     decimal.NewFromInt(100),
		MinAmount:            decimal.NewFromInt(1),
		IsDefault:            true,
	}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatal(err)
	}
	u := &domain.User{Email: "bot@example.com", Username: "botuser", ReferralCode: "BOT1"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	engine := service.NewEngine(store, nil, service.EngineConfig{Location: time.UTC})
	out := &fakeSender{}
	b := newAdminBot(out, engine, []int64{111, 222})
	engine.Subscribe(b)
	return b, out, engine, u
}

func TestWithdrawalReviewFlow(t *testing.T) {
	b, out, engine, u := setup(t)
	ctx := context.Background()

	p, err := engine.SubmitManualDeposit(ctx, u.ID, decimal.NewFromInt(300), "TX-1", "bkash", "")
	if err != nil {
		t.Fatal(err)
	}
	// one pending-deposit notification per admin
	if len(out.sent) != 2 || out.sent[0].ChatID != 111 || out.sent[1].ChatID != 222 {
		t.Fatalf("sent = %+v", out.sent)
	}

	if got := b.respond(ctx, "approve", "payment "+itoa(p.ID)); !strings.Contains(got, "completed") {
		t.Fatalf("approve payment: %s", got)
	}
	if got := b.respond(ctx, "approve", "payment "+itoa(p.ID)); !strings.Contains(got, "уже обработан") {
		t.Fatalf("second approve: %s", got)
	}

	w, err := engine.SubmitWithdrawal(ctx, u.ID, decimal.NewFromInt(120), domain.MethodBkash, map[string]string{"phone": "01712345678"})
	if err != nil {
		t.Fatal(err)
	}
	last := out.sent[len(out.sent)-1].Text
	if !strings.Contains(last, "120.00") || !strings.Contains(last, "01712345678") {
		t.Fatalf("withdrawal notification: %s", last)
	}

	if got := b.respond(ctx, "pending", ""); !strings.Contains(got, "#"+itoa(w.ID)) {
		t.Fatalf("pending: %s", got)
	}
	if got := b.respond(ctx, "reject", "withdrawal "+itoa(w.ID)); !strings.Contains(got, "Использование") {
		t.Fatalf("reject without reason: %s", got)
	}
	if got := b.respond(ctx, "reject", "withdrawal "+itoa(w.ID)+" wrong number"); !strings.Contains(got, "rejected") {
		t.Fatalf("reject: %s", got)
	}

	got, _ := engine.Store.GetUser(ctx, u.ID)
	if !got.Balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("balance = %s", got.Balance)
	}
	if resp := b.respond(ctx, "pending", "withdrawal"); !strings.Contains(resp, "Нет ожидающих") {
		t.Fatalf("pending after reject: %s", resp)
	}
}

func TestUserAndBlockCommands(t *testing.T) {
	b, _, _, u := setup(t)
	ctx := context.Background()

	if got := b.respond(ctx, "ban", itoa(u.ID)); !strings.Contains(got, "заблокирован") {
		t.Fatalf("ban: %s", got)
	}
	got := b.respond(ctx, "user", itoa(u.ID))
	for _, want := range []string{"bot@example.com", domain.ReasonBlocked, "withdrawal: 500.00 / 500.00", "сходится"} {
		if !strings.Contains(got, want) {
			t.Errorf("user card missing %q:\n%s", want, got)
		}
	}
	if got := b.respond(ctx, "unban", "abc"); !strings.Contains(got, "Использование") {
		t.Fatalf("unban bad id: %s", got)
	}
	if got := b.respond(ctx, "user", "9999"); !strings.Contains(got, "не найден") {
		t.Fatalf("unknown user: %s", got)
	}
}

func TestAddAdminAndUnknownCommand(t *testing.T) {
	b, _, _, _ := setup(t)
	ctx := context.Background()

	if b.isAdmin(333) {
		t.Fatal("333 should not be admin yet")
	}
	b.respond(ctx, "addadmin", "333")
	if !b.isAdmin(333) {
		t.Fatal("333 should be admin")
	}
	if got := b.respond(ctx, "addadmin", "333"); !strings.Contains(got, "уже админ") {
		t.Fatalf("duplicate addadmin: %s", got)
	}
	if got := b.respond(ctx, "dance", ""); !strings.Contains(got, "Неизвестная команда") {
		t.Fatalf("unknown: %s", got)
	}
}

func TestParseRecord(t *testing.T) {
	rt, id, rest, err := parseRecord("kyc 12 photo is blurry")
	if err != nil || rt != domain.RecordKYC || id != 12 || rest != "photo is blurry" {
		t.Fatalf("got %s %d %q %v", rt, id, rest, err)
	}
	for _, bad := range []string{"", "kyc", "loan 1", "kyc x"} {
		if _, _, _, err := parseRecord(bad); err == nil {
			t.Errorf("parseRecord(%q) should fail", bad)
		}
	}
}

func TestReportEscapesHTML(t *testing.T) {
	b, out, _, _ := setup(t)
	b.Report("a < b")
	if len(out.sent) != 2 || out.sent[0].Text != "a &lt; b" {
		t.Fatalf("sent = %+v", out.sent)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
