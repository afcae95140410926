package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/logger"
	"invest_platform/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of *tgbotapi.BotAPI used to deliver messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminBot handles admin commands via Telegram
type AdminBot struct {
	api      *tgbotapi.BotAPI
	out      sender
	engine   *service.Engine
	mu       sync.RWMutex
	adminIDs []int64 // Telegram user IDs who can use admin commands
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewAdminBot creates a new admin bot
func NewAdminBot(token string, engine *service.Engine, adminIDs []int64) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newAdminBot(api, engine, adminIDs)
	b.api = api
	b.log.Info("admin bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newAdminBot(out sender, engine *service.Engine, adminIDs []int64) *AdminBot {
	return &AdminBot{
		out:      out,
		engine:   engine,
		adminIDs: adminIDs,
		stopCh:   make(chan struct{}),
		log:      logger.With("component", "admin_bot"),
	}
}

// Start starts listening for commands
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

// isAdmin checks if user is an admin
func (b *AdminBot) isAdmin(userID int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) admins() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]int64(nil), b.adminIDs...)
}

// handleCommand processes admin commands
func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = service.WithActor(ctx, msg.From.ID)

	response := b.respond(ctx, msg.Command(), strings.TrimSpace(msg.CommandArguments()))

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.out.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *AdminBot) respond(ctx context.Context, command, args string) string {
	switch command {
	case "start", "help":
		return helpMessage()
	case "stats":
		return b.handleStats(ctx)
	case "pending":
		return b.handlePending(ctx, args)
	case "approve":
		return b.handleApprove(ctx, args)
	case "reject":
		return b.handleReject(ctx, args)
	case "user":
		return b.handleUser(ctx, args)
	case "ban":
		return b.handleBlock(ctx, args, true)
	case "unban":
		return b.handleBlock(ctx, args, false)
	case "addadmin":
		return b.handleAddAdmin(args)
	}
	return "❌ Неизвестная команда. Используйте /help для списка команд."
}

func helpMessage() string {
	return `<b>🤖 Команды администратора</b>

<b>📊 Статистика:</b>
/stats - Статистика платформы

<b>📝 Заявки:</b>
/pending [withdrawal|payment|kyc] - Ожидающие заявки
/approve &lt;тип&gt; &lt;id&gt; [заметка] - Одобрить
/reject &lt;тип&gt; &lt;id&gt; &lt;причина&gt; - Отклонить

<b>👤 Пользователи:</b>
/user &lt;id&gt; - Баланс, лимиты и доступ к выводу
/ban &lt;id&gt; - Заблокировать вывод
/unban &lt;id&gt; - Разблокировать

<b>🔐 Управление админами:</b>
/addadmin &lt;tg_id&gt; - Добавить админа`
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	st, err := b.engine.Admin.GetStats(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>📊 Статистика платформы</b>

<b>👥 Пользователи:</b>
• Всего: %d
• Заблокировано: %d

<b>💰 Баланс:</b>
• Всего на счетах: %s
• Зарезервировано под выводы: %s

<b>📅 Сегодня:</b>
• Пополнено: %s
• Выведено: %s

<b>⏳ Ожидают проверки:</b>
• Выводы: %d
• Платежи: %d
• KYC: %d`,
		st.TotalUsers, st.BlockedUsers,
		st.TotalBalance.StringFixed(2), st.ReservedWithdrawals.StringFixed(2),
		st.DepositedSince.StringFixed(2), st.WithdrawnSince.StringFixed(2),
		st.PendingWithdrawals, st.PendingPayments, st.PendingKYC,
	)
}

func (b *AdminBot) handlePending(ctx context.Context, args string) string {
	rt := domain.RecordWithdrawal
	if args != "" {
		rt = domain.RecordType(args)
	}

	q, err := b.engine.Admin.Pending(ctx, rt, 20)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if q.Len() == 0 {
		return "✅ Нет ожидающих заявок"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>⏳ Ожидающие заявки: %s</b>\n\n", rt))

	for _, w := range q.Withdrawals {
		sb.WriteString(fmt.Sprintf("🆔 #%d | user %d\n", w.ID, w.UserID))
		sb.WriteString(fmt.Sprintf("💰 %s via %s\n", w.Amount.StringFixed(2), w.PaymentMethod))
		sb.WriteString(fmt.Sprintf("💳 %s\n", formatDetails(w.PaymentDetails)))
		sb.WriteString(fmt.Sprintf("📅 %s\n\n", w.CreatedAt.Format("02.01.2006 15:04")))
	}
	for _, p := range q.Payments {
		sb.WriteString(fmt.Sprintf("🆔 #%d | user %d\n", p.ID, p.UserID))
		sb.WriteString(fmt.Sprintf("💰 %s %s via %s\n", p.Amount.StringFixed(2), p.Currency, p.Gateway))
		if p.GatewayReference != "" {
			sb.WriteString(fmt.Sprintf("🔗 <code>%s</code>\n", html.EscapeString(p.GatewayReference)))
		}
		sb.WriteString(fmt.Sprintf("📅 %s\n\n", p.CreatedAt.Format("02.01.2006 15:04")))
	}
	for _, d := range q.KYC {
		sb.WriteString(fmt.Sprintf("🆔 #%d | user %d | %s\n", d.ID, d.UserID, d.DocumentType))
		sb.WriteString(fmt.Sprintf("📅 %s\n\n", d.CreatedAt.Format("02.01.2006 15:04")))
	}

	sb.WriteString(fmt.Sprintf("\n/approve %s &lt;id&gt; - одобрить\n/reject %s &lt;id&gt; &lt;причина&gt; - отклонить", rt, rt))
	return sb.String()
}

// parseRecord reads "<type> <id>" and returns the rest of the arguments.
func parseRecord(args string) (domain.RecordType, int64, string, error) {
	parts := strings.SplitN(args, " ", 3)
	if len(parts) < 2 {
		return "", 0, "", errors.New("not enough arguments")
	}
	rt := domain.RecordType(parts[0])
	if !rt.Valid() {
		return "", 0, "", fmt.Errorf("unknown record type %q", parts[0])
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("bad id %q", parts[1])
	}
	rest := ""
	if len(parts) == 3 {
		rest = strings.TrimSpace(parts[2])
	}
	return rt, id, rest, nil
}

func (b *AdminBot) handleApprove(ctx context.Context, args string) string {
	rt, id, note, err := parseRecord(args)
	if err != nil {
		return "❌ Использование: /approve <тип> <id> [заметка]"
	}

	ev, err := b.engine.Approve(ctx, rt, id, note)
	if err != nil {
		return reviewError(rt, id, err)
	}
	return fmt.Sprintf("✅ %s #%d: %s", rt, id, ev.Status)
}

func (b *AdminBot) handleReject(ctx context.Context, args string) string {
	rt, id, reason, err := parseRecord(args)
	if err != nil || reason == "" {
		return "❌ Использование: /reject <тип> <id> <причина>"
	}

	ev, err := b.engine.Reject(ctx, rt, id, reason)
	if err != nil {
		return reviewError(rt, id, err)
	}
	msg := fmt.Sprintf("❌ %s #%d: %s", rt, id, ev.Status)
	if rt == domain.RecordWithdrawal {
		msg += ". Средства возвращены."
	}
	return msg
}

func reviewError(rt domain.RecordType, id int64, err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyFinalized):
		return fmt.Sprintf("⚠️ %s #%d уже обработан", rt, id)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("❌ %s #%d не найден", rt, id)
	}
	return fmt.Sprintf("❌ Ошибка: %v", err)
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	userID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return "❌ Использование: /user <id>"
	}

	u, err := b.engine.Store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Sprintf("❌ Пользователь не найден: %v", err)
	}
	elig, err := b.engine.GetEligibility(ctx, userID)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	rec, err := b.engine.Reconcile(ctx, userID)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	var limits strings.Builder
	for _, kind := range []domain.LimitKind{domain.LimitDeposit, domain.LimitWithdrawal, domain.LimitProfit} {
		st, err := b.engine.GetRemainingLimit(ctx, userID, kind, time.Now())
		if err != nil {
			return fmt.Sprintf("❌ Ошибка: %v", err)
		}
		limits.WriteString(fmt.Sprintf("• %s: %s / %s\n", kind, st.RemainingLimit.StringFixed(2), st.DailyLimit.StringFixed(2)))
	}

	access := "✅ разрешён"
	if !elig.Allowed {
		access = "🚫 " + elig.Reason
	}
	ledger := "✅ сходится"
	if !rec.Consistent() {
		ledger = "⚠️ расхождение " + rec.Drift.StringFixed(2)
	}

	return fmt.Sprintf(`<b>👤 Пользователь #%d</b>

• Email: %s
• Username: %s
• 💰 Баланс: %s
• KYC: %v
• Задания: %d/%d
• Вывод: %s
• Журнал: %s

<b>Остаток лимитов на сегодня:</b>
%s
• 📅 Регистрация: %s`,
		u.ID,
		html.EscapeString(u.Email),
		html.EscapeString(u.Username),
		u.Balance.StringFixed(2),
		u.IsKYCVerified,
		elig.CompletedMandatory, elig.TotalMandatory,
		access,
		ledger,
		limits.String(),
		u.CreatedAt.Format("02.01.2006 15:04"),
	)
}

func (b *AdminBot) handleBlock(ctx context.Context, args string, blocked bool) string {
	userID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		if blocked {
			return "❌ Использование: /ban <id>"
		}
		return "❌ Использование: /unban <id>"
	}

	if err := b.engine.Admin.BlockUser(ctx, userID, blocked); err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if blocked {
		return fmt.Sprintf("🚫 Пользователь %d заблокирован", userID)
	}
	return fmt.Sprintf("✅ Пользователь %d разблокирован", userID)
}

func (b *AdminBot) handleAddAdmin(args string) string {
	tgID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return "❌ Использование: /addadmin <tg_id>"
	}
	if b.isAdmin(tgID) {
		return fmt.Sprintf("ℹ️ %d уже админ", tgID)
	}

	b.mu.Lock()
	b.adminIDs = append(b.adminIDs, tgID)
	b.mu.Unlock()
	b.log.Info("added new admin", "tg_id", tgID)

	return fmt.Sprintf("✅ Добавлен админ %d\n\n⚠️ Это временно до перезапуска. Добавьте в ADMIN_TELEGRAM_IDS для постоянного доступа.", tgID)
}

// Notify tells admins about new submissions. Other status events are ignored.
func (b *AdminBot) Notify(ctx context.Context, ev domain.StatusEvent) {
	if ev.Status != "pending" {
		return
	}

	var message string
	switch ev.RecordType {
	case domain.RecordWithdrawal:
		message = b.withdrawalMessage(ctx, ev.RecordID)
	case domain.RecordPayment:
		message = fmt.Sprintf("🔔 <b>Новый депозит</b> #%d от пользователя %d\n\n/approve payment %d\n/reject payment %d причина",
			ev.RecordID, ev.UserID, ev.RecordID, ev.RecordID)
	case domain.RecordKYC:
		message = fmt.Sprintf("🔔 <b>Новая заявка KYC</b> #%d от пользователя %d\n\n/approve kyc %d\n/reject kyc %d причина",
			ev.RecordID, ev.UserID, ev.RecordID, ev.RecordID)
	}
	if message == "" {
		return
	}
	b.broadcast(message)
}

func (b *AdminBot) withdrawalMessage(ctx context.Context, withdrawalID int64) string {
	w, err := b.engine.Admin.GetWithdrawalNotification(ctx, withdrawalID)
	if err != nil {
		b.log.Error("failed to get withdrawal for notification", "error", err)
		return ""
	}

	return fmt.Sprintf(`🔔 <b>Новый запрос на вывод!</b>

👤 Пользователь: %s (#%d)
💰 Сумма: %s
💳 Способ: %s
📋 Реквизиты: %s
💼 Остаток баланса: %s

ID: #%d

/approve withdrawal %d - одобрить
/reject withdrawal %d причина - отклонить`,
		html.EscapeString(w.Username), w.UserID,
		w.Amount.StringFixed(2),
		w.PaymentMethod,
		formatDetails(w.PaymentDetails),
		w.Balance.StringFixed(2),
		w.WithdrawalID, w.WithdrawalID, w.WithdrawalID)
}

// Report sends a plain text report to every admin.
func (b *AdminBot) Report(text string) {
	b.broadcast(html.EscapeString(text))
}

func (b *AdminBot) broadcast(message string) {
	for _, adminID := range b.admins() {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.out.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

func formatDetails(details map[string]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=<code>%s</code>", k, html.EscapeString(details[k])))
	}
	return strings.Join(parts, ", ")
}
