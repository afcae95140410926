package scheduler

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/logger"
	"invest_platform/internal/repository"

	"github.com/robfig/cron/v3"
)

// Expirer fails gateway payments that never received a callback.
type Expirer interface {
	ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error)
}

// StatsSource supplies the numbers for the daily admin report.
type StatsSource interface {
	GetStats(ctx context.Context) (*repository.Stats, error)
}

// Reporter delivers a text report to admins.
type Reporter interface {
	Report(text string)
}

type Config struct {
	Location      *time.Location
	PaymentExpiry time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	expirer  Expirer
	stats    StatsSource
	reporter Reporter
	cfg      Config
}

func NewScheduler(expirer Expirer, stats StatsSource, reporter Reporter, cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PaymentExpiry <= 0 {
		cfg.PaymentExpiry = time.Hour
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location)),
		expirer:  expirer,
		stats:    stats,
		reporter: reporter,
		cfg:      cfg,
	}
}

func (s *Scheduler) Start() error {
	// expire abandoned gateway checkouts every 5 minutes
	if _, err := s.cron.AddFunc("*/5 * * * *", s.expireStalePayments); err != nil {
		return fmt.Errorf("failed to add payment expiry job: %w", err)
	}

	// daily summary right after the limit window rolls over
	if _, err := s.cron.AddFunc("5 0 * * *", s.dailyReport); err != nil {
		return fmt.Errorf("failed to add daily report job: %w", err)
	}

	s.cron.Start()
	logger.Info("cron scheduler started", "timezone", s.cfg.Location.String())
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("cron scheduler stopped")
}

func (s *Scheduler) expireStalePayments() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.expirer.ExpireStalePayments(ctx, s.cfg.PaymentExpiry)
	if err != nil {
		logger.Error("payment expiry failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("expired stale payments", "count", n)
	}
}

func (s *Scheduler) dailyReport() {
	if s.reporter == nil || s.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := s.stats.GetStats(ctx)
	if err != nil {
		logger.Error("daily report failed", "error", err)
		return
	}
	s.reporter.Report(FormatStats(st))
}

// FormatStats renders stats as a plain text admin message.
func FormatStats(st *repository.Stats) string {
	return fmt.Sprintf(`📊 Platform stats

Users: %d (blocked %d)
Total balance: %s
Pending: %d withdrawals, %d payments, %d KYC
Reserved for withdrawals: %s
Deposited today: %s
Withdrawn today: %s`,
		st.TotalUsers, st.BlockedUsers,
		st.TotalBalance.StringFixed(2),
		st.PendingWithdrawals, st.PendingPayments, st.PendingKYC,
		st.ReservedWithdrawals.StringFixed(2),
		st.DepositedSince.StringFixed(2),
		st.WithdrawnSince.StringFixed(2),
	)
}
