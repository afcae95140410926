package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"invest_platform/internal/config"
	"invest_platform/internal/db"
	"invest_platform/internal/domain"
	"invest_platform/internal/repository"
	"invest_platform/internal/service"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// seeds a default plan, the mandatory tasks and one user, then prints a token
func main() {
	_ = godotenv.Load()

	email := flag.String("email", "tester@example.com", "user email")
	admin := flag.Bool("admin", false, "mint an admin token")
	tasks := flag.Int("tasks", 3, "mandatory tasks to seed when none exist")
	flag.Parse()

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	service.SetJWTSecret(cfg.JWTSecret)

	var store repository.Store
	if cfg.StoreDriver == config.StoreDriverSQLite {
		s := db.ConnectSQLite(cfg.SQLitePath)
		defer s.Close()
		store = s
	} else {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPostgresStore(pool)
	}

	ctx := context.Background()

	plan, err := store.GetDefaultPlan(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		plan = &domain.Plan{
			Name:                 "starter",
			DailyDepositLimit:    decimal.NewFromInt(10000),
			DailyWithdrawalLimit: decimal.NewFromInt(5000),
			DailyProfitLimit:     decimal.NewFromInt(500),
			IsDefault:            true,
		}
		if err := store.CreatePlan(ctx, plan); err != nil {
			log.Fatalf("create plan failed: %v", err)
		}
		log.Printf("plan created id=%d name=%s\n", plan.ID, plan.Name)

		for i := 1; i <= *tasks; i++ {
			t := &domain.Task{Title: "Mandatory task " + strconv.Itoa(i), IsMandatory: true}
			if err := store.CreateTask(ctx, t); err != nil {
				log.Fatalf("create task failed: %v", err)
			}
			log.Printf("task created id=%d\n", t.ID)
		}
	} else if err != nil {
		log.Fatalf("default plan: %v", err)
	}

	u := &domain.User{
		Email:        *email,
		Username:     "tester",
		ReferralCode: "TEST" + time.Now().Format("150405"),
	}
	if err := store.CreateUser(ctx, u); err != nil {
		log.Fatalf("create user failed: %v", err)
	}
	log.Printf("user created id=%d email=%s\n", u.ID, u.Email)

	u2, err := store.GetUser(ctx, u.ID)
	if err != nil {
		log.Fatalf("get user failed: %v", err)
	}
	log.Printf("fetched user id=%d balance=%s created_at=%v\n", u2.ID, u2.Balance, u2.CreatedAt)

	token, err := service.GenerateJWT(u2.ID, *admin, 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
