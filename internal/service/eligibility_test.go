package service

import (
	"errors"
	"testing"

	"invest_platform/internal/domain"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name    string
		blocked bool
		done    int
		total   int
		allowed bool
		reason  string
	}{
		{"no tasks", false, 0, 0, true, ""},
		{"all done", false, 3, 3, true, ""},
		{"missing one", false, 2, 3, false, domain.ReasonTasksIncomplete},
		{"blocked wins", true, 0, 3, false, domain.ReasonBlocked},
		{"blocked with tasks done", true, 3, 3, false, domain.ReasonBlocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := evaluate(&domain.User{IsBlocked: tc.blocked}, domain.TaskProgress{CompletedMandatory: tc.done, TotalMandatory: tc.total})
			if e.Allowed != tc.allowed || e.Reason != tc.reason {
				t.Fatalf("got %+v", e)
			}
		})
	}
}

func TestCompleteTaskUnlocksWithdrawal(t *testing.T) {
	env := newTestEnv(t)
	tasks := env.mandatoryTasks(3)
	optional := &domain.Task{Title: "follow us"}
	if err := env.store.CreateTask(env.ctx, optional); err != nil {
		t.Fatal(err)
	}
	u := env.user()
	env.fund(u.ID, "100")

	for _, task := range tasks[:2] {
		if _, err := env.engine.CompleteTask(env.ctx, u.ID, task.ID); err != nil {
			t.Fatal(err)
		}
	}
	// optional tasks do not count
	e, err := env.engine.CompleteTask(env.ctx, u.ID, optional.ID)
	if err != nil {
		t.Fatal(err)
	}
	if e.Allowed || e.Reason != domain.ReasonTasksIncomplete || e.CompletedMandatory != 2 || e.TotalMandatory != 3 {
		t.Fatalf("after 2 of 3: %+v", e)
	}

	_, err = env.engine.SubmitWithdrawal(env.ctx, u.ID, dec("50"), domain.MethodBkash, bkash)
	if !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("expected NotEligible, got %v", err)
	}

	e, err = env.engine.CompleteTask(env.ctx, u.ID, tasks[2].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Allowed {
		t.Fatalf("after 3 of 3: %+v", e)
	}

	// completing twice is harmless
	if _, err := env.engine.CompleteTask(env.ctx, u.ID, tasks[2].ID); err != nil {
		t.Fatalf("repeat completion: %v", err)
	}

	if _, err := env.engine.SubmitWithdrawal(env.ctx, u.ID, dec("50"), domain.MethodBkash, bkash); err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	if _, err := env.engine.CompleteTask(env.ctx, u.ID, 4242); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEligibilityReflectsBlock(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	e, err := env.engine.GetEligibility(env.ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Allowed {
		t.Fatalf("fresh user: %+v", e)
	}

	if err := env.engine.Admin.BlockUser(env.ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}
	e, _ = env.engine.GetEligibility(env.ctx, u.ID)
	if e.Allowed || e.Reason != domain.ReasonBlocked {
		t.Fatalf("blocked user: %+v", e)
	}
}
