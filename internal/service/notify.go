package service

import (
	"context"

	"invest_platform/internal/domain"
)

// Notifier receives status events after the store transaction has committed.
type Notifier interface {
	Notify(ctx context.Context, ev domain.StatusEvent)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev domain.StatusEvent)

func (f NotifierFunc) Notify(ctx context.Context, ev domain.StatusEvent) { f(ctx, ev) }

type fanout []Notifier

func (f fanout) Notify(ctx context.Context, ev domain.StatusEvent) {
	for _, n := range f {
		n.Notify(ctx, ev)
	}
}

// Notifiers combines several notifiers, skipping nil ones.
func Notifiers(ns ...Notifier) Notifier {
	var f fanout
	for _, n := range ns {
		if n != nil {
			f = append(f, n)
		}
	}
	return f
}

type actorKey struct{}

// WithActor records the admin acting on a request, for audit logs.
func WithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

func actorFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(actorKey{}).(int64)
	return id
}

func domainKind(err error) string {
	return domain.Kind(err)
}
