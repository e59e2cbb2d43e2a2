package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/domain"
)

type SubscriberRepository interface {
	// CreatePending inserts a pending subscriber, or refreshes an existing
	// pending one. Returns domain.ErrAlreadySubscribed for confirmed emails.
	CreatePending(ctx context.Context, email string, consent bool) (*domain.Subscriber, error)
	Confirm(ctx context.Context, id string) (*domain.Subscriber, error)
	DeleteExpiredPending(ctx context.Context, createdBefore time.Time, limit int) (int64, error)
}
