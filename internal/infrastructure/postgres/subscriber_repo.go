package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriberColumns = `id, email, consent, status, created_at, confirmed_at`

type SubscriberRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriberRepository(pool *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

// CreatePending relies on the unique index on email: a conflicting pending
// row is refreshed, a conflicting confirmed row yields no row at all.
func (r *SubscriberRepository) CreatePending(ctx context.Context, email string, consent bool) (*domain.Subscriber, error) {
	query := `
		INSERT INTO subscribers (id, email, consent, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (email) DO UPDATE
		SET    consent    = EXCLUDED.consent,
		       created_at = NOW()
		WHERE  subscribers.status = 'pending'
		RETURNING ` + subscriberColumns

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), strings.ToLower(email), consent)
	s, err := scanSubscriber(row)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriberNotFound) {
			return nil, domain.ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	return s, nil
}

// Confirm is idempotent: confirming a confirmed subscriber returns it unchanged.
func (r *SubscriberRepository) Confirm(ctx context.Context, id string) (*domain.Subscriber, error) {
	query := `
		UPDATE subscribers
		SET    status       = 'confirmed',
		       confirmed_at = COALESCE(confirmed_at, NOW())
		WHERE  id = $1
		RETURNING ` + subscriberColumns

	return scanSubscriber(r.pool.QueryRow(ctx, query, id))
}

func (r *SubscriberRepository) DeleteExpiredPending(ctx context.Context, createdBefore time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM subscribers
		WHERE id IN (
			SELECT id FROM subscribers
			WHERE  status = 'pending' AND created_at < $1
			ORDER  BY created_at
			LIMIT  $2
			FOR UPDATE SKIP LOCKED
		)`

	tag, err := r.pool.Exec(ctx, query, createdBefore, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired pending: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSubscriber(row pgx.Row) (*domain.Subscriber, error) {
	var s domain.Subscriber
	err := row.Scan(&s.ID, &s.Email, &s.Consent, &s.Status, &s.CreatedAt, &s.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("scan subscriber: %w", err)
	}
	return &s, nil
}
