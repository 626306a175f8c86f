package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var _ domain.SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)

type PostgresSubscriptionRepository struct {
	db *sqlx.DB
}

func NewPostgresSubscriptionRepository(db *sqlx.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, updated_at)
		VALUES (:endpoint, :p256dh, :auth, :updated_at)
		ON CONFLICT (endpoint) DO UPDATE
		SET p256dh = EXCLUDED.p256dh,
		    auth = EXCLUDED.auth,
		    updated_at = EXCLUDED.updated_at`

	rec := domain.SubscriptionRecord{
		Endpoint:  sub.Endpoint,
		P256dh:    sub.Keys.P256dh,
		Auth:      sub.Keys.Auth,
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("repository: upsert subscription failed: %w", mapSubscriptionError(err))
	}
	return nil
}

func (r *PostgresSubscriptionRepository) List(ctx context.Context) ([]*domain.SubscriptionRecord, error) {
	subs := []*domain.SubscriptionRecord{}

	query := `
		SELECT endpoint, p256dh, auth, last_answered_date, updated_at
		FROM push_subscriptions
		ORDER BY endpoint`

	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("repository: list subscriptions failed: %w", err)
	}
	return subs, nil
}

func (r *PostgresSubscriptionRepository) MarkAnswered(ctx context.Context, endpoint, date string) error {
	query := `
		UPDATE push_subscriptions
		SET last_answered_date = $1,
		    updated_at = $2
		WHERE endpoint = $3`

	result, err := r.db.ExecContext(ctx, query, date, time.Now().UTC(), endpoint)
	if err != nil {
		return mapSubscriptionError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}
