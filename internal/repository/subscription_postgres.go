package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hookline/hookline/internal/domain"
)

// SubscriptionPostgresRepository stores subscriptions in the system
// database, scoped by site path.
type SubscriptionPostgresRepository struct {
	conns domain.ConnectionProvider
}

// NewSubscriptionPostgresRepository creates a new Postgres-backed
// subscription repository.
func NewSubscriptionPostgresRepository(conns domain.ConnectionProvider) *SubscriptionPostgresRepository {
	return &SubscriptionPostgresRepository{conns: conns}
}

var _ domain.SubscriptionRepository = (*SubscriptionPostgresRepository)(nil)

// Create persists a new subscription
func (r *SubscriptionPostgresRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	db, err := executorFor(ctx, r.conns, sub.SitePath)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		INSERT INTO webhook_subscriptions (
			id, site_path, for_tag, when_kind, to_url,
			owner_id, permission_id, dialect_id, active, status_message,
			attempt_limit, precondition_failure_limit, precondition_failures,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = db.ExecContext(ctx, query,
		sub.ID,
		sub.SitePath,
		string(sub.For),
		string(sub.When),
		sub.To,
		sub.OwnerID,
		sub.PermissionID,
		sub.DialectID,
		sub.Active,
		sub.StatusMessage,
		sub.AttemptLimit,
		sub.PreconditionFailureLimit,
		sub.PreconditionFailures,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription by site and id
func (r *SubscriptionPostgresRepository) GetByID(ctx context.Context, site, id string) (*domain.Subscription, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		SELECT id, site_path, for_tag, when_kind, to_url,
			owner_id, permission_id, dialect_id, active, status_message,
			attempt_limit, precondition_failure_limit, precondition_failures,
			created_at, updated_at
		FROM webhook_subscriptions
		WHERE site_path = $1 AND id = $2
	`
	row := db.QueryRowContext(ctx, query, site, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Entity: "subscription", ID: id}
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// List returns all subscriptions for a site in creation order
func (r *SubscriptionPostgresRepository) List(ctx context.Context, site string) ([]*domain.Subscription, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		SELECT id, site_path, for_tag, when_kind, to_url,
			owner_id, permission_id, dialect_id, active, status_message,
			attempt_limit, precondition_failure_limit, precondition_failures,
			created_at, updated_at
		FROM webhook_subscriptions
		WHERE site_path = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// ListByOwner returns the subscriptions owned by a principal
func (r *SubscriptionPostgresRepository) ListByOwner(ctx context.Context, site, ownerID string) ([]*domain.Subscription, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		SELECT id, site_path, for_tag, when_kind, to_url,
			owner_id, permission_id, dialect_id, active, status_message,
			attempt_limit, precondition_failure_limit, precondition_failures,
			created_at, updated_at
		FROM webhook_subscriptions
		WHERE site_path = $1 AND owner_id = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := db.QueryContext(ctx, query, site, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions by owner: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// Update persists changes to an existing subscription. The precondition
// failure counter is excluded; it only moves through the relative
// increment and reset operations.
func (r *SubscriptionPostgresRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	db, err := executorFor(ctx, r.conns, sub.SitePath)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		UPDATE webhook_subscriptions
		SET for_tag = $3, when_kind = $4, to_url = $5,
			owner_id = $6, permission_id = $7, dialect_id = $8,
			active = $9, status_message = $10,
			attempt_limit = $11, precondition_failure_limit = $12,
			updated_at = $13
		WHERE site_path = $1 AND id = $2
	`
	result, err := db.ExecContext(ctx, query,
		sub.SitePath,
		sub.ID,
		string(sub.For),
		string(sub.When),
		sub.To,
		sub.OwnerID,
		sub.PermissionID,
		sub.DialectID,
		sub.Active,
		sub.StatusMessage,
		sub.AttemptLimit,
		sub.PreconditionFailureLimit,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "subscription", ID: sub.ID}
	}
	return nil
}

// Delete removes a subscription
func (r *SubscriptionPostgresRepository) Delete(ctx context.Context, site, id string) error {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM webhook_subscriptions WHERE site_path = $1 AND id = $2`, site, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "subscription", ID: id}
	}
	return nil
}

// IncrementPreconditionFailures bumps the counter with a store-side
// relative increment, so concurrent workers merge instead of conflicting.
func (r *SubscriptionPostgresRepository) IncrementPreconditionFailures(ctx context.Context, site, id string) (int, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		UPDATE webhook_subscriptions
		SET precondition_failures = precondition_failures + 1, updated_at = $3
		WHERE site_path = $1 AND id = $2
		RETURNING precondition_failures
	`
	var failures int
	err = db.QueryRowContext(ctx, query, site, id, time.Now().UTC()).Scan(&failures)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &domain.ErrNotFound{Entity: "subscription", ID: id}
		}
		return 0, fmt.Errorf("failed to increment precondition failures: %w", err)
	}
	return failures, nil
}

// ResetPreconditionFailures zeroes the counter
func (r *SubscriptionPostgresRepository) ResetPreconditionFailures(ctx context.Context, site, id string) error {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		UPDATE webhook_subscriptions
		SET precondition_failures = 0, updated_at = $3
		WHERE site_path = $1 AND id = $2
	`, site, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to reset precondition failures: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "subscription", ID: id}
	}
	return nil
}

// scanSubscription scans a subscription from a single row
func scanSubscription(row *sql.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	var forTag, whenKind string
	err := row.Scan(
		&sub.ID,
		&sub.SitePath,
		&forTag,
		&whenKind,
		&sub.To,
		&sub.OwnerID,
		&sub.PermissionID,
		&sub.DialectID,
		&sub.Active,
		&sub.StatusMessage,
		&sub.AttemptLimit,
		&sub.PreconditionFailureLimit,
		&sub.PreconditionFailures,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.For = domain.Tag(forTag)
	sub.When = domain.EventKind(whenKind)
	return &sub, nil
}

// scanSubscriptionFromRows scans a subscription from a rows iterator
func scanSubscriptionFromRows(rows *sql.Rows) (*domain.Subscription, error) {
	var sub domain.Subscription
	var forTag, whenKind string
	err := rows.Scan(
		&sub.ID,
		&sub.SitePath,
		&forTag,
		&whenKind,
		&sub.To,
		&sub.OwnerID,
		&sub.PermissionID,
		&sub.DialectID,
		&sub.Active,
		&sub.StatusMessage,
		&sub.AttemptLimit,
		&sub.PreconditionFailureLimit,
		&sub.PreconditionFailures,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.For = domain.Tag(forTag)
	sub.When = domain.EventKind(whenKind)
	return &sub, nil
}

func collectSubscriptions(rows *sql.Rows) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscriptionFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}
