package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hookline/hookline/internal/domain"
)

// AttemptPostgresRepository stores delivery attempts in the system
// database. Request, response and origination snapshots live in JSONB
// columns; the payload itself is kept as raw bytes.
type AttemptPostgresRepository struct {
	conns domain.ConnectionProvider
}

// NewAttemptPostgresRepository creates a new Postgres-backed attempt
// repository.
func NewAttemptPostgresRepository(conns domain.ConnectionProvider) *AttemptPostgresRepository {
	return &AttemptPostgresRepository{conns: conns}
}

var _ domain.AttemptRepository = (*AttemptPostgresRepository)(nil)

var attemptColumns = []string{
	"id", "site_path", "subscription_id", "attempt_key", "status",
	"message", "payload", "request", "response", "internal",
	"created_at", "updated_at",
}

// Create persists a new pending attempt
func (r *AttemptPostgresRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	db, err := executorFor(ctx, r.conns, attempt.SitePath)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	requestJSON, err := marshalNullable(attempt.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	responseJSON, err := marshalNullable(attempt.Response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	internalJSON, err := json.Marshal(attempt.Internal)
	if err != nil {
		return fmt.Errorf("failed to marshal internal info: %w", err)
	}

	query := `
		INSERT INTO webhook_delivery_attempts (
			id, site_path, subscription_id, attempt_key, status,
			message, payload, request, response, internal,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = db.ExecContext(ctx, query,
		attempt.ID,
		attempt.SitePath,
		attempt.SubscriptionID,
		attempt.Key,
		string(attempt.Status),
		attempt.Message,
		attempt.Payload,
		requestJSON,
		responseJSON,
		internalJSON,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery attempt: %w", err)
	}
	return nil
}

// GetByID retrieves one attempt
func (r *AttemptPostgresRepository) GetByID(ctx context.Context, site, subscriptionID, id string) (*domain.DeliveryAttempt, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(attemptColumns...).
		From("webhook_delivery_attempts").
		Where(sq.Eq{"site_path": site, "subscription_id": subscriptionID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery attempt: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get delivery attempt: %w", err)
		}
		return nil, &domain.ErrNotFound{Entity: "delivery attempt", ID: id}
	}
	return scanAttempt(rows)
}

// ListBySubscription returns a subscription's attempts ordered by their
// time-sortable key, which is insertion order.
func (r *AttemptPostgresRepository) ListBySubscription(ctx context.Context, site, subscriptionID string) ([]*domain.DeliveryAttempt, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(attemptColumns...).
		From("webhook_delivery_attempts").
		Where(sq.Eq{"site_path": site, "subscription_id": subscriptionID}).
		OrderBy("attempt_key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.DeliveryAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate delivery attempts: %w", err)
	}
	return attempts, nil
}

// CountBySubscription returns how many attempts a subscription holds
func (r *AttemptPostgresRepository) CountBySubscription(ctx context.Context, site, subscriptionID string) (int, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select("COUNT(*)").
		From("webhook_delivery_attempts").
		Where(sq.Eq{"site_path": site, "subscription_id": subscriptionID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count delivery attempts: %w", err)
	}
	return count, nil
}

// Resolve persists the terminal status of an attempt. The update is
// guarded on the stored status still being pending; losing that guard
// means another worker settled the attempt first, which is surfaced as
// ErrAttemptResolved so callers can stop rather than retry.
func (r *AttemptPostgresRepository) Resolve(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	db, err := executorFor(ctx, r.conns, attempt.SitePath)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	requestJSON, err := marshalNullable(attempt.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	responseJSON, err := marshalNullable(attempt.Response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	internalJSON, err := json.Marshal(attempt.Internal)
	if err != nil {
		return fmt.Errorf("failed to marshal internal info: %w", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update("webhook_delivery_attempts").
		Set("status", string(attempt.Status)).
		Set("message", attempt.Message).
		Set("request", requestJSON).
		Set("response", responseJSON).
		Set("internal", internalJSON).
		Set("updated_at", attempt.UpdatedAt).
		Where(sq.Eq{
			"site_path":       attempt.SitePath,
			"subscription_id": attempt.SubscriptionID,
			"id":              attempt.ID,
			"status":          string(domain.AttemptStatusPending),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve delivery attempt: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing matched. Distinguish a missing attempt from one that
	// already settled.
	var status string
	err = db.QueryRowContext(ctx,
		`SELECT status FROM webhook_delivery_attempts WHERE site_path = $1 AND subscription_id = $2 AND id = $3`,
		attempt.SitePath, attempt.SubscriptionID, attempt.ID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ErrNotFound{Entity: "delivery attempt", ID: attempt.ID}
		}
		return fmt.Errorf("failed to check delivery attempt status: %w", err)
	}
	return &domain.ErrAttemptResolved{AttemptID: attempt.ID, Status: domain.AttemptStatus(status)}
}

// Delete removes one attempt
func (r *AttemptPostgresRepository) Delete(ctx context.Context, site, subscriptionID, id string) error {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete("webhook_delivery_attempts").
		Where(sq.Eq{"site_path": site, "subscription_id": subscriptionID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete delivery attempt: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "delivery attempt", ID: id}
	}
	return nil
}

// DeleteBySubscription removes every attempt of a subscription
func (r *AttemptPostgresRepository) DeleteBySubscription(ctx context.Context, site, subscriptionID string) (int, error) {
	db, err := executorFor(ctx, r.conns, site)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete("webhook_delivery_attempts").
		Where(sq.Eq{"site_path": site, "subscription_id": subscriptionID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete delivery attempts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// scanAttempt scans an attempt from a rows iterator
func scanAttempt(rows *sql.Rows) (*domain.DeliveryAttempt, error) {
	var attempt domain.DeliveryAttempt
	var status string
	var requestJSON, responseJSON, internalJSON []byte

	err := rows.Scan(
		&attempt.ID,
		&attempt.SitePath,
		&attempt.SubscriptionID,
		&attempt.Key,
		&status,
		&attempt.Message,
		&attempt.Payload,
		&requestJSON,
		&responseJSON,
		&internalJSON,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan delivery attempt: %w", err)
	}

	attempt.Status = domain.AttemptStatus(status)
	if len(requestJSON) > 0 {
		attempt.Request = &domain.AttemptRequest{}
		if err := json.Unmarshal(requestJSON, attempt.Request); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request: %w", err)
		}
	}
	if len(responseJSON) > 0 {
		attempt.Response = &domain.AttemptResponse{}
		if err := json.Unmarshal(responseJSON, attempt.Response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	if len(internalJSON) > 0 {
		if err := json.Unmarshal(internalJSON, &attempt.Internal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal internal info: %w", err)
		}
	}
	return &attempt, nil
}

// marshalNullable marshals v to JSON, mapping a nil pointer to SQL NULL.
func marshalNullable(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case *domain.AttemptRequest:
		if value == nil {
			return nil, nil
		}
	case *domain.AttemptResponse:
		if value == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
