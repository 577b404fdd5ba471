// Package schema defines the database schema for development.
//
// DEVELOPMENT USE ONLY
// This file contains the current database schema and is used for development and testing.
// Before deploying to production, these table definitions should be converted to proper migrations.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS webhook_subscriptions (
		id UUID PRIMARY KEY,
		site_path VARCHAR(255) NOT NULL DEFAULT '',
		for_tag VARCHAR(255) NOT NULL,
		when_kind VARCHAR(255) NOT NULL,
		to_url VARCHAR(2048) NOT NULL,
		owner_id VARCHAR(255) NOT NULL DEFAULT '',
		permission_id VARCHAR(255) NOT NULL DEFAULT '',
		dialect_id VARCHAR(255) NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT FALSE,
		status_message VARCHAR(512) NOT NULL DEFAULT '',
		attempt_limit INTEGER NOT NULL DEFAULT 50,
		precondition_failure_limit INTEGER NOT NULL DEFAULT 50,
		precondition_failures INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_subscriptions_site
		ON webhook_subscriptions(site_path)`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_subscriptions_owner
		ON webhook_subscriptions(site_path, owner_id)`,
	`CREATE TABLE IF NOT EXISTS webhook_delivery_attempts (
		id UUID PRIMARY KEY,
		site_path VARCHAR(255) NOT NULL DEFAULT '',
		subscription_id UUID NOT NULL,
		attempt_key VARCHAR(64) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		message TEXT NOT NULL DEFAULT '',
		payload BYTEA,
		request JSONB,
		response JSONB,
		internal JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_webhook_delivery_attempts_subscription
		ON webhook_delivery_attempts(site_path, subscription_id, attempt_key)`,
	`CREATE TABLE IF NOT EXISTS webhook_config_generations (
		key VARCHAR(255) PRIMARY KEY,
		generation INTEGER NOT NULL DEFAULT 0,
		entries JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP NOT NULL
	)`,
}
