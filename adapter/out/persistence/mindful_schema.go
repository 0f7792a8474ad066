// Package persistence implements the PostgreSQL store for users and tweets.
package persistence

// Schema is applied by EnsureIndexes. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	token         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_email_created
	ON users (lower(email), created_at);

CREATE TABLE IF NOT EXISTS tweets (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL,
	text       TEXT NOT NULL,
	emotion    TEXT NOT NULL,
	message    TEXT NOT NULL,
	suggestion TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tweets_user_created
	ON tweets (user_id, created_at DESC);
`

// UniqueEmailSchema is applied after Schema when the store enforces unique
// emails. Creation fails if duplicate addresses are already stored.
const UniqueEmailSchema = `
CREATE UNIQUE INDEX IF NOT EXISTS ` + uniqueEmailIndex + `
	ON users (lower(email));
`

const uniqueEmailIndex = "idx_users_email_unique"
