package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS source_ratings (
	source_id  TEXT PRIMARY KEY,
	successes  INTEGER NOT NULL DEFAULT 0,
	failures   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rating_audit (
	id         BIGSERIAL PRIMARY KEY,
	ts         TIMESTAMPTZ NOT NULL,
	source_id  TEXT NOT NULL,
	event      TEXT NOT NULL,
	fact_hash  TEXT NOT NULL,
	successes  INTEGER NOT NULL,
	failures   INTEGER NOT NULL,
	extra      JSONB
);
CREATE INDEX IF NOT EXISTS rating_audit_source_idx ON rating_audit (source_id, ts);

CREATE TABLE IF NOT EXISTS verification_queue (
	position      INTEGER PRIMARY KEY,
	fact          TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	source_name   TEXT NOT NULL,
	source_rating DOUBLE PRECISION NOT NULL,
	source_url    TEXT NOT NULL DEFAULT '',
	inserted_at   TIMESTAMPTZ NOT NULL,
	confidence    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stories (
	id            TEXT PRIMARY KEY,
	day           TEXT NOT NULL,
	sequence      INTEGER NOT NULL,
	hash          TEXT NOT NULL,
	fact          TEXT NOT NULL,
	sources       JSONB NOT NULL,
	attribution   TEXT NOT NULL,
	audio_ref     TEXT NOT NULL DEFAULT '',
	published_at  TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	status        TEXT NOT NULL,
	original_fact TEXT NOT NULL DEFAULT '',
	correction    JSONB,
	UNIQUE (day, sequence)
);
CREATE INDEX IF NOT EXISTS stories_published_idx ON stories (published_at);

CREATE TABLE IF NOT EXISTS corrections (
	id                 TEXT PRIMARY KEY,
	story_id           TEXT NOT NULL,
	ts                 TIMESTAMPTZ NOT NULL,
	type               TEXT NOT NULL,
	original_fact      TEXT NOT NULL,
	corrected_fact     TEXT NOT NULL DEFAULT '',
	reason             TEXT NOT NULL,
	correcting_sources JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS corrections_ts_idx ON corrections (ts);
`

// Migrate creates the tables used by the postgres backend. It is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
