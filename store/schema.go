package store

import "database/sql"

// Schema is the complete zemahub schema. All statements are idempotent.
const Schema = `
-- Videos ingested from the external catalog, keyed by the stable video ID.
CREATE TABLE IF NOT EXISTS videos (
    video_id       TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    channel_name   TEXT NOT NULL,
    views          INTEGER NOT NULL DEFAULT 0,
    likes          INTEGER NOT NULL DEFAULT 0,
    comments       INTEGER NOT NULL DEFAULT 0,
    thumbnail      TEXT NOT NULL DEFAULT '',
    published_at   INTEGER NOT NULL,
    trending_score REAL NOT NULL DEFAULT 0,
    growth_score   REAL NOT NULL DEFAULT 0,
    last_stats_at  INTEGER,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_trending ON videos(trending_score DESC);
CREATE INDEX IF NOT EXISTS idx_videos_growth ON videos(growth_score DESC);
CREATE INDEX IF NOT EXISTS idx_videos_published ON videos(published_at DESC);

-- Accounts
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user',
    status        TEXT NOT NULL DEFAULT 'active',
    created_at    INTEGER NOT NULL
);

-- Per-user keyed sets
CREATE TABLE IF NOT EXISTS favorites (
    user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    video_id TEXT NOT NULL,
    added_at INTEGER NOT NULL,
    PRIMARY KEY (user_id, video_id)
);

CREATE TABLE IF NOT EXISTS watch_later (
    user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    video_id TEXT NOT NULL,
    added_at INTEGER NOT NULL,
    PRIMARY KEY (user_id, video_id)
);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
