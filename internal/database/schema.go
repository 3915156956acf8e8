package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"eclipse/internal/logger"
)

// schemaStatements are idempotent and run in order.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS auth_users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		password_hashed TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY REFERENCES auth_users(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		banner_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		subscriptions TEXT[] NOT NULL DEFAULT '{}',
		history TEXT[] NOT NULL DEFAULT '{}',
		playlists JSONB NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL,
		author_avatar TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL,
		likes BIGINT NOT NULL DEFAULT 0,
		views BIGINT NOT NULL DEFAULT 0,
		duration TEXT NOT NULL DEFAULT '',
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_upload_date ON videos (upload_date DESC)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		video_id UUID NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		parent_id UUID REFERENCES comments(id) ON DELETE CASCADE,
		author TEXT NOT NULL,
		author_avatar TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		likes BIGINT NOT NULL DEFAULT 0,
		is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
		date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_video_date ON comments (video_id, date DESC)`,
	`CREATE TABLE IF NOT EXISTS community_posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		author_name TEXT NOT NULL,
		author_avatar TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		image_url TEXT,
		likes BIGINT NOT NULL DEFAULT 0,
		reposts BIGINT NOT NULL DEFAULT 0,
		comments JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_community_posts_created_at ON community_posts (created_at DESC)`,
}

// EnsureSchema creates the tables and indexes used by the record store.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log := logger.For("Database")
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema step %d: %w", i+1, err)
		}
	}
	log.Infof("Schema ensured steps=%d", len(schemaStatements))
	return nil
}
