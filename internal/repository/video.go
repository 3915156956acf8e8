package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"eclipse/internal/model"
	"eclipse/internal/queue"
)

type videoRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	AuthorName   string    `db:"author_name"`
	AuthorAvatar string    `db:"author_avatar"`
	ThumbnailURL string    `db:"thumbnail_url"`
	VideoURL     string    `db:"video_url"`
	Likes        int64     `db:"likes"`
	Views        int64     `db:"views"`
	Duration     string    `db:"duration"`
	UploadDate   time.Time `db:"upload_date"`
}

func (row videoRow) toModel() model.Video {
	v := model.Video{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		Author:       row.AuthorName,
		AuthorAvatar: row.AuthorAvatar,
		Thumbnail:    row.ThumbnailURL,
		VideoURL:     row.VideoURL,
		Likes:        row.Likes,
		Views:        row.Views,
		UploadDate:   row.UploadDate,
		Duration:     row.Duration,
	}
	v.Normalize()
	return v
}

const videoColumns = `id, title, description, author_name, author_avatar, thumbnail_url, video_url, likes, views, duration, upload_date`

var videoCounters = map[model.Counter]bool{
	model.CounterLikes: true,
	model.CounterViews: true,
}

type videoRepository struct {
	db        *sqlx.DB
	publisher queue.Publisher
}

func NewVideoRepository(db *sqlx.DB, publisher queue.Publisher) VideoRepository {
	return &videoRepository{db: db, publisher: publisher}
}

func (r *videoRepository) List(ctx context.Context) ([]model.Video, error) {
	var rows []videoRow
	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY upload_date DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]model.Video, len(rows))
	for i, row := range rows {
		videos[i] = row.toModel()
	}
	return videos, nil
}

func (r *videoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	var row videoRow
	err := r.db.GetContext(ctx, &row, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, model.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	v := row.toModel()
	return &v, nil
}

func (r *videoRepository) Create(ctx context.Context, in model.NewVideo) (string, error) {
	query := `
		INSERT INTO videos (title, description, author_name, author_avatar, thumbnail_url, video_url, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowxContext(ctx, query,
		in.Title, in.Description, in.Author, in.AuthorAvatar, in.Thumbnail, in.VideoURL, in.Duration,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert video: %w", err)
	}

	queue.Announce(ctx, r.publisher, queue.TableVideos, queue.OpInsert, id)
	return id, nil
}

// Delete removes the video; its comments go with it through the cascade.
func (r *videoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if isMalformedID(err) {
		return model.ErrVideoNotFound
	}
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if err := requireRow(result, model.ErrVideoNotFound); err != nil {
		return err
	}

	queue.Announce(ctx, r.publisher, queue.TableVideos, queue.OpDelete, id)
	return nil
}

func (r *videoRepository) Increment(ctx context.Context, id string, counter model.Counter) error {
	if !videoCounters[counter] {
		return fmt.Errorf("%w: %s", model.ErrUnknownCounter, counter)
	}
	query := fmt.Sprintf(`UPDATE videos SET %[1]s = %[1]s + 1 WHERE id = $1`, counter)
	result, err := r.db.ExecContext(ctx, query, id)
	if isMalformedID(err) {
		return model.ErrVideoNotFound
	}
	if err != nil {
		return fmt.Errorf("increment video %s: %w", counter, err)
	}
	if err := requireRow(result, model.ErrVideoNotFound); err != nil {
		return err
	}

	queue.Announce(ctx, r.publisher, queue.TableVideos, queue.OpUpdate, id)
	return nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
