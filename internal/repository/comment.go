package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"eclipse/internal/model"
	"eclipse/internal/queue"
)

type commentRow struct {
	ID           string         `db:"id"`
	VideoID      string         `db:"video_id"`
	ParentID     sql.NullString `db:"parent_id"`
	Author       string         `db:"author"`
	AuthorAvatar string         `db:"author_avatar"`
	Content      string         `db:"content"`
	Likes        int64          `db:"likes"`
	IsPinned     bool           `db:"is_pinned"`
	Date         time.Time      `db:"date"`
}

func (row commentRow) toModel() model.Comment {
	c := model.Comment{
		ID:           row.ID,
		VideoID:      row.VideoID,
		Author:       row.Author,
		AuthorAvatar: row.AuthorAvatar,
		Content:      row.Content,
		Likes:        row.Likes,
		IsPinned:     row.IsPinned,
		Date:         row.Date,
	}
	if row.ParentID.Valid {
		parent := row.ParentID.String
		c.ParentID = &parent
	}
	c.Normalize()
	return c
}

type commentRepository struct {
	db        *sqlx.DB
	publisher queue.Publisher
}

func NewCommentRepository(db *sqlx.DB, publisher queue.Publisher) CommentRepository {
	return &commentRepository{db: db, publisher: publisher}
}

func (r *commentRepository) ListByVideo(ctx context.Context, videoID string) ([]model.Comment, error) {
	query := `
		SELECT id, video_id, parent_id, author, author_avatar, content, likes, is_pinned, date
		FROM comments
		WHERE video_id = $1
		ORDER BY date DESC
	`
	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, videoID)
	if isMalformedID(err) {
		return []model.Comment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toModel()
	}
	return comments, nil
}

func (r *commentRepository) Create(ctx context.Context, videoID string, parentID *string, in model.NewComment) (string, error) {
	query := `
		INSERT INTO comments (video_id, parent_id, author, author_avatar, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowxContext(ctx, query, videoID, parentID, in.Author, in.AuthorAvatar, in.Content).Scan(&id)
	if err != nil {
		switch {
		case isMalformedID(err):
			return "", model.ErrVideoNotFound
		case isForeignKeyViolation(err) && parentID != nil:
			return "", model.ErrParentNotFound
		case isForeignKeyViolation(err):
			return "", model.ErrVideoNotFound
		}
		return "", fmt.Errorf("insert comment: %w", err)
	}

	queue.Announce(ctx, r.publisher, queue.TableComments, queue.OpInsert, id)
	return id, nil
}

func (r *commentRepository) IncrementLikes(ctx context.Context, videoID, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE comments SET likes = likes + 1 WHERE id = $1 AND video_id = $2`, id, videoID)
	if isMalformedID(err) {
		return model.ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("increment comment likes: %w", err)
	}
	if err := requireRow(result, model.ErrCommentNotFound); err != nil {
		return err
	}

	queue.Announce(ctx, r.publisher, queue.TableComments, queue.OpUpdate, id)
	return nil
}

func (r *commentRepository) ClearPins(ctx context.Context, videoID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE comments SET is_pinned = FALSE WHERE video_id = $1 AND is_pinned`, videoID)
	if isMalformedID(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clear pins: %w", err)
	}
	queue.Announce(ctx, r.publisher, queue.TableComments, queue.OpUpdate, videoID)
	return nil
}

func (r *commentRepository) SetPinned(ctx context.Context, videoID, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE comments SET is_pinned = TRUE WHERE id = $1 AND video_id = $2`, id, videoID)
	if isMalformedID(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set pinned: %w", err)
	}
	queue.Announce(ctx, r.publisher, queue.TableComments, queue.OpUpdate, id)
	return nil
}
