package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"eclipse/internal/model"
	"eclipse/internal/queue"
)

type postRow struct {
	ID           string         `db:"id"`
	AuthorName   string         `db:"author_name"`
	AuthorAvatar string         `db:"author_avatar"`
	Content      string         `db:"content"`
	ImageURL     sql.NullString `db:"image_url"`
	Likes        int64          `db:"likes"`
	Reposts      int64          `db:"reposts"`
	Comments     []byte         `db:"comments"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (row postRow) toModel() (model.Post, error) {
	p := model.Post{
		ID:           row.ID,
		Author:       row.AuthorName,
		AuthorAvatar: row.AuthorAvatar,
		Content:      row.Content,
		ImageURL:     row.ImageURL.String,
		Date:         row.CreatedAt,
		Likes:        row.Likes,
		Reposts:      row.Reposts,
	}
	if len(row.Comments) > 0 {
		if err := json.Unmarshal(row.Comments, &p.Comments); err != nil {
			return model.Post{}, fmt.Errorf("decode comments of post %s: %w", row.ID, err)
		}
	}
	p.Normalize()
	return p, nil
}

const postColumns = `id, author_name, author_avatar, content, image_url, likes, reposts, comments, created_at`

var postCounters = map[model.Counter]bool{
	model.CounterLikes:   true,
	model.CounterReposts: true,
}

type postRepository struct {
	db        *sqlx.DB
	publisher queue.Publisher
}

func NewPostRepository(db *sqlx.DB, publisher queue.Publisher) PostRepository {
	return &postRepository{db: db, publisher: publisher}
}

func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	var rows []postRow
	query := `SELECT ` + postColumns + ` FROM community_posts ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, `SELECT `+postColumns+` FROM community_posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a NULL image_url when imageURL is empty.
func (r *postRepository) Create(ctx context.Context, in model.NewPost, imageURL string) (string, error) {
	query := `
		INSERT INTO community_posts (author_name, author_avatar, content, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	image := sql.NullString{String: imageURL, Valid: imageURL != ""}

	var id string
	if err := r.db.QueryRowxContext(ctx, query, in.Author, in.AuthorAvatar, in.Content, image).Scan(&id); err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}

	queue.Announce(ctx, r.publisher, queue.TablePosts, queue.OpInsert, id)
	return id, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM community_posts WHERE id = $1`, id)
	if isMalformedID(err) {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := requireRow(result, model.ErrPostNotFound); err != nil {
		return err
	}

	queue.Announce(ctx, r.publisher, queue.TablePosts, queue.OpDelete, id)
	return nil
}

func (r *postRepository) Increment(ctx context.Context, id string, counter model.Counter) error {
	if !postCounters[counter] {
		return fmt.Errorf("%w: %s", model.ErrUnknownCounter, counter)
	}
	query := fmt.Sprintf(`UPDATE community_posts SET %[1]s = %[1]s + 1 WHERE id = $1`, counter)
	result, err := r.db.ExecContext(ctx, query, id)
	if isMalformedID(err) {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("increment post %s: %w", counter, err)
	}
	if err := requireRow(result, model.ErrPostNotFound); err != nil {
		return err
	}

	queue.Announce(ctx, r.publisher, queue.TablePosts, queue.OpUpdate, id)
	return nil
}

func (r *postRepository) SaveComments(ctx context.Context, id string, comments []model.Comment) error {
	if comments == nil {
		comments = []model.Comment{}
	}
	data, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE community_posts SET comments = $1::jsonb WHERE id = $2`, string(data), id)
	if isMalformedID(err) {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("save post comments: %w", err)
	}
	if err := requireRow(result, model.ErrPostNotFound); err != nil {
		return err
	}

	queue.Announce(ctx, r.publisher, queue.TablePosts, queue.OpUpdate, id)
	return nil
}
