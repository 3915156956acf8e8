package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"eclipse/internal/model"
	"eclipse/internal/queue"
)

type profileRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Handle        string         `db:"handle"`
	Email         string         `db:"email"`
	AvatarURL     string         `db:"avatar_url"`
	BannerURL     string         `db:"banner_url"`
	Description   string         `db:"description"`
	Subscriptions pq.StringArray `db:"subscriptions"`
	History       pq.StringArray `db:"history"`
	Playlists     []byte         `db:"playlists"`
}

func (row profileRow) toModel() (*model.Profile, error) {
	p := &model.Profile{
		ID:            row.ID,
		Name:          row.Name,
		Handle:        row.Handle,
		Email:         row.Email,
		Avatar:        row.AvatarURL,
		Banner:        row.BannerURL,
		Description:   row.Description,
		Subscriptions: []string(row.Subscriptions),
		History:       []string(row.History),
		Playlists:     []model.Playlist{},
	}
	if p.Subscriptions == nil {
		p.Subscriptions = []string{}
	}
	if p.History == nil {
		p.History = []string{}
	}
	if len(row.Playlists) > 0 {
		if err := json.Unmarshal(row.Playlists, &p.Playlists); err != nil {
			return nil, fmt.Errorf("decode playlists: %w", err)
		}
	}
	return p, nil
}

type profileRepository struct {
	db        *sqlx.DB
	publisher queue.Publisher
}

// NewProfileRepository announces writes on publisher when it is not nil.
func NewProfileRepository(db *sqlx.DB, publisher queue.Publisher) ProfileRepository {
	return &profileRepository{db: db, publisher: publisher}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `
		SELECT id, name, handle, email, avatar_url, banner_url, description, subscriptions, history, playlists
		FROM profiles
		WHERE id = $1
	`
	var row profileRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return row.toModel()
}

func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	playlists, err := encodePlaylists(p.Playlists)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (id, name, handle, email, avatar_url, banner_url, description, subscriptions, history, playlists)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Handle, p.Email, p.Avatar, p.Banner, p.Description,
		pq.Array(nonNil(p.Subscriptions)), pq.Array(nonNil(p.History)), playlists,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	queue.Announce(ctx, r.publisher, queue.TableProfiles, queue.OpInsert, p.ID)
	return nil
}

// Update builds the SET list from the patch field by field.
func (r *profileRepository) Update(ctx context.Context, id string, patch model.ProfilePatch) error {
	if patch.IsEmpty() {
		return model.ErrEmptyPatch
	}

	var sets []string
	var args []interface{}
	add := func(column string, value interface{}, cast string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}

	if patch.Name != nil {
		add("name", *patch.Name, "")
	}
	if patch.Handle != nil {
		add("handle", *patch.Handle, "")
	}
	if patch.Avatar != nil {
		add("avatar_url", *patch.Avatar, "")
	}
	if patch.Banner != nil {
		add("banner_url", *patch.Banner, "")
	}
	if patch.Description != nil {
		add("description", *patch.Description, "")
	}
	if patch.Subscriptions != nil {
		add("subscriptions", pq.Array(nonNil(*patch.Subscriptions)), "")
	}
	if patch.History != nil {
		add("history", pq.Array(nonNil(*patch.History)), "")
	}
	if patch.Playlists != nil {
		playlists, err := encodePlaylists(*patch.Playlists)
		if err != nil {
			return err
		}
		add("playlists", playlists, "::jsonb")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE profiles SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if isMalformedID(err) {
		return model.ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrProfileNotFound
	}

	queue.Announce(ctx, r.publisher, queue.TableProfiles, queue.OpUpdate, id)
	return nil
}

// encodePlaylists renders the JSONB document as a string; lib/pq would send
// []byte as bytea.
func encodePlaylists(playlists []model.Playlist) (string, error) {
	if playlists == nil {
		playlists = []model.Playlist{}
	}
	data, err := json.Marshal(playlists)
	if err != nil {
		return "", fmt.Errorf("encode playlists: %w", err)
	}
	return string(data), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
