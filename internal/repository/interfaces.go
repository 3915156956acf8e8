package repository

import (
	"context"

	"eclipse/internal/model"
)

type AuthUserRepository interface {
	Create(ctx context.Context, user *model.AuthUser) error
	GetByID(ctx context.Context, id string) (*model.AuthUser, error)
	GetByEmail(ctx context.Context, email string) (*model.AuthUser, error)
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	// Create inserts the profile unless one already exists for its id.
	Create(ctx context.Context, profile *model.Profile) error
	// Update writes only the non-nil fields of patch.
	Update(ctx context.Context, id string, patch model.ProfilePatch) error
}

type VideoRepository interface {
	// List returns every video, newest upload first, without comments.
	List(ctx context.Context) ([]model.Video, error)
	GetByID(ctx context.Context, id string) (*model.Video, error)
	Create(ctx context.Context, in model.NewVideo) (string, error)
	Delete(ctx context.Context, id string) error
	// Increment adds one to counter in a single statement.
	Increment(ctx context.Context, id string, counter model.Counter) error
}

type CommentRepository interface {
	// ListByVideo returns the flat comment rows of a video, newest first.
	ListByVideo(ctx context.Context, videoID string) ([]model.Comment, error)
	Create(ctx context.Context, videoID string, parentID *string, in model.NewComment) (string, error)
	// IncrementLikes only touches a comment that belongs to videoID.
	IncrementLikes(ctx context.Context, videoID, id string) error
	// ClearPins unpins every comment of a video.
	ClearPins(ctx context.Context, videoID string) error
	// SetPinned pins one comment of videoID; an unknown id, or one from
	// another video, is not an error.
	SetPinned(ctx context.Context, videoID, id string) error
}

type PostRepository interface {
	// List returns every post, newest first, with its comment document.
	List(ctx context.Context) ([]model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, in model.NewPost, imageURL string) (string, error)
	Delete(ctx context.Context, id string) error
	Increment(ctx context.Context, id string, counter model.Counter) error
	// SaveComments replaces the post's whole comment document.
	SaveComments(ctx context.Context, id string, comments []model.Comment) error
}
