package handler

import (
	"context"

	"eclipse/internal/model"
	"eclipse/internal/service"
)

// Profiles is the signed-in profile surface used by the handlers.
type Profiles interface {
	Current() *model.Profile
	Login(ctx context.Context, identifier, secret string) error
	Register(ctx context.Context, email, name, handle, secret string) error
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch model.ProfilePatch) error
	AddToHistory(ctx context.Context, videoID string) error
	ClearHistory(ctx context.Context) error
	CreatePlaylist(ctx context.Context, title, description string) (string, error)
	DeletePlaylist(ctx context.Context, id string) error
	AddToPlaylist(ctx context.Context, id, videoID string) error
	RemoveFromPlaylist(ctx context.Context, id, videoID string) error
}

// Catalog is the video catalog surface.
type Catalog interface {
	ListVideos() []model.Video
	GetVideo(ctx context.Context, id string) (*model.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	IncrementLike(ctx context.Context, id string) error
	IncrementView(ctx context.Context, id string) error
	Thread(videoID string) service.Thread
	AddComment(ctx context.Context, videoID string, in model.NewComment) error
	AddReply(ctx context.Context, videoID, parentID string, in model.NewComment) error
	LikeComment(ctx context.Context, videoID, commentID string) error
	PinComment(ctx context.Context, videoID, commentID string) error
}

// Uploader runs the video publish flow.
type Uploader interface {
	UploadVideo(ctx context.Context, req model.PublishRequest) (string, error)
}

// Feed is the community feed surface.
type Feed interface {
	ListPosts() []model.Post
	AddPost(ctx context.Context, in model.NewPost, image *model.Upload) (string, error)
	DeletePost(ctx context.Context, id string) error
	TogglePostLike(ctx context.Context, id string) error
	RepostPost(ctx context.Context, id string, actor model.Actor) (string, error)
	Thread(postID string) service.Thread
	AddPostComment(ctx context.Context, postID string, in model.NewComment) (string, error)
	AddPostCommentReply(ctx context.Context, postID, parentID string, in model.NewComment) (string, error)
	LikePostComment(ctx context.Context, postID, commentID string) error
	PinPostComment(ctx context.Context, postID, commentID string) error
	LocalImage(ctx context.Context, postID string) ([]byte, error)
}

// Channels projects channel pages.
type Channels interface {
	Project(name string) model.Channel
	ChannelVideos(name string) []model.Video
	ChannelPosts(name string) []model.Post
}

// Subscriber toggles a channel subscription for the viewer.
type Subscriber interface {
	Toggle(ctx context.Context, channel string) (bool, error)
}
