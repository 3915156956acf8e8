package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"eclipse/internal/model"
	"eclipse/internal/service"
	"eclipse/internal/transport/http/middleware"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeProfiles struct {
	mu sync.Mutex

	profile  *model.Profile
	err      error
	patches  []model.ProfilePatch
	history  []string
	lastCall string
}

func (f *fakeProfiles) Current() *model.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile.Clone()
}

func (f *fakeProfiles) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = call
	return f.err
}

func (f *fakeProfiles) Login(ctx context.Context, identifier, secret string) error {
	return f.record("Login " + identifier)
}

func (f *fakeProfiles) Register(ctx context.Context, email, name, handle, secret string) error {
	return f.record("Register " + email + " " + name + " " + handle)
}

func (f *fakeProfiles) Logout(ctx context.Context) error {
	return f.record("Logout")
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, patch model.ProfilePatch) error {
	if err := f.record("UpdateProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	if f.profile != nil {
		patch.Apply(f.profile)
	}
	return nil
}

func (f *fakeProfiles) AddToHistory(ctx context.Context, videoID string) error {
	if err := f.record("AddToHistory"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, videoID)
	return nil
}

func (f *fakeProfiles) ClearHistory(ctx context.Context) error {
	return f.record("ClearHistory")
}

func (f *fakeProfiles) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	return "pl-new", f.record("CreatePlaylist " + title)
}

func (f *fakeProfiles) DeletePlaylist(ctx context.Context, id string) error {
	return f.record("DeletePlaylist " + id)
}

func (f *fakeProfiles) AddToPlaylist(ctx context.Context, id, videoID string) error {
	return f.record("AddToPlaylist " + id + " " + videoID)
}

func (f *fakeProfiles) RemoveFromPlaylist(ctx context.Context, id, videoID string) error {
	return f.record("RemoveFromPlaylist " + id + " " + videoID)
}

// fakeThread records the last call and serves fixed comments.
type fakeThread struct {
	comments []model.Comment
	err      error
}

func (t *fakeThread) Comments(ctx context.Context) ([]model.Comment, error) {
	return t.comments, t.err
}

func (t *fakeThread) Add(ctx context.Context, in model.NewComment) (string, error) {
	return "c-new", t.err
}

func (t *fakeThread) Reply(ctx context.Context, parentID string, in model.NewComment) (string, error) {
	return "c-reply", t.err
}

func (t *fakeThread) Like(ctx context.Context, commentID string) error { return t.err }

func (t *fakeThread) Pin(ctx context.Context, commentID string) error { return t.err }

type fakeCatalog struct {
	mu sync.Mutex

	videos   []model.Video
	thread   *fakeThread
	err      error
	calls    []string
	comments []model.NewComment
}

func (f *fakeCatalog) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeCatalog) ListVideos() []model.Video { return f.videos }

func (f *fakeCatalog) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.videos {
		if v.ID == id {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) DeleteVideo(ctx context.Context, id string) error {
	return f.record("DeleteVideo " + id)
}

func (f *fakeCatalog) IncrementLike(ctx context.Context, id string) error {
	return f.record("IncrementLike " + id)
}

func (f *fakeCatalog) IncrementView(ctx context.Context, id string) error {
	return f.record("IncrementView " + id)
}

func (f *fakeCatalog) Thread(videoID string) service.Thread {
	if f.thread == nil {
		return &fakeThread{}
	}
	return f.thread
}

func (f *fakeCatalog) AddComment(ctx context.Context, videoID string, in model.NewComment) error {
	f.mu.Lock()
	f.comments = append(f.comments, in)
	f.mu.Unlock()
	return f.record("AddComment " + videoID)
}

func (f *fakeCatalog) AddReply(ctx context.Context, videoID, parentID string, in model.NewComment) error {
	f.mu.Lock()
	f.comments = append(f.comments, in)
	f.mu.Unlock()
	return f.record("AddReply " + videoID + " " + parentID)
}

func (f *fakeCatalog) LikeComment(ctx context.Context, videoID, commentID string) error {
	return f.record("LikeComment " + videoID + " " + commentID)
}

func (f *fakeCatalog) PinComment(ctx context.Context, videoID, commentID string) error {
	return f.record("PinComment " + videoID + " " + commentID)
}

type fakeUploader struct {
	requests []model.PublishRequest
	err      error
}

func (f *fakeUploader) UploadVideo(ctx context.Context, req model.PublishRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if req.Video == nil {
		return "", model.ErrNoVideoFile
	}
	return "v-new", nil
}

type fakeFeed struct {
	mu sync.Mutex

	posts    []model.Post
	thread   *fakeThread
	images   map[string][]byte
	err      error
	calls    []string
	created  []model.NewPost
	uploads  []*model.Upload
	reposted string
}

func (f *fakeFeed) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeFeed) ListPosts() []model.Post { return f.posts }

func (f *fakeFeed) AddPost(ctx context.Context, in model.NewPost, image *model.Upload) (string, error) {
	if err := f.record("AddPost"); err != nil {
		return "", err
	}
	if in.Content == "" {
		return "", model.ErrContentRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	f.uploads = append(f.uploads, image)
	return "p-new", nil
}

func (f *fakeFeed) DeletePost(ctx context.Context, id string) error {
	return f.record("DeletePost " + id)
}

func (f *fakeFeed) TogglePostLike(ctx context.Context, id string) error {
	return f.record("TogglePostLike " + id)
}

func (f *fakeFeed) RepostPost(ctx context.Context, id string, actor model.Actor) (string, error) {
	if err := f.record("RepostPost " + id + " " + actor.Name); err != nil {
		return "", err
	}
	for _, p := range f.posts {
		if p.ID == id {
			return "p-repost", nil
		}
	}
	return "", nil
}

func (f *fakeFeed) Thread(postID string) service.Thread {
	if f.thread == nil {
		return &fakeThread{}
	}
	return f.thread
}

func (f *fakeFeed) AddPostComment(ctx context.Context, postID string, in model.NewComment) (string, error) {
	return "c-new", f.record("AddPostComment " + postID)
}

func (f *fakeFeed) AddPostCommentReply(ctx context.Context, postID, parentID string, in model.NewComment) (string, error) {
	return "c-reply", f.record("AddPostCommentReply " + postID + " " + parentID)
}

func (f *fakeFeed) LikePostComment(ctx context.Context, postID, commentID string) error {
	return f.record("LikePostComment " + postID + " " + commentID)
}

func (f *fakeFeed) PinPostComment(ctx context.Context, postID, commentID string) error {
	return f.record("PinPostComment " + postID + " " + commentID)
}

func (f *fakeFeed) LocalImage(ctx context.Context, postID string) ([]byte, error) {
	return f.images[postID], nil
}

type fakeChannels struct {
	counts map[string]int
	videos []model.Video
	posts  []model.Post
}

func (f *fakeChannels) Project(name string) model.Channel {
	c := model.SyntheticChannel(name)
	c.SubscriberCount = f.counts[name]
	return c
}

func (f *fakeChannels) ChannelVideos(name string) []model.Video {
	return model.ChannelVideos(name, f.videos)
}

func (f *fakeChannels) ChannelPosts(name string) []model.Post {
	return model.ChannelPosts(name, f.posts)
}

type fakeSubscriber struct {
	channels *fakeChannels
	owner    string
	subs     map[string]bool
}

func (f *fakeSubscriber) Toggle(ctx context.Context, channel string) (bool, error) {
	if channel == f.owner {
		return false, model.ErrSelfSubscription
	}
	f.subs[channel] = !f.subs[channel]
	if f.subs[channel] {
		f.channels.counts[channel]++
	} else {
		f.channels.counts[channel]--
	}
	return f.subs[channel], nil
}

func testProfile() *model.Profile {
	p := model.NewDefaultProfile("user-1", "a@b.com")
	p.Name = "Ann"
	p.Handle = "@ann"
	return p
}

func testVideos() []model.Video {
	return []model.Video{
		{ID: "v2", Title: "Second", Author: "Bob", UploadDate: baseTime.Add(time.Hour)},
		{ID: "v1", Title: "First", Author: "Ann", UploadDate: baseTime},
	}
}

// serve routes a single request through a chi router carrying the profile
// middleware, so URL params and the context profile resolve as in production.
func serve(profiles middleware.ProfileSource, method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(middleware.OptionalProfile(profiles))
	r.MethodFunc(method, pattern, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
