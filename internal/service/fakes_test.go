package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"eclipse/internal/model"
	"eclipse/internal/storage"
)

// =============================================================================
// In-memory fakes
// =============================================================================
//
// The stores depend on repository, storage and local store interfaces, so the
// tests swap in these fakes instead of Postgres, R2 and Redis.

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// --- auth users ---------------------------------------------------------------

type fakeAuthUsers struct {
	mu      sync.Mutex
	byEmail map[string]*model.AuthUser
	getErr  error
}

func newFakeAuthUsers() *fakeAuthUsers {
	return &fakeAuthUsers{byEmail: make(map[string]*model.AuthUser)}
}

func (f *fakeAuthUsers) Create(ctx context.Context, u *model.AuthUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return model.ErrEmailExists
	}
	u.CreatedAt = baseTime
	stored := *u
	f.byEmail[u.Email] = &stored
	return nil
}

func (f *fakeAuthUsers) GetByID(ctx context.Context, id string) (*model.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (f *fakeAuthUsers) GetByEmail(ctx context.Context, email string) (*model.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// --- sessions -----------------------------------------------------------------

type fakeSessions struct {
	mu      sync.Mutex
	session *model.Session
}

func (f *fakeSessions) Save(ctx context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *s
	f.session = &out
	return nil
}

func (f *fakeSessions) Load(ctx context.Context) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, nil
	}
	out := *f.session
	return &out, nil
}

func (f *fakeSessions) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
	return nil
}

// --- profiles -----------------------------------------------------------------

type fakeProfiles struct {
	mu          sync.Mutex
	profiles    map[string]*model.Profile
	late        map[string]*model.Profile
	getCalls    int
	createCalls int
	updates     []model.ProfilePatch
	updateErr   error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		profiles: make(map[string]*model.Profile),
		late:     make(map[string]*model.Profile),
	}
}

// GetByID misses once for profiles registered in late, the way a record
// store trigger may lag behind sign-up.
func (f *fakeProfiles) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	p, ok := f.profiles[id]
	if !ok {
		if l, ok := f.late[id]; ok {
			f.profiles[id] = l
			delete(f.late, id)
		}
		return nil, model.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (f *fakeProfiles) Create(ctx context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, ok := f.profiles[p.ID]; !ok {
		f.profiles[p.ID] = p.Clone()
	}
	return nil
}

func (f *fakeProfiles) Update(ctx context.Context, id string, patch model.ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if patch.IsEmpty() {
		return model.ErrEmptyPatch
	}
	p, ok := f.profiles[id]
	if !ok {
		return model.ErrProfileNotFound
	}
	patch.Apply(p)
	f.updates = append(f.updates, patch)
	return nil
}

func (f *fakeProfiles) stored(id string) *model.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id].Clone()
}

// --- videos -------------------------------------------------------------------

type fakeVideos struct {
	mu        sync.Mutex
	videos    []model.Video // newest first
	next      int
	listErr   error
	getErr    error
	createErr error
	deleteErr error
	listCalls int
}

func (f *fakeVideos) List(ctx context.Context) ([]model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Video(nil), f.videos...), nil
}

func (f *fakeVideos) GetByID(ctx context.Context, id string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, v := range f.videos {
		if v.ID == id {
			out := v
			return &out, nil
		}
	}
	return nil, model.ErrVideoNotFound
}

func (f *fakeVideos) Create(ctx context.Context, in model.NewVideo) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.next++
	v := model.Video{
		ID:           fmt.Sprintf("v%d", f.next),
		Title:        in.Title,
		Description:  in.Description,
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Thumbnail:    in.Thumbnail,
		VideoURL:     in.VideoURL,
		Duration:     in.Duration,
		UploadDate:   baseTime.Add(time.Duration(f.next) * time.Hour),
	}
	v.Normalize()
	f.videos = append([]model.Video{v}, f.videos...)
	return v.ID, nil
}

func (f *fakeVideos) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, v := range f.videos {
		if v.ID == id {
			f.videos = append(f.videos[:i], f.videos[i+1:]...)
			return nil
		}
	}
	return model.ErrVideoNotFound
}

func (f *fakeVideos) Increment(ctx context.Context, id string, counter model.Counter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.videos {
		if f.videos[i].ID != id {
			continue
		}
		switch counter {
		case model.CounterLikes:
			f.videos[i].Likes++
		case model.CounterViews:
			f.videos[i].Views++
		default:
			return model.ErrUnknownCounter
		}
		return nil
	}
	return model.ErrVideoNotFound
}

func (f *fakeVideos) get(id string) model.Video {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.videos {
		if v.ID == id {
			return v
		}
	}
	return model.Video{}
}

// --- video comments -----------------------------------------------------------

type fakeComments struct {
	mu      sync.Mutex
	rows    []model.Comment // insertion order
	next    int
	listErr error
}

func (f *fakeComments) ListByVideo(ctx context.Context, videoID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Comment
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].VideoID == videoID {
			out = append(out, f.rows[i])
		}
	}
	return model.CloneComments(out), nil
}

func (f *fakeComments) Create(ctx context.Context, videoID string, parentID *string, in model.NewComment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if parentID != nil && f.find(*parentID) == nil {
		return "", model.ErrParentNotFound
	}
	f.next++
	c := model.Comment{
		ID:           fmt.Sprintf("c%d", f.next),
		VideoID:      videoID,
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Content:      in.Content,
		Date:         baseTime.Add(time.Duration(f.next) * time.Minute),
	}
	if parentID != nil {
		pid := *parentID
		c.ParentID = &pid
	}
	c.Normalize()
	f.rows = append(f.rows, c)
	return c.ID, nil
}

func (f *fakeComments) IncrementLikes(ctx context.Context, videoID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.find(id)
	if c == nil || c.VideoID != videoID {
		return model.ErrCommentNotFound
	}
	c.Likes++
	return nil
}

func (f *fakeComments) ClearPins(ctx context.Context, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].VideoID == videoID {
			f.rows[i].IsPinned = false
		}
	}
	return nil
}

func (f *fakeComments) SetPinned(ctx context.Context, videoID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.find(id); c != nil && c.VideoID == videoID {
		c.IsPinned = true
	}
	return nil
}

func (f *fakeComments) find(id string) *model.Comment {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i]
		}
	}
	return nil
}

func (f *fakeComments) pinned() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, c := range f.rows {
		if c.IsPinned {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// --- posts --------------------------------------------------------------------

type fakePosts struct {
	mu        sync.Mutex
	posts     []model.Post // newest first
	next      int
	createErr error
	saveErr   error
	saves     int
}

func (f *fakePosts) List(ctx context.Context) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = clonePost(p)
	}
	return out, nil
}

func (f *fakePosts) GetByID(ctx context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.find(id); p != nil {
		out := clonePost(*p)
		return &out, nil
	}
	return nil, model.ErrPostNotFound
}

func (f *fakePosts) Create(ctx context.Context, in model.NewPost, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.next++
	p := model.Post{
		ID:           fmt.Sprintf("p%d", f.next),
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Content:      in.Content,
		ImageURL:     imageURL,
		Date:         baseTime.Add(time.Duration(f.next) * time.Hour),
	}
	p.Normalize()
	f.posts = append([]model.Post{p}, f.posts...)
	return p.ID, nil
}

func (f *fakePosts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return model.ErrPostNotFound
}

func (f *fakePosts) Increment(ctx context.Context, id string, counter model.Counter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.find(id)
	if p == nil {
		return model.ErrPostNotFound
	}
	switch counter {
	case model.CounterLikes:
		p.Likes++
	case model.CounterReposts:
		p.Reposts++
	default:
		return model.ErrUnknownCounter
	}
	return nil
}

func (f *fakePosts) SaveComments(ctx context.Context, id string, comments []model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	p := f.find(id)
	if p == nil {
		return model.ErrPostNotFound
	}
	p.Comments = model.CloneComments(comments)
	f.saves++
	return nil
}

func (f *fakePosts) find(id string) *model.Post {
	for i := range f.posts {
		if f.posts[i].ID == id {
			return &f.posts[i]
		}
	}
	return nil
}

func (f *fakePosts) get(id string) model.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.find(id); p != nil {
		return clonePost(*p)
	}
	return model.Post{}
}

// --- object storage -----------------------------------------------------------

const fakePublicBase = "https://cdn.test"

type fakeObjects struct {
	mu       sync.Mutex
	objects  map[string][]byte
	fail     map[string]error // by bucket
	block    bool
	deleted  []string
	uploaded []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte), fail: make(map[string]error)}
}

func (f *fakeObjects) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[bucket]; err != nil {
		return err
	}
	f.objects[bucket+"/"+key] = body
	f.uploaded = append(f.uploaded, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) Delete(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	f.deleted = append(f.deleted, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) PublicURL(bucket, key string) string {
	return storage.PublicURL(fakePublicBase, bucket, key)
}

func (f *fakeObjects) KeyFromURL(bucket, url string) string {
	prefix := fakePublicBase + "/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// --- local store --------------------------------------------------------------

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(ctx context.Context, id string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[id] = data
	return nil
}

func (f *fakeBlobs) Get(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blobs[id], nil
}

func (f *fakeBlobs) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, id)
	return nil
}

func (f *fakeBlobs) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs = make(map[string][]byte)
	return nil
}

type fakeCounts struct {
	mu      sync.Mutex
	saved   map[string]int
	saveErr error
}

func (f *fakeCounts) Load(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.saved))
	for k, v := range f.saved {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCounts) Save(ctx context.Context, counts map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = counts
	return nil
}

// --- live push ----------------------------------------------------------------

type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) Broadcast(eventType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// staticProfile is a ProfileSource with a fixed profile.
type staticProfile struct {
	profile *model.Profile
}

func (s staticProfile) Current() *model.Profile {
	return s.profile.Clone()
}

var testBuckets = Buckets{Videos: "videos", Thumbnails: "thumbnails", PostImages: "posts_images"}
