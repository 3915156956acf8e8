package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"eclipse/internal/localstore"
	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/queue"
	"eclipse/internal/realtime"
	"eclipse/internal/repository"
	"eclipse/internal/storage"
)

// FeedStore keeps the live community post list and its comment documents.
type FeedStore struct {
	posts   repository.PostRepository
	objects storage.ObjectStore
	blobs   localstore.BlobStore
	bucket  string
	now     func() time.Time

	// docMu serializes read-modify-write of comment documents.
	docMu sync.Mutex
	list  *liveList[model.Post]
}

func NewFeedStore(
	posts repository.PostRepository,
	objects storage.ObjectStore,
	blobs localstore.BlobStore,
	imageBucket string,
	hub Broadcaster,
) *FeedStore {
	s := &FeedStore{
		posts:   posts,
		objects: objects,
		blobs:   blobs,
		bucket:  imageBucket,
		now:     time.Now,
	}
	s.list = &liveList[model.Post]{
		component: "FeedStore",
		table:     queue.TablePosts,
		event:     realtime.EventPostsChanged,
		fetch:     posts.List,
		clone:     clonePost,
		hub:       hub,
	}
	return s
}

func clonePost(p model.Post) model.Post {
	p.Comments = model.CloneComments(p.Comments)
	return p
}

func (s *FeedStore) Start(ctx context.Context, changes ChangeSource, debounce time.Duration) error {
	return s.list.start(ctx, changes, debounce)
}

func (s *FeedStore) Refresh(ctx context.Context) error {
	return s.list.refresh(ctx)
}

func (s *FeedStore) Close() {
	s.list.close()
}

// ListPosts returns the feed, newest first.
func (s *FeedStore) ListPosts() []model.Post {
	return s.list.snapshot()
}

// Thread returns the comment thread of a post.
func (s *FeedStore) Thread(postID string) Thread {
	return &nestedThread{postID: postID, doc: s, now: s.now}
}

// AddPost uploads the optional image first. A failed upload does not stop
// the post; it is created without an image. The original image bytes are
// kept in the local blob store under the new post id.
func (s *FeedStore) AddPost(ctx context.Context, in model.NewPost, image *model.Upload) (string, error) {
	log := logger.For("FeedStore")

	if strings.TrimSpace(in.Content) == "" {
		return "", model.ErrContentRequired
	}

	var imageURL string
	if image != nil {
		url, err := s.uploadImage(ctx, image)
		if err != nil {
			log.Warnf("Post image upload FAILED, posting without image: author=%s err=%v", in.Author, err)
		} else {
			imageURL = url
		}
	}

	id, err := s.posts.Create(ctx, in, imageURL)
	if err != nil {
		log.Errorf("AddPost FAILED: author=%s err=%v", in.Author, err)
		return "", fmt.Errorf("add post: %w", err)
	}

	if image != nil && s.blobs != nil {
		if err := s.blobs.Put(ctx, id, image.Data); err != nil {
			log.Warnf("Local post image not kept: post=%s err=%v", id, err)
		}
	}

	log.Infof("Post added: id=%s author=%s has_image=%t", id, in.Author, imageURL != "")
	return id, nil
}

func (s *FeedStore) uploadImage(ctx context.Context, image *model.Upload) (string, error) {
	if s.objects == nil {
		return "", errors.New("object storage not configured")
	}
	if !model.IsAllowedImageType(image.ContentType) {
		return "", fmt.Errorf("%w: %s", model.ErrInvalidMediaType, image.ContentType)
	}
	if len(image.Data) > model.MaxPostImageSizeBytes {
		return "", model.ErrFileTooLarge
	}

	data, contentType, ext := image.Data, image.ContentType, image.Ext()
	if normalized, err := storage.NormalizePostImage(image.Data); err == nil {
		data, contentType, ext = normalized, model.ContentTypeJPEG, "jpg"
	}

	key := storage.NewObjectKey(ext)
	if err := s.objects.Upload(ctx, s.bucket, key, data, contentType); err != nil {
		return "", err
	}
	return s.objects.PublicURL(s.bucket, key), nil
}

// DeletePost removes the post remotely, then locally along with its image.
func (s *FeedStore) DeletePost(ctx context.Context, id string) error {
	log := logger.For("FeedStore")

	post, err := s.posts.GetByID(ctx, id)
	if err != nil && !errors.Is(err, model.ErrPostNotFound) {
		log.Warnf("Delete lookup FAILED: post=%s err=%v", id, err)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		log.Errorf("DeletePost FAILED: post=%s err=%v", id, err)
		return err
	}

	s.list.modify(func(posts []model.Post) []model.Post {
		out := posts[:0:0]
		for _, p := range posts {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, id); err != nil {
			log.Warnf("Local post image not removed: post=%s err=%v", id, err)
		}
	}
	if post != nil && post.ImageURL != "" && s.objects != nil {
		if key := s.objects.KeyFromURL(s.bucket, post.ImageURL); key != "" {
			if err := s.objects.Delete(ctx, s.bucket, key); err != nil {
				log.Warnf("Post image not removed: post=%s key=%s err=%v", id, key, err)
			}
		}
	}
	return nil
}

// TogglePostLike adds one like; there is no per-user like record to undo.
func (s *FeedStore) TogglePostLike(ctx context.Context, id string) error {
	err := s.posts.Increment(ctx, id, model.CounterLikes)
	if errors.Is(err, model.ErrPostNotFound) {
		return nil
	}
	if err != nil {
		logger.For("FeedStore").Errorf("TogglePostLike FAILED: post=%s err=%v", id, err)
	}
	return err
}

// RepostPost creates a quoting post by actor, then bumps the original's
// repost counter. The two writes are independent. An unknown original is
// a no-op returning "".
func (s *FeedStore) RepostPost(ctx context.Context, id string, actor model.Actor) (string, error) {
	log := logger.For("FeedStore")

	original, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, model.ErrPostNotFound) {
		return "", nil
	}
	if err != nil {
		log.Errorf("Repost lookup FAILED: post=%s err=%v", id, err)
		return "", err
	}

	repostID, err := s.posts.Create(ctx, model.NewPost{
		Author:       actor.Name,
		AuthorAvatar: actor.Avatar,
		Content:      model.RepostContent(*original),
	}, "")
	if err != nil {
		log.Errorf("Repost FAILED: post=%s actor=%s err=%v", id, actor.Name, err)
		return "", err
	}

	if err := s.posts.Increment(ctx, id, model.CounterReposts); err != nil {
		log.Errorf("Repost counter FAILED: post=%s repost=%s err=%v", id, repostID, err)
		return repostID, err
	}
	return repostID, nil
}

func (s *FeedStore) AddPostComment(ctx context.Context, postID string, in model.NewComment) (string, error) {
	return s.Thread(postID).Add(ctx, in)
}

func (s *FeedStore) AddPostCommentReply(ctx context.Context, postID, parentID string, in model.NewComment) (string, error) {
	return s.Thread(postID).Reply(ctx, parentID, in)
}

func (s *FeedStore) LikePostComment(ctx context.Context, postID, commentID string) error {
	return s.Thread(postID).Like(ctx, commentID)
}

func (s *FeedStore) PinPostComment(ctx context.Context, postID, commentID string) error {
	return s.Thread(postID).Pin(ctx, commentID)
}

// LocalImage returns the original image kept for a post, or nil.
func (s *FeedStore) LocalImage(ctx context.Context, postID string) ([]byte, error) {
	if s.blobs == nil {
		return nil, nil
	}
	return s.blobs.Get(ctx, postID)
}

// loadComments reads the document from the live list, falling back to the
// record store for posts the list has not seen yet.
func (s *FeedStore) loadComments(ctx context.Context, postID string) ([]model.Comment, error) {
	s.list.mu.RLock()
	for _, p := range s.list.items {
		if p.ID == postID {
			comments := model.CloneComments(p.Comments)
			s.list.mu.RUnlock()
			return comments, nil
		}
	}
	s.list.mu.RUnlock()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

// saveComments writes the document, then mirrors it into the live list.
func (s *FeedStore) saveComments(ctx context.Context, postID string, comments []model.Comment) error {
	if err := s.posts.SaveComments(ctx, postID, comments); err != nil {
		return err
	}
	s.list.modify(func(posts []model.Post) []model.Post {
		for i := range posts {
			if posts[i].ID == postID {
				posts[i].Comments = model.CloneComments(comments)
			}
		}
		return posts
	})
	return nil
}

func (s *FeedStore) lockDocument() func() {
	s.docMu.Lock()
	return s.docMu.Unlock
}
