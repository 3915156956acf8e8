package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"eclipse/internal/localstore"
	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/queue"
	"eclipse/internal/realtime"
	"eclipse/internal/repository"
	"eclipse/internal/storage"
)

// CatalogStore keeps the live video list and fronts video and comment
// operations.
type CatalogStore struct {
	videos   repository.VideoRepository
	comments repository.CommentRepository
	objects  storage.ObjectStore
	blobs    localstore.BlobStore
	buckets  Buckets

	list *liveList[model.Video]
}

// Buckets names the object store buckets media is written to.
type Buckets struct {
	Videos     string
	Thumbnails string
	PostImages string
}

func NewCatalogStore(
	videos repository.VideoRepository,
	comments repository.CommentRepository,
	objects storage.ObjectStore,
	blobs localstore.BlobStore,
	buckets Buckets,
	hub Broadcaster,
) *CatalogStore {
	s := &CatalogStore{
		videos:   videos,
		comments: comments,
		objects:  objects,
		blobs:    blobs,
		buckets:  buckets,
	}
	s.list = &liveList[model.Video]{
		component: "CatalogStore",
		table:     queue.TableVideos,
		event:     realtime.EventVideosChanged,
		fetch:     videos.List,
		hub:       hub,
	}
	return s
}

// Start loads the catalog and refetches it after every burst of changes.
func (s *CatalogStore) Start(ctx context.Context, changes ChangeSource, debounce time.Duration) error {
	return s.list.start(ctx, changes, debounce)
}

// Refresh refetches the catalog now.
func (s *CatalogStore) Refresh(ctx context.Context) error {
	return s.list.refresh(ctx)
}

// Close stops live updates; later refetch results are discarded.
func (s *CatalogStore) Close() {
	s.list.close()
}

// ListVideos returns the catalog, newest upload first. Comments are empty.
func (s *CatalogStore) ListVideos() []model.Video {
	return s.list.snapshot()
}

// Thread returns the comment thread of a video.
func (s *CatalogStore) Thread(videoID string) Thread {
	return &flatThread{videoID: videoID, comments: s.comments}
}

// GetVideo fetches the video and its comment tree concurrently. A missing
// video yields nil, nil; a failed comment fetch yields the video without
// comments.
func (s *CatalogStore) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	log := logger.For("CatalogStore")

	var (
		video    *model.Video
		comments []model.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.videos.GetByID(gctx, id)
		if err != nil {
			return err
		}
		video = v
		return nil
	})
	g.Go(func() error {
		c, err := s.Thread(id).Comments(gctx)
		if err != nil {
			log.Warnf("Comments fetch FAILED: video=%s err=%v", id, err)
			return nil
		}
		comments = c
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, model.ErrVideoNotFound) {
			return nil, nil
		}
		log.Errorf("GetVideo FAILED: video=%s err=%v", id, err)
		return nil, err
	}

	if comments != nil {
		video.Comments = comments
	}
	return video, nil
}

// AddVideo creates a catalog entry. Backend errors are returned as is.
func (s *CatalogStore) AddVideo(ctx context.Context, in model.NewVideo) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", model.ErrTitleRequired
	}
	if in.Duration == "" {
		in.Duration = model.DefaultDuration
	}

	id, err := s.videos.Create(ctx, in)
	if err != nil {
		logger.For("CatalogStore").Errorf("AddVideo FAILED: title=%q err=%v", in.Title, err)
		return "", fmt.Errorf("add video: %w", err)
	}
	logger.For("CatalogStore").Infof("Video added: id=%s author=%s", id, in.Author)
	return id, nil
}

// DeleteVideo removes the video remotely and, only then, locally. Stored
// media is removed best-effort.
func (s *CatalogStore) DeleteVideo(ctx context.Context, id string) error {
	log := logger.For("CatalogStore")

	video, err := s.videos.GetByID(ctx, id)
	if err != nil && !errors.Is(err, model.ErrVideoNotFound) {
		log.Warnf("Delete lookup FAILED: video=%s err=%v", id, err)
	}

	if err := s.videos.Delete(ctx, id); err != nil {
		log.Errorf("DeleteVideo FAILED: video=%s err=%v", id, err)
		return err
	}

	s.list.modify(func(videos []model.Video) []model.Video {
		out := videos[:0:0]
		for _, v := range videos {
			if v.ID != id {
				out = append(out, v)
			}
		}
		return out
	})

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, id); err != nil {
			log.Warnf("Local video blob not removed: video=%s err=%v", id, err)
		}
	}
	if video != nil && s.objects != nil {
		s.deleteObject(ctx, s.buckets.Videos, video.VideoURL)
		s.deleteObject(ctx, s.buckets.Thumbnails, video.Thumbnail)
	}
	return nil
}

func (s *CatalogStore) deleteObject(ctx context.Context, bucket, url string) {
	key := s.objects.KeyFromURL(bucket, url)
	if key == "" {
		return
	}
	if err := s.objects.Delete(ctx, bucket, key); err != nil {
		logger.For("CatalogStore").Warnf("Object not removed: bucket=%s key=%s err=%v", bucket, key, err)
	}
}

func (s *CatalogStore) IncrementLike(ctx context.Context, id string) error {
	return s.increment(ctx, id, model.CounterLikes)
}

func (s *CatalogStore) IncrementView(ctx context.Context, id string) error {
	return s.increment(ctx, id, model.CounterViews)
}

// increment on a missing video is a no-op.
func (s *CatalogStore) increment(ctx context.Context, id string, counter model.Counter) error {
	err := s.videos.Increment(ctx, id, counter)
	if errors.Is(err, model.ErrVideoNotFound) {
		return nil
	}
	if err != nil {
		logger.For("CatalogStore").Errorf("Increment FAILED: video=%s counter=%s err=%v", id, counter, err)
		return err
	}
	return nil
}

func (s *CatalogStore) AddComment(ctx context.Context, videoID string, in model.NewComment) error {
	_, err := s.Thread(videoID).Add(ctx, in)
	return s.logCommentErr("AddComment", videoID, err)
}

func (s *CatalogStore) AddReply(ctx context.Context, videoID, parentID string, in model.NewComment) error {
	_, err := s.Thread(videoID).Reply(ctx, parentID, in)
	return s.logCommentErr("AddReply", videoID, err)
}

func (s *CatalogStore) LikeComment(ctx context.Context, videoID, commentID string) error {
	return s.logCommentErr("LikeComment", videoID, s.Thread(videoID).Like(ctx, commentID))
}

func (s *CatalogStore) PinComment(ctx context.Context, videoID, commentID string) error {
	return s.logCommentErr("PinComment", videoID, s.Thread(videoID).Pin(ctx, commentID))
}

func (s *CatalogStore) logCommentErr(op, videoID string, err error) error {
	if err != nil {
		logger.For("CatalogStore").Errorf("%s FAILED: video=%s err=%v", op, videoID, err)
	}
	return err
}
