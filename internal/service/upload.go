package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eclipse/internal/localstore"
	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/storage"
)

// DefaultUploadTimeout bounds the video file upload.
const DefaultUploadTimeout = 5 * time.Minute

// UploadService runs the publish flow: video file, optional thumbnail,
// catalog entry.
type UploadService struct {
	profiles ProfileSource
	catalog  *CatalogStore
	objects  storage.ObjectStore
	blobs    localstore.BlobStore
	buckets  Buckets
	timeout  time.Duration
}

func NewUploadService(
	profiles ProfileSource,
	catalog *CatalogStore,
	objects storage.ObjectStore,
	blobs localstore.BlobStore,
	buckets Buckets,
	timeout time.Duration,
) *UploadService {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	return &UploadService{
		profiles: profiles,
		catalog:  catalog,
		objects:  objects,
		blobs:    blobs,
		buckets:  buckets,
		timeout:  timeout,
	}
}

// UploadVideo publishes a video as the signed-in user. The video upload is
// fatal and raced against the upload timeout; the thumbnail is not, and a
// placeholder stands in when it is missing or fails.
func (s *UploadService) UploadVideo(ctx context.Context, req model.PublishRequest) (string, error) {
	log := logger.For("UploadService")
	startTime := time.Now()

	me := s.profiles.Current()
	if me == nil {
		return "", model.ErrNotSignedIn
	}
	if req.Video == nil || len(req.Video.Data) == 0 {
		return "", model.ErrNoVideoFile
	}
	if len(req.Video.Data) > model.MaxVideoSizeBytes {
		return "", model.ErrFileTooLarge
	}
	if !model.IsVideoType(req.Video.ContentType) {
		return "", fmt.Errorf("%w: %s", model.ErrInvalidMediaType, req.Video.ContentType)
	}

	ext := req.Video.Ext()
	if ext == "" {
		ext = "mp4"
	}
	videoKey := storage.NewOwnedObjectKey(me.ID, ext)
	if err := s.uploadWithTimeout(ctx, s.buckets.Videos, videoKey, req.Video); err != nil {
		log.Errorf("Video upload FAILED: user=%s key=%s err=%v", me.ID, videoKey, err)
		return "", err
	}
	log.Infof("Video uploaded: key=%s size=%d duration=%v", videoKey, len(req.Video.Data), time.Since(startTime))

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Video.Stem()
	}
	duration := req.Duration
	if duration == "" {
		duration = model.DefaultDuration
	}

	id, err := s.catalog.AddVideo(ctx, model.NewVideo{
		Title:        title,
		Description:  req.Description,
		Author:       me.Name,
		AuthorAvatar: me.Avatar,
		Thumbnail:    s.thumbnail(ctx, me.ID, req.Thumbnail),
		VideoURL:     s.objects.PublicURL(s.buckets.Videos, videoKey),
		Duration:     duration,
	})
	if err != nil {
		return "", err
	}

	if s.blobs != nil {
		if err := s.blobs.Put(ctx, id, req.Video.Data); err != nil {
			log.Warnf("Local video copy not kept: video=%s err=%v", id, err)
		}
	}
	return id, nil
}

// uploadWithTimeout returns model.ErrUploadTimeout when the timer fires
// before the upload settles.
func (s *UploadService) uploadWithTimeout(ctx context.Context, bucket, key string, file *model.Upload) error {
	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.objects.Upload(uploadCtx, bucket, key, file.Data, file.ContentType)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(uploadCtx.Err(), context.DeadlineExceeded) {
			return model.ErrUploadTimeout
		}
		return err
	case <-uploadCtx.Done():
		if errors.Is(uploadCtx.Err(), context.DeadlineExceeded) {
			return model.ErrUploadTimeout
		}
		return uploadCtx.Err()
	}
}

func (s *UploadService) thumbnail(ctx context.Context, ownerID string, file *model.Upload) string {
	placeholder := model.ThumbnailPlaceholder(storage.NewObjectKey(""))
	if file == nil || len(file.Data) == 0 {
		return placeholder
	}

	log := logger.For("UploadService")
	if !model.IsAllowedImageType(file.ContentType) {
		log.Warnf("Thumbnail skipped: content_type=%s", file.ContentType)
		return placeholder
	}
	data, err := storage.NormalizeThumbnail(file.Data)
	if err != nil {
		log.Warnf("Thumbnail skipped: err=%v", err)
		return placeholder
	}

	key := storage.NewOwnedObjectKey(ownerID, "jpg")
	if err := s.objects.Upload(ctx, s.buckets.Thumbnails, key, data, model.ContentTypeJPEG); err != nil {
		log.Warnf("Thumbnail upload FAILED, using placeholder: key=%s err=%v", key, err)
		return placeholder
	}
	return s.objects.PublicURL(s.buckets.Thumbnails, key)
}
