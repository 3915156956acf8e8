package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/repository"
)

// Thread is one discussion, either a video's flat comment rows or a post's
// nested comment document. Comments are returned pinned first.
type Thread interface {
	Comments(ctx context.Context) ([]model.Comment, error)
	Add(ctx context.Context, in model.NewComment) (string, error)
	Reply(ctx context.Context, parentID string, in model.NewComment) (string, error)
	Like(ctx context.Context, commentID string) error
	// Pin leaves exactly the target pinned.
	Pin(ctx context.Context, commentID string) error
}

func validateComment(in model.NewComment) error {
	if strings.TrimSpace(in.Content) == "" {
		return model.ErrContentRequired
	}
	return nil
}

// flatThread stores comments as rows with a parent reference. Mutations
// go straight to the record store; readers refetch.
type flatThread struct {
	videoID  string
	comments repository.CommentRepository
}

func (t *flatThread) Comments(ctx context.Context) ([]model.Comment, error) {
	rows, err := t.comments.ListByVideo(ctx, t.videoID)
	if err != nil {
		return nil, err
	}
	return model.BuildCommentTree(rows), nil
}

func (t *flatThread) Add(ctx context.Context, in model.NewComment) (string, error) {
	if err := validateComment(in); err != nil {
		return "", err
	}
	return t.comments.Create(ctx, t.videoID, nil, in)
}

func (t *flatThread) Reply(ctx context.Context, parentID string, in model.NewComment) (string, error) {
	if err := validateComment(in); err != nil {
		return "", err
	}
	return t.comments.Create(ctx, t.videoID, &parentID, in)
}

// Like on a missing comment is a no-op.
func (t *flatThread) Like(ctx context.Context, commentID string) error {
	err := t.comments.IncrementLikes(ctx, t.videoID, commentID)
	if errors.Is(err, model.ErrCommentNotFound) {
		return nil
	}
	return err
}

// Pin clears every pin on the video, then sets the target. The two writes
// are independent: a missing target still ends with nothing pinned, and
// concurrent pins resolve to whichever write lands last.
func (t *flatThread) Pin(ctx context.Context, commentID string) error {
	if err := t.comments.ClearPins(ctx, t.videoID); err != nil {
		return err
	}
	return t.comments.SetPinned(ctx, t.videoID, commentID)
}

// commentDocument loads and saves the whole nested tree of one post.
type commentDocument interface {
	loadComments(ctx context.Context, postID string) ([]model.Comment, error)
	saveComments(ctx context.Context, postID string, comments []model.Comment) error
	lockDocument() func()
}

// nestedThread edits a post's comment tree in memory and writes the whole
// document back.
type nestedThread struct {
	postID string
	doc    commentDocument
	now    func() time.Time
}

func (t *nestedThread) Comments(ctx context.Context) ([]model.Comment, error) {
	comments, err := t.doc.loadComments(ctx, t.postID)
	if err != nil {
		return nil, err
	}
	return model.SortPinnedFirst(comments), nil
}

func (t *nestedThread) Add(ctx context.Context, in model.NewComment) (string, error) {
	if err := validateComment(in); err != nil {
		return "", err
	}
	c := t.newComment(in)
	err := t.mutate(ctx, func(comments []model.Comment) ([]model.Comment, error) {
		return append(comments, c), nil
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (t *nestedThread) Reply(ctx context.Context, parentID string, in model.NewComment) (string, error) {
	if err := validateComment(in); err != nil {
		return "", err
	}
	c := t.newComment(in)
	err := t.mutate(ctx, func(comments []model.Comment) ([]model.Comment, error) {
		if !model.InsertReply(comments, parentID, c) {
			return nil, model.ErrParentNotFound
		}
		return comments, nil
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (t *nestedThread) Like(ctx context.Context, commentID string) error {
	return t.mutate(ctx, func(comments []model.Comment) ([]model.Comment, error) {
		if !model.LikeComment(comments, commentID) {
			return nil, model.ErrCommentNotFound
		}
		return comments, nil
	})
}

// Pin toggles: pinning the pinned comment unpins it. A missing target
// writes nothing.
func (t *nestedThread) Pin(ctx context.Context, commentID string) error {
	return t.mutate(ctx, func(comments []model.Comment) ([]model.Comment, error) {
		if !model.PinComment(comments, commentID) {
			return nil, model.ErrCommentNotFound
		}
		return comments, nil
	})
}

func (t *nestedThread) newComment(in model.NewComment) model.Comment {
	c := model.Comment{
		ID:           uuid.NewString(),
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Content:      in.Content,
		Date:         t.now().UTC(),
		Replies:      []model.Comment{},
	}
	c.Normalize()
	return c
}

// mutate runs a read-modify-write of the document. Writers in this process
// are serialized; across processes the last write wins.
func (t *nestedThread) mutate(ctx context.Context, fn func([]model.Comment) ([]model.Comment, error)) error {
	unlock := t.doc.lockDocument()
	defer unlock()

	comments, err := t.doc.loadComments(ctx, t.postID)
	if err != nil {
		return err
	}
	next, err := fn(comments)
	if err != nil {
		return err
	}
	if err := t.doc.saveComments(ctx, t.postID, next); err != nil {
		logger.For("FeedStore").Errorf("Save comments FAILED: post=%s err=%v", t.postID, err)
		return err
	}
	return nil
}
