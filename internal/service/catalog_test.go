package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclipse/internal/model"
	"eclipse/internal/queue"
	"eclipse/internal/realtime"
)

type catalogFixture struct {
	store    *CatalogStore
	videos   *fakeVideos
	comments *fakeComments
	objects  *fakeObjects
	blobs    *fakeBlobs
	hub      *recordingHub
	changes  *realtime.ChangeFeed
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	f := &catalogFixture{
		videos:   &fakeVideos{},
		comments: &fakeComments{},
		objects:  newFakeObjects(),
		blobs:    newFakeBlobs(),
		hub:      &recordingHub{},
		changes:  realtime.NewChangeFeed(),
	}
	f.store = NewCatalogStore(f.videos, f.comments, f.objects, f.blobs, testBuckets, f.hub)
	t.Cleanup(f.store.Close)
	return f
}

func (f *catalogFixture) addVideo(t *testing.T, title, author string) string {
	t.Helper()
	id, err := f.videos.Create(context.Background(), model.NewVideo{Title: title, Author: author})
	require.NoError(t, err)
	return id
}

func TestCatalogStore_StartLoadsNewestFirst(t *testing.T) {
	f := newCatalogFixture(t)
	f.addVideo(t, "first", "Ann")
	f.addVideo(t, "second", "Bo")

	require.NoError(t, f.store.Start(context.Background(), f.changes, 10*time.Millisecond))

	videos := f.store.ListVideos()
	require.Len(t, videos, 2)
	assert.Equal(t, "second", videos[0].Title)
	assert.Equal(t, "0:00", videos[0].Duration)
	assert.Empty(t, videos[0].Comments)
	assert.Equal(t, 1, f.hub.count())
}

func TestCatalogStore_CoalescesChangesIntoOneRefetch(t *testing.T) {
	f := newCatalogFixture(t)
	require.NoError(t, f.store.Start(context.Background(), f.changes, 20*time.Millisecond))
	require.Equal(t, 1, f.videos.listCalls)

	f.addVideo(t, "new", "Ann")
	for i := 0; i < 5; i++ {
		f.changes.Notify(queue.NewChangeEvent(queue.TableVideos, queue.OpInsert, "v1"))
	}

	require.Eventually(t, func() bool { return len(f.store.ListVideos()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	f.videos.mu.Lock()
	calls := f.videos.listCalls
	f.videos.mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestCatalogStore_IgnoresOtherTables(t *testing.T) {
	f := newCatalogFixture(t)
	require.NoError(t, f.store.Start(context.Background(), f.changes, time.Millisecond))

	f.changes.Notify(queue.NewChangeEvent(queue.TablePosts, queue.OpInsert, "p1"))
	time.Sleep(20 * time.Millisecond)

	f.videos.mu.Lock()
	defer f.videos.mu.Unlock()
	assert.Equal(t, 1, f.videos.listCalls)
}

func TestCatalogStore_RefreshErrorKeepsStaleList(t *testing.T) {
	f := newCatalogFixture(t)
	f.addVideo(t, "kept", "Ann")
	require.NoError(t, f.store.Start(context.Background(), nil, 0))

	f.videos.listErr = errors.New("timeout")
	assert.Error(t, f.store.Refresh(context.Background()))

	videos := f.store.ListVideos()
	require.Len(t, videos, 1)
	assert.Equal(t, "kept", videos[0].Title)
}

func TestCatalogStore_DropsRefreshAfterClose(t *testing.T) {
	f := newCatalogFixture(t)
	require.NoError(t, f.store.Start(context.Background(), f.changes, 0))

	f.store.Close()
	f.addVideo(t, "late", "Ann")

	require.NoError(t, f.store.Refresh(context.Background()))
	assert.Empty(t, f.store.ListVideos())
}

func TestGetVideo_MaterializesCommentTree(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id := f.addVideo(t, "talk", "Ann")

	require.NoError(t, f.store.AddComment(ctx, id, model.NewComment{Author: "Bo", Content: "first"}))
	require.NoError(t, f.store.AddComment(ctx, id, model.NewComment{Author: "Cy", Content: "second"}))
	require.NoError(t, f.store.AddReply(ctx, id, "c1", model.NewComment{Author: "Ann", Content: "thanks"}))
	require.NoError(t, f.store.PinComment(ctx, id, "c1"))

	video, err := f.store.GetVideo(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, video)

	require.Len(t, video.Comments, 2)
	assert.Equal(t, "c1", video.Comments[0].ID)
	assert.True(t, video.Comments[0].IsPinned)
	require.Len(t, video.Comments[0].Replies, 1)
	assert.Equal(t, "thanks", video.Comments[0].Replies[0].Content)
	assert.Equal(t, "c2", video.Comments[1].ID)
}

func TestGetVideo_Missing(t *testing.T) {
	f := newCatalogFixture(t)

	video, err := f.store.GetVideo(context.Background(), "nope")

	assert.NoError(t, err)
	assert.Nil(t, video)
}

func TestGetVideo_CommentFailureIsNotFatal(t *testing.T) {
	f := newCatalogFixture(t)
	id := f.addVideo(t, "talk", "Ann")
	f.comments.listErr = errors.New("comments down")

	video, err := f.store.GetVideo(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Empty(t, video.Comments)
}

func TestGetVideo_MetadataFailure(t *testing.T) {
	f := newCatalogFixture(t)
	f.videos.getErr = errors.New("db down")

	video, err := f.store.GetVideo(context.Background(), "v1")

	assert.Error(t, err)
	assert.Nil(t, video)
}

func TestAddVideo(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.store.AddVideo(ctx, model.NewVideo{Title: "  "})
	assert.ErrorIs(t, err, model.ErrTitleRequired)

	id, err := f.store.AddVideo(ctx, model.NewVideo{Title: "Pasta", Author: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "0:00", f.videos.get(id).Duration)

	f.videos.createErr = errors.New("insert failed")
	_, err = f.store.AddVideo(ctx, model.NewVideo{Title: "Soup"})
	assert.ErrorContains(t, err, "insert failed")
}

func TestDeleteVideo_RemovesLocallyOnlyOnSuccess(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id, err := f.videos.Create(ctx, model.NewVideo{
		Title:     "Pasta",
		Author:    "Ann",
		VideoURL:  fakePublicBase + "/videos/u1/a.mp4",
		Thumbnail: fakePublicBase + "/thumbnails/u1/a.jpg",
	})
	require.NoError(t, err)
	require.NoError(t, f.blobs.Put(ctx, id, []byte("raw")))
	require.NoError(t, f.store.Start(ctx, nil, 0))

	f.videos.deleteErr = errors.New("forbidden")
	assert.Error(t, f.store.DeleteVideo(ctx, id))
	assert.Len(t, f.store.ListVideos(), 1)

	f.videos.deleteErr = nil
	require.NoError(t, f.store.DeleteVideo(ctx, id))
	assert.Empty(t, f.store.ListVideos())

	blob, _ := f.blobs.Get(ctx, id)
	assert.Nil(t, blob)
	assert.ElementsMatch(t, []string{"videos/u1/a.mp4", "thumbnails/u1/a.jpg"}, f.objects.deleted)
}

func TestIncrementCounters(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id := f.addVideo(t, "Pasta", "Ann")

	require.NoError(t, f.store.IncrementLike(ctx, id))
	require.NoError(t, f.store.IncrementLike(ctx, id))
	require.NoError(t, f.store.IncrementView(ctx, id))

	v := f.videos.get(id)
	assert.Equal(t, int64(2), v.Likes)
	assert.Equal(t, int64(1), v.Views)

	assert.NoError(t, f.store.IncrementLike(ctx, "missing"))
}

func TestLikeComment(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id := f.addVideo(t, "Pasta", "Ann")
	require.NoError(t, f.store.AddComment(ctx, id, model.NewComment{Author: "Bo", Content: "yum"}))

	require.NoError(t, f.store.LikeComment(ctx, id, "c1"))
	assert.NoError(t, f.store.LikeComment(ctx, id, "missing"))

	video, err := f.store.GetVideo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), video.Comments[0].Likes)
}

func TestAddComment_Validation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id := f.addVideo(t, "Pasta", "Ann")

	assert.ErrorIs(t, f.store.AddComment(ctx, id, model.NewComment{Author: "Bo", Content: " "}), model.ErrContentRequired)
	assert.ErrorIs(t, f.store.AddReply(ctx, id, "nope", model.NewComment{Author: "Bo", Content: "hi"}), model.ErrParentNotFound)
}

func TestPinComment_LastPinWins(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id := f.addVideo(t, "Pasta", "Ann")
	for i := 0; i < 3; i++ {
		require.NoError(t, f.store.AddComment(ctx, id, model.NewComment{Author: "Bo", Content: "c"}))
	}

	for _, target := range []string{"c1", "c3", "c2", "c2"} {
		require.NoError(t, f.store.PinComment(ctx, id, target))
		assert.Equal(t, []string{target}, f.comments.pinned())
	}
}

func TestPinComment_MissingTargetStillClearsPins(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	id := f.addVideo(t, "Pasta", "Ann")
	require.NoError(t, f.store.AddComment(ctx, id, model.NewComment{Author: "Bo", Content: "c"}))
	require.NoError(t, f.store.PinComment(ctx, id, "c1"))

	require.NoError(t, f.store.PinComment(ctx, id, "x"))

	assert.Empty(t, f.comments.pinned())
}

func TestPinComment_NoCommentsIsNoop(t *testing.T) {
	f := newCatalogFixture(t)
	id := f.addVideo(t, "Pasta", "Ann")

	require.NoError(t, f.store.PinComment(context.Background(), id, "x"))

	video, err := f.store.GetVideo(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, video.Comments)
}

func TestPinComment_StaysWithinVideo(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	v1 := f.addVideo(t, "Pasta", "Ann")
	v2 := f.addVideo(t, "Pizza", "Bob")
	require.NoError(t, f.store.AddComment(ctx, v1, model.NewComment{Author: "Bo", Content: "one"}))
	require.NoError(t, f.store.AddComment(ctx, v2, model.NewComment{Author: "Bo", Content: "two"}))
	require.NoError(t, f.store.AddComment(ctx, v2, model.NewComment{Author: "Bo", Content: "three"}))

	require.NoError(t, f.store.PinComment(ctx, v2, "c2"))
	require.NoError(t, f.store.PinComment(ctx, v1, "c3"))

	video, err := f.store.GetVideo(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, 1, model.CountPinned(video.Comments))
	assert.Equal(t, []string{"c2"}, f.comments.pinned())
}

func TestLikeComment_StaysWithinVideo(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	v1 := f.addVideo(t, "Pasta", "Ann")
	v2 := f.addVideo(t, "Pizza", "Bob")
	require.NoError(t, f.store.AddComment(ctx, v2, model.NewComment{Author: "Bo", Content: "two"}))

	require.NoError(t, f.store.LikeComment(ctx, v1, "c1"))

	video, err := f.store.GetVideo(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), video.Comments[0].Likes)
}
