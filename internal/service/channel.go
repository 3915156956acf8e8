package service

import (
	"context"
	"sync"

	"eclipse/internal/localstore"
	"eclipse/internal/logger"
	"eclipse/internal/model"
)

// ProfileSource exposes the signed-in profile.
type ProfileSource interface {
	Current() *model.Profile
}

// VideoSource exposes the live catalog.
type VideoSource interface {
	ListVideos() []model.Video
}

// PostSource exposes the live feed.
type PostSource interface {
	ListPosts() []model.Post
}

// ChannelProjector derives channel pages from the profile, the catalog and
// the subscriber count cache. It never writes.
type ChannelProjector struct {
	profiles ProfileSource
	videos   VideoSource
	posts    PostSource
	counts   *SubscriberCounts
}

func NewChannelProjector(profiles ProfileSource, videos VideoSource, posts PostSource, counts *SubscriberCounts) *ChannelProjector {
	return &ChannelProjector{profiles: profiles, videos: videos, posts: posts, counts: counts}
}

// Project builds the channel named name. The viewer's own channel shows
// the live profile; any other is synthesized from the name alone.
func (p *ChannelProjector) Project(name string) model.Channel {
	me := p.profiles.Current()

	var ch model.Channel
	if me != nil && me.Name == name {
		ch = model.Channel{
			Name:        me.Name,
			Handle:      me.Handle,
			Avatar:      me.Avatar,
			Banner:      me.Banner,
			Description: me.Description,
			IsOwner:     true,
			Playlists:   me.Playlists,
		}
	} else {
		ch = model.SyntheticChannel(name)
	}

	ch.VideosCount = len(model.ChannelVideos(name, p.videos.ListVideos()))
	if p.counts != nil {
		ch.SubscriberCount = p.counts.Get(name)
	}
	ch.IsSubscribed = me != nil && me.HasSubscription(name)
	return ch
}

func (p *ChannelProjector) ChannelVideos(name string) []model.Video {
	return model.ChannelVideos(name, p.videos.ListVideos())
}

func (p *ChannelProjector) ChannelPosts(name string) []model.Post {
	return model.ChannelPosts(name, p.posts.ListPosts())
}

// SubscriberCounts is a local, cosmetic count per channel. It is never
// reconciled with the server and never goes below zero.
type SubscriberCounts struct {
	store localstore.CountStore

	mu     sync.RWMutex
	counts map[string]int
}

func NewSubscriberCounts(store localstore.CountStore) *SubscriberCounts {
	return &SubscriberCounts{store: store, counts: make(map[string]int)}
}

// Load replaces the cache with the persisted counts.
func (c *SubscriberCounts) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	counts, err := c.store.Load(ctx)
	if err != nil {
		logger.For("SubscriberCounts").Warnf("Load FAILED: err=%v", err)
		return err
	}
	c.mu.Lock()
	c.counts = counts
	c.mu.Unlock()
	return nil
}

// Get defaults to zero.
func (c *SubscriberCounts) Get(channel string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[channel]
}

// Adjust adds delta, clamped at zero, persists the map and returns the new
// count. A failed save keeps the in-memory value.
func (c *SubscriberCounts) Adjust(ctx context.Context, channel string, delta int) int {
	c.mu.Lock()
	n := max(c.counts[channel]+delta, 0)
	c.counts[channel] = n
	snapshot := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		snapshot[k] = v
	}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, snapshot); err != nil {
			logger.For("SubscriberCounts").Warnf("Save FAILED: channel=%s err=%v", channel, err)
		}
	}
	return n
}

// Subscriptions is the channel page subscribe button: it toggles the
// profile's subscription and moves the local count with it.
type Subscriptions struct {
	profiles *ProfileStore
	counts   *SubscriberCounts

	// mu pairs each toggle with its count adjustment.
	mu sync.Mutex
}

func NewSubscriptions(profiles *ProfileStore, counts *SubscriberCounts) *Subscriptions {
	return &Subscriptions{profiles: profiles, counts: counts}
}

// Toggle returns whether the viewer is subscribed afterwards.
func (s *Subscriptions) Toggle(ctx context.Context, channel string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me := s.profiles.Current()
	if me == nil {
		return false, model.ErrNotSignedIn
	}
	if me.Name == channel {
		return false, model.ErrSelfSubscription
	}

	subscribed, err := s.profiles.ToggleSubscription(ctx, channel)
	if err != nil {
		return me.HasSubscription(channel), err
	}

	delta := 1
	if !subscribed {
		delta = -1
	}
	s.counts.Adjust(ctx, channel, delta)
	return subscribed, nil
}
