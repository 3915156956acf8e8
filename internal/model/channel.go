package model

import (
	"fmt"
	"strings"
	"unicode"
)

// PlaceholderBaseURL serves deterministic seeded placeholder images.
const PlaceholderBaseURL = "https://picsum.photos"

const defaultChannelDescription = "Welcome to my official channel!"

// Channel is a read-side view of a content creator, derived from a name.
type Channel struct {
	Name            string     `json:"name"`
	Handle          string     `json:"handle"`
	Avatar          string     `json:"avatar"`
	Banner          string     `json:"banner"`
	Description     string     `json:"description"`
	VideosCount     int        `json:"videos_count"`
	SubscriberCount int        `json:"subscriber_count"`
	IsOwner         bool       `json:"is_owner"`
	IsSubscribed    bool       `json:"is_subscribed"`
	Playlists       []Playlist `json:"playlists,omitempty"`
}

// Assets is the placeholder artwork of a channel.
type Assets struct {
	Avatar string `json:"avatar"`
	Banner string `json:"banner"`
}

// ChannelAssets derives placeholder artwork seeded by the channel name.
func ChannelAssets(name string) Assets {
	return Assets{
		Avatar: fmt.Sprintf("%s/seed/%s/200/200", PlaceholderBaseURL, name),
		Banner: fmt.Sprintf("%s/seed/%sbanner/1500/250", PlaceholderBaseURL, name),
	}
}

// ChannelHandle lowercases name and strips whitespace, prefixed with "@".
func ChannelHandle(name string) string {
	var b strings.Builder
	b.WriteByte('@')
	for _, r := range strings.ToLower(name) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SyntheticChannel builds the view of a channel other than the viewer's own.
func SyntheticChannel(name string) Channel {
	assets := ChannelAssets(name)
	return Channel{
		Name:        name,
		Handle:      ChannelHandle(name),
		Avatar:      assets.Avatar,
		Banner:      assets.Banner,
		Description: defaultChannelDescription,
	}
}

// ThumbnailPlaceholder is used when a publish carries no thumbnail.
func ThumbnailPlaceholder(seed string) string {
	return fmt.Sprintf("%s/seed/%s/640/360", PlaceholderBaseURL, seed)
}

// FormatCount renders 1234 as "1.2K" and 3400000 as "3.4M".
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
