package model

import "slices"

// HistoryVideos maps history ids to catalog videos in history order.
// Ids no longer in the catalog are skipped.
func HistoryVideos(history []string, catalog []Video) []Video {
	byID := make(map[string]Video, len(catalog))
	for _, v := range catalog {
		byID[v.ID] = v
	}
	out := make([]Video, 0, len(history))
	for _, id := range history {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// SubscriptionVideos keeps catalog videos authored by a subscribed channel.
func SubscriptionVideos(subscriptions []string, catalog []Video) []Video {
	out := make([]Video, 0)
	for _, v := range catalog {
		if slices.Contains(subscriptions, v.Author) {
			out = append(out, v)
		}
	}
	return out
}

// PlaylistVideos keeps catalog videos that belong to the playlist, in
// catalog order.
func PlaylistVideos(pl Playlist, catalog []Video) []Video {
	out := make([]Video, 0, len(pl.VideoIDs))
	for _, v := range catalog {
		if slices.Contains(pl.VideoIDs, v.ID) {
			out = append(out, v)
		}
	}
	return out
}

// NextInPlaylist returns the id after currentID, or "" at the end or when
// currentID is not in the playlist.
func NextInPlaylist(pl Playlist, currentID string) string {
	i := slices.Index(pl.VideoIDs, currentID)
	if i == -1 || i == len(pl.VideoIDs)-1 {
		return ""
	}
	return pl.VideoIDs[i+1]
}

// ChannelVideos keeps catalog videos authored by name.
func ChannelVideos(name string, catalog []Video) []Video {
	out := make([]Video, 0)
	for _, v := range catalog {
		if v.Author == name {
			out = append(out, v)
		}
	}
	return out
}

// ChannelPosts keeps posts authored by name.
func ChannelPosts(name string, posts []Post) []Post {
	out := make([]Post, 0)
	for _, p := range posts {
		if p.Author == name {
			out = append(out, p)
		}
	}
	return out
}
