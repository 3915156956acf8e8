package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// HistoryLimit caps the watch history length.
const HistoryLimit = 50

const defaultProfileDescription = "No description yet."

// Profile is the signed-in user's view of their own record.
type Profile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Handle        string     `json:"handle"`
	Email         string     `json:"email"`
	Avatar        string     `json:"avatar"`
	Banner        string     `json:"banner"`
	Description   string     `json:"description"`
	Subscriptions []string   `json:"subscriptions"`
	History       []string   `json:"history"`
	Playlists     []Playlist `json:"playlists"`
}

// Playlist is an ordered list of video ids owned by a profile.
type Playlist struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"video_ids"`
	DateCreated time.Time `json:"date_created"`
}

// ProfilePatch carries the fields to change. Nil fields are left untouched;
// collection fields replace the stored value wholesale.
type ProfilePatch struct {
	Name          *string     `json:"name,omitempty"`
	Handle        *string     `json:"handle,omitempty"`
	Avatar        *string     `json:"avatar,omitempty"`
	Banner        *string     `json:"banner,omitempty"`
	Description   *string     `json:"description,omitempty"`
	Subscriptions *[]string   `json:"subscriptions,omitempty"`
	History       *[]string   `json:"history,omitempty"`
	Playlists     *[]Playlist `json:"playlists,omitempty"`
}

// Profile errors
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrNotSignedIn      = errors.New("not signed in")
	ErrEmptyPatch       = errors.New("profile patch has no fields")
	ErrSelfSubscription = errors.New("cannot subscribe to your own channel")
)

// NewDefaultProfile builds the record created for a user that has none yet.
func NewDefaultProfile(id, email string) *Profile {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return &Profile{
		ID:            id,
		Name:          "User " + short,
		Handle:        "@user" + short,
		Email:         email,
		Avatar:        fmt.Sprintf("%s/seed/%s/200/200", PlaceholderBaseURL, id),
		Banner:        fmt.Sprintf("%s/seed/%sbanner/1500/250", PlaceholderBaseURL, id),
		Description:   defaultProfileDescription,
		Subscriptions: []string{},
		History:       []string{},
		Playlists:     []Playlist{},
	}
}

// NewPlaylistID returns a random lowercase token.
func NewPlaylistID() string {
	return strings.ToLower(ulid.Make().String())
}

// IsEmpty reports whether the patch would write nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Handle == nil && p.Avatar == nil && p.Banner == nil &&
		p.Description == nil && p.Subscriptions == nil && p.History == nil && p.Playlists == nil
}

// Apply merges the patch into the profile in place.
func (p ProfilePatch) Apply(profile *Profile) {
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.Handle != nil {
		profile.Handle = *p.Handle
	}
	if p.Avatar != nil {
		profile.Avatar = *p.Avatar
	}
	if p.Banner != nil {
		profile.Banner = *p.Banner
	}
	if p.Description != nil {
		profile.Description = *p.Description
	}
	if p.Subscriptions != nil {
		profile.Subscriptions = slices.Clone(*p.Subscriptions)
	}
	if p.History != nil {
		profile.History = slices.Clone(*p.History)
	}
	if p.Playlists != nil {
		profile.Playlists = clonePlaylists(*p.Playlists)
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Subscriptions = slices.Clone(p.Subscriptions)
	c.History = slices.Clone(p.History)
	c.Playlists = clonePlaylists(p.Playlists)
	return &c
}

// HasSubscription reports whether channel is in the subscription set.
func (p *Profile) HasSubscription(channel string) bool {
	return slices.Contains(p.Subscriptions, channel)
}

// Playlist returns the playlist with the given id.
func (p *Profile) Playlist(id string) (*Playlist, bool) {
	for i := range p.Playlists {
		if p.Playlists[i].ID == id {
			return &p.Playlists[i], true
		}
	}
	return nil, false
}

func clonePlaylists(in []Playlist) []Playlist {
	if in == nil {
		return nil
	}
	out := make([]Playlist, len(in))
	for i, pl := range in {
		out[i] = pl
		out[i].VideoIDs = slices.Clone(pl.VideoIDs)
	}
	return out
}

// ToggleSubscription removes channel if present, appends it otherwise.
func ToggleSubscription(subs []string, channel string) []string {
	if slices.Contains(subs, channel) {
		out := make([]string, 0, len(subs))
		for _, s := range subs {
			if s != channel {
				out = append(out, s)
			}
		}
		return out
	}
	out := make([]string, 0, len(subs)+1)
	out = append(out, subs...)
	return append(out, channel)
}

// PushHistory moves videoID to the front, dropping any earlier occurrence,
// and truncates to HistoryLimit.
func PushHistory(history []string, videoID string) []string {
	out := make([]string, 0, min(len(history)+1, HistoryLimit))
	out = append(out, videoID)
	for _, id := range history {
		if len(out) == HistoryLimit {
			break
		}
		if id != videoID {
			out = append(out, id)
		}
	}
	return out
}

// AppendPlaylist returns a copy of playlists with pl appended.
func AppendPlaylist(playlists []Playlist, pl Playlist) []Playlist {
	out := clonePlaylists(playlists)
	if out == nil {
		out = []Playlist{}
	}
	return append(out, pl)
}

// RemovePlaylist drops the playlist with the given id.
func RemovePlaylist(playlists []Playlist, id string) []Playlist {
	out := make([]Playlist, 0, len(playlists))
	for _, pl := range clonePlaylists(playlists) {
		if pl.ID != id {
			out = append(out, pl)
		}
	}
	return out
}

// AddToPlaylist appends videoID to the playlist unless it is already there.
func AddToPlaylist(playlists []Playlist, id, videoID string) []Playlist {
	out := clonePlaylists(playlists)
	for i := range out {
		if out[i].ID == id && !slices.Contains(out[i].VideoIDs, videoID) {
			out[i].VideoIDs = append(out[i].VideoIDs, videoID)
		}
	}
	return out
}

// RemoveFromPlaylist drops every occurrence of videoID from the playlist.
func RemoveFromPlaylist(playlists []Playlist, id, videoID string) []Playlist {
	out := clonePlaylists(playlists)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		kept := make([]string, 0, len(out[i].VideoIDs))
		for _, v := range out[i].VideoIDs {
			if v != videoID {
				kept = append(kept, v)
			}
		}
		out[i].VideoIDs = kept
	}
	return out
}
