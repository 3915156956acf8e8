package model

import (
	"errors"
	"fmt"
	"time"
)

// DefaultDuration is shown when a video carries no duration.
const DefaultDuration = "0:00"

// Video is a catalog entry. Comments stay empty on list reads and are
// materialized by a single-video fetch.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"author_avatar"`
	Thumbnail    string    `json:"thumbnail"`
	VideoURL     string    `json:"video_url"`
	Likes        int64     `json:"likes"`
	Views        int64     `json:"views"`
	UploadDate   time.Time `json:"upload_date"`
	Duration     string    `json:"duration"`
	Comments     []Comment `json:"comments"`
}

// NewVideo is the input for adding a catalog entry.
type NewVideo struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Author       string `json:"author"`
	AuthorAvatar string `json:"author_avatar"`
	Thumbnail    string `json:"thumbnail"`
	VideoURL     string `json:"video_url"`
	Duration     string `json:"duration"`
}

// Counter names a numeric column that supports atomic increments.
type Counter string

const (
	CounterLikes   Counter = "likes"
	CounterViews   Counter = "views"
	CounterReposts Counter = "reposts"
)

// Video errors
var (
	ErrVideoNotFound  = errors.New("video not found")
	ErrUnknownCounter = errors.New("unknown counter")
	ErrTitleRequired  = errors.New("title is required")
)

// Normalize fills display defaults for fields the record store left empty.
func (v *Video) Normalize() {
	if v.Duration == "" {
		v.Duration = DefaultDuration
	}
	if v.AuthorAvatar == "" {
		v.AuthorAvatar = fmt.Sprintf("%s/seed/%s/200/200", PlaceholderBaseURL, v.Author)
	}
	if v.Comments == nil {
		v.Comments = []Comment{}
	}
}
