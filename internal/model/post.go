package model

import (
	"errors"
	"fmt"
	"time"
)

// Post is a community feed entry with a natively nested comment document.
type Post struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"author_avatar"`
	Content      string    `json:"content"`
	HasImage     bool      `json:"has_image"`
	ImageURL     string    `json:"image_url,omitempty"`
	Date         time.Time `json:"date"`
	Likes        int64     `json:"likes"`
	Reposts      int64     `json:"reposts"`
	Comments     []Comment `json:"comments"`
}

// NewPost is the input for creating a post.
type NewPost struct {
	Author       string `json:"author"`
	AuthorAvatar string `json:"author_avatar"`
	Content      string `json:"content"`
}

// Actor identifies who performs a social action such as a repost.
type Actor struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrContentRequired = errors.New("content is required")
)

// RepostContent is the body of a repost of original.
func RepostContent(original Post) string {
	return fmt.Sprintf("Reposted from @%s: %s", original.Author, original.Content)
}

// Normalize fills display defaults for fields the record store left empty.
func (p *Post) Normalize() {
	p.HasImage = p.ImageURL != ""
	if p.AuthorAvatar == "" {
		p.AuthorAvatar = fmt.Sprintf("%s/seed/%s/100/100", PlaceholderBaseURL, p.Author)
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}
