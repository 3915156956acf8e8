package model

import (
	"errors"
	"fmt"
	"time"
)

// Comment is a node in a comment thread. Video comments are stored flat with
// ParentID references; post comments are stored already nested in Replies.
type Comment struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id,omitempty"`
	ParentID     *string   `json:"parent_id,omitempty"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"author_avatar"`
	Content      string    `json:"content"`
	Date         time.Time `json:"date"`
	Likes        int64     `json:"likes"`
	UserLikes    int64     `json:"user_likes,omitempty"`
	IsPinned     bool      `json:"is_pinned"`
	Replies      []Comment `json:"replies"`
}

// NewComment is the input for adding a comment or reply.
type NewComment struct {
	Author       string `json:"author"`
	AuthorAvatar string `json:"author_avatar"`
	Content      string `json:"content"`
}

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
)

// Normalize fills display defaults for fields the record store left empty.
func (c *Comment) Normalize() {
	if c.AuthorAvatar == "" {
		c.AuthorAvatar = fmt.Sprintf("%s/seed/%s/100/100", PlaceholderBaseURL, c.Author)
	}
	if c.Replies == nil {
		c.Replies = []Comment{}
	}
}
