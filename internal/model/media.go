package model

import (
	"errors"
	"path/filepath"
	"strings"
)

// MaxVideoSizeBytes caps a published video file.
const MaxVideoSizeBytes = 100 * 1024 * 1024

// MaxPostImageSizeBytes caps an image attached to a post.
const MaxPostImageSizeBytes = 10 * 1024 * 1024

// Supported content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidMediaType = "INVALID_MEDIA_TYPE"
	CodeUploadTimeout    = "UPLOAD_TIMEOUT"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidMediaType = errors.New("invalid media type")
	ErrUploadTimeout    = errors.New("upload timed out")
	ErrNoVideoFile      = errors.New("video file is required")
)

// Upload is an in-memory file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Ext returns the lowercased extension without the dot.
func (u *Upload) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
}

// Stem returns the filename without its extension.
func (u *Upload) Stem() string {
	base := filepath.Base(u.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// IsVideoType reports whether contentType names a video container.
func IsVideoType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

// PublishRequest is the input of the video publish flow.
type PublishRequest struct {
	Title       string
	Description string
	Duration    string
	Video       *Upload
	Thumbnail   *Upload
}
