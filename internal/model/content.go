package model

import (
	"fmt"
	"regexp"
)

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// ContentPart is either plain text or a link extracted from post content.
type ContentPart struct {
	Text   string `json:"text,omitempty"`
	Label  string `json:"label,omitempty"`
	URL    string `json:"url,omitempty"`
	IsLink bool   `json:"is_link"`
}

// ParseLinks splits content into text runs and [label](url) links.
func ParseLinks(content string) []ContentPart {
	var parts []ContentPart
	last := 0
	for _, m := range linkPattern.FindAllStringSubmatchIndex(content, -1) {
		if m[0] > last {
			parts = append(parts, ContentPart{Text: content[last:m[0]]})
		}
		parts = append(parts, ContentPart{
			Label:  content[m[2]:m[3]],
			URL:    content[m[4]:m[5]],
			IsLink: true,
		})
		last = m[1]
	}
	if last < len(content) {
		parts = append(parts, ContentPart{Text: content[last:]})
	}
	return parts
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}
