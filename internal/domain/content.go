package domain

import "strings"

// Source is a web citation attached to a grounded answer.
type Source struct {
	Title string
	URI   string
}

// Answer is free text plus whatever citations the content service returned.
type Answer struct {
	Text    string
	Sources []Source
}

// Media is an inline image or video sent for diagnosis.
type Media struct {
	Data     []byte
	MIMEType string
}

// IsVideo reports whether the media is a video clip.
func (m Media) IsVideo() bool {
	return strings.HasPrefix(m.MIMEType, "video/")
}
