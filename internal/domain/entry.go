package domain

import "time"

// Entry is a single journal post.
type Entry struct {
	ID      int64
	Title   string
	Text    string
	Created time.Time
}

// MaxTitleLength is the title limit in characters, enforced both by form
// validation and by the entries.title column type.
const MaxTitleLength = 255
