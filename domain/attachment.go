package domain

import "time"

// Attachment holds the metadata of a file attached to a todo. The stored
// name is an opaque server-side identifier; byte storage lives outside this
// service.
type Attachment struct {
	ID               int64     `json:"id"`
	TodoID           int64     `json:"todo_id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	ContentType      string    `json:"content_type,omitempty"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}
