package models

import "time"

// Document is a content item. When FolderID is set the document is "filed"
// and its visibility and accessible-capability set derive entirely from the
// containing folder. When FolderID is nil it is "un-filed": owned directly,
// private, and never accessible to non-owners.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FolderID  *string   `json:"folder_id,omitempty"`
	Owner     Owner     `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filed reports whether the document belongs to a folder.
func (d *Document) Filed() bool { return d.FolderID != nil }
