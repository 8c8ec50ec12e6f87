package models

import "time"

// Graph is a composite resource referencing many documents. Its effective
// visibility is the minimum of its container's visibility and the resolved
// visibility of every referenced document, recomputed whenever the reference
// set or a referenced document's folder changes.
type Graph struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FolderID    *string   `json:"folder_id,omitempty"`
	Owner       Owner     `json:"owner"`
	DocumentIDs []string  `json:"document_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filed reports whether the graph belongs to a folder.
func (g *Graph) Filed() bool { return g.FolderID != nil }

// ResourceType names the kind of a resource reference.
type ResourceType string

const (
	ResourceFolder   ResourceType = "folder"
	ResourceDocument ResourceType = "document"
	ResourceGraph    ResourceType = "graph"
)

// ResourceRef identifies the target of an access decision. Callers resolving
// documents/graphs supply the current folder id as read from the content
// store together with the item's direct owner; the engine does not fetch
// content metadata itself.
type ResourceRef struct {
	Type     ResourceType
	ID       string
	FolderID *string
	Owner    Owner
}
