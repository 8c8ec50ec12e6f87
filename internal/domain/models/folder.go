package models

import "time"

// Folder is the unit of sharing: grants attach to folders and filed
// documents/graphs derive all access from their containing folder.
type Folder struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Owner      Owner      `json:"owner"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
