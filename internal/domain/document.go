package domain

import "time"

// DefaultTitle names documents created without an explicit title.
const DefaultTitle = "Untitled"

// Document identifies one editable canvas and its metadata. Ownership is
// deliberately absent: authentication and user identity live outside this
// service.
type Document struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
