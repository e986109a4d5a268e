package models

import "time"

// Photo is an image attached to a card-inspection. URL is derived from
// FileName by the photo store and is not persisted.
type Photo struct {
	ID               string
	CardInspectionID int64
	FileName         string
	FileSize         int64
	MimeType         string
	URL              string
	CreatedAt        time.Time
}

// PhotoUpload carries an incoming photo before it is stored.
type PhotoUpload struct {
	InspectionID string
	CardID       string
	FileName     string
	MimeType     string
	Size         int64
}
