package models

import "time"

// Image is the metadata record for an asset held by the media store. PublicID
// is the content hash the rest of the system uses to reference and destroy the
// asset. RefCount tracks how many uploads share the content; the file is only
// removed when the last reference is destroyed.
type Image struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PublicID string `gorm:"uniqueIndex;not null" json:"public_id"`
	Folder   string `gorm:"index;not null" json:"folder"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int64  `json:"bytes"`
	Path     string `json:"-"`
	RefCount int64  `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
