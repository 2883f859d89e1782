package models

import "time"

// Post is a user-authored post with an attached media asset.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	AuthorID    uint   `gorm:"not null;index" json:"author_id"`
	Author      *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	ImageID  string `json:"image_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed in queries, not stored.
	LikesCount    int64 `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	Liked         bool  `gorm:"->;-:migration" json:"liked"`
}
