package models

import "time"

// Comment is a user's comment on a post. The unique (post_id, author_id) index
// enforces one comment per author per post; commenting again updates in place.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;uniqueIndex:idx_comments_post_author" json:"post_id"`
	AuthorID uint   `gorm:"not null;uniqueIndex:idx_comments_post_author" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content  string `gorm:"not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
