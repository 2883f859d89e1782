package models

import "time"

// Follow is one edge of the follow graph: follower follows followee. A single
// row represents both sides of the relation, so "A follows B" and "B is
// followed by A" cannot disagree. The unique pair index rejects duplicates.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
