package cache

import (
	"fmt"
	"time"
)

// Key inventory. Every cached entity has its key builder and TTL here so
// invalidation sites can be audited in one place.
const (
	UserTTL        = 5 * time.Minute
	PostTTL        = 5 * time.Minute
	RecentPostsTTL = 30 * time.Second
)

// RecentPostsKey caches only the unfiltered first page of the public feed,
// which is the hot read. Filtered and paginated queries go to the database.
const RecentPostsKey = "posts:recent"

func UserKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func PostKey(id uint) string {
	return fmt.Sprintf("post:%d", id)
}
