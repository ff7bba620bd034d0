package redis

import "fmt"

const (
	// KeyPrefixSession is the prefix for session records
	KeyPrefixSession = "marks:session:"
	// KeyPrefixCache is the prefix for cached page snapshots
	KeyPrefixCache = "marks:cache:"
	// KeyPrefixChanges is the prefix for change-feed pub/sub channels
	KeyPrefixChanges = "marks:changes:"
)

// SessionKey returns the Redis key for a session by ID
func SessionKey(id string) string {
	return KeyPrefixSession + id
}

// CacheKey returns the Redis key for a user's snapshot of a page
func CacheKey(userID, path string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefixCache, userID, path)
}

// UserCachePattern matches every cached page of a user
func UserCachePattern(userID string) string {
	return KeyPrefixCache + userID + ":*"
}

// ChangesChannel returns the pub/sub channel carrying changes of a table
// for rows owned by owner
func ChangesChannel(table, owner string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefixChanges, table, owner)
}
