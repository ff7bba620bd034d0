package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// CacheSnapshot stores the bookmarks rendered on path for a user
func (s *Store) CacheSnapshot(ctx context.Context, userID, path string, bookmarks []domain.Bookmark) error {
	data, err := json.Marshal(bookmarks)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, CacheKey(userID, path), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// GetCachedSnapshot retrieves a cached snapshot. ok is false on a miss.
func (s *Store) GetCachedSnapshot(ctx context.Context, userID, path string) (bookmarks []domain.Bookmark, ok bool, err error) {
	data, err := s.client.Get(ctx, CacheKey(userID, path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return bookmarks, true, nil
}

// InvalidateSnapshot removes the cached snapshot of one page
func (s *Store) InvalidateSnapshot(ctx context.Context, userID, path string) error {
	if err := s.client.Del(ctx, CacheKey(userID, path)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot: %w", err)
	}
	return nil
}

// FlushUserCache removes every cached page of a user
func (s *Store) FlushUserCache(ctx context.Context, userID string) error {
	iter := s.client.Scan(ctx, 0, UserCachePattern(userID), 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}
