package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix = "post:%d"
	PostsListKey  = "posts:list"
)

const (
	// Posts are immutable once created, so a long TTL is safe.
	PostTTL      = 30 * time.Minute
	PostsListTTL = 5 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePostsList(ctx context.Context) {
	Invalidate(ctx, PostsListKey)
}
