package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	postKeyPrefix = "post:%d"
	postsListKey  = "posts:recent"
)

const (
	PostTTL = 30 * time.Minute
	ListTTL = 1 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

func PostsListKey() string {
	return postsListKey
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	Invalidate(ctx, postsListKey)
}

func InvalidatePostsList(ctx context.Context) {
	Invalidate(ctx, postsListKey)
}
