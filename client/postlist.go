package client

import (
	"context"
	"sync"
)

// PostDeleter is the slice of the API client PostList needs.
type PostDeleter interface {
	DeletePost(ctx context.Context, id string) error
}

// PostList is a UI-side view of a post collection with optimistic
// deletion: the item disappears immediately and the exact prior
// snapshot is restored if the server call fails. The snapshot is taken
// before the mutation and restored verbatim, so a failed delete never
// reorders the list or loses entries.
type PostList struct {
	mu    sync.Mutex
	api   PostDeleter
	posts []Post
}

func NewPostList(api PostDeleter) *PostList {
	return &PostList{api: api}
}

// Replace sets the displayed collection, e.g. after a fresh fetch.
func (l *PostList) Replace(posts []Post) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posts = make([]Post, len(posts))
	copy(l.posts, posts)
}

// Posts returns a copy of the displayed collection.
func (l *PostList) Posts() []Post {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Post, len(l.posts))
	copy(out, l.posts)
	return out
}

// Len returns the displayed item count.
func (l *PostList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posts)
}

// Delete removes the post optimistically, then issues the server call.
// On failure the pre-delete snapshot is restored and the error
// returned; on success the optimistic state is already correct.
func (l *PostList) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	snapshot := make([]Post, len(l.posts))
	copy(snapshot, l.posts)

	remaining := make([]Post, 0, len(l.posts))
	for _, p := range l.posts {
		if p.ID != id {
			remaining = append(remaining, p)
		}
	}
	l.posts = remaining
	l.mu.Unlock()

	if err := l.api.DeletePost(ctx, id); err != nil {
		l.mu.Lock()
		l.posts = snapshot
		l.mu.Unlock()
		return err
	}
	return nil
}
