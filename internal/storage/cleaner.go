package storage

import (
	"context"
	"log"
	"sync"
	"time"
)

// Cleaner removes orphaned uploads in the background. Deleting a post
// must not fail because its image could not be removed, so removals are
// queued here and failures are only logged.
type Cleaner struct {
	store Store
	tasks chan string
	wg    sync.WaitGroup
}

// NewCleaner starts the given number of removal workers.
func NewCleaner(store Store, workers int) *Cleaner {
	c := &Cleaner{
		store: store,
		tasks: make(chan string, workers*2),
	}
	for i := 0; i < workers; i++ {
		go c.worker()
	}
	return c
}

func (c *Cleaner) worker() {
	for path := range c.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.store.Remove(ctx, path); err != nil {
			log.Printf("⚠️ Failed to remove file %s: %v", path, err)
		}
		cancel()
		c.wg.Done()
	}
}

// Enqueue schedules a best-effort removal.
func (c *Cleaner) Enqueue(path string) {
	if path == "" {
		return
	}
	c.wg.Add(1)
	c.tasks <- path
}

// Close waits for queued removals to finish and stops the workers.
func (c *Cleaner) Close() {
	c.wg.Wait()
	close(c.tasks)
}
