package storage

import (
	"context"
	"errors"
	"io/fs"

	"socialhub/internal/middleware"
	"socialhub/internal/observability"
)

// Batch records artifacts written while handling one request. If the database
// write that should reference them fails, Rollback removes them again.
type Batch struct {
	store MediaStore
	urls  []string
}

// NewBatch starts an empty batch against store.
func NewBatch(store MediaStore) *Batch {
	return &Batch{store: store}
}

// Save writes data through the store and tracks the result.
func (b *Batch) Save(ctx context.Context, field, ext string, data []byte) (Artifact, error) {
	a, err := b.store.Save(ctx, field, ext, data)
	if err != nil {
		return Artifact{}, err
	}
	b.urls = append(b.urls, a.URL)
	return a, nil
}

// URLs returns the tracked references in write order.
func (b *Batch) URLs() []string {
	return append([]string(nil), b.urls...)
}

// Rollback removes every tracked artifact. Failures are logged, never returned,
// so the caller's original error stays the one reported.
func (b *Batch) Rollback(ctx context.Context) {
	RemoveAll(ctx, b.store, b.urls, "rollback")
	b.urls = nil
}

// RemoveAll deletes artifacts best-effort, logging anything that could not be removed.
func RemoveAll(ctx context.Context, store MediaStore, urls []string, reason string) {
	for _, url := range urls {
		if err := store.Remove(ctx, url); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				middleware.Logger.WarnContext(ctx, "media artifact already missing",
					"url", url, "reason", reason)
				continue
			}
			observability.MediaCleanupFailures.WithLabelValues(reason).Inc()
			middleware.Logger.WarnContext(ctx, "failed to remove media artifact",
				"url", url, "reason", reason, "error", err)
		}
	}
}
