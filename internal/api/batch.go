package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
)

// BatchItem is one keyed request of a batch.
type BatchItem struct {
	Key     string
	Request *Request
}

// BatchResult is the outcome of one batch item.
type BatchResult struct {
	Body json.RawMessage
	Err  error
}

// Batch executes every item with at most concurrency requests in flight and
// returns one result per key. A failing item never affects the others.
// Duplicate keys are rejected before anything is sent.
func (c *Client) Batch(ctx context.Context, items []BatchItem, concurrency int) (map[string]BatchResult, error) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.Key]; dup {
			return nil, &apierrors.ValidationError{Field: "batch key", Message: fmt.Sprintf("duplicate key %q", item.Key)}
		}
		seen[item.Key] = struct{}{}
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		results = make(map[string]BatchResult, len(items))
	)

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			body, err := c.Request(ctx, item.Request)
			mu.Lock()
			results[item.Key] = BatchResult{Body: body, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
