package tinybird

import (
	"context"
	"encoding/json"

	"github.com/tinybird-go/tinybird-go/internal/api"
)

// BatchResult is the outcome of one keyed request of a batch. Exactly one of
// Value and Err is set.
type BatchResult[T any] struct {
	Value T
	Err   error
}

// OK reports whether the request succeeded.
func (r BatchResult[T]) OK() bool {
	return r.Err == nil
}

// runBatch executes items with the client's batch concurrency and decodes
// each successful body. A decode failure only affects its own key.
func runBatch[T any](ctx context.Context, c *Client, items []api.BatchItem, decode func(json.RawMessage) (T, error)) (map[string]BatchResult[T], error) {
	raw, err := c.apiClient.Batch(ctx, items, c.batchConcurrency)
	if err != nil {
		return nil, err
	}

	results := make(map[string]BatchResult[T], len(raw))
	for key, r := range raw {
		if r.Err != nil {
			results[key] = BatchResult[T]{Err: r.Err}
			continue
		}
		v, err := decode(r.Body)
		if err != nil {
			results[key] = BatchResult[T]{Err: err}
			continue
		}
		results[key] = BatchResult[T]{Value: v}
	}
	return results, nil
}
