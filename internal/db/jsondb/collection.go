package jsondb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// collection is an ordered list of records kept as one JSON array in a Blob.
// The mutex is held for the whole read-modify-write cycle of an operation.
type collection[T any] struct {
	mu   sync.Mutex
	name string
	blob Blob
}

func newCollection[T any](name string, blob Blob) *collection[T] {
	return &collection[T]{name: name, blob: blob}
}

func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := c.blob.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/jsondb/collection.go/load(): loading %s: %w", c.name, err)
	}

	items := []T{}
	if len(bytes.TrimSpace(data)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("in internal/db/jsondb/collection.go/load(): decoding %s: %w", c.name, err)
	}
	if items == nil {
		items = []T{}
	}

	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(items, "", "\t")
	if err != nil {
		return fmt.Errorf("in internal/db/jsondb/collection.go/save(): encoding %s: %w", c.name, err)
	}

	if err := c.blob.Store(ctx, data); err != nil {
		return fmt.Errorf("in internal/db/jsondb/collection.go/save(): storing %s: %w", c.name, err)
	}

	return nil
}

func (c *collection[T]) read(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load(ctx)
}

// update loads the collection, hands it to mutate and writes back whatever
// mutate returns. Nothing is written when mutate fails.
func (c *collection[T]) update(ctx context.Context, mutate func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}

	items, err = mutate(items)
	if err != nil {
		return err
	}

	return c.save(ctx, items)
}
