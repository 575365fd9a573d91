// Package memorystorage keeps both collections in process memory. It follows
// the jsondb contract exactly, including the JSON encoding of every record, so
// stored values never alias the caller's.
package memorystorage

import (
	"context"
	"sync"

	"github.com/patric-chuzhbe/twitterapi/internal/db/jsondb"
)

type memoryBlob struct {
	mu   sync.RWMutex
	data []byte
}

func (b *memoryBlob) Load(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]byte(nil), b.data...), nil
}

func (b *memoryBlob) Store(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data[:0], data...)

	return nil
}

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewWithBlobs(
			&memoryBlob{data: []byte(`[]`)},
			&memoryBlob{data: []byte(`[]`)},
		),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
