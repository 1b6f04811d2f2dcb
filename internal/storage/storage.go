package storage

import "context"

// Metadata is attached to uploaded blobs as user metadata.
type Metadata map[string]string

// BlobStore is the capability interface over object storage. Get on a missing
// key is an error, never an empty result.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, metadata Metadata) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}
