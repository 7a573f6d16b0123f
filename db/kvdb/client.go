package kvdb

import (
	"context"
	"time"
)

// Client is the key-value backend behind editor session records.
// Records are hashes that always carry an expiry.
type Client interface {
	Init() error
	Close() error
	GetConf() *Conf

	Delete(ctx context.Context, keys ...string) (int64, error)
	// Expire resets the ttl of key, false if the key is gone
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// ScanKeys pages through keys matching a glob. The cursor is backend specific;
	// a nil next cursor ends the scan.
	ScanKeys(ctx context.Context, cursor any, match string, batch int) (keys []string, next any, err error)

	// PutHash writes fields into the hash at key and sets its ttl in one step
	PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
	GetHashField(ctx context.Context, key string, field string) (val string, found bool, err error)
	// GetHash returns an empty map for a missing key
	GetHash(ctx context.Context, key string) (map[string]string, error)
}
