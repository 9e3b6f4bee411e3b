package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore keeps entries in a JetStream key/value bucket so every
// application instance shares one cache. The bucket's TTL expires entries.
type NATSStore struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSStore connects to url and creates (or updates) bucket with the
// given TTL.
func NewNATSStore(ctx context.Context, url, bucket string, ttl time.Duration) (*NATSStore, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(-1), nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "rendered page cache",
		TTL:         ttl,
		History:     1,
		Storage:     jetstream.MemoryStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating key/value bucket %s: %w", bucket, err)
	}

	return &NATSStore{conn: nc, kv: kv}, nil
}

func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return entry.Value(), true, nil
}

func (s *NATSStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, kvKey(key), value); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *NATSStore) Clear(ctx context.Context) error {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("cache list keys: %w", err)
	}
	defer lister.Stop()

	for key := range lister.Keys() {
		if err := s.kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("cache purge %s: %w", key, err)
		}
	}
	return nil
}

func (s *NATSStore) Close() error {
	s.conn.Close()
	return nil
}

// kvKey maps an arbitrary cache key (URLs contain '/', '?', ':') onto the
// restricted key/value alphabet.
func kvKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
