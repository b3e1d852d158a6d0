package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentcalc/internal/app/policies"
	"rentcalc/internal/domain/property"
)

const DefaultPrefix = "rentcalc:snapshot:"

// putIfGeneration writes the snapshot only while the generation counter still
// holds the value the reader saw before loading from the store.
var putIfGeneration = goredis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then current = '0' end
if current ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// SnapshotCache keeps property snapshots as JSON strings with a TTL under
// <prefix>data:<id>, and a per-property generation counter under
// <prefix>gen:<id> that Invalidate increments.
type SnapshotCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func NewSnapshotCache(client *goredis.Client, prefix string, ttl time.Duration) *SnapshotCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SnapshotCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *SnapshotCache) Get(ctx context.Context, id property.ID) (policies.PropertySnapshot, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return policies.PropertySnapshot{}, false, nil
		}
		return policies.PropertySnapshot{}, false, err
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		return policies.PropertySnapshot{}, false, err
	}
	return snap, true, nil
}

func (c *SnapshotCache) Generation(ctx context.Context, id property.ID) (uint64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(id)).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *SnapshotCache) Put(ctx context.Context, snapshot policies.PropertySnapshot, generation uint64) (bool, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return false, err
	}
	keys := []string{c.generationKey(snapshot.PropertyID), c.key(snapshot.PropertyID)}
	stored, err := putIfGeneration.Run(ctx, c.client, keys, strconv.FormatUint(generation, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (c *SnapshotCache) Invalidate(ctx context.Context, id property.ID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(id))
		pipe.Del(ctx, c.key(id))
		return nil
	})
	return err
}

// Flush removes every snapshot under the prefix. Generation counters and
// other keys in the database are left alone.
func (c *SnapshotCache) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"data:*", 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SnapshotCache) key(id property.ID) string {
	return c.prefix + "data:" + id.String()
}

func (c *SnapshotCache) generationKey(id property.ID) string {
	return c.prefix + "gen:" + id.String()
}

func decodeSnapshot(raw []byte) (policies.PropertySnapshot, error) {
	var snap policies.PropertySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return policies.PropertySnapshot{}, fmt.Errorf("redis: decode snapshot: %w", err)
	}
	return snap, nil
}

var _ policies.SnapshotCache = (*SnapshotCache)(nil)
