package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"lumenvault/internal/domain/pricing"

	"github.com/redis/go-redis/v9"
)

// feedPayload is what the off-process price feeder publishes. The value is a
// decimal string so feed precision survives JSON.
type feedPayload struct {
	Value    string `json:"value"`
	Decimals uint8  `json:"decimals"`
}

// RedisOracle reads the collateral price published to a redis key by the
// price feeder. A missing key, malformed payload, or non-positive value all
// surface as pricing.ErrUnavailable so ledger operations refuse to run on a
// stale-empty feed.
type RedisOracle struct {
	rdb *redis.Client
	key string
}

func NewRedisOracle(rdb *redis.Client, key string) *RedisOracle {
	return &RedisOracle{rdb: rdb, key: key}
}

func (o *RedisOracle) Price(ctx context.Context) (pricing.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	raw, err := o.rdb.Get(ctx, o.key).Bytes()
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("%w: read %s: %v", pricing.ErrUnavailable, o.key, err)
	}
	var p feedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return pricing.Quote{}, fmt.Errorf("%w: decode %s: %v", pricing.ErrUnavailable, o.key, err)
	}
	value, ok := new(big.Int).SetString(p.Value, 10)
	if !ok || value.Sign() <= 0 {
		return pricing.Quote{}, fmt.Errorf("%w: bad value %q", pricing.ErrUnavailable, p.Value)
	}
	return pricing.Quote{Value: value, Decimals: p.Decimals}, nil
}

// PublishPrice writes a quote to the feed key; the ops price feeder and tests
// use this to keep the ledger's view current.
func PublishPrice(ctx context.Context, rdb *redis.Client, key string, q pricing.Quote, ttl time.Duration) error {
	if q.Value == nil || q.Value.Sign() <= 0 {
		return fmt.Errorf("%w: refusing to publish non-positive price", pricing.ErrUnavailable)
	}
	payload, err := json.Marshal(feedPayload{Value: q.Value.String(), Decimals: q.Decimals})
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
