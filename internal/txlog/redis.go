package txlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// RedisStore keeps each user's history as a Redis list of JSON records,
// newest at the head.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a Redis-backed store.  Keys are "<prefix>:<user id>".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "txlog"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(userID int64) string {
	return s.prefix + ":" + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Append(ctx context.Context, userID int64, tx model.Transaction) error {
	key := s.key(userID)
	raws, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read transactions: %w", err)
	}
	bs, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, raw := range raws {
			var old struct {
				OrderID string `json:"order_id"`
			}
			if json.Unmarshal([]byte(raw), &old) == nil && old.OrderID == tx.OrderID {
				p.LRem(ctx, key, 0, raw)
			}
		}
		p.LPush(ctx, key, bs)
		p.LTrim(ctx, key, 0, MaxEntries-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID int64) ([]model.Transaction, error) {
	raws, err := s.rdb.LRange(ctx, s.key(userID), 0, MaxEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]model.Transaction, 0, len(raws))
	for _, raw := range raws {
		var tx model.Transaction
		if err := json.Unmarshal([]byte(raw), &tx); err != nil {
			continue // unreadable entries are skipped, not fatal
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *RedisStore) Replace(ctx context.Context, userID int64, txs []model.Transaction) error {
	ordered := newestFirst(txs)
	key := s.key(userID)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		for _, tx := range ordered {
			bs, err := json.Marshal(tx)
			if err != nil {
				return fmt.Errorf("encode transaction: %w", err)
			}
			p.RPush(ctx, key, bs)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace transactions: %w", err)
	}
	return nil
}
