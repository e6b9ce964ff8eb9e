package alertstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

const (
	caseKeyPrefix = "caseflow:alerts:case:"
	orgKeyPrefix  = "caseflow:alerts:org:"
)

// RedisStore keeps the alert set in Redis so multiple engine instances and
// the API share one view. Per case: a JSON value; per commissariat: a set
// of case ids used as the listing index.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using a URL
// (redis://host:port/db) and verifies connectivity.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) ReplaceForCase(ctx context.Context, caseID, commissariatID string, alerts []models.Alert) error {
	caseKey := caseKeyPrefix + caseID
	orgKey := orgKeyPrefix + commissariatID

	pipe := s.client.TxPipeline()
	if len(alerts) == 0 {
		pipe.Del(ctx, caseKey)
		pipe.SRem(ctx, orgKey, caseID)
	} else {
		data, err := json.Marshal(alerts)
		if err != nil {
			return fmt.Errorf("failed to marshal alerts: %w", err)
		}
		pipe.Set(ctx, caseKey, data, 0)
		pipe.SAdd(ctx, orgKey, caseID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace alert set for case %s: %w", caseID, err)
	}
	return nil
}

func (s *RedisStore) ListByCommissariat(ctx context.Context, commissariatID string) ([]models.Alert, error) {
	orgKey := orgKeyPrefix + commissariatID

	caseIDs, err := s.client.SMembers(ctx, orgKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list alert index: %w", err)
	}
	if len(caseIDs) == 0 {
		return []models.Alert{}, nil
	}

	keys := make([]string, len(caseIDs))
	for i, id := range caseIDs {
		keys[i] = caseKeyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert sets: %w", err)
	}

	out := []models.Alert{}
	for i, v := range values {
		if v == nil {
			// Index member without a value: the case set was cleared by a
			// concurrent sweep. Drop the stale member.
			s.client.SRem(ctx, orgKey, caseIDs[i])
			continue
		}
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var alerts []models.Alert
		if err := json.Unmarshal([]byte(raw), &alerts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert set: %w", err)
		}
		out = append(out, alerts...)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
