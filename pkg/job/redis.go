package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// RedisKey is the hash jobs are stored in, one field per job id.
const RedisKey = "plainmerge:jobs"

// RedisConfig holds the connection settings of a RedisStore.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisStore keeps jobs in a redis hash so several machines can share them.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the server described by conf.
func NewRedisStore(conf RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
		key: RedisKey,
	}
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, j *Job) error {
	if err := j.prepare(); err != nil {
		return err
	}
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, j.ID, data).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Job, error) {
	val, err := s.client.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decode([]byte(val))
}

func (s *RedisStore) List(ctx context.Context) ([]*Job, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]*Job, 0, len(all))
	for _, val := range all {
		j, err := decode([]byte(val))
		if err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	slices.SortFunc(jobs, newestFirst)
	return jobs, nil
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
