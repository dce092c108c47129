package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/lenslook/go-backend/pkg/clients"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/redis/go-redis/v9"
)

// RedisStore хранит контрольную точку пайплайна в одном ключе Redis.
// Ключ не имеет TTL: контрольная точка переживает перезапуски.
type RedisStore struct {
	client *clients.RedisClient
	key    string
}

func NewRedisStore(client *clients.RedisClient, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Load читает сохраненное смещение. Отсутствующий ключ означает нулевое смещение.
func (r *RedisStore) Load(ctx context.Context) (int, error) {
	raw, err := r.client.Client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, e.Wrap(fmt.Sprintf("key %s", r.key), e.ErrInvalidCheckpoint)
	}

	return offset, nil
}

// Save записывает смещение.
func (r *RedisStore) Save(ctx context.Context, offset int) error {
	if offset < 0 {
		return e.Wrap(fmt.Sprintf("offset %d", offset), e.ErrInvalidCheckpoint)
	}

	if err := r.client.Client.Set(ctx, r.key, strconv.Itoa(offset), 0).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
