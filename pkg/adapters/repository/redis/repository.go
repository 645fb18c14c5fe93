package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

// Each link is a hash under "<prefix>link:<code>"; "<prefix>links" is a sorted
// set of codes scored by creation time in microseconds. Every mutation is a Lua
// script so the hash and the index change together.
const (
	linkKeyPrefix = "link:"
	indexKey      = "links"
)

var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
return 1
`)

var hitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], 'clicks', 1)
redis.call('HSET', KEYS[1], 'last_clicked_at', ARGV[1], 'updated_at', ARGV[1])
return redis.call('HGET', KEYS[1], 'target_url')
`)

var deleteScript = redis.NewScript(`
if redis.call('DEL', KEYS[1]) == 0 then
	return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository connects to a redis:// or rediss:// URL.
func NewRedisRepository(ctx context.Context, rawURL string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return NewFromClient(ctx, redis.NewClient(opts), "linkreg:")
}

// NewFromClient wraps an existing client; keys are namespaced with prefix.
func NewFromClient(ctx context.Context, client *redis.Client, prefix string) (*RedisRepository, error) {
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisRepository{client: client, prefix: prefix}, nil
}

// IsRedisURL reports whether rawURL addresses a redis server.
func IsRedisURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "redis://") || strings.HasPrefix(rawURL, "rediss://")
}

func (r *RedisRepository) linkKey(code string) string {
	return r.prefix + linkKeyPrefix + code
}

func (r *RedisRepository) indexKey() string {
	return r.prefix + indexKey
}

func (r *RedisRepository) Insert(ctx context.Context, link *domain.Link) error {
	args := []any{
		link.CreatedAt.UnixMicro(),
		link.Code,
		"id", link.ID,
		"code", link.Code,
		"target_url", link.TargetURL,
		"clicks", link.Clicks,
		"created_at", formatTime(link.CreatedAt),
		"updated_at", formatTime(link.UpdatedAt),
	}
	if link.LastClickedAt != nil {
		args = append(args, "last_clicked_at", formatTime(*link.LastClickedAt))
	}

	inserted, err := insertScript.Run(ctx, r.client, []string{r.linkKey(link.Code), r.indexKey()}, args...).Int()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return domain.ErrCodeConflict
	}
	return nil
}

func (r *RedisRepository) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	fields, err := r.client.HGetAll(ctx, r.linkKey(code)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeLink(fields)
}

// List reads the index newest first. Links deleted between the index read and
// the hash read are skipped.
func (r *RedisRepository) List(ctx context.Context) ([]domain.Link, error) {
	codes, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(codes))
	for i, code := range codes {
		cmds[i] = pipe.HGetAll(ctx, r.linkKey(code))
	}
	if len(codes) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	links := make([]domain.Link, 0, len(codes))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		l, err := decodeLink(fields)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, nil
}

func (r *RedisRepository) Delete(ctx context.Context, code string) error {
	deleted, err := deleteScript.Run(ctx, r.client, []string{r.linkKey(code), r.indexKey()}, code).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordHit runs HINCRBY inside a script guarded by EXISTS, so a hit racing a
// delete never recreates the hash.
func (r *RedisRepository) RecordHit(ctx context.Context, code string, at time.Time) (string, error) {
	target, err := hitScript.Run(ctx, r.client, []string{r.linkKey(code)}, formatTime(at)).Text()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeLink(fields map[string]string) (*domain.Link, error) {
	l := domain.Link{
		ID:        fields["id"],
		Code:      fields["code"],
		TargetURL: fields["target_url"],
	}

	var err error
	if l.Clicks, err = strconv.ParseInt(fields["clicks"], 10, 64); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return nil, err
	}
	if raw, ok := fields["last_clicked_at"]; ok && raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, err
		}
		l.LastClickedAt = &t
	}
	return &l, nil
}

var _ ports.LinkRepository = (*RedisRepository)(nil)
