// Package cache provides a Redis read-through cache in front of the event
// repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

const keyPrefix = "events:event:"

// storeIfNewer writes ARGV[1] unless the cached snapshot already carries a
// version >= ARGV[2]. ARGV[3] is the TTL in milliseconds.
var storeIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, snap = pcall(cjson.decode, cur)
	if ok and type(snap) == 'table' then
		local v = tonumber(snap['version'])
		if v and v >= tonumber(ARGV[2]) then
			return 0
		end
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type Repository interface {
	Add(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
}

// EventRepository caches events as snapshots keyed by id. Successful writes
// are written through; fills from GetByID never replace a newer version.
// Redis errors never fail a call; they are logged and the underlying
// repository answers instead.
type EventRepository struct {
	next   Repository
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewEventRepository(next Repository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *EventRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EventRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// Connect accepts either a redis:// URL or a host:port address.
func Connect(addr, password string, db int) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), nil
}

func (r *EventRepository) Add(ctx context.Context, event *domain.Event) error {
	if err := r.next.Add(ctx, event); err != nil {
		return err
	}
	r.store(ctx, event)
	return nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	if err := r.next.Update(ctx, event); err != nil {
		// A failed update may mean the cached copy is stale.
		r.invalidate(ctx, event.ID())
		return err
	}
	r.store(ctx, event)
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if event, ok := r.lookup(ctx, id); ok {
		return event, nil
	}

	event, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, event)
	return event, nil
}

func (r *EventRepository) lookup(ctx context.Context, id string) (*domain.Event, bool) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("event cache get failed", zap.String("event_id", id), zap.Error(err))
		}
		return nil, false
	}

	var snap domain.EventSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Warn("event cache entry unreadable", zap.String("event_id", id), zap.Error(err))
		r.invalidate(ctx, id)
		return nil, false
	}
	event, err := domain.RestoreEvent(snap)
	if err != nil {
		r.logger.Warn("event cache entry invalid", zap.String("event_id", id), zap.Error(err))
		r.invalidate(ctx, id)
		return nil, false
	}
	return event, true
}

func (r *EventRepository) store(ctx context.Context, event *domain.Event) {
	data, err := json.Marshal(event.Snapshot())
	if err != nil {
		r.logger.Warn("event cache encode failed", zap.String("event_id", event.ID()), zap.Error(err))
		return
	}
	err = storeIfNewer.Run(ctx, r.client, []string{keyPrefix + event.ID()},
		data, event.Version(), r.ttl.Milliseconds()).Err()
	if err != nil {
		r.logger.Warn("event cache set failed", zap.String("event_id", event.ID()), zap.Error(err))
	}
}

func (r *EventRepository) invalidate(ctx context.Context, id string) {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		r.logger.Warn("event cache invalidate failed", zap.String("event_id", id), zap.Error(err))
	}
}
