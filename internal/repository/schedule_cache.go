package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	scheduleKeyPrefix = "scheduling:schedule:"
	scheduleGenPrefix = "scheduling:schedule:gen:"
)

// CachedWindowRepository caches each provider's full window set in Redis.
// Entries are keyed by a per-provider generation counter. Writes go to the
// wrapped repository first and then bump the generation, so a reader that
// loaded before the write can only fill a key no later reader looks up.
// Redis failures are logged and fall through to the wrapped repository; if
// the bump itself fails a stale entry lives at most one ttl.
type CachedWindowRepository struct {
	availability.WindowRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedWindowRepository wraps next with a Redis read cache.
func NewCachedWindowRepository(next availability.WindowRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedWindowRepository {
	return &CachedWindowRepository{WindowRepository: next, rdb: rdb, ttl: ttl, logger: logger}
}

type cachedWindow struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	BreakStart  *string   `json:"break_start,omitempty"`
	BreakEnd    *string   `json:"break_end,omitempty"`
	IsAvailable bool      `json:"is_available"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func scheduleGenKey(providerID uuid.UUID) string {
	return scheduleGenPrefix + providerID.String()
}

func scheduleKey(providerID uuid.UUID, gen int64) string {
	return scheduleKeyPrefix + providerID.String() + ":" + strconv.FormatInt(gen, 10)
}

// generation returns the provider's current cache generation. A missing
// counter is generation zero.
func (c *CachedWindowRepository) generation(ctx context.Context, providerID uuid.UUID) (int64, error) {
	gen, err := c.rdb.Get(ctx, scheduleGenKey(providerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// FindByProvider serves the provider's windows from Redis when cached.
func (c *CachedWindowRepository) FindByProvider(ctx context.Context, providerID uuid.UUID) ([]*availability.Window, error) {
	gen, err := c.generation(ctx, providerID)
	if err != nil {
		c.logger.Warn("schedule cache generation read failed",
			zap.String("provider_id", providerID.String()),
			zap.Error(err),
		)
		return c.WindowRepository.FindByProvider(ctx, providerID)
	}

	key := scheduleKey(providerID, gen)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		windows, decodeErr := decodeWindows(raw)
		if decodeErr == nil {
			return windows, nil
		}
		c.logger.Warn("discarding unreadable schedule cache entry", zap.String("key", key), zap.Error(decodeErr))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("schedule cache read failed", zap.String("key", key), zap.Error(err))
	}

	windows, err := c.WindowRepository.FindByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if data, err := encodeWindows(windows); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("schedule cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return windows, nil
}

// Upsert writes through and invalidates the provider's cached schedule.
func (c *CachedWindowRepository) Upsert(ctx context.Context, w *availability.Window) error {
	if err := c.WindowRepository.Upsert(ctx, w); err != nil {
		return err
	}
	c.invalidate(ctx, w.ProviderID())
	return nil
}

// Delete removes the window and invalidates the owner's cached schedule.
func (c *CachedWindowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	w, err := c.WindowRepository.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.WindowRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, w.ProviderID())
	return nil
}

func (c *CachedWindowRepository) invalidate(ctx context.Context, providerID uuid.UUID) {
	if err := c.rdb.Incr(ctx, scheduleGenKey(providerID)).Err(); err != nil {
		c.logger.Warn("schedule cache invalidation failed",
			zap.String("provider_id", providerID.String()),
			zap.Error(err),
		)
	}
}

func encodeWindows(windows []*availability.Window) ([]byte, error) {
	out := make([]cachedWindow, len(windows))
	for i, w := range windows {
		m := toAvailabilityModel(w)
		out[i] = cachedWindow{
			ID:          m.ID,
			ProviderID:  m.ProviderID,
			DayOfWeek:   m.DayOfWeek,
			StartTime:   m.StartTime,
			EndTime:     m.EndTime,
			BreakStart:  m.BreakStart,
			BreakEnd:    m.BreakEnd,
			IsAvailable: m.IsAvailable,
			Timezone:    m.Timezone,
			CreatedAt:   m.CreatedAt,
			UpdatedAt:   m.UpdatedAt,
		}
	}
	return json.Marshal(out)
}

func decodeWindows(raw []byte) ([]*availability.Window, error) {
	var cached []cachedWindow
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}
	windows := make([]*availability.Window, len(cached))
	for i, cw := range cached {
		w, err := toWindowDomain(&AvailabilityModel{
			ID:          cw.ID,
			ProviderID:  cw.ProviderID,
			DayOfWeek:   cw.DayOfWeek,
			StartTime:   cw.StartTime,
			EndTime:     cw.EndTime,
			BreakStart:  cw.BreakStart,
			BreakEnd:    cw.BreakEnd,
			IsAvailable: cw.IsAvailable,
			Timezone:    cw.Timezone,
			CreatedAt:   cw.CreatedAt,
			UpdatedAt:   cw.UpdatedAt,
		})
		if err != nil {
			return nil, err
		}
		windows[i] = w
	}
	return windows, nil
}
