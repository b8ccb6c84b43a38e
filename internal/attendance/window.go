package attendance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/model"
)

const windowCacheKey = "ams:time-window"

// WindowStore is the persistence surface for the singleton time window.
type WindowStore interface {
	GetTimeWindow(ctx context.Context) (*model.TimeWindow, error)
	SetTimeWindow(ctx context.Context, tw model.TimeWindow) error
}

// Windows reads and writes the daily submission window, with a Redis
// read-through cache invalidated on every write. The cache never lives
// in process memory.
type Windows struct {
	store WindowStore
	cache *redis.Client
}

// NewWindows creates the window accessor; cache may be nil.
func NewWindows(store WindowStore, cache *redis.Client) *Windows {
	return &Windows{store: store, cache: cache}
}

// Get returns the configured window, NotFound when never set.
func (w *Windows) Get(ctx context.Context) (model.TimeWindow, error) {
	if w.cache != nil {
		if raw, err := w.cache.Get(ctx, windowCacheKey).Bytes(); err == nil {
			var tw model.TimeWindow
			if json.Unmarshal(raw, &tw) == nil {
				return tw, nil
			}
		}
	}
	tw, err := w.store.GetTimeWindow(ctx)
	if err != nil {
		return model.TimeWindow{}, err
	}
	if tw == nil {
		return model.TimeWindow{}, apperr.NotFound("time window not configured")
	}
	if w.cache != nil {
		if raw, err := json.Marshal(tw); err == nil {
			w.cache.Set(ctx, windowCacheKey, raw, 0)
		}
	}
	return *tw, nil
}

// Set validates and upserts the window, then drops the cached copy.
func (w *Windows) Set(ctx context.Context, tw model.TimeWindow) error {
	start, err := parseClock(tw.StartTime)
	if err != nil {
		return apperr.Validation("startTime must be HH:mm")
	}
	end, err := parseClock(tw.EndTime)
	if err != nil {
		return apperr.Validation("endTime must be HH:mm")
	}
	if !start.Before(end) {
		return apperr.Validation("startTime must be before endTime")
	}
	if err := w.store.SetTimeWindow(ctx, tw); err != nil {
		return err
	}
	if w.cache != nil {
		w.cache.Del(ctx, windowCacheKey)
	}
	return nil
}

// Contains reports whether now's wall-clock time falls inside the window,
// boundaries inclusive.
func Contains(tw model.TimeWindow, now time.Time) bool {
	start, err := parseClock(tw.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(tw.EndTime)
	if err != nil {
		return false
	}
	clock := time.Date(0, 1, 1, now.Hour(), now.Minute(), 0, 0, time.UTC)
	return !clock.Before(start) && !clock.After(end)
}

func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}
