package suggest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/poi"
)

const (
	defaultLimit   = 5
	defaultTimeout = 10 * time.Second
)

type Location struct {
	Latitude  float64
	Longitude float64
}

// Berlin is used when neither the caller nor the config supplies a location.
var Berlin = Location{Latitude: 52.52, Longitude: 13.405}

// Request is what a Source is asked for. Slot and Date are empty when the
// caller only wants places near a location.
type Request struct {
	Location Location
	Limit    int
	Date     string
	Slot     *model.FreeSlot
}

type Source interface {
	Suggest(ctx context.Context, req Request) ([]model.Suggestion, error)
}

// perSlot is implemented by sources whose answer depends on the slot, so
// their cache entries are keyed by it as well.
type perSlot interface {
	perSlot()
}

// Adapter fronts a Source with a fallback location, a timeout, a cache and
// failure degradation. It never returns an error.
type Adapter struct {
	source   Source
	fallback Location
	timeout  time.Duration
	cache    *Cache
	logger   *slog.Logger
}

func NewAdapter(source Source, fallback Location, ttl, timeout time.Duration, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		source:   source,
		fallback: fallback,
		timeout:  timeout,
		cache:    NewCache(ttl),
		logger:   logger,
	}
}

// SuggestActivities returns up to limit suggestions near loc, or near the
// fallback location when loc is nil. On failure the result is a single
// placeholder describing what went wrong.
func (a *Adapter) SuggestActivities(ctx context.Context, loc *Location, limit int) []model.Suggestion {
	return a.suggest(ctx, a.request(loc, limit))
}

// SuggestForSlot is SuggestActivities for a specific free slot.
func (a *Adapter) SuggestForSlot(ctx context.Context, loc *Location, limit int, date string, slot model.FreeSlot) []model.Suggestion {
	req := a.request(loc, limit)
	req.Date = date
	req.Slot = &slot
	return a.suggest(ctx, req)
}

func (a *Adapter) request(loc *Location, limit int) Request {
	resolved := a.fallback
	if loc != nil {
		resolved = *loc
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return Request{Location: resolved, Limit: limit}
}

func (a *Adapter) suggest(ctx context.Context, req Request) []model.Suggestion {
	key := a.cacheKey(req)
	if cached, ok := a.cache.Get(key); ok {
		a.logger.Debug("suggestions from cache", "key", key, "count", len(cached))
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	suggestions, err := a.source.Suggest(ctx, req)
	if err != nil {
		a.logger.Warn("suggestion lookup failed", "error", err, "elapsed", time.Since(start))
		return []model.Suggestion{Placeholder(err)}
	}
	if len(suggestions) > req.Limit {
		suggestions = suggestions[:req.Limit]
	}
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}

	a.logger.Debug("suggestions fetched", "count", len(suggestions), "elapsed", time.Since(start))
	a.cache.Set(key, suggestions)
	return suggestions
}

func (a *Adapter) cacheKey(req Request) string {
	key := fmt.Sprintf("%.5f,%.5f,%d", req.Location.Latitude, req.Location.Longitude, req.Limit)
	if _, ok := a.source.(perSlot); ok && req.Slot != nil {
		key += fmt.Sprintf(",%s,%s-%s", req.Date, req.Slot.Start, req.Slot.End)
	}
	return key
}

// Placeholder builds the stand-in suggestion for a failed lookup.
func Placeholder(err error) model.Suggestion {
	return model.Suggestion{
		Title:       "No suggestions: " + describeFailure(err),
		Placeholder: true,
	}
}

func describeFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "the suggestion service timed out"
	case errors.Is(err, poi.ErrUnexpectedShape):
		return "the suggestion service sent an unexpected response"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	default:
		return fmt.Sprintf("the suggestion service is unavailable (%v)", err)
	}
}
