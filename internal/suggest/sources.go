package suggest

import (
	"context"
	"strings"
	"time"

	"github.com/Natascha-cs/kalendr/internal/ai"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/poi"
)

const unknownTitle = "Unknown"

// longCategories get a longer default duration than the usual hour.
var longCategories = map[string]bool{
	"museum": true,
	"park":   true,
	"hike":   true,
	"hiking": true,
	"zoo":    true,
}

func defaultMinutes(category string) int {
	if longCategories[strings.ToLower(strings.TrimSpace(category))] {
		return 90
	}
	return 60
}

// POISource asks the places service for what is nearby.
type POISource struct {
	client *poi.Client
}

func NewPOISource(client *poi.Client) *POISource {
	return &POISource{client: client}
}

func (s *POISource) Suggest(ctx context.Context, req Request) ([]model.Suggestion, error) {
	places, err := s.client.Nearby(ctx, req.Location.Latitude, req.Location.Longitude, req.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.Suggestion, 0, len(places))
	for _, p := range places {
		out = append(out, fromPlace(p))
	}
	return out, nil
}

func fromPlace(p poi.Place) model.Suggestion {
	s := model.Suggestion{
		Title:            p.Name,
		Category:         p.Category,
		Location:         p.City,
		SuggestedMinutes: p.DurationMinutes,
	}
	if s.Title == "" {
		s.Title = unknownTitle
	}
	if s.SuggestedMinutes <= 0 {
		s.SuggestedMinutes = defaultMinutes(s.Category)
	}
	return s
}

// AISource asks a language model for ideas that fit the slot.
type AISource struct {
	provider ai.Provider
	city     string
	now      func() time.Time
}

func NewAISource(provider ai.Provider, city string) *AISource {
	return &AISource{provider: provider, city: city, now: time.Now}
}

func (s *AISource) perSlot() {}

func (s *AISource) Suggest(ctx context.Context, req Request) ([]model.Suggestion, error) {
	slot := model.FreeSlot{Start: model.DayStart, End: model.DayEnd, Duration: int(model.DayEnd - model.DayStart)}
	if req.Slot != nil {
		slot = *req.Slot
	}
	date := req.Date
	if date == "" {
		date = model.DateKey(s.now())
	}

	ideas, err := s.provider.SuggestActivities(ctx, ai.SlotRequest{
		Date:    date,
		Start:   slot.Start.String(),
		End:     slot.End.String(),
		Minutes: slot.Duration,
		City:    s.city,
		Limit:   req.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Suggestion, 0, len(ideas.Activities))
	for _, a := range ideas.Activities {
		sug := model.Suggestion{
			Title:            strings.TrimSpace(a.Title),
			Category:         a.Category,
			Location:         a.Location,
			SuggestedMinutes: a.Minutes,
		}
		if sug.Title == "" {
			sug.Title = unknownTitle
		}
		if sug.SuggestedMinutes <= 0 {
			sug.SuggestedMinutes = defaultMinutes(sug.Category)
		}
		out = append(out, sug)
	}
	return out, nil
}
