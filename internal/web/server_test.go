package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/store"
	"github.com/Natascha-cs/kalendr/internal/suggest"
)

type stubSource struct {
	loc suggest.Location
}

func (s *stubSource) Suggest(ctx context.Context, req suggest.Request) ([]model.Suggestion, error) {
	s.loc = req.Location
	return []model.Suggestion{{Title: "Museum Island", Category: "museum", Location: "Berlin", SuggestedMinutes: 90}}, nil
}

func newTestServer(t *testing.T) (*Server, *app.Planner, *stubSource) {
	t.Helper()
	src := &stubSource{}
	adapter := suggest.NewAdapter(src, suggest.Berlin, 0, time.Second, nil)
	planner := app.NewPlanner(store.NewEventStore(filepath.Join(t.TempDir(), "events.json"), nil), adapter, nil, nil)
	srv := New(planner, Options{MinFreeMinutes: 60, SummaryEvents: 2, SuggestLimit: 5}, nil)
	return srv, planner, src
}

func do(t *testing.T, srv *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decoding response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	code, body := do(t, srv, http.MethodGet, "/health", "")
	if code != http.StatusOK || body["success"] != true {
		t.Errorf("unexpected health response %d %v", code, body)
	}
}

func TestMonth(t *testing.T) {
	srv, planner, _ := newTestServer(t)
	planner.AddEvent("2023-10-02", "B", "10:00", "11:00")
	planner.AddEvent("2023-10-02", "A", "09:00", "10:00")
	planner.AddEvent("2023-10-02", "C", "12:00", "13:00")

	code, body := do(t, srv, http.MethodGet, "/api/month/2023/10", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	weeks := body["weeks"].([]any)
	if len(weeks) != 6 {
		t.Fatalf("expected 6 weeks for October 2023, got %d", len(weeks))
	}
	first := weeks[0].([]any)[0].(map[string]any)
	if first["date"] != "2023-09-25" || first["in_month"] != false {
		t.Errorf("unexpected first cell %v", first)
	}
	monday := weeks[1].([]any)[0].(map[string]any)
	events := monday["events"].([]any)
	if monday["date"] != "2023-10-02" || len(events) != 2 || events[0] != "A" || monday["more"] != float64(1) {
		t.Errorf("unexpected cell %v", monday)
	}

	for _, path := range []string{"/api/month/1899/1", "/api/month/2024/13", "/api/month/x/1"} {
		if code, _ := do(t, srv, http.MethodGet, path, ""); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, code)
		}
	}
}

func TestEventLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/days/2025-06-12/events", `{"title":"Dentist","start":"09:00","end":"10:00"}`)
	if code != http.StatusCreated || body["success"] != true {
		t.Fatalf("unexpected create response %d %v", code, body)
	}
	id := body["event"].(map[string]any)["id"].(string)

	code, body = do(t, srv, http.MethodGet, "/api/days/2025-06-12", "")
	if code != http.StatusOK || len(body["events"].([]any)) != 1 {
		t.Fatalf("unexpected day response %d %v", code, body)
	}

	code, body = do(t, srv, http.MethodPost, "/api/days/2025-06-12/events", `{"title":"","start":"09:00","end":"10:00"}`)
	if code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("expected 400 for empty title, got %d %v", code, body)
	}

	if code, _ := do(t, srv, http.MethodDelete, "/api/days/2025-06-12/events/nope", ""); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if code, _ := do(t, srv, http.MethodDelete, "/api/days/2025-06-12/events/"+id, ""); code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", code)
	}
	if code, _ := do(t, srv, http.MethodGet, "/api/days/12.06.2025", ""); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", code)
	}
}

func TestFreeSlots(t *testing.T) {
	srv, planner, _ := newTestServer(t)
	planner.AddEvent("2025-06-12", "Work", "09:00", "17:00")

	code, body := do(t, srv, http.MethodGet, "/api/days/2025-06-12/free", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d %v", code, body)
	}
	free := body["slots"].([]any)
	if len(free) != 2 || free[0].(map[string]any)["end"] != "09:00" {
		t.Errorf("unexpected slots %v", free)
	}
	if body["total_free"] != float64(540+419) {
		t.Errorf("unexpected total %v", body["total_free"])
	}

	if code, _ := do(t, srv, http.MethodGet, "/api/days/2025-06-12/free?min=-5", ""); code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative min, got %d", code)
	}
}

func TestSuggestions(t *testing.T) {
	srv, _, src := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/suggestions", "")
	if code != http.StatusOK || len(body["suggestions"].([]any)) != 1 {
		t.Fatalf("unexpected response %d %v", code, body)
	}
	if src.loc != suggest.Berlin {
		t.Errorf("expected fallback location, got %+v", src.loc)
	}

	do(t, srv, http.MethodGet, "/api/suggestions?lat=48.1&lon=11.5&limit=2", "")
	if src.loc.Latitude != 48.1 || src.loc.Longitude != 11.5 {
		t.Errorf("expected query location, got %+v", src.loc)
	}

	if code, _ := do(t, srv, http.MethodGet, "/api/suggestions?lat=abc", ""); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestAcceptSuggestion(t *testing.T) {
	srv, planner, _ := newTestServer(t)
	planner.AddEvent("2025-06-12", "Meeting", "14:00", "15:00")

	body := `{"start":"13:00","suggestion":{"title":"Museum Island","category":"museum","location":"Berlin","suggested_minutes":90}}`
	code, resp := do(t, srv, http.MethodPost, "/api/days/2025-06-12/accept", body)
	if code != http.StatusCreated {
		t.Fatalf("unexpected status %d %v", code, resp)
	}
	ev := resp["event"].(map[string]any)
	if ev["start"] != "13:00" || ev["end"] != "14:00" {
		t.Errorf("expected event clipped to 13:00-14:00, got %v", ev)
	}

	busy := `{"start":"14:30","suggestion":{"title":"x","suggested_minutes":30}}`
	if code, _ := do(t, srv, http.MethodPost, "/api/days/2025-06-12/accept", busy); code != http.StatusConflict {
		t.Errorf("expected 409 inside an event, got %d", code)
	}

	placeholder := `{"start":"18:00","suggestion":{"title":"No suggestions","placeholder":true}}`
	if code, _ := do(t, srv, http.MethodPost, "/api/days/2025-06-12/accept", placeholder); code != http.StatusBadRequest {
		t.Errorf("expected 400 for placeholder, got %d", code)
	}
}
