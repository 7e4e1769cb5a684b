package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testRequest() SlotRequest {
	return SlotRequest{
		Date:    "2025-06-12",
		Start:   "14:00",
		End:     "16:30",
		Minutes: 150,
		City:    "Berlin",
		Limit:   3,
	}
}

func TestIdeasSchema_RequiresAllFields(t *testing.T) {
	raw, err := ideasSchemaJSON()
	if err != nil {
		t.Fatalf("ideasSchemaJSON() returned an error: %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if strings.Contains(raw, "$ref") {
		t.Error("schema should be inlined")
	}
	for _, field := range []string{"activities", "title", "category", "location", "minutes"} {
		if !strings.Contains(raw, `"`+field+`"`) {
			t.Errorf("schema missing %q", field)
		}
	}
	if schema["additionalProperties"] != false {
		t.Errorf("expected additionalProperties false, got %v", schema["additionalProperties"])
	}
}

func TestPrompts_MentionSlot(t *testing.T) {
	req := testRequest()
	sys := buildSystemPrompt(req)
	if !strings.Contains(sys, "Berlin") || !strings.Contains(sys, "at most 3") || !strings.Contains(sys, "150 minutes") {
		t.Errorf("system prompt missing slot details:\n%s", sys)
	}
	user := buildUserPrompt(req)
	if !strings.Contains(user, "2025-06-12") || !strings.Contains(user, "14:00") || !strings.Contains(user, "16:30") {
		t.Errorf("user prompt missing slot details: %s", user)
	}

	req.City = ""
	req.Limit = 0
	if sys := buildSystemPrompt(req); !strings.Contains(sys, "at most 5") {
		t.Errorf("expected default limit in prompt:\n%s", sys)
	}
}

func TestUnwrapEnvelope(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"structured output", `{"type":"result","structured_output":{"activities":[]},"result":"ignored"}`, `{"activities":[]}`},
		{"string result", `{"type":"result","result":"{\"activities\":[]}"}`, `{"activities":[]}`},
		{"object result", `{"type":"result","result":{"activities":[]}}`, `{"activities":[]}`},
		{"raw output", `not json`, `not json`},
		{"bare payload", `{"activities":[]}`, `{"activities":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapEnvelope([]byte(tt.in)); got != tt.want {
				t.Errorf("unwrapEnvelope() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClaudeCLI_RunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "claude")
	script := "#!/bin/sh\necho '{\"type\":\"result\",\"structured_output\":{\"activities\":[{\"title\":\"Boat tour\",\"category\":\"tour\",\"location\":\"Berlin\",\"minutes\":60}]}}'\n"
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	c := NewClaudeCLI("", nil)
	c.Binary = bin
	ideas, err := c.SuggestActivities(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("SuggestActivities() returned an error: %v", err)
	}
	if len(ideas.Activities) != 1 || ideas.Activities[0].Title != "Boat tour" || ideas.Activities[0].Minutes != 60 {
		t.Errorf("unexpected ideas %+v", ideas)
	}
}

func TestClaudeCLI_Failure(t *testing.T) {
	c := NewClaudeCLI("sonnet", nil)
	c.Binary = filepath.Join(t.TempDir(), "missing")
	if _, err := c.SuggestActivities(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func newCompletionServer(t *testing.T, content string, status int) (*httptest.Server, *[]byte) {
	t.Helper()
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func TestOpenAI_SuggestActivities(t *testing.T) {
	content := `{"activities":[{"title":"Neues Museum","category":"museum","location":"Mitte","minutes":90}]}`
	srv, body := newCompletionServer(t, content, http.StatusOK)

	o := NewOpenAI("test-key", srv.URL+"/", "", nil)
	ideas, err := o.SuggestActivities(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("SuggestActivities() returned an error: %v", err)
	}
	if len(ideas.Activities) != 1 || ideas.Activities[0].Category != "museum" {
		t.Errorf("unexpected ideas %+v", ideas)
	}
	if !strings.Contains(string(*body), `"json_schema"`) || !strings.Contains(string(*body), `"gpt-4o-mini"`) {
		t.Errorf("request did not carry schema and model: %s", *body)
	}
}

func TestOpenAI_BadContent(t *testing.T) {
	srv, _ := newCompletionServer(t, "sorry, no JSON today", http.StatusOK)
	o := NewOpenAI("test-key", srv.URL+"/", "gpt-4o-mini", nil)
	if _, err := o.SuggestActivities(context.Background(), testRequest()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	srv, _ := newCompletionServer(t, "", http.StatusInternalServerError)
	o := NewOpenAI("test-key", srv.URL+"/", "gpt-4o-mini", nil)
	if _, err := o.SuggestActivities(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error on 500")
	}
}
