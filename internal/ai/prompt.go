package ai

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

func ideasSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&Ideas{})
}

// ideasSchemaJSON is the schema handed to the claude CLI via --json-schema.
func ideasSchemaJSON() (string, error) {
	data, err := json.Marshal(ideasSchema())
	if err != nil {
		return "", fmt.Errorf("marshaling schema: %w", err)
	}
	return string(data), nil
}

func buildSystemPrompt(req SlotRequest) string {
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}
	city := req.City
	if city == "" {
		city = "an unspecified city"
	}

	return fmt.Sprintf(`You are a personal planning assistant. Suggest activities for a free slot in someone's calendar.

Rules:
- The person is in %s
- Suggest at most %d activities
- Each activity must fit within %d minutes
- Prefer concrete places or events over generic advice
- Use a single lowercase word for the category
- Leave location empty if you do not know a specific place

Return valid JSON matching the required schema.`, city, limit, req.Minutes)
}

func buildUserPrompt(req SlotRequest) string {
	return fmt.Sprintf("I am free on %s from %s to %s (%d minutes). What could I do?",
		req.Date, req.Start, req.End, req.Minutes)
}
