package poi

// maxDurationMinutes caps durations reported by the service to one day.
const maxDurationMinutes = 24 * 60

// Place is one point of interest. Every field may be empty; the service
// schema is loose and callers fill in their own defaults.
type Place struct {
	Name            string
	Category        string
	City            string
	DurationMinutes int
}

func placeFromFields(m map[string]any) Place {
	p := Place{
		Name:     firstString(m, "name", "title"),
		Category: firstString(m, "category", "type"),
	}
	if addr, ok := m["address"].(map[string]any); ok {
		p.City = firstString(addr, "city")
	}
	if d, ok := m["duration_minutes"].(float64); ok && d > 0 {
		p.DurationMinutes = int(min(d, maxDurationMinutes))
	}
	return p
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
