package ai

// SlotRequest describes the free time to fill.
type SlotRequest struct {
	Date    string // YYYY-MM-DD
	Start   string // HH:MM
	End     string // HH:MM
	Minutes int
	City    string
	Limit   int
}

type Ideas struct {
	Activities []Activity `json:"activities" jsonschema:"description=Suggested activities, best first"`
}

type Activity struct {
	Title    string `json:"title" jsonschema:"description=Short name of the activity or place"`
	Category string `json:"category" jsonschema:"description=One word such as museum, park, food, sport"`
	Location string `json:"location" jsonschema:"description=City or neighbourhood, empty if unknown"`
	Minutes  int    `json:"minutes" jsonschema:"description=Suggested duration in minutes"`
}
