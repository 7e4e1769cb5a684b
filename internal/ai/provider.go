package ai

import "context"

// Provider proposes activities for a free slot. Implementations return an
// error on any failure; callers decide how to degrade.
type Provider interface {
	SuggestActivities(ctx context.Context, req SlotRequest) (*Ideas, error)
}
