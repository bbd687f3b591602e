package domain

import (
	"slices"
	"time"
)

// EnvironmentSpec is the declarative description of an environment.
// It is the source of truth for what should be installed; the prefix is derived from it.
type EnvironmentSpec struct {
	// Channels are channel identifiers in precedence order.
	Channels []string `json:"channels" yaml:"channels"`
	// Requests are opaque match strings handed to the resolver.
	Requests []string `json:"requests" yaml:"requests"`
	// CreatedAt is set once when the environment is first created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// LastUpdatedAt is bumped by every successful mutation.
	LastUpdatedAt time.Time `json:"last_updated_at" yaml:"last_updated_at"`
}

// NewEnvironmentSpec returns a spec stamped with now for both timestamps.
func NewEnvironmentSpec(channels, requests []string, now time.Time) EnvironmentSpec {
	return EnvironmentSpec{
		Channels:      cloneList(channels),
		Requests:      cloneList(requests),
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// MergeRequests returns a new spec with channels appended without duplicates
// (first-seen order) and requests appended as given.
// The existing spec is not modified.
func MergeRequests(existing EnvironmentSpec, channels, requests []string) EnvironmentSpec {
	merged := EnvironmentSpec{
		Channels:      AppendChannels(existing.Channels, channels),
		Requests:      make([]string, 0, len(existing.Requests)+len(requests)),
		CreatedAt:     existing.CreatedAt,
		LastUpdatedAt: existing.LastUpdatedAt,
	}
	merged.Requests = append(merged.Requests, existing.Requests...)
	merged.Requests = append(merged.Requests, requests...)
	return merged
}

// AppendChannels returns base followed by the channels of extra that are not
// yet present, in first-seen order. base itself is kept as is.
func AppendChannels(base, extra []string) []string {
	out := cloneList(base)
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, ch := range base {
		seen[ch] = struct{}{}
	}
	for _, ch := range extra {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}

// Touch returns a copy of the spec with LastUpdatedAt set to now.
// A hand-written spec without a creation time is stamped with now as well.
func (s EnvironmentSpec) Touch(now time.Time) EnvironmentSpec {
	s.Channels = cloneList(s.Channels)
	s.Requests = cloneList(s.Requests)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastUpdatedAt = now
	return s
}

// cloneList copies s, returning an empty list rather than nil so the spec
// file always carries both required fields.
func cloneList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
