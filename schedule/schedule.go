// Package schedule assembles and emits the final schedule artifact.
package schedule

import (
	"sort"
	"time"

	"livesched/classify"
)

// TimeLayout is the display format the downstream renderer consumes.
// It sorts lexicographically, which the ordering relies on.
const TimeLayout = "2006-01-02 15:04"

// Event is one entry of the emitted schedule. JSON keys are the stable
// contract with the front-end renderer; changes must be additive.
type Event struct {
	StartET      string `json:"start_et"`
	EndET        string `json:"end_et"`
	Title        string `json:"title"`
	League       string `json:"league"`
	Platform     string `json:"platform"`
	Channel      string `json:"channel"`
	WatchURL     string `json:"watch_url"`
	SourceID     string `json:"source_id"`
	Status       string `json:"status"`
	ThumbnailURL string `json:"thumbnail_url"`
	Subscribers  int64  `json:"subscribers"`
}

// FormatTime renders a timestamp in the display timezone. Zero times
// render as the empty string (end_et of a live or upcoming event).
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(TimeLayout)
}

// Merge deduplicates events by (platform, source_id), keeping the
// highest-priority status on conflict (live > upcoming > ended).
// First-seen order is preserved among survivors.
func Merge(events []Event) []Event {
	type key struct{ platform, id string }

	index := make(map[key]int, len(events))
	merged := make([]Event, 0, len(events))

	for _, ev := range events {
		k := key{ev.Platform, ev.SourceID}
		at, seen := index[k]
		if !seen {
			index[k] = len(merged)
			merged = append(merged, ev)
			continue
		}
		if classify.Status(ev.Status).Rank() < classify.Status(merged[at].Status).Rank() {
			merged[at] = ev
		}
	}
	return merged
}

// Sort orders events for display: live pinned first, then by start
// ascending, ties broken by subscriber count descending so
// higher-profile channels surface first.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		ri, rj := classify.Status(events[i].Status).Rank(), classify.Status(events[j].Status).Rank()
		if ri != rj {
			return ri < rj
		}
		if events[i].StartET != events[j].StartET {
			return events[i].StartET < events[j].StartET
		}
		return events[i].Subscribers > events[j].Subscribers
	})
}
