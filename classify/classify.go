// Package classify assigns a lifecycle status to broadcast candidates.
//
// The classifier is a pure function over a normalized Signals record, a
// Policy of time windows, and an explicit "now". Extraction of Signals
// from API payloads or scraped markup lives in the collect package, so
// the decision logic stays testable independent of scraping fragility.
package classify

import "time"

// Status is the lifecycle state assigned to a candidate.
type Status string

const (
	// StatusLive means the broadcast has started and not ended.
	StatusLive Status = "live"
	// StatusUpcoming means the broadcast has a scheduled future start.
	StatusUpcoming Status = "upcoming"
	// StatusEnded means the broadcast finished within the recency window.
	StatusEnded Status = "ended"
	// StatusNone means the candidate is discarded.
	StatusNone Status = "none"
)

// Rank orders statuses by display priority: live first, then upcoming,
// then ended. Lower is higher priority.
func (s Status) Rank() int {
	switch s {
	case StatusLive:
		return 0
	case StatusUpcoming:
		return 1
	case StatusEnded:
		return 2
	default:
		return 3
	}
}

// Label is the coarse broadcast state reported by a platform. It is a
// lower-fidelity signal than the structured timestamps and is consulted
// only when no structured timestamp is available at all.
type Label string

const (
	LabelUnknown  Label = ""
	LabelLive     Label = "live"
	LabelUpcoming Label = "upcoming"
	LabelNone     Label = "none"
)

// Signals is the normalized record every collection source produces.
// Zero time values mean the signal is absent.
type Signals struct {
	// VideoID is the platform-specific content identifier.
	VideoID string
	// Title is the content title.
	Title string
	// Description is the content description, possibly truncated.
	Description string
	// Thumbnail is a thumbnail URL, if one was found.
	Thumbnail string

	// ScheduledStart is the announced start time.
	ScheduledStart time.Time
	// ActualStart is when the broadcast really started.
	ActualStart time.Time
	// ActualEnd is when the broadcast really ended.
	ActualEnd time.Time

	// Label is the platform's coarse broadcast state.
	Label Label
	// Premiere marks a pre-recorded scheduled release rather than a
	// genuine live broadcast.
	Premiere bool
	// Duration is the fixed runtime, when the platform reports one.
	// Genuine live broadcasts have none until they end.
	Duration time.Duration
}

// Policy holds the time windows the classifier applies.
type Policy struct {
	// Grace is how far past its scheduled start an unstarted broadcast
	// may be before it is treated as a ghost and dropped.
	Grace time.Duration
	// MaxLiveAge is the longest a broadcast may appear live. Older
	// actual-starts without an end are treated as stale and dropped.
	MaxLiveAge time.Duration
	// Horizon is the farthest-future scheduled start still emitted.
	Horizon time.Duration
	// EndedRecency is how recently a broadcast must have ended to be
	// kept in the recap list.
	EndedRecency time.Duration
}

// DefaultPolicy returns the standard window defaults.
func DefaultPolicy() Policy {
	return Policy{
		Grace:        30 * time.Minute,
		MaxLiveAge:   4 * time.Hour,
		Horizon:      7 * 24 * time.Hour,
		EndedRecency: 36 * time.Hour,
	}
}

// Result is the classifier output. Start and End are only meaningful
// when Status is not StatusNone; End is zero unless Status is
// StatusEnded.
type Result struct {
	Status Status
	Start  time.Time
	End    time.Time
}

// Classify assigns a status to a candidate's signals.
//
// Structured timestamps always beat the coarse label: the label is
// consulted only when no structured timestamp exists. Premieres are
// never emitted; this is a live schedule, not a release calendar.
func Classify(sig Signals, now time.Time, p Policy) Result {
	none := Result{Status: StatusNone}

	if sig.Premiere {
		return none
	}

	hasStart := !sig.ActualStart.IsZero()
	hasEnd := !sig.ActualEnd.IsZero()

	switch {
	case hasStart && hasEnd:
		if now.Sub(sig.ActualEnd) > p.EndedRecency {
			return none
		}
		return Result{Status: StatusEnded, Start: sig.ActualStart, End: sig.ActualEnd}

	case hasStart:
		// Guard against endpoints that never populate an end
		// timestamp: a broadcast cannot be live forever.
		if now.Sub(sig.ActualStart) > p.MaxLiveAge {
			return none
		}
		return Result{Status: StatusLive, Start: sig.ActualStart}

	case hasEnd:
		// End without start is malformed.
		return none

	case !sig.ScheduledStart.IsZero():
		if now.Sub(sig.ScheduledStart) > p.Grace {
			// Ghost upcoming: scheduled in the past, never started.
			return none
		}
		if sig.ScheduledStart.Sub(now) > p.Horizon {
			return none
		}
		return Result{Status: StatusUpcoming, Start: sig.ScheduledStart}
	}

	// No structured timestamps at all: fall back to the coarse label.
	// Low-fidelity scraped sources only know "live right now", so the
	// observation time stands in for the start.
	if sig.Label == LabelLive {
		return Result{Status: StatusLive, Start: now}
	}

	return none
}
