package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name       string
		sig        Signals
		wantStatus Status
	}{
		{
			name:       "actual start without end is live",
			sig:        Signals{ActualStart: now.Add(-time.Hour)},
			wantStatus: StatusLive,
		},
		{
			name:       "stale live beyond max age is dropped",
			sig:        Signals{ActualStart: now.Add(-5 * time.Hour)},
			wantStatus: StatusNone,
		},
		{
			name: "started and ended recently is ended",
			sig: Signals{
				ActualStart: now.Add(-4 * time.Hour),
				ActualEnd:   now.Add(-2 * time.Hour),
			},
			wantStatus: StatusEnded,
		},
		{
			name: "ended outside recency window is dropped",
			sig: Signals{
				ActualStart: now.Add(-50 * time.Hour),
				ActualEnd:   now.Add(-40 * time.Hour),
			},
			wantStatus: StatusNone,
		},
		{
			name:       "end without start is dropped",
			sig:        Signals{ActualEnd: now.Add(-time.Hour)},
			wantStatus: StatusNone,
		},
		{
			name:       "scheduled future start is upcoming",
			sig:        Signals{ScheduledStart: now.Add(2 * time.Hour)},
			wantStatus: StatusUpcoming,
		},
		{
			name:       "scheduled slightly past within grace is upcoming",
			sig:        Signals{ScheduledStart: now.Add(-10 * time.Minute)},
			wantStatus: StatusUpcoming,
		},
		{
			name:       "ghost upcoming past grace is dropped",
			sig:        Signals{ScheduledStart: now.Add(-time.Hour)},
			wantStatus: StatusNone,
		},
		{
			name:       "scheduled beyond horizon is dropped",
			sig:        Signals{ScheduledStart: now.Add(8 * 24 * time.Hour)},
			wantStatus: StatusNone,
		},
		{
			name: "actual start beats scheduled start",
			sig: Signals{
				ScheduledStart: now.Add(2 * time.Hour),
				ActualStart:    now.Add(-time.Minute),
			},
			wantStatus: StatusLive,
		},
		{
			name: "structured timestamps beat contradicting label",
			sig: Signals{
				ActualStart: now.Add(-time.Hour),
				Label:       LabelNone,
			},
			wantStatus: StatusLive,
		},
		{
			name:       "live label without timestamps is live",
			sig:        Signals{Label: LabelLive},
			wantStatus: StatusLive,
		},
		{
			name:       "upcoming label without timestamps is dropped",
			sig:        Signals{Label: LabelUpcoming},
			wantStatus: StatusNone,
		},
		{
			name: "premiere is never live",
			sig: Signals{
				ActualStart: now.Add(-time.Minute),
				Premiere:    true,
			},
			wantStatus: StatusNone,
		},
		{
			name: "scheduled premiere is dropped",
			sig: Signals{
				ScheduledStart: now.Add(time.Hour),
				Premiere:       true,
			},
			wantStatus: StatusNone,
		},
		{
			name:       "no signals at all is dropped",
			sig:        Signals{},
			wantStatus: StatusNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.sig, now, policy)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantStatus != StatusNone {
				assert.False(t, got.Start.IsZero(), "non-none result must carry a start")
			}
			if tt.wantStatus == StatusEnded {
				assert.False(t, got.End.IsZero(), "ended result must carry an end")
			} else {
				assert.True(t, got.End.IsZero())
			}
		})
	}
}

func TestClassifyGraceIsConfigurable(t *testing.T) {
	sig := Signals{ScheduledStart: now.Add(-10 * time.Minute)}

	generous := DefaultPolicy()
	generous.Grace = 30 * time.Minute
	assert.Equal(t, StatusUpcoming, Classify(sig, now, generous).Status)

	strict := DefaultPolicy()
	strict.Grace = 5 * time.Minute
	assert.Equal(t, StatusNone, Classify(sig, now, strict).Status)
}

func TestClassifyIsDeterministic(t *testing.T) {
	sig := Signals{
		ScheduledStart: now.Add(3 * time.Hour),
		Label:          LabelUpcoming,
	}
	policy := DefaultPolicy()

	first := Classify(sig, now, policy)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(sig, now, policy))
	}
}

func TestClassifyLiveStartIsActualStart(t *testing.T) {
	start := now.Add(-90 * time.Minute)
	got := Classify(Signals{ActualStart: start}, now, DefaultPolicy())
	assert.Equal(t, StatusLive, got.Status)
	assert.Equal(t, start, got.Start)
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, StatusLive.Rank(), StatusUpcoming.Rank())
	assert.Less(t, StatusUpcoming.Rank(), StatusEnded.Rank())
	assert.Less(t, StatusEnded.Rank(), StatusNone.Rank())
}
