package collect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"livesched/classify"
)

func TestSignalsFromVideoLive(t *testing.T) {
	v := &youtube.Video{
		Id: "vid-live",
		Snippet: &youtube.VideoSnippet{
			Title:                "Match Night",
			LiveBroadcastContent: "live",
			Thumbnails: &youtube.ThumbnailDetails{
				High:   &youtube.Thumbnail{Url: "https://i.ytimg.com/vi/vid-live/hq.jpg"},
				Maxres: &youtube.Thumbnail{Url: "https://i.ytimg.com/vi/vid-live/max.jpg"},
			},
		},
		ContentDetails: &youtube.VideoContentDetails{Duration: "P0D"},
		LiveStreamingDetails: &youtube.VideoLiveStreamingDetails{
			ActualStartTime: "2026-08-24T11:30:00Z",
		},
	}

	sig := signalsFromVideo(v)
	assert.Equal(t, "vid-live", sig.VideoID)
	assert.Equal(t, "Match Night", sig.Title)
	assert.Equal(t, "https://i.ytimg.com/vi/vid-live/max.jpg", sig.Thumbnail, "maxres preferred")
	assert.Equal(t, classify.LabelLive, sig.Label)
	assert.Equal(t, time.Date(2026, 8, 24, 11, 30, 0, 0, time.UTC), sig.ActualStart)
	assert.True(t, sig.ActualEnd.IsZero())
	assert.False(t, sig.Premiere)
}

func TestSignalsFromVideoScheduledPremiere(t *testing.T) {
	// Scheduled item that already reports a fixed runtime: a premiere
	// of pre-recorded video, not a live stream.
	v := &youtube.Video{
		Id:             "vid-prem",
		Snippet:        &youtube.VideoSnippet{Title: "Documentary", LiveBroadcastContent: "upcoming"},
		ContentDetails: &youtube.VideoContentDetails{Duration: "PT42M10S"},
		LiveStreamingDetails: &youtube.VideoLiveStreamingDetails{
			ScheduledStartTime: "2026-08-25T18:00:00Z",
		},
	}

	sig := signalsFromVideo(v)
	assert.True(t, sig.Premiere)
}

func TestSignalsFromVideoScheduledStream(t *testing.T) {
	v := &youtube.Video{
		Id:             "vid-up",
		Snippet:        &youtube.VideoSnippet{Title: "Pregame Show", LiveBroadcastContent: "upcoming"},
		ContentDetails: &youtube.VideoContentDetails{Duration: "P0D"},
		LiveStreamingDetails: &youtube.VideoLiveStreamingDetails{
			ScheduledStartTime: "2026-08-25T18:00:00Z",
		},
	}

	sig := signalsFromVideo(v)
	assert.False(t, sig.Premiere)
	assert.Equal(t, classify.LabelUpcoming, sig.Label)
	assert.Equal(t, time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC), sig.ScheduledStart)
}

func TestSignalsFromVideoPlainUpload(t *testing.T) {
	v := &youtube.Video{
		Id:             "vid-vod",
		Snippet:        &youtube.VideoSnippet{Title: "Highlights", LiveBroadcastContent: "none"},
		ContentDetails: &youtube.VideoContentDetails{Duration: "PT10M"},
	}

	sig := signalsFromVideo(v)
	assert.Equal(t, classify.LabelNone, sig.Label)
	assert.False(t, sig.Premiere, "duration alone never marks a premiere")
}

func TestIsPremiereKeyword(t *testing.T) {
	sig := classify.Signals{
		Title:          "Season 3 PREMIERE",
		ScheduledStart: time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC),
	}
	assert.True(t, isPremiere(sig, true))

	// Keyword is ignored once the broadcast has actually started.
	sig.ActualStart = time.Date(2026, 8, 25, 18, 1, 0, 0, time.UTC)
	assert.False(t, isPremiere(sig, true))
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT1H23M45S", time.Hour + 23*time.Minute + 45*time.Second},
		{"PT42M", 42 * time.Minute},
		{"PT30S", 30 * time.Second},
		{"P1DT2H", 26 * time.Hour},
		{"P0D", 0},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseISODuration(tt.in), "parseISODuration(%q)", tt.in)
	}
}

func TestWrapAPIError(t *testing.T) {
	quota := wrapAPIError(&googleapi.Error{Code: 403, Message: "quotaExceeded"})
	require.ErrorIs(t, quota, ErrQuotaExceeded)

	missing := wrapAPIError(&googleapi.Error{Code: 404})
	require.ErrorIs(t, missing, ErrChannelNotFound)

	assert.NoError(t, wrapAPIError(nil))
}

func TestIsRetryableAPIError(t *testing.T) {
	assert.False(t, isRetryableAPIError(wrapAPIError(&googleapi.Error{Code: 403})))
	assert.False(t, isRetryableAPIError(wrapAPIError(&googleapi.Error{Code: 404})))
	assert.True(t, isRetryableAPIError(&googleapi.Error{Code: 500}))
	assert.True(t, isRetryableAPIError(&googleapi.Error{Code: 429}))
	assert.False(t, isRetryableAPIError(&googleapi.Error{Code: 400}))
}

func TestDedupe(t *testing.T) {
	cands := []Candidate{
		{VideoID: "a", Source: "search"},
		{VideoID: "b", Source: "api"},
		{VideoID: "a", Source: "api"},
		{VideoID: "", Source: "feed"},
	}

	out := Dedupe(cands)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].VideoID)
	assert.Equal(t, "search", out[0].Source, "first occurrence wins")
	assert.Equal(t, "b", out[1].VideoID)
}
