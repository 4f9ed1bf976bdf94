package sheet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lhttp "livesched/http"
	"livesched/retry"
)

func testLoader(t *testing.T, body string) (*Loader, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client := lhttp.New(&lhttp.Config{
		Timeout: 5 * time.Second,
		Retry: retry.Config{
			MaxRetries:     1,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			Multiplier:     2.0,
		},
		RateLimiter: lhttp.RateLimiterConfig{DefaultRPS: 1000},
	})

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewLoader(client, log), srv.URL
}

func TestLoadChannels(t *testing.T) {
	csv := `handle,display_name,channel_id,subscribers
@alpha,Alpha Gaming,UCaaaaaaaaaaaaaaaaaaaaaa,"12,345"
beta,,UCbbbbbbbbbbbbbbbbbbbbbb,
,No Identifier Here,,999
gamma,Gamma,UCcccccccccccccccccccccc,not-a-number
`
	loader, url := testLoader(t, csv)
	channels, err := loader.LoadChannels(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, channels, 3, "row without channel_id is skipped, not fatal")

	assert.Equal(t, "UCaaaaaaaaaaaaaaaaaaaaaa", channels[0].ID)
	assert.Equal(t, "alpha", channels[0].Handle, "@ prefix stripped")
	assert.Equal(t, int64(12345), channels[0].Subscribers, "thousands separators stripped")
	assert.Equal(t, "Alpha Gaming", channels[0].Name())

	assert.Equal(t, "@beta", channels[1].Name(), "handle fallback when no display name")
	assert.Equal(t, int64(0), channels[1].Subscribers, "empty count parses to 0")

	assert.Equal(t, int64(0), channels[2].Subscribers, "junk count parses to 0")
}

func TestLoadChannelsHeaderAliases(t *testing.T) {
	csv := `Name,Channel ID,Subs,Site
Alpha,UCaaaaaaaaaaaaaaaaaaaaaa,100,youtube
Tok,,"2,000",TikTok
`
	loader, url := testLoader(t, csv)
	channels, err := loader.LoadChannels(context.Background(), url)
	require.NoError(t, err)
	// TikTok row has no handle column, so it is skipped.
	require.Len(t, channels, 1)
	assert.Equal(t, "Alpha", channels[0].DisplayName)
	assert.Equal(t, int64(100), channels[0].Subscribers)
	assert.Equal(t, PlatformYouTube, channels[0].Platform)
}

func TestLoadChannelsTikTokNeedsHandle(t *testing.T) {
	csv := `handle,display_name,channel_id,platform
creator1,Creator One,,tiktok
,Creator Two,,tiktok
`
	loader, url := testLoader(t, csv)
	channels, err := loader.LoadChannels(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, PlatformTikTok, channels[0].Platform)
	assert.Equal(t, "creator1", channels[0].Handle)
}

func TestLoadChannelsEmptySheet(t *testing.T) {
	loader, url := testLoader(t, "")
	channels, err := loader.LoadChannels(context.Background(), url)
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestLoadPrebuilt(t *testing.T) {
	csv := `start_et,end_et,title,channel,platform,watch_url,status,source_id
2026-08-24 19:00,,Season Opener,Alpha,YouTube,https://youtu.be/abc,live,abc
2026-08-25 10:00,,Morning Show,Beta,youtube,https://youtu.be/def,,def
,,Missing Start,Gamma,YouTube,https://youtu.be/ghi,upcoming,ghi
2026-08-26 12:00,,No ID,Delta,YouTube,https://youtu.be/jkl,,
`
	loader, url := testLoader(t, csv)
	events, err := loader.LoadPrebuilt(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, events, 3, "row without start is dropped")

	assert.Equal(t, "live", events[0].Status)
	assert.Equal(t, "upcoming", events[1].Status, "blank status defaults to upcoming")
	assert.Equal(t, "https://youtu.be/jkl", events[2].SourceID, "watch URL stands in for a blank id")
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformTikTok, ParsePlatform("TikTok"))
	assert.Equal(t, PlatformTikTok, ParsePlatform(" tiktok "))
	assert.Equal(t, PlatformYouTube, ParsePlatform("YouTube"))
	assert.Equal(t, PlatformYouTube, ParsePlatform(""))
	assert.Equal(t, PlatformYouTube, ParsePlatform("mystery"))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"123", 123},
		{"12,345", 12345},
		{"1 234", 1234},
		{"1234.0", 1234},
		{"many", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCount(tt.in), "parseCount(%q)", tt.in)
	}
}
