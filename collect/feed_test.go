package collect

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

func testClient(t *testing.T, handler http.HandlerFunc) (*lhttp.Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
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
	return client, srv.URL
}

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>fresh123</yt:videoId>
    <yt:channelId>UCaaaaaaaaaaaaaaaaaaaaaa</yt:channelId>
    <title>Tonight's Stream</title>
    <published>2026-08-24T10:00:00+00:00</published>
    <media:group>
      <media:description>Going live tonight</media:description>
      <media:thumbnail url="https://i.ytimg.com/vi/fresh123/hqdefault.jpg" width="480" height="360"/>
    </media:group>
  </entry>
  <entry>
    <yt:videoId>stale456</yt:videoId>
    <yt:channelId>UCaaaaaaaaaaaaaaaaaaaaaa</yt:channelId>
    <title>Last Month's Upload</title>
    <published>2026-07-01T10:00:00+00:00</published>
  </entry>
  <entry>
    <yt:videoId></yt:videoId>
    <title>Broken Entry</title>
  </entry>
</feed>`

func TestFeedListCandidates(t *testing.T) {
	client, base := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UCaaaaaaaaaaaaaaaaaaaaaa", r.URL.Query().Get("channel_id"))
		io.WriteString(w, feedFixture)
	})

	lister := NewFeedLister(client, testLog())
	lister.feedURL = base + "/feeds/videos.xml?channel_id=%s"

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	cands, err := lister.ListCandidates(context.Background(), "UCaaaaaaaaaaaaaaaaaaaaaa", 30*24*time.Hour, now)
	require.NoError(t, err)
	require.Len(t, cands, 1, "stale and id-less entries dropped")

	c := cands[0]
	assert.Equal(t, "fresh123", c.VideoID)
	assert.Equal(t, "feed", c.Source)
	assert.Equal(t, "Tonight's Stream", c.Signals.Title)
	assert.Equal(t, "Going live tonight", c.Signals.Description)
	assert.Equal(t, "https://i.ytimg.com/vi/fresh123/hqdefault.jpg", c.Signals.Thumbnail)
	assert.Equal(t, time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC), c.Published)
	assert.True(t, c.Signals.ActualStart.IsZero(), "feed carries no broadcast state")
}

func TestFeedListCandidatesBadXML(t *testing.T) {
	client, base := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not a feed")
	})

	lister := NewFeedLister(client, testLog())
	lister.feedURL = base + "?channel_id=%s"

	_, err := lister.ListCandidates(context.Background(), "UCx", time.Hour, time.Now())
	require.Error(t, err)
}
