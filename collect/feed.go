package collect

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"livesched/classify"
	lhttp "livesched/http"
)

// feedURLFormat is the public Atom feed endpoint. It needs no
// credential and costs no quota, but only lists recent uploads with
// identifiers and titles; broadcast timestamps come from scraping.
const feedURLFormat = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// FeedLister collects candidates from a channel's public Atom feed.
type FeedLister struct {
	client *lhttp.Client
	log    *logrus.Logger

	// feedURL is the fmt template resolving a channel id to its feed.
	feedURL string
}

// NewFeedLister creates an Atom feed lister.
func NewFeedLister(client *lhttp.Client, log *logrus.Logger) *FeedLister {
	return &FeedLister{client: client, log: log, feedURL: feedURLFormat}
}

// atomFeed mirrors the subset of the feed document we read.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string     `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Media     mediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

type mediaGroup struct {
	Description string         `xml:"description"`
	Thumbnail   mediaThumbnail `xml:"thumbnail"`
}

type mediaThumbnail struct {
	URL string `xml:"url,attr"`
}

// ListCandidates fetches the channel's feed and returns one candidate
// per entry published inside the lookback window. Feed entries carry
// no broadcast state, so their signals are identifiers only and must
// be enriched by the page extractor before classification.
func (f *FeedLister) ListCandidates(ctx context.Context, channelID string, lookback time.Duration, now time.Time) ([]Candidate, error) {
	url := fmt.Sprintf(f.feedURL, channelID)

	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed for %s: %w", channelID, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed for %s: %w", channelID, err)
	}

	cutoff := now.Add(-lookback)
	var candidates []Candidate
	for _, entry := range feed.Entries {
		if entry.VideoID == "" {
			continue
		}

		published := parseRFC3339(entry.Published)
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		candidates = append(candidates, Candidate{
			VideoID:   entry.VideoID,
			Source:    "feed",
			Published: published,
			Signals: classify.Signals{
				VideoID:     entry.VideoID,
				Title:       entry.Title,
				Description: entry.Media.Description,
				Thumbnail:   entry.Media.Thumbnail.URL,
			},
		})
	}

	f.log.WithFields(logrus.Fields{
		"channel": channelID,
		"entries": len(feed.Entries),
		"kept":    len(candidates),
	}).Debug("feed listed")

	return candidates, nil
}
