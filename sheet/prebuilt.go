package sheet

import (
	"context"
	"fmt"
	"strings"

	"livesched/schedule"
)

// prebuiltAliases maps logical schedule fields to accepted header
// names. The start column in particular has drifted across sheet
// revisions.
var prebuiltAliases = map[string][]string{
	"start":         {"start", "start_et", "start time", "start_time"},
	"end":           {"end", "end_et", "end time", "end_time"},
	"title":         {"title", "event", "show"},
	"league":        {"league", "group", "category"},
	"platform":      {"platform", "site", "service"},
	"channel":       {"channel", "channel_name", "name"},
	"watch_url":     {"watch_url", "url", "link"},
	"source_id":     {"source_id", "id", "video_id"},
	"status":        {"status", "state"},
	"thumbnail_url": {"thumbnail_url", "thumbnail", "thumb"},
	"subscribers":   {"subscribers", "subs"},
}

// LoadPrebuilt fetches a pre-built schedule sheet and normalizes it
// into events. When the returned slice is non-empty the caller uses it
// verbatim and skips collection entirely.
//
// Minimal normalization only: rows without a start timestamp or title
// are dropped, a blank status defaults to upcoming, and a blank
// source id falls back to the watch URL so dedup still has a key.
func (l *Loader) LoadPrebuilt(ctx context.Context, url string) ([]schedule.Event, error) {
	rows, header, err := l.fetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load prebuilt schedule: %w", err)
	}

	cols := resolveColumns(header, prebuiltAliases)

	var events []schedule.Event
	for i, row := range rows {
		ev := schedule.Event{
			StartET:      strings.TrimSpace(cols.get(row, "start")),
			EndET:        strings.TrimSpace(cols.get(row, "end")),
			Title:        strings.TrimSpace(cols.get(row, "title")),
			League:       strings.TrimSpace(cols.get(row, "league")),
			Platform:     string(ParsePlatform(cols.get(row, "platform"))),
			Channel:      strings.TrimSpace(cols.get(row, "channel")),
			WatchURL:     strings.TrimSpace(cols.get(row, "watch_url")),
			SourceID:     strings.TrimSpace(cols.get(row, "source_id")),
			Status:       strings.ToLower(strings.TrimSpace(cols.get(row, "status"))),
			ThumbnailURL: strings.TrimSpace(cols.get(row, "thumbnail_url")),
			Subscribers:  parseCount(cols.get(row, "subscribers")),
		}

		if ev.StartET == "" || ev.Title == "" {
			l.log.WithField("row", i+2).Warn("skipping prebuilt row without start or title")
			continue
		}
		if ev.Status == "" {
			ev.Status = "upcoming"
		}
		if ev.SourceID == "" {
			ev.SourceID = ev.WatchURL
		}

		events = append(events, ev)
	}

	return events, nil
}
