// Package sheet loads the channel roster and the optional pre-built
// schedule from published CSV sheets.
//
// Operators rename spreadsheet columns freely, so every logical field
// accepts a list of header aliases, matched case-insensitively. Rows
// missing the identifying field are skipped and logged, never fatal:
// partial configuration is expected.
package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	lhttp "livesched/http"
)

// Platform tags a channel's content source.
type Platform string

const (
	PlatformYouTube Platform = "YouTube"
	PlatformTikTok  Platform = "TikTok"
)

// ParsePlatform maps a sheet cell to a Platform. Unknown or empty
// values default to YouTube, the roster's dominant platform.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiktok", "tt":
		return PlatformTikTok
	default:
		return PlatformYouTube
	}
}

// Channel is one configured content source, immutable once loaded.
type Channel struct {
	// ID is the YouTube channel id (UC...). Empty for handle-based
	// platforms.
	ID string
	// Handle is the platform handle without the @ prefix.
	Handle string
	// DisplayName is the sheet's preferred label, possibly empty.
	DisplayName string
	// Subscribers is the sheet's fallback count, used when a live
	// count cannot be obtained.
	Subscribers int64
	// League is an optional grouping column passed through to output.
	League string
	// Platform tags which collector handles this channel.
	Platform Platform
}

// Name returns the preferred display label: sheet override, then
// handle, then the raw identifier.
func (c Channel) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Handle != "" {
		return "@" + c.Handle
	}
	return c.ID
}

// Loader fetches and parses published CSV sheets.
type Loader struct {
	client *lhttp.Client
	log    *logrus.Logger
}

// NewLoader creates a sheet loader.
func NewLoader(client *lhttp.Client, log *logrus.Logger) *Loader {
	return &Loader{client: client, log: log}
}

// channelAliases maps logical roster fields to accepted header names.
var channelAliases = map[string][]string{
	"channel_id":   {"channel_id", "channelid", "channel id", "yt_channel_id"},
	"handle":       {"handle", "username", "user", "account"},
	"display_name": {"display_name", "display name", "name", "display"},
	"subscribers":  {"subscribers", "subs", "subscriber_count", "followers"},
	"platform":     {"platform", "site", "service"},
	"league":       {"league", "group", "category"},
}

// LoadChannels fetches the roster sheet and returns the usable rows.
func (l *Loader) LoadChannels(ctx context.Context, url string) ([]Channel, error) {
	rows, header, err := l.fetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load channel sheet: %w", err)
	}

	cols := resolveColumns(header, channelAliases)
	l.log.WithField("headers", header).Debug("roster sheet headers")

	var channels []Channel
	for i, row := range rows {
		ch := Channel{
			ID:          strings.TrimSpace(cols.get(row, "channel_id")),
			Handle:      strings.TrimPrefix(strings.TrimSpace(cols.get(row, "handle")), "@"),
			DisplayName: strings.TrimSpace(cols.get(row, "display_name")),
			Subscribers: parseCount(cols.get(row, "subscribers")),
			League:      strings.TrimSpace(cols.get(row, "league")),
			Platform:    ParsePlatform(cols.get(row, "platform")),
		}

		switch ch.Platform {
		case PlatformTikTok:
			if ch.Handle == "" {
				l.log.WithField("row", i+2).Warn("skipping TikTok row without handle")
				continue
			}
		default:
			if ch.ID == "" {
				l.log.WithField("row", i+2).Warn("skipping row without channel_id")
				continue
			}
		}

		channels = append(channels, ch)
	}

	return channels, nil
}

// fetchCSV downloads a sheet and splits it into header and data rows.
func (l *Loader) fetchCSV(ctx context.Context, url string) ([][]string, []string, error) {
	resp, err := l.client.Get(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(resp.Body)))
	reader.FieldsPerRecord = -1 // published sheets pad rows unevenly
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[1:], records[0], nil
}

// columnIndex maps logical field names to column positions.
type columnIndex map[string]int

// get returns the row's value for a logical field, or "" when the
// column is absent or the row is short.
func (c columnIndex) get(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// resolveColumns matches header names against per-field aliases,
// case-insensitively. The first matching column wins.
func resolveColumns(header []string, aliases map[string][]string) columnIndex {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := make(columnIndex)
	for field, names := range aliases {
		for i, h := range normalized {
			if matchesAlias(h, names) {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func matchesAlias(header string, names []string) bool {
	for _, name := range names {
		if header == name {
			return true
		}
	}
	return false
}

// parseCount parses subscriber-style numbers permissively: thousands
// separators are stripped, empty or junk values become 0.
func parseCount(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
