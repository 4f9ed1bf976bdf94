package collect

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"livesched/classify"
	"livesched/retry"
)

// APICollector lists candidates through the YouTube Data API v3. It is
// the richest source: structured liveStreamingDetails, durations, and
// live subscriber counts in a handful of quota units per channel.
//
// A quota or credential rejection disables the collector for the rest
// of the run; callers fall back to the feed and scrape paths.
type APICollector struct {
	svc      *youtube.Service
	log      *logrus.Logger
	retryCfg retry.Config

	scanSize   int64
	lookback   time.Duration
	liveSearch bool

	disabled bool
}

// APIOptions configures an APICollector.
type APIOptions struct {
	// ScanSize is the number of recent uploads to inspect, at most one
	// playlist page.
	ScanSize int
	// Lookback bounds how old an inspected upload may be. Listing
	// stops early once items fall outside the window.
	Lookback time.Duration
	// LiveSearch additionally issues a Search.list eventType=live
	// query per channel. Costly (100 units) and off by default.
	LiveSearch bool
	// Retry configures the per-call retry loop.
	Retry retry.Config
}

// NewAPICollector builds an API-backed collector. Returns an error when
// the API key is empty or the service cannot be constructed.
func NewAPICollector(ctx context.Context, apiKey string, opts APIOptions, log *logrus.Logger) (*APICollector, error) {
	if apiKey == "" {
		return nil, errors.New("collect: api key required")
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &APICollector{
		svc:        svc,
		log:        log,
		retryCfg:   opts.Retry,
		scanSize:   int64(opts.ScanSize),
		lookback:   opts.Lookback,
		liveSearch: opts.LiveSearch,
	}, nil
}

// Disabled reports whether a quota rejection has taken the API path
// out of service for this run.
func (a *APICollector) Disabled() bool {
	return a.disabled
}

// Collect returns channel metadata and candidate broadcasts for one
// channel. The returned candidates carry fully populated signals; no
// follow-up scraping is needed for them.
func (a *APICollector) Collect(ctx context.Context, channelID string, now time.Time) (*ChannelFacts, []Candidate, error) {
	if a.disabled {
		return nil, nil, ErrQuotaExceeded
	}

	facts, err := a.channelFacts(ctx, channelID)
	if err != nil {
		return nil, nil, a.noteError(err)
	}

	var ids []string
	var sources = map[string]string{}

	if a.liveSearch {
		liveIDs, err := a.searchLive(ctx, channelID)
		if err != nil {
			// Search is an enhancement; a failure here should not cost
			// us the playlist listing.
			a.log.WithError(err).WithField("channel", channelID).Warn("live search failed")
			if errors.Is(err, ErrQuotaExceeded) {
				return nil, nil, a.noteError(err)
			}
		}
		for _, id := range liveIDs {
			ids = append(ids, id)
			sources[id] = "search"
		}
	}

	uploadIDs, err := a.recentUploads(ctx, facts.UploadsPlaylist, now)
	if err != nil {
		return facts, nil, a.noteError(err)
	}
	for _, id := range uploadIDs {
		if _, ok := sources[id]; ok {
			continue
		}
		ids = append(ids, id)
		sources[id] = "api"
	}

	if len(ids) == 0 {
		return facts, nil, nil
	}

	videos, err := a.videoDetails(ctx, ids)
	if err != nil {
		return facts, nil, a.noteError(err)
	}

	candidates := make([]Candidate, 0, len(videos))
	for _, v := range videos {
		sig := signalsFromVideo(v)
		candidates = append(candidates, Candidate{
			VideoID: v.Id,
			Source:  sources[v.Id],
			Signals: sig,
		})
	}
	return facts, candidates, nil
}

// channelFacts fetches the channel's title, uploads playlist, and
// subscriber count in a single channels.list call.
func (a *APICollector) channelFacts(ctx context.Context, channelID string) (*ChannelFacts, error) {
	var resp *youtube.ChannelListResponse

	err := retry.Do(ctx, a.retryCfg, isRetryableAPIError, func(ctx context.Context) error {
		var err error
		resp, err = a.svc.Channels.
			List([]string{"contentDetails", "statistics", "snippet"}).
			Id(channelID).
			Context(ctx).
			Do()
		return wrapAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("channels.list %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	ch := resp.Items[0]
	facts := &ChannelFacts{}
	if ch.Snippet != nil {
		facts.Title = ch.Snippet.Title
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		facts.UploadsPlaylist = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	if ch.Statistics != nil && !ch.Statistics.HiddenSubscriberCount {
		facts.Subscribers = int64(ch.Statistics.SubscriberCount)
	}
	return facts, nil
}

// searchLive asks the search endpoint for broadcasts that are live
// right now. Catches streams that never appear in the uploads playlist
// until they end.
func (a *APICollector) searchLive(ctx context.Context, channelID string) ([]string, error) {
	var resp *youtube.SearchListResponse

	err := retry.Do(ctx, a.retryCfg, isRetryableAPIError, func(ctx context.Context) error {
		var err error
		resp, err = a.svc.Search.
			List([]string{"id"}).
			ChannelId(channelID).
			EventType("live").
			Type("video").
			MaxResults(5).
			Context(ctx).
			Do()
		return wrapAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("search.list live %s: %w", channelID, err)
	}

	var ids []string
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	return ids, nil
}

// recentUploads lists one page of the uploads playlist and keeps the
// entries published inside the lookback window. Uploads are returned
// newest first, so the scan stops at the first stale item.
func (a *APICollector) recentUploads(ctx context.Context, playlistID string, now time.Time) ([]string, error) {
	if playlistID == "" {
		return nil, nil
	}

	var resp *youtube.PlaylistItemListResponse

	err := retry.Do(ctx, a.retryCfg, isRetryableAPIError, func(ctx context.Context) error {
		var err error
		resp, err = a.svc.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(a.scanSize).
			Context(ctx).
			Do()
		return wrapAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("playlistItems.list %s: %w", playlistID, err)
	}

	cutoff := now.Add(-a.lookback)
	var ids []string
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		published := parseRFC3339(item.ContentDetails.VideoPublishedAt)
		if !published.IsZero() && published.Before(cutoff) {
			break
		}
		ids = append(ids, item.ContentDetails.VideoId)
	}
	return ids, nil
}

// videoDetails resolves video ids into full records. The API accepts
// up to 50 ids per call and the scan size never exceeds that, so one
// call suffices.
func (a *APICollector) videoDetails(ctx context.Context, ids []string) ([]*youtube.Video, error) {
	var resp *youtube.VideoListResponse

	err := retry.Do(ctx, a.retryCfg, isRetryableAPIError, func(ctx context.Context) error {
		var err error
		resp, err = a.svc.Videos.
			List([]string{"snippet", "contentDetails", "liveStreamingDetails"}).
			Id(ids...).
			Context(ctx).
			Do()
		return wrapAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}
	return resp.Items, nil
}

// noteError latches the disabled flag on quota errors so later
// channels skip the API path immediately.
func (a *APICollector) noteError(err error) error {
	if errors.Is(err, ErrQuotaExceeded) {
		a.disabled = true
	}
	return err
}

// signalsFromVideo maps an API video record to classifier signals.
func signalsFromVideo(v *youtube.Video) classify.Signals {
	sig := classify.Signals{VideoID: v.Id}

	if sn := v.Snippet; sn != nil {
		sig.Title = sn.Title
		sig.Description = sn.Description
		sig.Thumbnail = bestThumbnail(sn.Thumbnails)
		sig.Label = labelFromBroadcastContent(sn.LiveBroadcastContent)
	}
	if cd := v.ContentDetails; cd != nil {
		sig.Duration = parseISODuration(cd.Duration)
	}
	if live := v.LiveStreamingDetails; live != nil {
		sig.ScheduledStart = parseRFC3339(live.ScheduledStartTime)
		sig.ActualStart = parseRFC3339(live.ActualStartTime)
		sig.ActualEnd = parseRFC3339(live.ActualEndTime)
	}

	sig.Premiere = isPremiere(sig, v.LiveStreamingDetails != nil)
	return sig
}

// isPremiere detects scheduled releases of pre-recorded video. A
// genuine live broadcast has no fixed runtime until it ends; a
// scheduled item that already knows its duration is a premiere.
// Title and description keywords catch the rest.
func isPremiere(sig classify.Signals, hasLiveDetails bool) bool {
	if !hasLiveDetails {
		return false
	}
	if sig.ActualStart.IsZero() && !sig.ScheduledStart.IsZero() && sig.Duration > 0 {
		return true
	}
	if sig.ActualStart.IsZero() {
		title := strings.ToLower(sig.Title)
		desc := strings.ToLower(sig.Description)
		if strings.Contains(title, "premiere") || strings.Contains(desc, "premieres ") {
			return true
		}
	}
	return false
}

// labelFromBroadcastContent maps the API's liveBroadcastContent field
// to a coarse label.
func labelFromBroadcastContent(s string) classify.Label {
	switch s {
	case "live":
		return classify.LabelLive
	case "upcoming":
		return classify.LabelUpcoming
	case "none":
		return classify.LabelNone
	default:
		return classify.LabelUnknown
	}
}

// bestThumbnail picks the highest-resolution thumbnail available.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

// parseRFC3339 parses an API timestamp, returning the zero time for
// empty or malformed values.
func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseISODuration parses the API's ISO 8601 duration strings
// ("PT1H23M45S"). Live broadcasts report "P0D" until they end.
func parseISODuration(s string) time.Duration {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var d time.Duration
	for i, unit := range []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		d += time.Duration(n) * unit
	}
	return d
}

// wrapAPIError maps Google API errors to sentinel errors. 403 covers
// both quota exhaustion and a bad key; either way the API path is done
// for the day.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 403, 401:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case 404:
			return fmt.Errorf("%w: %v", ErrChannelNotFound, err)
		}
	}
	return err
}

// isRetryableAPIError keeps quota and not-found failures out of the
// retry loop; a spent quota does not come back on the next attempt.
func isRetryableAPIError(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrChannelNotFound) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	return true
}
