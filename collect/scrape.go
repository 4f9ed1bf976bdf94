package collect

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"livesched/classify"
	lhttp "livesched/http"
)

// watchURLFormat is the public watch page, the credential-free source
// of broadcast timestamps.
const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// Watch pages embed player state as JSON inside script tags. Depending
// on the serving path the JSON arrives raw or string-escaped, so every
// field is probed in both encodings. Pattern order matters: the first
// match wins.
var (
	startTimestampRes = []*regexp.Regexp{
		regexp.MustCompile(`"startTimestamp"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`\\"startTimestamp\\":\\"([^"\\]+)\\"`),
	}
	endTimestampRes = []*regexp.Regexp{
		regexp.MustCompile(`"endTimestamp"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`\\"endTimestamp\\":\\"([^"\\]+)\\"`),
	}
	isLiveNowRes = []*regexp.Regexp{
		regexp.MustCompile(`"isLiveNow"\s*:\s*(true|false)`),
		regexp.MustCompile(`\\"isLiveNow\\":(true|false)`),
	}
	// Epoch-seconds variant surfaced by the offline slate renderer.
	scheduledEpochRes = []*regexp.Regexp{
		regexp.MustCompile(`"scheduledStartTime"\s*:\s*"(\d+)"`),
		regexp.MustCompile(`\\"scheduledStartTime\\":\\"(\d+)\\"`),
	}
	lengthSecondsRes = []*regexp.Regexp{
		regexp.MustCompile(`"lengthSeconds"\s*:\s*"(\d+)"`),
		regexp.MustCompile(`\\"lengthSeconds\\":\\"(\d+)\\"`),
	}
	metaTitleRe = regexp.MustCompile(`<meta\s+name="title"\s+content="([^"]*)"`)
	ogTitleRe   = regexp.MustCompile(`<meta\s+property="og:title"\s+content="([^"]*)"`)
)

// PageExtractor scrapes broadcast signals from public watch pages. It
// fills the gap the Atom feed leaves: the feed says a video exists,
// the page says whether it is live, upcoming, or over.
type PageExtractor struct {
	client *lhttp.Client
	log    *logrus.Logger

	// watchURL is the fmt template resolving a video id to its page.
	watchURL string
}

// NewPageExtractor creates a watch-page extractor.
func NewPageExtractor(client *lhttp.Client, log *logrus.Logger) *PageExtractor {
	return &PageExtractor{client: client, log: log, watchURL: watchURLFormat}
}

// Extract fetches a watch page and pulls broadcast signals out of the
// embedded player JSON.
//
// Markup drift yields missing fields rather than errors: an unmatched
// pattern simply leaves its signal zero, and the classifier's fallback
// rules absorb the gap.
func (p *PageExtractor) Extract(ctx context.Context, videoID string) (classify.Signals, error) {
	url := fmt.Sprintf(p.watchURL, videoID)

	resp, err := p.client.Get(ctx, url)
	if err != nil {
		return classify.Signals{}, fmt.Errorf("fetch watch page %s: %w", videoID, err)
	}

	page := string(resp.Body)
	sig := classify.Signals{
		VideoID: videoID,
		Title:   firstMatch(page, metaTitleRe, ogTitleRe),
		// The predictable thumbnail endpoint always resolves, even
		// when the page markup hides the real one.
		Thumbnail: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
	}

	start := parseRFC3339(firstMatch(page, startTimestampRes...))
	end := parseRFC3339(firstMatch(page, endTimestampRes...))
	liveNow := firstMatch(page, isLiveNowRes...) == "true"

	switch {
	case !start.IsZero() && !end.IsZero():
		sig.ActualStart = start
		sig.ActualEnd = end
	case liveNow:
		sig.ActualStart = start
		sig.Label = classify.LabelLive
	case !start.IsZero():
		sig.ScheduledStart = start
		sig.Label = classify.LabelUpcoming
	default:
		if epoch := firstMatch(page, scheduledEpochRes...); epoch != "" {
			if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
				sig.ScheduledStart = time.Unix(secs, 0).UTC()
				sig.Label = classify.LabelUpcoming
			}
		}
	}

	// A scheduled page that already reports a fixed runtime is a
	// premiere, not a stream waiting to go live.
	if !sig.ScheduledStart.IsZero() && sig.ActualStart.IsZero() {
		if n := firstMatch(page, lengthSecondsRes...); n != "" && n != "0" {
			sig.Premiere = true
		}
	}

	p.log.WithFields(logrus.Fields{
		"video":    videoID,
		"live_now": liveNow,
		"start":    !start.IsZero(),
		"end":      !end.IsZero(),
	}).Debug("watch page extracted")

	return sig, nil
}

// firstMatch returns the first capture group of the first matching
// pattern.
func firstMatch(page string, res ...*regexp.Regexp) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(page); m != nil {
			return m[1]
		}
	}
	return ""
}
