// Package pipeline orchestrates a schedule run: load the roster,
// collect candidates per channel, classify them, and write the merged,
// sorted schedule.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"livesched/classify"
	"livesched/collect"
	"livesched/config"
	lhttp "livesched/http"
	"livesched/retry"
	"livesched/schedule"
	"livesched/sheet"
)

// SkipError marks a run that produced nothing actionable but should
// not fail the process: an empty roster is an operator state, not a
// defect, and must not break a scheduled job.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "run skipped: " + e.Reason
}

// Narrow interfaces over the concrete collectors so runs are testable
// without network access.
type rosterLoader interface {
	LoadChannels(ctx context.Context, url string) ([]sheet.Channel, error)
	LoadPrebuilt(ctx context.Context, url string) ([]schedule.Event, error)
}

type apiCollector interface {
	Collect(ctx context.Context, channelID string, now time.Time) (*collect.ChannelFacts, []collect.Candidate, error)
	Disabled() bool
}

type feedLister interface {
	ListCandidates(ctx context.Context, channelID string, lookback time.Duration, now time.Time) ([]collect.Candidate, error)
}

type pageExtractor interface {
	Extract(ctx context.Context, videoID string) (classify.Signals, error)
}

type tiktokProbe interface {
	Probe(ctx context.Context, handle string) (*collect.Candidate, error)
}

// Runner executes schedule runs.
type Runner struct {
	cfg *config.Config
	log *logrus.Logger

	loader rosterLoader
	api    apiCollector
	feed   feedLister
	page   pageExtractor
	tiktok tiktokProbe

	policy classify.Policy
	loc    *time.Location
	now    func() time.Time
}

// New wires a Runner from configuration. A missing or unusable API key
// degrades to the credential-free collectors rather than failing.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	httpCfg := lhttp.DefaultConfig()
	httpCfg.Timeout = cfg.Timeout
	client := lhttp.New(httpCfg)

	r := &Runner{
		cfg:    cfg,
		log:    log,
		loader: sheet.NewLoader(client, log),
		feed:   collect.NewFeedLister(client, log),
		page:   collect.NewPageExtractor(client, log),
		tiktok: collect.NewTikTokProbe(client, log),
		policy: cfg.Policy(),
		loc:    loc,
		now:    time.Now,
	}

	if cfg.APIKey == "" {
		log.Warn("no API key configured, using feed and watch-page collection only")
		return r, nil
	}

	api, err := collect.NewAPICollector(ctx, cfg.APIKey, collect.APIOptions{
		ScanSize:   cfg.ScanSize,
		Lookback:   cfg.Lookback,
		LiveSearch: cfg.LiveSearch,
		Retry:      retry.DefaultConfig(),
	}, log)
	if err != nil {
		log.WithError(err).Warn("API collector unavailable, degrading to feed collection")
		return r, nil
	}
	r.api = api
	return r, nil
}

// Report summarizes one run.
type Report struct {
	RunID      string
	Channels   int
	Candidates int
	Errors     int

	Live     int
	Upcoming int
	Ended    int
}

// Events returns the total number of emitted events.
func (r *Report) Events() int {
	return r.Live + r.Upcoming + r.Ended
}

// Run executes one schedule run and writes the output file.
//
// Per-channel failures are logged and counted, never fatal; only an
// unreachable roster or an unwritable output file fails the run. An
// empty roster returns a SkipError so scheduled jobs exit clean.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	log := r.log.WithField("run_id", report.RunID)
	now := r.now()

	if r.cfg.ScheduleSheetURL != "" {
		return report, r.runPrebuilt(ctx, log, report)
	}

	channels, err := r.loader.LoadChannels(ctx, r.cfg.ChannelSheetURL)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if len(channels) == 0 {
		return report, &SkipError{Reason: "roster has no usable channel rows"}
	}
	report.Channels = len(channels)

	var events []schedule.Event
	for i, ch := range channels {
		if i > 0 {
			if err := nap(ctx, r.cfg.Delay); err != nil {
				return nil, err
			}
		}

		chEvents, candidates, err := r.collectChannel(ctx, ch, now)
		report.Candidates += candidates
		if err != nil {
			report.Errors++
			log.WithError(err).WithField("channel", ch.Name()).Warn("channel collection failed")
			continue
		}
		events = append(events, chEvents...)
	}

	events = schedule.Merge(events)
	schedule.Sort(events)

	if err := schedule.Write(r.cfg.OutPath, events); err != nil {
		return nil, fmt.Errorf("write schedule: %w", err)
	}

	for _, ev := range events {
		switch classify.Status(ev.Status) {
		case classify.StatusLive:
			report.Live++
		case classify.StatusUpcoming:
			report.Upcoming++
		case classify.StatusEnded:
			report.Ended++
		}
	}

	log.WithFields(logrus.Fields{
		"channels": report.Channels,
		"events":   report.Events(),
		"live":     report.Live,
		"upcoming": report.Upcoming,
		"ended":    report.Ended,
		"errors":   report.Errors,
	}).Info("schedule written")

	return report, nil
}

// runPrebuilt short-circuits collection with an operator-maintained
// schedule sheet, normalized but otherwise used verbatim.
func (r *Runner) runPrebuilt(ctx context.Context, log *logrus.Entry, report *Report) error {
	events, err := r.loader.LoadPrebuilt(ctx, r.cfg.ScheduleSheetURL)
	if err != nil {
		return fmt.Errorf("load prebuilt schedule: %w", err)
	}

	events = schedule.Merge(events)
	schedule.Sort(events)

	if err := schedule.Write(r.cfg.OutPath, events); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}

	for _, ev := range events {
		switch classify.Status(ev.Status) {
		case classify.StatusLive:
			report.Live++
		case classify.StatusUpcoming:
			report.Upcoming++
		case classify.StatusEnded:
			report.Ended++
		}
	}

	log.WithField("events", len(events)).Info("prebuilt schedule written")
	return nil
}

// collectChannel routes a channel to its platform collector and
// returns classified events plus the raw candidate count.
func (r *Runner) collectChannel(ctx context.Context, ch sheet.Channel, now time.Time) ([]schedule.Event, int, error) {
	switch ch.Platform {
	case sheet.PlatformTikTok:
		return r.collectTikTok(ctx, ch, now)
	default:
		return r.collectYouTube(ctx, ch, now)
	}
}

// collectYouTube gathers candidates via the API when available, else
// the feed plus watch-page scraping, then classifies them.
func (r *Runner) collectYouTube(ctx context.Context, ch sheet.Channel, now time.Time) ([]schedule.Event, int, error) {
	name := ch.Name()
	subs := ch.Subscribers

	var cands []collect.Candidate
	apiOK := false

	if r.api != nil && !r.api.Disabled() {
		facts, apiCands, err := r.api.Collect(ctx, ch.ID, now)
		switch {
		case err == nil:
			apiOK = true
			cands = apiCands
			if ch.DisplayName == "" && facts.Title != "" {
				name = facts.Title
			}
			if facts.Subscribers > 0 {
				subs = facts.Subscribers
			}
		case errors.Is(err, collect.ErrQuotaExceeded):
			r.log.WithField("channel", name).Warn("API quota spent, falling back to feed collection")
		default:
			r.log.WithError(err).WithField("channel", name).Warn("API collection failed, falling back to feed")
		}
	}

	if !apiOK {
		feedCands, err := r.feed.ListCandidates(ctx, ch.ID, r.cfg.Lookback, now)
		if err != nil {
			return nil, 0, err
		}
		cands = r.enrichFromPages(ctx, feedCands)
	}

	cands = collect.Dedupe(cands)

	var events []schedule.Event
	for _, cand := range cands {
		res := classify.Classify(cand.Signals, now, r.policy)
		if res.Status == classify.StatusNone {
			continue
		}
		events = append(events, r.buildEvent(ch, name, subs, cand, res))
	}
	return events, len(cands), nil
}

// enrichFromPages fills feed candidates with broadcast signals scraped
// from their watch pages. A failed page fetch keeps the bare feed
// signals, which classify to nothing, rather than failing the channel.
func (r *Runner) enrichFromPages(ctx context.Context, cands []collect.Candidate) []collect.Candidate {
	for i := range cands {
		if err := nap(ctx, r.cfg.Delay); err != nil {
			return cands
		}

		sig, err := r.page.Extract(ctx, cands[i].VideoID)
		if err != nil {
			r.log.WithError(err).WithField("video", cands[i].VideoID).Warn("watch page fetch failed")
			continue
		}

		if sig.Title == "" {
			sig.Title = cands[i].Signals.Title
		}
		if sig.Thumbnail == "" {
			sig.Thumbnail = cands[i].Signals.Thumbnail
		}
		sig.Description = cands[i].Signals.Description
		cands[i].Signals = sig
	}
	return cands
}

// collectTikTok probes the handle's live room. TikTok has no schedule
// surface, so the result is at most one live event.
func (r *Runner) collectTikTok(ctx context.Context, ch sheet.Channel, now time.Time) ([]schedule.Event, int, error) {
	cand, err := r.tiktok.Probe(ctx, ch.Handle)
	if err != nil {
		return nil, 0, err
	}
	if cand == nil {
		return nil, 0, nil
	}

	res := classify.Classify(cand.Signals, now, r.policy)
	if res.Status == classify.StatusNone {
		return nil, 1, nil
	}
	return []schedule.Event{r.buildEvent(ch, ch.Name(), ch.Subscribers, *cand, res)}, 1, nil
}

// buildEvent maps a classified candidate to an output row.
func (r *Runner) buildEvent(ch sheet.Channel, name string, subs int64, cand collect.Candidate, res classify.Result) schedule.Event {
	title := cand.Signals.Title
	if title == "" {
		title = name
	}

	thumbnail := cand.Signals.Thumbnail
	if thumbnail == "" && ch.Platform != sheet.PlatformTikTok {
		thumbnail = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", cand.VideoID)
	}

	return schedule.Event{
		StartET:      schedule.FormatTime(res.Start, r.loc),
		EndET:        schedule.FormatTime(res.End, r.loc),
		Title:        title,
		League:       ch.League,
		Platform:     string(ch.Platform),
		Channel:      name,
		WatchURL:     watchURL(ch, cand.VideoID),
		SourceID:     cand.VideoID,
		Status:       string(res.Status),
		ThumbnailURL: thumbnail,
		Subscribers:  subs,
	}
}

// watchURL builds the public viewing URL for an event.
func watchURL(ch sheet.Channel, videoID string) string {
	if ch.Platform == sheet.PlatformTikTok {
		return fmt.Sprintf("https://www.tiktok.com/@%s/live", ch.Handle)
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// nap sleeps politely between network calls, honoring cancellation.
func nap(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
