// Package livesched generates a live/upcoming broadcast schedule for a
// configured roster of creator channels.
//
// Each run is a stateless batch: the channel roster is loaded from a
// published CSV sheet, candidate broadcasts are gathered per channel,
// classified against a policy of time windows, and the surviving events
// are written as a JSON schedule for a downstream renderer.
//
// # Overview
//
// The pipeline has four stages, executed once per run:
//
//   - sheet: load the channel roster (and, optionally, a pre-built
//     schedule that short-circuits the rest of the run)
//   - collect: gather candidate broadcasts per channel via the YouTube
//     Data API, the public Atom feed, or watch-page scraping
//   - classify: assign each candidate a lifecycle status (live,
//     upcoming, ended) or drop it
//   - schedule: deduplicate, sort, and write schedule.json
//
// # Quick Start
//
// Run a sync from the command line:
//
//	YT_API_KEY=... livesched sync
//
// Or drive the pipeline programmatically:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	runner, err := pipeline.New(ctx, cfg, logging.NewLogger())
//	if err != nil {
//		log.Fatal(err)
//	}
//	report, err := runner.Run(ctx)
//
// # Configuration
//
// Configuration comes from the process environment, optionally seeded
// from a local .env file. The core locations keep the names used by the
// deployed automation:
//
//   - CHANNEL_SHEET_CSV: published CSV with the channel roster
//   - SCHEDULE_SHEET_CSV: optional pre-built schedule (used verbatim)
//   - OUT_PATH: output file path (default schedule.json)
//   - YT_API_KEY: YouTube Data API key; without it the run falls back
//     to feed and watch-page collection
//
// Tuning knobs (scan size, lookback, grace period, live-duration cap,
// horizon, ended recency, request delay and timeout) use the
// LIVESCHED_ prefix; see the config package.
//
// # Error Handling
//
// Per-channel and per-candidate failures never abort a run; they are
// logged and the affected channel or candidate contributes nothing.
// A missing API key or a quota rejection degrades the run to the
// credential-free collectors. An empty roster surfaces as
// *pipeline.SkipError and exits 0. Anything else is fatal and exits
// non-zero.
package livesched
