// Package collect gathers candidate broadcasts for a channel.
//
// Three independent strategies produce the same Candidate shape: the
// YouTube Data API (credentialed, richest signals), the public Atom
// feed (no credential, identifiers only), and watch-page scraping
// (fills in signals the feed cannot provide). Classification of the
// collected signals lives in the classify package.
package collect

import (
	"errors"
	"time"

	"livesched/classify"
)

// Sentinel errors for collection operations.
var (
	// ErrChannelNotFound indicates the channel does not exist.
	ErrChannelNotFound = errors.New("collect: channel not found")
	// ErrQuotaExceeded indicates the API rejected the credential or
	// the daily quota is spent. The API path is skipped for the rest
	// of the run when this surfaces.
	ErrQuotaExceeded = errors.New("collect: api quota exceeded or credential rejected")
)

// Candidate is an unclassified content item that might represent a
// live or upcoming broadcast. It is created per-run per-channel and
// never mutated after collection.
type Candidate struct {
	// VideoID is the platform-specific content identifier.
	VideoID string
	// Source names the strategy that produced the candidate
	// ("search", "api", "feed", "scrape", "tiktok").
	Source string
	// Published is the listing timestamp, when the source provides
	// one. Used for lookback filtering, not classification.
	Published time.Time
	// Signals is the normalized record the classifier consumes.
	Signals classify.Signals
}

// Dedupe removes candidates with repeated identifiers, preserving
// first-seen order. Live-search results are collected first, so they
// win over listing hits for the same video.
func Dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if c.VideoID == "" || seen[c.VideoID] {
			continue
		}
		seen[c.VideoID] = true
		out = append(out, c)
	}
	return out
}

// ChannelFacts is per-channel metadata fetched alongside candidates.
type ChannelFacts struct {
	// Title is the platform-provided channel name.
	Title string
	// UploadsPlaylist is the channel's uploads playlist id.
	UploadsPlaylist string
	// Subscribers is the live subscriber count, 0 when hidden.
	Subscribers int64
}
