// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package torrent

import (
	"context"
	"strconv"

	"github.com/luxfi/rtrpc"
)

// Tracker method keys.
const (
	TrackerKeyURL            = "url"
	TrackerKeyEnabled        = "is_enabled"
	TrackerKeyType           = "type"
	TrackerKeyScrapeComplete = "scrape_complete"
	TrackerKeyLastScrape     = "scrape_time_last"
	TrackerKeySetEnabled     = "set_enabled"
)

// TrackerClass holds the t.* methods.
var TrackerClass = newTrackerClass()

// trackerMulticall is t.multicall(hash, pattern, fields...).
var trackerMulticall = rtrpc.NewMethod("multicall", []string{"t.multicall"}, rtrpc.Retriever())

func newTrackerClass() *rtrpc.Class {
	c := rtrpc.NewClass("tracker")
	c.Register(TrackerKeyURL, []string{"t.url", "t.get_url"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToString))
	c.Register(TrackerKeyEnabled, []string{"t.is_enabled"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToBool))
	c.Register(TrackerKeyType, []string{"t.type", "t.get_type"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
	c.Register(TrackerKeyScrapeComplete, []string{"t.scrape_complete", "t.get_scrape_complete"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
	c.Register(TrackerKeyLastScrape, []string{"t.scrape_time_last", "t.get_scrape_time_last"}, rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToTime))
	c.Register(TrackerKeySetEnabled, []string{"t.is_enabled.set", "t.set_enabled"}, rtrpc.WithArgEncoders(rtrpc.EncodeBool))
	return c
}

// TrackerTarget is the rtorrent target string for tracker index of the torrent hash.
func TrackerTarget(hash string, index int) string {
	return hash + ":t" + strconv.Itoa(index)
}

// Tracker is one tracker of a torrent.
type Tracker struct {
	obj    *rtrpc.Object
	Target string
}

// NewTracker returns tracker index of the torrent hash.
func NewTracker(conn rtrpc.Conn, hash string, index int) *Tracker {
	return &Tracker{obj: rtrpc.NewObject(TrackerClass, conn), Target: TrackerTarget(hash, index)}
}

// Exec runs any registered tracker method against this tracker.
func (t *Tracker) Exec(ctx context.Context, key string, args ...any) (any, error) {
	return t.obj.Exec(ctx, key, append([]any{t.Target}, args...)...)
}

// URL returns the announce URL.
func (t *Tracker) URL(ctx context.Context) (string, error) {
	return execAs[string](ctx, t, TrackerKeyURL)
}

// SetEnabled enables or disables the tracker.
func (t *Tracker) SetEnabled(ctx context.Context, enabled bool) error {
	_, err := t.Exec(ctx, TrackerKeySetEnabled, enabled)
	return err
}
