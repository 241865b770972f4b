// Package timing is the measurement backend: it clocks the span between
// PreEnd and PostStart of every region (the region body, not the
// instrumentation around it) and reports per-region statistics at
// Shutdown. Statistics are local to the process; aggregating across
// processes is a consumer concern.
package timing

import (
	"time"

	"kerndata/capture"
)

// #region stats

// RegionStats accumulates wall-clock figures for one module:region key.
type RegionStats struct {
	Module string
	Region string
	Count  int
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
}

// Mean returns the average region duration.
func (s RegionStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// #endregion stats

// #region backend

// Backend embeds the base protocol and times region bodies. Values passed
// through Declare and Provide only advance bookkeeping.
type Backend struct {
	*capture.Base

	stats   map[string]*RegionStats
	order   []string
	started time.Time
	running bool
	now     func() time.Time
}

// New returns a timing backend on the default gate and diagnostic stream.
func New() *Backend {
	return NewWith(capture.NewBase())
}

// NewWith returns a timing backend over an explicitly configured base.
func NewWith(base *capture.Base) *Backend {
	return &Backend{
		Base:  base,
		stats: make(map[string]*RegionStats),
		now:   time.Now,
	}
}

// PreEnd starts the clock as control passes to the region body.
func (b *Backend) PreEnd() {
	b.Base.PreEnd()
	if !b.Enabled() {
		return
	}
	b.started = b.now()
	b.running = true
}

// PostStart stops the clock and folds the sample into the region's stats.
func (b *Backend) PostStart() {
	b.Base.PostStart()
	if !b.running {
		return
	}
	b.running = false
	elapsed := b.now().Sub(b.started)

	key := b.ModuleName() + ":" + b.RegionName()
	st, ok := b.stats[key]
	if !ok {
		st = &RegionStats{Module: b.ModuleName(), Region: b.RegionName(), Min: elapsed, Max: elapsed}
		b.stats[key] = st
		b.order = append(b.order, key)
	}
	st.Count++
	st.Total += elapsed
	if elapsed < st.Min {
		st.Min = elapsed
	}
	if elapsed > st.Max {
		st.Max = elapsed
	}
}

// Stats returns the accumulated per-region statistics in first-seen order.
func (b *Backend) Stats() []RegionStats {
	out := make([]RegionStats, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, *b.stats[key])
	}
	return out
}

// Shutdown emits the statistics table on the diagnostic stream.
func (b *Backend) Shutdown() error {
	d := b.Diagnostics()
	d.Infof("timing report: %d region(s)", len(b.order))
	for _, st := range b.Stats() {
		d.Infof("  %s:%s count=%d total=%s mean=%s min=%s max=%s",
			st.Module, st.Region, st.Count, st.Total, st.Mean(), st.Min, st.Max)
	}
	return nil
}

// #endregion backend
