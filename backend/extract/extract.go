// Package extract is the capture backend: it records every declared and
// provided value of each region activation and hands the completed region
// records to a sink, so a standalone driver can later replay the region
// against the recorded inputs and verify its outputs.
package extract

import (
	"fmt"

	"kerndata/capture"
	"kerndata/snapshot"
)

// #region sink

// Sink receives completed region records in activation order.
type Sink interface {
	// WriteRegion accepts one finished region record.
	WriteRegion(rec snapshot.RegionRecord) error
	// Close flushes and releases the sink.
	Close() error
}

// #endregion sink

// #region backend

// Backend embeds the base protocol and captures values around it. The post
// phase gets its own index space: the backend resets the counter at
// PostStart so recorded pre and post sets are both numbered from 1.
type Backend struct {
	*capture.Base

	sink Sink
	seq  int
	cur  snapshot.RegionRecord
}

// New returns an extract backend writing to sink, using the default gate
// and diagnostic stream.
func New(sink Sink) *Backend {
	return NewWith(sink, capture.NewBase())
}

// NewWith returns an extract backend over an explicitly configured base.
func NewWith(sink Sink, base *capture.Base) *Backend {
	return &Backend{Base: base, sink: sink}
}

// #endregion backend

// #region hooks

// PreStart opens the pass and starts a fresh region record, pre-sized from
// the advisory variable counts.
func (b *Backend) PreStart(module, region string, numPre, numPost int) {
	b.Base.PreStart(module, region, numPre, numPost)
	if !b.Enabled() {
		return
	}
	b.cur = snapshot.RegionRecord{
		Seq:    b.seq,
		Module: b.ModuleName(),
		Region: b.RegionName(),
		Pre:    make([]snapshot.VarRecord, 0, numPre),
		Post:   make([]snapshot.VarRecord, 0, numPost),
	}
}

// Declare records a pre-region value under the index the base assigned.
func (b *Backend) Declare(name string, v capture.Value) {
	b.Base.Declare(name, v)
	if !b.Enabled() {
		return
	}
	b.cur.Pre = append(b.cur.Pre, snapshot.VarRecordOf(b.LastIndex(), name, v))
}

// PostStart restarts numbering for the post-region value set.
func (b *Backend) PostStart() {
	b.Base.PostStart()
	b.ResetIndex()
}

// Provide records a post-region value under the index the base assigned.
func (b *Backend) Provide(name string, v capture.Value) {
	b.Base.Provide(name, v)
	if !b.Enabled() {
		return
	}
	b.cur.Post = append(b.cur.Post, snapshot.VarRecordOf(b.LastIndex(), name, v))
}

// PostEnd hands the finished record to the sink. A sink failure aborts:
// a capture that silently lost a region is worse than no capture.
func (b *Backend) PostEnd() {
	if b.Enabled() {
		if err := b.sink.WriteRegion(b.cur); err != nil {
			b.Abort(fmt.Sprintf("write capture: %v", err))
		}
		b.seq++
	}
	b.cur = snapshot.RegionRecord{}
	b.Base.PostEnd()
}

// Shutdown closes the sink.
func (b *Backend) Shutdown() error {
	return b.sink.Close()
}

// #endregion hooks
