// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

// DropPolicy governs what a bounded channel does when its ring is full.
// Only Block suspends the sender; the other three always return Ok.
type DropPolicy uint8

const (
	// Block suspends the sender until room is available. The default.
	Block DropPolicy = iota
	// Oldest evicts the head element to make room for the incoming
	// value, invoking OnDrop with the evicted value.
	Oldest
	// Newest rejects the incoming value, invoking OnDrop with it. Send
	// still returns Ok.
	Newest
	// LatestOnly uses an effective capacity of 1 and replaces the slot's
	// value on every send, invoking OnDrop with the replaced value: the
	// single slot always holds the most recently sent value.
	LatestOnly
)

// String renders the policy for logs and panics.
func (p DropPolicy) String() string {
	switch p {
	case Block:
		return "block"
	case Oldest:
		return "oldest"
	case Newest:
		return "newest"
	case LatestOnly:
		return "latest-only"
	default:
		return "unknown"
	}
}

// Recorder is the metrics capability a kernel invokes on every send, recv,
// drop, and wake event. See package metrics for the active (P²
// quantile + Prometheus) implementation. nil is treated as no-op.
type Recorder interface {
	ObserveSend(channelID string, ok bool, latencyNs int64)
	ObserveRecv(channelID string, ok bool, latencyNs int64)
	ObserveDrop(channelID string, policy DropPolicy)
	ObserveWake(channelID string, all bool)
	// ObserveClose fires once, the first time the channel's closed flag
	// is set (spec.md's monotonic "closed" field). Never fires again
	// for the same channel afterward.
	ObserveClose(channelID string)
}

// ChannelOptions configures a Bounded channel beyond capacity. Construct
// with the zero value for defaults (Policy Block, no recorder).
type ChannelOptions[T any] struct {
	// Policy governs full-buffer behavior (bounded channels only).
	Policy DropPolicy
	// OnDrop, if non-nil, is invoked synchronously with every value the
	// channel's drop policy discards. A panic inside OnDrop is
	// recovered and never corrupts channel state (spec.md §7).
	OnDrop func(T)
	// ChannelID identifies this channel in the metrics registry
	// (package metrics). Package metrics records an empty ChannelID
	// under its shared "unlabeled" entry.
	ChannelID string
	// Recorder receives send/recv/drop/wake events. nil means no-op.
	Recorder Recorder
}

func (o ChannelOptions[T]) onDrop(v T) {
	if o.OnDrop == nil {
		return
	}
	defer func() { _ = recover() }()
	o.OnDrop(v)
}

func (o ChannelOptions[T]) recordSend(ok bool, latencyNs int64) {
	if o.Recorder != nil {
		o.Recorder.ObserveSend(o.ChannelID, ok, latencyNs)
	}
}

func (o ChannelOptions[T]) recordRecv(ok bool, latencyNs int64) {
	if o.Recorder != nil {
		o.Recorder.ObserveRecv(o.ChannelID, ok, latencyNs)
	}
}

func (o ChannelOptions[T]) recordDrop() {
	if o.Recorder != nil {
		o.Recorder.ObserveDrop(o.ChannelID, o.Policy)
	}
}

func (o ChannelOptions[T]) recordWake(all bool) {
	if o.Recorder != nil {
		o.Recorder.ObserveWake(o.ChannelID, all)
	}
}

func (o ChannelOptions[T]) recordClose() {
	if o.Recorder != nil {
		o.Recorder.ObserveClose(o.ChannelID)
	}
}
