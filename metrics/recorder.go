// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics is the active xchan.Recorder implementation: Prometheus
// counters and histograms for exposition (see linkerd2's promauto-based
// metrics.go files) plus an in-process per-channel registry with P²
// latency quantiles for the table/CSV exporters, since scraping
// Prometheus isn't always convenient for a quick local look.
package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"code.hybscloud.com/xchan"
	"code.hybscloud.com/xchan/internal/quantile"
)

const unlabeled = "unlabeled"

// NewChannelID returns a fresh identifier suitable for
// xchan.ChannelOptions.ChannelID, for processes that want a distinct
// registry entry per channel instance rather than sharing the "unlabeled"
// bucket.
func NewChannelID() string { return uuid.NewString() }

var (
	sendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xchan",
		Name:      "sends_total",
		Help:      "Total send attempts by channel and outcome.",
	}, []string{"channel", "ok"})
	recvTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xchan",
		Name:      "recvs_total",
		Help:      "Total receive attempts by channel and outcome.",
	}, []string{"channel", "ok"})
	dropTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xchan",
		Name:      "drops_total",
		Help:      "Total values discarded by a channel's drop policy.",
	}, []string{"channel", "policy"})
	wakeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xchan",
		Name:      "wakes_total",
		Help:      "Total park-queue wake events by channel.",
	}, []string{"channel", "all"})
	closeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xchan",
		Name:      "closed_total",
		Help:      "Channels observed closing, by channel.",
	}, []string{"channel"})
	sendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xchan",
		Name:      "send_latency_seconds",
		Help:      "Observed send latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"channel"})
	recvLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xchan",
		Name:      "recv_latency_seconds",
		Help:      "Observed recv latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"channel"})
)

// channelStats is one process-wide registry entry: raw counters plus
// P50/P95/P99 P² estimates per direction and the first/last-event
// timestamps spec.md §4.9's derived rates are computed from. A full
// histogram isn't exported here — that's what Prometheus scraping is
// for; this registry backs the quick-look table/CSV views.
type channelStats struct {
	mu sync.Mutex

	sent, recv               int64
	dropped                  int64
	closed                   bool
	trySendOk, trySendFail   int64
	tryRecvOk, tryRecvEmpty  int64

	sendFirstNs, sendLastNs int64
	recvFirstNs, recvLastNs int64

	sendLatencySumNs, recvLatencySumNs int64

	sendP50, sendP95, sendP99 *quantile.Estimator
	recvP50, recvP95, recvP99 *quantile.Estimator
}

func newChannelStats() *channelStats {
	return &channelStats{
		sendP50: quantile.New(0.50), sendP95: quantile.New(0.95), sendP99: quantile.New(0.99),
		recvP50: quantile.New(0.50), recvP95: quantile.New(0.95), recvP99: quantile.New(0.99),
	}
}

var (
	registryMu sync.Mutex
	registry   = map[string]*channelStats{}
)

func channelLabel(id string) string {
	if id == "" {
		return unlabeled
	}
	return id
}

func statsFor(id string) *channelStats {
	label := channelLabel(id)
	registryMu.Lock()
	defer registryMu.Unlock()
	cs, ok := registry[label]
	if !ok {
		cs = newChannelStats()
		registry[label] = cs
	}
	return cs
}

// Recorder is the active xchan.Recorder: every event updates a Prometheus
// counter/histogram and this package's in-process registry. Assign
// NewRecorder() to xchan.ChannelOptions.Recorder; leaving that field nil
// is the no-op alternative.
type Recorder struct{}

var _ xchan.Recorder = Recorder{}

// NewRecorder returns the active Recorder. Recorder is stateless; a
// single value can be shared across every channel in a process.
func NewRecorder() Recorder { return Recorder{} }

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ObserveSend records both the blocking send taxonomy (ok/would-block)
// and, since the kernels report ok=false only for an attempt that found
// the buffer full (StatusFull), doubles as the trySend counter: ok means
// trySendOk, !ok means trySendFail. The two are the same event from the buffer's
// point of view — a blocking Send that must wait is, underneath, a loop
// of failed tries followed by one that succeeds.
func (Recorder) ObserveSend(channelID string, ok bool, latencyNs int64) {
	label := channelLabel(channelID)
	sendTotal.WithLabelValues(label, boolLabel(ok)).Inc()
	sendLatency.WithLabelValues(label).Observe(float64(latencyNs) / 1e9)

	now := time.Now().UnixNano()
	cs := statsFor(channelID)
	cs.mu.Lock()
	cs.sent++
	if cs.sendFirstNs == 0 {
		cs.sendFirstNs = now
	}
	cs.sendLastNs = now
	if ok {
		cs.trySendOk++
		cs.sendLatencySumNs += latencyNs
		cs.sendP50.Observe(float64(latencyNs))
		cs.sendP95.Observe(float64(latencyNs))
		cs.sendP99.Observe(float64(latencyNs))
	} else {
		cs.trySendFail++
	}
	cs.mu.Unlock()
}

// ObserveRecv is ObserveSend's receive-side counterpart: ok means
// tryRecvOk, !ok means tryRecvEmpty.
func (Recorder) ObserveRecv(channelID string, ok bool, latencyNs int64) {
	label := channelLabel(channelID)
	recvTotal.WithLabelValues(label, boolLabel(ok)).Inc()
	recvLatency.WithLabelValues(label).Observe(float64(latencyNs) / 1e9)

	now := time.Now().UnixNano()
	cs := statsFor(channelID)
	cs.mu.Lock()
	cs.recv++
	if cs.recvFirstNs == 0 {
		cs.recvFirstNs = now
	}
	cs.recvLastNs = now
	if ok {
		cs.tryRecvOk++
		cs.recvLatencySumNs += latencyNs
		cs.recvP50.Observe(float64(latencyNs))
		cs.recvP95.Observe(float64(latencyNs))
		cs.recvP99.Observe(float64(latencyNs))
	} else {
		cs.tryRecvEmpty++
	}
	cs.mu.Unlock()
}

func (Recorder) ObserveDrop(channelID string, policy xchan.DropPolicy) {
	label := channelLabel(channelID)
	dropTotal.WithLabelValues(label, policy.String()).Inc()

	cs := statsFor(channelID)
	cs.mu.Lock()
	cs.dropped++
	cs.mu.Unlock()
}

func (Recorder) ObserveWake(channelID string, all bool) {
	label := channelLabel(channelID)
	wakeTotal.WithLabelValues(label, boolLabel(all)).Inc()
}

// ObserveClose fires once, the first time a channel closes; see
// xchan.Recorder.ObserveClose.
func (Recorder) ObserveClose(channelID string) {
	label := channelLabel(channelID)
	closeTotal.WithLabelValues(label).Inc()

	cs := statsFor(channelID)
	cs.mu.Lock()
	cs.closed = true
	cs.mu.Unlock()
}
