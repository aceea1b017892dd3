// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"
)

// NsByOp is the mean observed latency per operation direction, in
// nanoseconds, over every successful (try)send/(try)recv this snapshot
// has seen. Unlike the P50/P95/P99 estimates, this is a plain arithmetic
// mean — the cheapest possible answer to "how expensive is this
// operation on average," independent of the P² approximation.
type NsByOp struct {
	Send float64
	Recv float64
}

// ChannelSnapshot is a point-in-time read of one channel's registry
// entry: the raw counters spec.md §6 mandates, plus the derived rates
// spec.md §4.9 computes from them.
type ChannelSnapshot struct {
	ChannelID string

	Sent         int64
	Recv         int64
	Dropped      int64
	Closed       bool
	TrySendOk    int64
	TrySendFail  int64
	TryRecvOk    int64
	TryRecvEmpty int64

	SendP50Ns float64
	SendP95Ns float64
	SendP99Ns float64
	RecvP50Ns float64
	RecvP95Ns float64
	RecvP99Ns float64

	SendFirstNs int64
	SendLastNs  int64
	RecvFirstNs int64
	RecvLastNs  int64

	// Derived rates (spec.md §4.9): computed from the raw counters and
	// first/last-event timestamps above, not separately tracked.
	NsByOp              NsByOp
	SendOpsPerSec       float64
	RecvOpsPerSec       float64
	DropRate            float64
	TrySendFailureRate  float64
	TryRecvEmptyRate    float64
}

// opsPerSec divides count by the wall-clock span between firstNs and
// lastNs. A single observation (or none) has no span to divide by, so
// it reports 0 rather than +Inf or a divide-by-zero panic.
func opsPerSec(count, firstNs, lastNs int64) float64 {
	if count == 0 || lastNs <= firstNs {
		return 0
	}
	elapsed := time.Duration(lastNs - firstNs).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Snapshot returns a sorted-by-ChannelID read of every channel the active
// Recorder has observed so far.
func Snapshot() []ChannelSnapshot {
	registryMu.Lock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	registryMu.Unlock()
	sort.Strings(ids)

	out := make([]ChannelSnapshot, 0, len(ids))
	for _, id := range ids {
		cs := statsFor(id)
		cs.mu.Lock()
		snap := ChannelSnapshot{
			ChannelID:    id,
			Sent:         cs.sent,
			Recv:         cs.recv,
			Dropped:      cs.dropped,
			Closed:       cs.closed,
			TrySendOk:    cs.trySendOk,
			TrySendFail:  cs.trySendFail,
			TryRecvOk:    cs.tryRecvOk,
			TryRecvEmpty: cs.tryRecvEmpty,
			SendP50Ns:    cs.sendP50.Value(),
			SendP95Ns:    cs.sendP95.Value(),
			SendP99Ns:    cs.sendP99.Value(),
			RecvP50Ns:    cs.recvP50.Value(),
			RecvP95Ns:    cs.recvP95.Value(),
			RecvP99Ns:    cs.recvP99.Value(),
			SendFirstNs:  cs.sendFirstNs,
			SendLastNs:   cs.sendLastNs,
			RecvFirstNs:  cs.recvFirstNs,
			RecvLastNs:   cs.recvLastNs,
		}
		snap.NsByOp = NsByOp{
			Send: ratio(cs.sendLatencySumNs, cs.trySendOk),
			Recv: ratio(cs.recvLatencySumNs, cs.tryRecvOk),
		}
		snap.SendOpsPerSec = opsPerSec(cs.trySendOk, cs.sendFirstNs, cs.sendLastNs)
		snap.RecvOpsPerSec = opsPerSec(cs.tryRecvOk, cs.recvFirstNs, cs.recvLastNs)
		snap.DropRate = ratio(cs.dropped, cs.trySendOk)
		snap.TrySendFailureRate = ratio(cs.trySendFail, cs.trySendOk+cs.trySendFail)
		snap.TryRecvEmptyRate = ratio(cs.tryRecvEmpty, cs.tryRecvOk+cs.tryRecvEmpty)
		cs.mu.Unlock()
		out = append(out, snap)
	}
	return out
}

// WriteTable renders snaps as an aligned text table.
func WriteTable(w io.Writer, snaps []ChannelSnapshot) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tSENT\tRECV\tDROPPED\tCLOSED\tTRY_SEND_FAIL%\tTRY_RECV_EMPTY%\tSEND_P50\tSEND_P95\tSEND_P99\tRECV_P50\tRECV_P95\tRECV_P99\tSEND_OPS/S\tRECV_OPS/S\tDROP_RATE")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\t%.1f\t%.1f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.1f\t%.1f\t%.4f\n",
			s.ChannelID, s.Sent, s.Recv, s.Dropped, s.Closed,
			s.TrySendFailureRate*100, s.TryRecvEmptyRate*100,
			s.SendP50Ns, s.SendP95Ns, s.SendP99Ns,
			s.RecvP50Ns, s.RecvP95Ns, s.RecvP99Ns,
			s.SendOpsPerSec, s.RecvOpsPerSec, s.DropRate)
	}
	return tw.Flush()
}

// WriteCSV renders snaps as CSV with a header row. Column order matches
// ChannelSnapshot's field order.
func WriteCSV(w io.Writer, snaps []ChannelSnapshot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	header := []string{
		"channel", "sent", "recv", "dropped", "closed",
		"try_send_ok", "try_send_fail", "try_recv_ok", "try_recv_empty",
		"send_p50_ns", "send_p95_ns", "send_p99_ns",
		"recv_p50_ns", "recv_p95_ns", "recv_p99_ns",
		"send_first_ns", "send_last_ns", "recv_first_ns", "recv_last_ns",
		"ns_by_op_send", "ns_by_op_recv",
		"send_ops_per_sec", "recv_ops_per_sec",
		"drop_rate", "try_send_failure_rate", "try_recv_empty_rate",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range snaps {
		row := []string{
			s.ChannelID,
			strconv.FormatInt(s.Sent, 10),
			strconv.FormatInt(s.Recv, 10),
			strconv.FormatInt(s.Dropped, 10),
			strconv.FormatBool(s.Closed),
			strconv.FormatInt(s.TrySendOk, 10),
			strconv.FormatInt(s.TrySendFail, 10),
			strconv.FormatInt(s.TryRecvOk, 10),
			strconv.FormatInt(s.TryRecvEmpty, 10),
			strconv.FormatFloat(s.SendP50Ns, 'f', 0, 64),
			strconv.FormatFloat(s.SendP95Ns, 'f', 0, 64),
			strconv.FormatFloat(s.SendP99Ns, 'f', 0, 64),
			strconv.FormatFloat(s.RecvP50Ns, 'f', 0, 64),
			strconv.FormatFloat(s.RecvP95Ns, 'f', 0, 64),
			strconv.FormatFloat(s.RecvP99Ns, 'f', 0, 64),
			strconv.FormatInt(s.SendFirstNs, 10),
			strconv.FormatInt(s.SendLastNs, 10),
			strconv.FormatInt(s.RecvFirstNs, 10),
			strconv.FormatInt(s.RecvLastNs, 10),
			strconv.FormatFloat(s.NsByOp.Send, 'f', 2, 64),
			strconv.FormatFloat(s.NsByOp.Recv, 'f', 2, 64),
			strconv.FormatFloat(s.SendOpsPerSec, 'f', 4, 64),
			strconv.FormatFloat(s.RecvOpsPerSec, 'f', 4, 64),
			strconv.FormatFloat(s.DropRate, 'f', 4, 64),
			strconv.FormatFloat(s.TrySendFailureRate, 'f', 4, 64),
			strconv.FormatFloat(s.TryRecvEmptyRate, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
