// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics_test

import (
	"bytes"
	"strings"
	"testing"

	"code.hybscloud.com/xchan"
	"code.hybscloud.com/xchan/metrics"
)

func TestRecorderFeedsSnapshot(t *testing.T) {
	id := metrics.NewChannelID()
	rec := metrics.NewRecorder()
	tx, rx := xchan.Channel[int](4, xchan.ChannelOptions[int]{
		ChannelID: id,
		Recorder:  rec,
	})

	for i := range 10 {
		tx.TrySend(i)
	}
	for range 10 {
		rx.TryRecv()
	}
	tx.TrySend(1)
	tx.TrySend(2)
	tx.TrySend(3)
	tx.TrySend(4)
	tx.TrySend(5) // rejected once the ring fills: recorded as a non-ok send

	var found *metrics.ChannelSnapshot
	for _, s := range metrics.Snapshot() {
		if s.ChannelID == id {
			s := s
			found = &s
			break
		}
	}
	if found == nil {
		t.Fatalf("no snapshot recorded for channel %s", id)
	}
	if found.Sent < 15 {
		t.Fatalf("Sent: got %d, want >= 15", found.Sent)
	}
	if found.Recv != 10 {
		t.Fatalf("Recv: got %d, want 10", found.Recv)
	}
	if found.TrySendFail == 0 {
		t.Fatalf("TrySendFail: got 0, want > 0 (several sends were rejected once the ring filled)")
	}
	if found.TrySendFailureRate <= 0 || found.TrySendFailureRate >= 1 {
		t.Fatalf("TrySendFailureRate: got %f, want strictly between 0 and 1", found.TrySendFailureRate)
	}
	if found.Closed {
		t.Fatalf("Closed: got true, want false (channel was never closed)")
	}
}

func TestWriteTableAndCSV(t *testing.T) {
	snaps := []metrics.ChannelSnapshot{
		{
			ChannelID: "c1", Sent: 10, Recv: 9, Dropped: 1, Closed: true,
			TrySendOk: 9, TrySendFail: 1, TryRecvOk: 9,
			SendP99Ns: 1000, RecvP99Ns: 500,
			SendOpsPerSec: 100, RecvOpsPerSec: 90, DropRate: 0.11,
		},
	}

	var table bytes.Buffer
	if err := metrics.WriteTable(&table, snaps); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if !strings.Contains(table.String(), "c1") {
		t.Fatalf("table output missing channel id: %s", table.String())
	}

	var csv bytes.Buffer
	if err := metrics.WriteCSV(&csv, snaps); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("CSV lines: got %d, want 2 (header + 1 row)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "channel,") {
		t.Fatalf("CSV header: got %q", lines[0])
	}
}
