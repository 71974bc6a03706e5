// ABOUTME: Tests for server clock synchronization
// ABOUTME: Tests RTT calculation, offset smoothing, outlier rejection and quality
package sync

import (
	"testing"
	"time"
)

func TestRTTCalculation(t *testing.T) {
	cs := NewClockSync()

	// sent at 1s, answered at server 5s, received 4ms later
	cs.ProcessTimestamp(1000000, 5000000, 1004000)

	offset, rtt, quality := cs.GetStats()
	if rtt != 4000 {
		t.Errorf("expected RTT 4000µs, got %dµs", rtt)
	}
	// server answered at local 1002000 -> offset 3998000
	if offset != 3998000 {
		t.Errorf("expected offset 3998000µs, got %dµs", offset)
	}
	if quality != QualityGood {
		t.Errorf("expected good quality, got %v", quality)
	}
}

func TestOffsetSmoothing(t *testing.T) {
	cs := NewClockSync()

	cs.ProcessTimestamp(0, 1000, 0)
	if cs.GetOffset() != 1000 {
		t.Fatalf("expected initial offset 1000, got %d", cs.GetOffset())
	}

	// second sample measures 2000; 10% of the 1000 residual is applied
	cs.ProcessTimestamp(0, 2000, 0)
	if cs.GetOffset() != 1100 {
		t.Errorf("expected smoothed offset 1100, got %d", cs.GetOffset())
	}
}

func TestHighRTTDiscarded(t *testing.T) {
	cs := NewClockSync()

	cs.ProcessTimestamp(0, 5000000, 200000)

	offset, rtt, quality := cs.GetStats()
	if offset != 0 {
		t.Errorf("expected offset to be untouched, got %d", offset)
	}
	if rtt != 200000 {
		t.Errorf("expected rtt to be recorded, got %d", rtt)
	}
	if quality != QualityLost {
		t.Errorf("expected quality lost, got %v", quality)
	}
}

func TestDegradedQuality(t *testing.T) {
	cs := NewClockSync()

	cs.ProcessTimestamp(0, 0, 60000)

	if _, _, quality := cs.GetStats(); quality != QualityDegraded {
		t.Errorf("expected degraded quality, got %v", quality)
	}
}

func TestCheckQualityStale(t *testing.T) {
	cs := NewClockSync()
	cs.ProcessTimestamp(0, 0, 1000)

	cs.mu.Lock()
	cs.lastSync = time.Now().Add(-time.Minute)
	cs.mu.Unlock()

	if q := cs.CheckQuality(); q != QualityLost {
		t.Errorf("expected lost quality after stale sync, got %v", q)
	}
}

func TestServerMicros(t *testing.T) {
	cs := NewClockSync()
	if got := cs.ServerMicros(500); got != 0 {
		t.Errorf("expected 0 before any sync, got %d", got)
	}
	if cs.Synced() {
		t.Error("expected unsynced clock")
	}

	// rejected samples do not count as a sync
	cs.ProcessTimestamp(0, 10000, maxRTT+1)
	if got := cs.ServerMicros(500); got != 0 {
		t.Errorf("expected 0 after a rejected sample, got %d", got)
	}

	cs.ProcessTimestamp(0, 10000, 0)
	if !cs.Synced() {
		t.Error("expected synced clock")
	}
	if got := cs.ServerMicros(500); got != 10500 {
		t.Errorf("expected 10500, got %d", got)
	}

	cs.Reset()
	if got := cs.ServerMicros(500); got != 0 {
		t.Errorf("expected 0 after reset, got %d", got)
	}
}

func TestReset(t *testing.T) {
	cs := NewClockSync()
	cs.ProcessTimestamp(0, 10000, 0)
	cs.Reset()

	offset, _, quality := cs.GetStats()
	if offset != 0 || quality != QualityLost {
		t.Errorf("expected reset state, got offset=%d quality=%v", offset, quality)
	}
}

func TestQualityString(t *testing.T) {
	tests := map[Quality]string{
		QualityGood:     "good",
		QualityDegraded: "degraded",
		QualityLost:     "lost",
	}
	for q, want := range tests {
		if q.String() != want {
			t.Errorf("expected %s, got %s", want, q.String())
		}
	}
}
