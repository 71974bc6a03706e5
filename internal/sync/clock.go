// ABOUTME: Clock synchronization against the table server
// ABOUTME: Estimates the server clock offset from timestamp round trips
package sync

import (
	"log"
	"sync"
	"time"
)

const (
	// samples slower than this say more about the network than the clock
	maxRTT = 100000 // 100ms

	// quality is Lost once no sample has arrived for this long
	staleAfter = 10 * time.Second
)

// ClockSync tracks the offset between the local clock and the server clock
type ClockSync struct {
	mu            sync.RWMutex
	offset        int64 // server - client, microseconds
	rawOffset     int64 // latest raw measurement
	rtt           int64 // latest round-trip time
	quality       Quality
	lastSync      time.Time
	sampleCount   int
	smoothingRate float64
}

// Quality represents sync quality
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

// NewClockSync creates a new clock synchronizer
func NewClockSync() *ClockSync {
	return &ClockSync{
		smoothingRate: 0.1, // 10% weight to new samples
		quality:       QualityLost,
	}
}

// ProcessTimestamp processes a server timestamp reply.
// clientSent and clientRecv are local microseconds, serverTime is the server's clock
// when it answered.
func (cs *ClockSync) ProcessTimestamp(clientSent, serverTime, clientRecv int64) {
	rtt, measuredOffset := calculateOffset(clientSent, serverTime, clientRecv)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.rtt = rtt
	cs.rawOffset = measuredOffset

	if rtt < 0 || rtt > maxRTT {
		log.Printf("Discarding sync sample: rtt %dμs", rtt)
		return
	}

	cs.lastSync = time.Now()

	if cs.sampleCount == 0 {
		cs.offset = measuredOffset
		log.Printf("Initial sync: offset=%dμs, rtt=%dμs", cs.offset, rtt)
	} else {
		residual := measuredOffset - cs.offset
		cs.offset += int64(cs.smoothingRate * float64(residual))
	}
	cs.sampleCount++

	if rtt < maxRTT/2 {
		cs.quality = QualityGood
	} else {
		cs.quality = QualityDegraded
	}
}

// calculateOffset assumes the server answered halfway through the round trip
func calculateOffset(clientSent, serverTime, clientRecv int64) (rtt, offset int64) {
	rtt = clientRecv - clientSent
	offset = serverTime + rtt/2 - clientRecv
	return
}

// GetOffset returns the current offset
func (cs *ClockSync) GetOffset() int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.offset
}

// GetStats returns sync statistics
func (cs *ClockSync) GetStats() (offset, rtt int64, quality Quality) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.offset, cs.rtt, cs.quality
}

// CheckQuality updates quality based on time since last sync
func (cs *ClockSync) CheckQuality() Quality {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.sampleCount > 0 && time.Since(cs.lastSync) > staleAfter {
		cs.quality = QualityLost
	}

	return cs.quality
}

// Reset forgets all samples, e.g. after reconnecting to a different server
func (cs *ClockSync) Reset() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.offset = 0
	cs.rawOffset = 0
	cs.rtt = 0
	cs.sampleCount = 0
	cs.quality = QualityLost
}

// Synced reports whether a sample has been accepted since Reset
func (cs *ClockSync) Synced() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sampleCount > 0
}

// ServerMicros converts a local microsecond timestamp to server time.
// It returns 0 until the first sample is accepted.
func (cs *ClockSync) ServerMicros(localMicros int64) int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.sampleCount == 0 {
		return 0
	}
	return localMicros + cs.offset
}

// ClientMicros returns the local clock in microseconds
func ClientMicros() int64 {
	return time.Now().UnixMicro()
}
