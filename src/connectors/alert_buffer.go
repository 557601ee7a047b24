package connectors

import (
	"sync"
	"time"

	"qppf/src/model"
)

const defaultBufferCap = 1000

// AlertBuffer is the rolling in-memory window of flow alerts shared between
// a flow source goroutine (websocket or kafka) and the scoring loop. Single
// writer, single reader, but the mutex keeps it safe either way.
type AlertBuffer struct {
	mu     sync.Mutex
	alerts []model.FlowAlert
	maxAge time.Duration
	cap    int
}

func NewAlertBuffer(maxAge time.Duration) *AlertBuffer {
	return &AlertBuffer{maxAge: maxAge, cap: defaultBufferCap}
}

// Add appends an alert, evicting anything older than maxAge and trimming to
// capacity from the oldest end.
func (b *AlertBuffer) Add(alert model.FlowAlert) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.alerts = append(b.alerts, alert)
	b.trimLocked(time.Now())
}

// Snapshot returns a copy of alerts still inside the window at now.
func (b *AlertBuffer) Snapshot(now time.Time) []model.FlowAlert {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trimLocked(now)
	out := make([]model.FlowAlert, len(b.alerts))
	copy(out, b.alerts)
	return out
}

func (b *AlertBuffer) trimLocked(now time.Time) {
	cutoff := now.Add(-b.maxAge)
	firstLive := 0
	for firstLive < len(b.alerts) && b.alerts[firstLive].Timestamp.Before(cutoff) {
		firstLive++
	}
	b.alerts = b.alerts[firstLive:]

	if len(b.alerts) > b.cap {
		b.alerts = b.alerts[len(b.alerts)-b.cap:]
	}
}
