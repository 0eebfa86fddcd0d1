package sensors

import (
	"context"
	"sync"
	"time"
)

// Where a snapshot came from.
const (
	OriginMQTT        = "mqtt"
	OriginIngest      = "ingest"
	OriginPlaceholder = "placeholder"
)

// Snapshot is the latest reading together with its origin.
type Snapshot struct {
	Reading Reading
	Origin  string
}

// Feed is the public sensor feed document.
type Feed struct {
	Sensors     []Reading `json:"sensors"`
	LastUpdated time.Time `json:"last_updated"`
	Source      string    `json:"source"`
}

func (s Snapshot) Feed() Feed {
	return Feed{
		Sensors:     []Reading{s.Reading},
		LastUpdated: s.Reading.Timestamp,
		Source:      s.Origin,
	}
}

// Source supplies the most recent normalised sensor reading.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Latest keeps the last reading reported by any device. Before the first
// report it serves the placeholder reading.
type Latest struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	now      func() time.Time
}

func NewLatest() *Latest {
	return &Latest{now: time.Now}
}

// Set replaces the current snapshot.
func (l *Latest) Set(r Reading, origin string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshot = &Snapshot{Reading: r, Origin: origin}
}

func (l *Latest) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.snapshot == nil {
		return Snapshot{Reading: Placeholder(l.now()), Origin: OriginPlaceholder}, nil
	}
	s := *l.snapshot
	s.Reading.Alerts = append([]string{}, s.Reading.Alerts...)
	return s, nil
}
