package tracking

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/shaneah/infyemailer-sub010/internal/domain"
	"github.com/shaneah/infyemailer-sub010/internal/metrics"
)

const (
	openRateWeight  = 0.25
	clickRateWeight = 0.75
)

// Tracker holds the authoritative metrics counters for the process lifetime.
// All access is serialized through a single mutex so mutation order equals
// broadcast order.
type Tracker struct {
	mu        sync.Mutex
	snapshot  domain.Snapshot
	clock     clockwork.Clock
	publisher domain.Publisher
}

// New creates a Tracker with all-zero counters and a zero-filled hourly
// table. publisher may be nil, in which case mutations are not broadcast.
func New(clock clockwork.Clock, publisher domain.Publisher) *Tracker {
	return &Tracker{
		snapshot:  domain.NewSnapshot(),
		clock:     clock,
		publisher: publisher,
	}
}

// RecordOpen increments opens and unique opens by one and the matching
// hourly bucket, then recomputes derived scores and broadcasts.
func (t *Tracker) RecordOpen(hour string) {
	t.mu.Lock()
	t.snapshot.Opens++
	t.snapshot.UniqueOpens++
	t.snapshot.HourlyActivity[t.hourIndex(hour)].Opens++
	t.recomputeDerived()
	t.publishLocked()
	t.mu.Unlock()

	metrics.TrackingEventsTotal.WithLabelValues("open").Inc()
}

// RecordClick increments clicks by one and the matching hourly bucket, then
// recomputes derived scores and broadcasts.
func (t *Tracker) RecordClick(hour string) {
	t.mu.Lock()
	t.snapshot.Clicks++
	t.snapshot.HourlyActivity[t.hourIndex(hour)].Clicks++
	t.recomputeDerived()
	t.publishLocked()
	t.mu.Unlock()

	metrics.TrackingEventsTotal.WithLabelValues("click").Inc()
}

// RecordActivity applies a batch of increments in one step, through the same
// recompute-and-broadcast path as single events. Opens and clicks land in
// the current-hour bucket.
func (t *Tracker) RecordActivity(delta domain.ActivityDelta) {
	t.mu.Lock()
	t.snapshot.Opens += delta.Opens
	t.snapshot.Clicks += delta.Clicks
	t.snapshot.Delivered += delta.Delivered
	t.snapshot.UniqueOpens += delta.UniqueOpens
	bucket := &t.snapshot.HourlyActivity[t.currentHour()]
	bucket.Opens += delta.Opens
	bucket.Clicks += delta.Clicks
	t.recomputeDerived()
	t.publishLocked()
	t.mu.Unlock()

	metrics.TrackingEventsTotal.WithLabelValues("batch").Inc()
}

// Update merges the patch field by field, stamps a timestamp and broadcasts.
// Unlike the record path it does not recompute derived scores.
func (t *Tracker) Update(patch domain.Patch) {
	t.mu.Lock()
	if patch.Opens != nil {
		t.snapshot.Opens = *patch.Opens
	}
	if patch.Clicks != nil {
		t.snapshot.Clicks = *patch.Clicks
	}
	if patch.Bounces != nil {
		t.snapshot.Bounces = *patch.Bounces
	}
	if patch.Delivered != nil {
		t.snapshot.Delivered = *patch.Delivered
	}
	if patch.UniqueOpens != nil {
		t.snapshot.UniqueOpens = *patch.UniqueOpens
	}
	if patch.ClickRate != nil {
		t.snapshot.ClickRate = *patch.ClickRate
	}
	if patch.EngagementScore != nil {
		t.snapshot.EngagementScore = *patch.EngagementScore
	}
	t.publishLocked()
	t.mu.Unlock()

	metrics.TrackingEventsTotal.WithLabelValues("patch").Inc()
}

// Snapshot returns a copy of the current state with a fresh timestamp.
func (t *Tracker) Snapshot() domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stampedCopy()
}

// recomputeDerived reapplies the score formulas. ClickRate is only touched
// while UniqueOpens is positive; with zero unique opens it keeps its prior
// value, even if UniqueOpens was zeroed via Update after being positive.
// Known quirk, kept deliberately (DESIGN.md).
func (t *Tracker) recomputeDerived() {
	if t.snapshot.UniqueOpens > 0 {
		t.snapshot.ClickRate = float64(t.snapshot.Clicks) / float64(t.snapshot.UniqueOpens) * 100
	}

	delivered := t.snapshot.Delivered
	if delivered < 1 {
		delivered = 1
	}
	openRate := float64(t.snapshot.UniqueOpens) / float64(delivered) * 100

	score := openRateWeight*openRate + clickRateWeight*t.snapshot.ClickRate
	t.snapshot.EngagementScore = min(max(score, 0), 100)
}

// hourIndex resolves a bucket key like "5:00" to its table index. Empty or
// unparsable input falls back to the current wall-clock hour: the record
// path is fire-and-forget, so a bad hour must not drop the event.
func (t *Tracker) hourIndex(hour string) int {
	if hour == "" {
		return t.currentHour()
	}
	h, _, ok := strings.Cut(hour, ":")
	if !ok {
		h = hour
	}
	idx, err := strconv.Atoi(h)
	if err != nil || idx < 0 || idx >= domain.HoursPerDay {
		slog.Debug("Unparsable hour bucket, using current hour", "hour", hour)
		return t.currentHour()
	}
	return idx
}

func (t *Tracker) currentHour() int {
	return t.clock.Now().Hour()
}

// stampedCopy must be called with the mutex held.
func (t *Tracker) stampedCopy() domain.Snapshot {
	snap := t.snapshot.Clone()
	snap.Timestamp = t.clock.Now().UnixMilli()
	return snap
}

// publishLocked stamps a copy and hands it to the publisher while the mutex
// is still held, so the publisher sees snapshots in mutation order. The
// publisher only marshals and does a buffered channel send, so holding the
// lock across the call is fine.
func (t *Tracker) publishLocked() {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(t.stampedCopy())
}
