package domain

import "fmt"

// HoursPerDay is the fixed size of the hourly activity table.
const HoursPerDay = 24

// HourlyBucket accumulates opens and clicks for one hour of the day.
// Buckets are never removed, only incremented.
type HourlyBucket struct {
	Hour   string `json:"hour"`
	Opens  int    `json:"opens"`
	Clicks int    `json:"clicks"`
}

// Snapshot is the complete aggregate metrics state pushed to subscribers.
// Every broadcast carries a full snapshot, never a delta, so a dropped
// message only causes staleness until the next push.
type Snapshot struct {
	Opens           int            `json:"opens"`
	Clicks          int            `json:"clicks"`
	Bounces         int            `json:"bounces"`
	Delivered       int            `json:"delivered"`
	UniqueOpens     int            `json:"uniqueOpens"`
	ClickRate       float64        `json:"clickRate"`
	EngagementScore float64        `json:"engagementScore"`
	HourlyActivity  []HourlyBucket `json:"hourlyActivity"`
	Timestamp       int64          `json:"timestamp"`
}

// NewSnapshot returns an all-zero snapshot with the full 24-entry hourly
// table, keyed "0:00" through "23:00" in hour order.
func NewSnapshot() Snapshot {
	hours := make([]HourlyBucket, HoursPerDay)
	for h := range hours {
		hours[h] = HourlyBucket{Hour: HourLabel(h)}
	}
	return Snapshot{HourlyActivity: hours}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.HourlyActivity = make([]HourlyBucket, len(s.HourlyActivity))
	copy(out.HourlyActivity, s.HourlyActivity)
	return out
}

// HourLabel formats an hour of day (0-23) as a bucket key, e.g. "5:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

// Patch is a typed partial update for a snapshot. Nil fields are left
// untouched; set fields override the current value as-is.
type Patch struct {
	Opens           *int     `json:"opens,omitempty"`
	Clicks          *int     `json:"clicks,omitempty"`
	Bounces         *int     `json:"bounces,omitempty"`
	Delivered       *int     `json:"delivered,omitempty"`
	UniqueOpens     *int     `json:"uniqueOpens,omitempty"`
	ClickRate       *float64 `json:"clickRate,omitempty"`
	EngagementScore *float64 `json:"engagementScore,omitempty"`
}

// ActivityDelta is a batch of non-negative counter increments applied in one
// step, used for synthetic activity. Opens and Clicks also land in the
// current-hour bucket.
type ActivityDelta struct {
	Opens       int
	Clicks      int
	Delivered   int
	UniqueOpens int
}

// Tracker is the write side of the metrics state. All mutations go through
// these methods; nothing else may touch the snapshot.
type Tracker interface {
	// RecordOpen registers one open event. hour is a bucket key like "5:00";
	// empty or unparsable values fall back to the current wall-clock hour.
	RecordOpen(hour string)
	// RecordClick registers one click event, same hour resolution as RecordOpen.
	RecordClick(hour string)
	// RecordActivity applies a batch of increments through the same
	// recompute-and-broadcast path as single events.
	RecordActivity(delta ActivityDelta)
	// Update merges a partial patch into the snapshot. It stamps a timestamp
	// and broadcasts, but does not recompute derived scores.
	Update(patch Patch)
	// Snapshot returns a copy of the current state with a fresh timestamp.
	Snapshot() Snapshot
}

// Publisher fans the given snapshot out to all connected subscribers.
type Publisher interface {
	Publish(snapshot Snapshot)
}
