// Package simulator fabricates email activity on a fixed interval so the
// dashboard is never static before real tracking events exist. It drives the
// tracker through the same path as real events and can be left out of the
// wiring entirely without touching the handler or broadcaster.
package simulator

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shaneah/infyemailer-sub010/internal/domain"
	"github.com/shaneah/infyemailer-sub010/internal/metrics"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 3 * time.Second

// Per-tick increment ranges, inclusive.
const (
	minOpens, maxOpens             = 1, 5
	minClicks, maxClicks           = 0, 2
	minDelivered, maxDelivered     = 3, 10
	minUniqueOpens, maxUniqueOpens = 1, 3
)

// Simulator generates synthetic activity batches until stopped.
type Simulator struct {
	tracker  domain.Tracker
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a stopped simulator. An interval of zero or less falls back to
// DefaultInterval.
func New(tracker domain.Tracker, clock clockwork.Clock, interval time.Duration) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Simulator{
		tracker:  tracker,
		clock:    clock,
		interval: interval,
	}
}

// Start launches the generation loop. Calling it while running is a no-op.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	slog.Info("Simulator starting", "interval", s.interval)
	go s.run(s.stopCh, s.done)
}

// Stop halts the loop and waits for it to exit. Safe to call when stopped.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
}

func (s *Simulator) run(stopCh, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			slog.Info("Simulator stopped")
			return
		case <-ticker.Chan():
			s.tick()
		}
	}
}

func (s *Simulator) tick() {
	delta := domain.ActivityDelta{
		Opens:       randBetween(minOpens, maxOpens),
		Clicks:      randBetween(minClicks, maxClicks),
		Delivered:   randBetween(minDelivered, maxDelivered),
		UniqueOpens: randBetween(minUniqueOpens, maxUniqueOpens),
	}
	s.tracker.RecordActivity(delta)
	metrics.SimulatorTicksTotal.Inc()
}

func randBetween(low, high int) int {
	return low + rand.IntN(high-low+1)
}
