// Package session owns the live swim workout: a single-writer state machine
// fed by asynchronous tracking-service events, a metrics aggregator, and the
// lap buffer that freezes into an immutable models.Swim when the workout
// ends.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/google/uuid"
)

// State is the session lifecycle position. Idle is initial; Ended and Failed
// are terminal.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateEnding
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Session is the live workout state machine. One live instance per device at
// a time. All state is guarded by a single mutex; asynchronous deliveries are
// serialized through a Mailbox so two samples, or a sample racing a lap
// event, can never corrupt the lap buffer or the aggregator.
//
// Invalid operation calls (pause while idle, duplicate end during the stop
// window) are silent no-ops, never errors: UI double-taps are expected.
type Session struct {
	mu      sync.Mutex
	now     func() time.Time
	tracker Tracker
	log     *slog.Logger

	state        State
	cfg          Config
	startPending bool
	startTime    time.Time
	openLapStart time.Time
	laps         []models.Lap
	agg          Aggregator
	failure      error
	result       *models.Swim
}

// New creates an idle session bound to a tracking service.
func New(tracker Tracker, log *slog.Logger) *Session {
	return &Session{
		now:     time.Now,
		tracker: tracker,
		log:     log,
		state:   StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start requests collection from the tracking service. Valid only from Idle;
// a no-op otherwise. The transition to Running (or Failed) happens when the
// service's completion arrives via CompleteStart. An immediate enqueue
// failure fails the session right away.
func (s *Session) Start(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle || s.startPending {
		s.log.Warn("start ignored", "state", s.state)
		return nil
	}
	// Config retained even on failure for diagnostics.
	s.cfg = cfg
	if err := s.tracker.StartCollection(ctx, cfg); err != nil {
		s.state = StateFailed
		s.failure = &StartError{Cause: err}
		s.log.Error("start collection rejected", "error", err)
		return s.failure
	}
	s.startPending = true
	return nil
}

// CompleteStart applies the tracking service's asynchronous start outcome.
func (s *Session) CompleteStart(startErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.startPending {
		return nil
	}
	s.startPending = false
	if startErr != nil {
		s.state = StateFailed
		s.failure = &StartError{Cause: startErr}
		s.log.Error("start collection failed", "error", startErr)
		return s.failure
	}
	s.state = StateRunning
	s.startTime = s.now()
	s.openLapStart = s.startTime
	s.log.Info("session running", "location", s.cfg.Location, "start", s.startTime)
	return nil
}

// Pause suspends a running session. No-op otherwise.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.state = StatePaused
	s.log.Info("session paused")
}

// Resume continues a paused session. No-op otherwise.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return
	}
	s.state = StateRunning
	s.log.Info("session resumed")
}

// RecordLap closes the open lap at the current instant and appends it to the
// buffer. The next lap opens where this one ended. Valid while Running or
// Paused; rejected (no-op) otherwise. Lap order is authoritative append
// order; nothing is ever inserted retroactively.
func (s *Session) RecordLap(style *models.StrokeStyle, efficiencyScore *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning && s.state != StatePaused {
		s.log.Warn("lap ignored", "state", s.state)
		return
	}
	end := s.now()
	s.laps = append(s.laps, models.Lap{
		StartTime:       s.openLapStart,
		EndTime:         end,
		StrokeStyle:     style,
		EfficiencyScore: efficiencyScore,
	})
	s.openLapStart = end
	s.log.Debug("lap recorded", "number", len(s.laps), "end", end)
}

// IngestStatistic routes a sample to the aggregator. Accepted in every
// non-terminal state — including Ending, since collection teardown is not
// instantaneous and stragglers must still be folded in.
func (s *Session) IngestStatistic(sample models.StatisticSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded || s.state == StateFailed {
		return
	}
	s.agg.Ingest(sample)
}

// End requests collection stop. Valid from Running or Paused; a no-op in any
// other state, including a repeated call while the stop is in flight.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning && s.state != StatePaused {
		s.log.Warn("end ignored", "state", s.state)
		return nil
	}
	s.state = StateEnding
	if err := s.tracker.StopCollection(ctx); err != nil {
		// Could not even enqueue the stop. Fail, but keep the data.
		s.failure = &EndError{Cause: err}
		s.freeze(s.now())
		s.state = StateFailed
		s.log.Error("stop collection rejected", "error", err)
		return s.failure
	}
	return nil
}

// CompleteStop applies the tracking service's asynchronous stop outcome and
// freezes the session into a Swim snapshot. On a reported stop failure the
// session is Failed, but the snapshot built from the buffered laps is still
// returned — data loss is avoided even on a soft failure.
func (s *Session) CompleteStop(stopTime time.Time, stopErr error) (*models.Swim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEnding {
		return nil, nil
	}
	s.freeze(stopTime)
	if stopErr != nil {
		s.state = StateFailed
		s.failure = &EndError{Cause: stopErr}
		s.log.Error("stop collection failed", "error", stopErr)
		return s.result, s.failure
	}
	s.state = StateEnded
	s.log.Info("session ended", "laps", len(s.result.Laps), "duration", s.result.Duration())
	return s.result, nil
}

// freeze builds the immutable Swim snapshot from the buffer as of endTime.
// A lap still open when the stop lands is closed at endTime. Caller holds mu.
func (s *Session) freeze(endTime time.Time) {
	laps := make([]models.Lap, len(s.laps))
	copy(laps, s.laps)
	if endTime.After(s.openLapStart) {
		laps = append(laps, models.Lap{StartTime: s.openLapStart, EndTime: endTime})
	}
	m := s.agg.Snapshot()
	s.result = &models.Swim{
		ID:                uuid.New(),
		StartTime:         s.startTime,
		EndTime:           endTime,
		LocationType:      s.cfg.Location,
		PoolLength:        s.cfg.PoolLength,
		PoolUnit:          s.cfg.PoolUnit,
		TotalDistance:     m.Distance,
		TotalEnergyBurned: m.ActiveEnergy,
		Laps:              laps,
	}
}

// Result returns the frozen swim and the terminal failure, if any. Nil until
// the session reaches a terminal state.
func (s *Session) Result() (*models.Swim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.failure
}

// Laps copies the current lap buffer.
func (s *Session) Laps() []models.Lap {
	s.mu.Lock()
	defer s.mu.Unlock()
	laps := make([]models.Lap, len(s.laps))
	copy(laps, s.laps)
	return laps
}

// Metrics snapshots the aggregator.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Snapshot()
}

// Reset returns a terminal session to Idle, discarding in-memory state. The
// only cancellation primitive; permitted only in terminal states so in-flight
// data cannot be lost.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEnded && s.state != StateFailed {
		s.log.Warn("reset ignored", "state", s.state)
		return
	}
	s.state = StateIdle
	s.cfg = Config{}
	s.startPending = false
	s.startTime = time.Time{}
	s.openLapStart = time.Time{}
	s.laps = nil
	s.agg.reset()
	s.failure = nil
	s.result = nil
	s.log.Info("session reset")
}
