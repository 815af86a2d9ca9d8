package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
)

// EventKind discriminates mailbox events.
type EventKind int

const (
	EventStatistic EventKind = iota
	EventLap
	EventCollectionStarted
	EventCollectionStopped
)

// Event is one typed delivery from the platform adapter: a statistic sample,
// a lap boundary, or a collection start/stop completion.
type Event struct {
	Kind            EventKind
	Sample          models.StatisticSample
	StrokeStyle     *models.StrokeStyle
	EfficiencyScore *float64
	Timestamp       time.Time
	Err             error
}

// Mailbox serializes asynchronous deliveries into a single logical event
// stream. The platform adapter pushes typed events from whatever goroutine it
// runs on; exactly one consuming loop applies them to the session, giving
// deterministic single-writer semantics.
type Mailbox struct {
	session *Session
	events  chan Event
}

// NewMailbox creates a mailbox with the given buffer size.
func NewMailbox(s *Session, buffer int) *Mailbox {
	return &Mailbox{
		session: s,
		events:  make(chan Event, buffer),
	}
}

// Start launches the consuming loop. It drains remaining buffered events
// before honoring cancellation so a stop completion already delivered is
// never dropped.
func (m *Mailbox) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case ev := <-m.events:
				m.apply(ev)
			case <-ctx.Done():
				for {
					select {
					case ev := <-m.events:
						m.apply(ev)
					default:
						m.session.log.Info("mailbox stopped")
						return
					}
				}
			}
		}
	}()
}

// Deliver enqueues an event. Blocks briefly when the buffer is full rather
// than dropping sensor data silently.
func (m *Mailbox) Deliver(ev Event) error {
	select {
	case m.events <- ev:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("mailbox full, event %d dropped", ev.Kind)
	}
}

func (m *Mailbox) apply(ev Event) {
	switch ev.Kind {
	case EventStatistic:
		m.session.IngestStatistic(ev.Sample)
	case EventLap:
		m.session.RecordLap(ev.StrokeStyle, ev.EfficiencyScore)
	case EventCollectionStarted:
		if err := m.session.CompleteStart(ev.Err); err != nil {
			m.session.log.Error("collection start failed", "error", err)
		}
	case EventCollectionStopped:
		if _, err := m.session.CompleteStop(ev.Timestamp, ev.Err); err != nil {
			m.session.log.Error("collection stop failed", "error", err)
		}
	default:
		m.session.log.Warn("unknown event kind", "kind", ev.Kind)
	}
}
