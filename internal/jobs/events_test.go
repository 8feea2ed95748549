package jobs

import (
	"testing"

	"storygen/internal/domain"
)

func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(10)
	bus.Publish(Event{JobID: 1, Status: domain.WireStatusQueued})
	bus.Publish(Event{JobID: 1, Status: domain.WireStatusRunning})
	bus.Publish(Event{JobID: 1, Status: domain.WireStatusSucceeded})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
	if events[0].Status != domain.WireStatusRunning || events[1].Status != domain.WireStatusSucceeded {
		t.Fatalf("unexpected statuses: %+v", events)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatalf("timestamp not assigned: %+v", events[0])
	}
}

func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{JobID: 1, Status: domain.WireStatusQueued})
	bus.Publish(Event{JobID: 2, Status: domain.WireStatusQueued})
	bus.Publish(Event{JobID: 3, Status: domain.WireStatusQueued})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].JobID != 2 || events[1].JobID != 3 {
		t.Fatalf("unexpected events: %+v", events)
	}
}
