package appsim

import (
	"fmt"
	"sort"

	"github.com/martenwallewein/sapexf-simulation/simclock"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

// Event is one scheduled path_down/path_up event (spec.md 3).
type Event struct {
	Kind        string // "path_down" | "path_up"
	TimeMs      float64
	Path        []string
	Description string
}

// EventManager drives the scheduled events of spec.md 4.10.
type EventManager struct {
	Algorithm topology.PathSelector
	Registry  *Registry
	Trace     *trace.Manager

	events []*Event
}

// NewEventManager constructs an EventManager with events sorted by
// time (spec.md 4.10: "Holds scheduled events sorted by time").
func NewEventManager(algo topology.PathSelector, reg *Registry, tm *trace.Manager, events []*Event) *EventManager {
	sorted := append([]*Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TimeMs < sorted[j].TimeMs })
	return &EventManager{Algorithm: algo, Registry: reg, Trace: tm, events: sorted}
}

// Start schedules every event. An event whose time is already in the
// past relative to now fires immediately (delay clamped to 0).
func (em *EventManager) Start(sched *simclock.Scheduler) {
	for _, ev := range em.events {
		delay := ev.TimeMs - sched.NowMs()
		if delay < 0 {
			delay = 0
		}
		sched.After(delay, &eventTask{em: em, ev: ev}, nil, fireEvent)
	}
}

type eventTask struct {
	em *EventManager
	ev *Event
}

func fireEvent(sched *simclock.Scheduler, ctx, _ any) {
	t := ctx.(*eventTask)
	t.em.fire(sched, t.ev)
}

func (em *EventManager) fire(sched *simclock.Scheduler, ev *Event) {
	switch ev.Kind {
	case "path_down":
		em.Algorithm.MarkPathDown(ev.Path)
		em.Trace.Logf(sched.NowMs(), "event", fmt.Sprintf("path_down %v %s", ev.Path, ev.Description))
		em.Registry.NotifyPathDown(sched, ev.Path)
	case "path_up":
		em.Algorithm.MarkPathUp(ev.Path)
		em.Trace.Logf(sched.NowMs(), "event", fmt.Sprintf("path_up %v %s", ev.Path, ev.Description))
	default:
		em.Trace.Logf(sched.NowMs(), "event-unknown", fmt.Sprintf("unknown event type %q ignored", ev.Kind))
	}
}
