package topology

import (
	"github.com/martenwallewein/sapexf-simulation/simclock"
)

// Link is a directional per-ordered-pair channel between two routers.
// It carries an in-order FIFO queue and exactly one transmission task,
// so that packets are always delivered in enqueue order (spec.md 4.2).
type Link struct {
	FromRouter    string
	ToRouter      string
	LatencyMs     float64
	BandwidthMbps float64

	dst     *Router
	queue   []WireMsg
	running bool
}

// NewLink is a constructor.
func NewLink(from, to string, latencyMs, bandwidthMbps float64, dst *Router) *Link {
	return &Link{
		FromRouter:    from,
		ToRouter:      to,
		LatencyMs:     latencyMs,
		BandwidthMbps: bandwidthMbps,
		dst:           dst,
	}
}

// Enqueue appends msg to the FIFO queue and starts the delivery task if
// it is currently idle.
func (l *Link) Enqueue(sched *simclock.Scheduler, msg WireMsg) {
	l.queue = append(l.queue, msg)
	if !l.running {
		l.running = true
		sched.Schedule(l, nil, deliverHead)
	}
}

// transmissionDelayMs computes (size*8)/(bandwidth_mbps*1000) ms.
func (l *Link) transmissionDelayMs(sizeBytes int) float64 {
	bits := float64(sizeBytes) * 8.0
	return bits / (l.BandwidthMbps * 1000.0)
}

// deliverHead pops the head of the queue and holds the link for its
// transmission delay. Once transmitted, the message reaches the
// destination router after the propagation latency, while the link
// moves on to the next queued message (or goes idle). Every message on
// a link sees the same latency, so arrivals keep enqueue order.
func deliverHead(sched *simclock.Scheduler, ctx any, _ any) {
	l := ctx.(*Link)
	if len(l.queue) == 0 {
		l.running = false
		return
	}
	msg := l.queue[0]
	l.queue = l.queue[1:]

	xmit := l.transmissionDelayMs(msg.WireSize())
	sched.After(xmit, l, msg, func(sched *simclock.Scheduler, ctx any, data any) {
		ln := ctx.(*Link)
		m := data.(WireMsg)
		sched.After(ln.LatencyMs, ln, m, func(sched *simclock.Scheduler, ctx any, data any) {
			data.(WireMsg).Deliver(sched, ctx.(*Link).dst)
		})
		deliverHead(sched, ln, nil)
	})
}
