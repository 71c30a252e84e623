// Package appsim implements the application traffic model and the
// scheduled path-failure event system of spec.md 4.10/4.11: a flow
// that selects a path, paces data packets across it, reacts to
// path-down notifications by re-selecting, and the EventManager that
// drives scheduled path_down/path_up events. Grounded on the teacher's
// (ITI-mrnes) flow.go/flow-sim.go state-machine style (a struct with
// an explicit state field and a handler per transition scheduled
// through the same Scheduler).
package appsim

import (
	"fmt"
	"math"

	"github.com/martenwallewein/sapexf-simulation/simclock"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

// DefaultPacketSize is the default application packet size in bytes
// (spec.md 4.10). 1000, not 1024, to match the decimal KB/Mbps
// convention used throughout (spec.md 8 scenario S1: 5000 KB / 1 KB =
// 5000 packets exactly; Link.transmissionDelayMs uses bandwidth_mbps*
// 1000 the same way).
const DefaultPacketSize = 1000

// RetryDelayMs is how long a flow waits before retrying select_path
// after getting None (spec.md 4.10 step 2, 4.11 "selecting self-loop").
const RetryDelayMs = 10.0

// State is an Application's position in the state machine of spec.md
// 4.11.
type State int

const (
	StateWaitingStart State = iota
	StateSelecting
	StateSending
	StateDone
)

func (s State) String() string {
	switch s {
	case StateWaitingStart:
		return "waiting_start"
	case StateSelecting:
		return "selecting"
	case StateSending:
		return "sending"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Application is one traffic flow (spec.md 4.10).
type Application struct {
	Name               string
	SrcHost, DstHost   string // full "AS,addr" host ids
	SrcAS, DstAS       string
	StartMs            float64
	TotalBytes         int
	PacketSize         int

	Topo      *topology.Topology
	Algorithm topology.PathSelector
	Registry  *Registry
	Trace     *trace.Manager

	state     State
	path      []string
	bytesSent int

	Sent, Received, Lost int
	Latencies             []float64
}

// New constructs an Application with its default packet size applied.
func New(name, srcHost, dstHost, srcAS, dstAS string, startMs float64, totalBytes int,
	topo *topology.Topology, algo topology.PathSelector, reg *Registry, tm *trace.Manager) *Application {
	return &Application{
		Name: name, SrcHost: srcHost, DstHost: dstHost, SrcAS: srcAS, DstAS: dstAS,
		StartMs: startMs, TotalBytes: totalBytes, PacketSize: DefaultPacketSize,
		Topo: topo, Algorithm: algo, Registry: reg, Trace: tm,
	}
}

// State returns the application's current lifecycle state.
func (app *Application) State() State { return app.state }

// Start schedules step 1 of spec.md 4.10: attach this application as
// the packet sink of both its endpoints, then wait until StartMs.
func (app *Application) Start(sched *simclock.Scheduler) {
	if src, ok := app.Topo.Host(app.SrcHost); ok {
		src.Sink = app
	}
	if dst, ok := app.Topo.Host(app.DstHost); ok {
		dst.Sink = app
	}
	app.state = StateWaitingStart
	delay := app.StartMs - sched.NowMs()
	if delay < 0 {
		delay = 0
	}
	sched.After(delay, app, nil, waitStart)
}

func waitStart(sched *simclock.Scheduler, ctx, _ any) {
	app := ctx.(*Application)
	app.state = StateSelecting
	trySelect(sched, app)
}

func retrySelect(sched *simclock.Scheduler, ctx, _ any) {
	trySelect(sched, ctx.(*Application))
}

// trySelect implements step 2 / the "selecting" state of spec.md 4.10:
// query select_path; advance to sending on success, otherwise self-loop
// with a 10ms delay, terminating if the simulation has ended.
func trySelect(sched *simclock.Scheduler, app *Application) {
	if sched.Ended() {
		return
	}
	path, ok := app.Algorithm.SelectPath(app.SrcAS, app.DstAS)
	if !ok {
		sched.After(RetryDelayMs, app, nil, retrySelect)
		return
	}
	app.path = path
	app.Registry.Register(path, app)
	app.state = StateSending
	app.Trace.Logf(sched.NowMs(), "app-sending",
		fmt.Sprintf("%s selected path %v", app.Name, path))
	sched.Schedule(app, nil, sendStep)
}

// sendStep emits one packet and reschedules itself after the inter-
// packet gap, until TotalBytes have been sent (spec.md 4.10 step 4).
func sendStep(sched *simclock.Scheduler, ctx, _ any) {
	app := ctx.(*Application)
	if sched.Ended() {
		return
	}
	if app.state != StateSending {
		return // path went down between scheduling and firing
	}
	if app.bytesSent >= app.TotalBytes {
		app.finish(sched)
		return
	}

	size := app.PacketSize
	if remaining := app.TotalBytes - app.bytesSent; remaining < size {
		size = remaining
	}
	pkt := &topology.DataPacket{
		SrcHost:  app.SrcHost,
		DstHost:  app.DstHost,
		Path:     append([]string(nil), app.path...),
		Size:     size,
		SendTime: sched.NowMs(),
	}
	app.bytesSent += size
	app.Sent++
	if src, ok := app.Topo.Host(app.SrcHost); ok {
		src.Send(sched, app.Topo, pkt)
	}

	sched.After(app.interPacketGapMs(), app, nil, sendStep)
}

// interPacketGapMs paces packets at the bottleneck bandwidth along the
// currently selected path (spec.md 4.10: "inter-packet gap derived
// from bandwidth budget").
func (app *Application) interPacketGapMs() float64 {
	bw := app.bottleneckBandwidthMbps()
	if bw <= 0 {
		return 1.0
	}
	return (float64(app.PacketSize) * 8.0 / 1000.0) / bw
}

func (app *Application) bottleneckBandwidthMbps() float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(app.path); i++ {
		if l, ok := app.Topo.Links[[2]string{app.path[i], app.path[i+1]}]; ok {
			if l.BandwidthMbps < best {
				best = l.BandwidthMbps
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// finish implements step 7: mark done and deregister.
func (app *Application) finish(sched *simclock.Scheduler) {
	app.state = StateDone
	app.Registry.Deregister(app.path, app)
	app.Trace.Logf(sched.NowMs(), "app-done",
		fmt.Sprintf("%s sent %d bytes in %d packets", app.Name, app.bytesSent, app.Sent))
}

// onPathDown implements step 6: the registry's path_down callback.
func (app *Application) onPathDown(sched *simclock.Scheduler) {
	if app.state == StateDone {
		return
	}
	app.path = nil
	app.state = StateSelecting
	app.Trace.Logf(sched.NowMs(), "app-path-down", fmt.Sprintf("%s path down, reselecting", app.Name))
	trySelect(sched, app)
}

// Deliver implements topology.PacketSink: a data packet addressed to
// this flow's destination host has arrived.
func (app *Application) Deliver(pkt *topology.DataPacket, nowMs float64) {
	app.Received++
	app.Latencies = append(app.Latencies, nowMs-pkt.SendTime)
}

// Loss implements topology.PacketSink: a packet sent from this flow's
// source host was dropped in transit.
func (app *Application) Loss(pkt *topology.DataPacket) {
	app.Lost++
}
