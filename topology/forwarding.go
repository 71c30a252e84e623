package topology

import (
	"container/heap"

	"github.com/martenwallewein/sapexf-simulation/simclock"
)

// ForwardingProfile bounds how many packets a router model can be
// actively processing at once, and how long each takes to process.
// Adapted from the teacher's multi-core task scheduler (scheduler.go),
// repurposed from CPU-core allocation to router forwarding capacity -
// a small, non-dropping processing cost per packet (spec_full.md 4.1.1).
type ForwardingProfile struct {
	Cores         int
	ServiceTimeMs float64
}

// DefaultForwardingProfile is used when a router's model has no entry
// in the table loaded from the optional --device-exec file.
var DefaultForwardingProfile = ForwardingProfile{Cores: 1, ServiceTimeMs: 0.05}

// fwdTask is one packet admitted to a router's forwarding scheduler.
type fwdTask struct {
	req     float64
	arrived float64
	run     func()
}

type fwdHeap []*fwdTask

func (h fwdHeap) Len() int            { return len(h) }
func (h fwdHeap) Less(i, j int) bool  { return h[i].arrived < h[j].arrived }
func (h fwdHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *fwdHeap) Push(x any)         { *h = append(*h, x.(*fwdTask)) }
func (h *fwdHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// forwardingScheduler is the per-router admission queue: up to Cores
// tasks run concurrently (logically - each just delays its completion by
// ServiceTimeMs), the rest wait FCFS.
type forwardingScheduler struct {
	profile   ForwardingProfile
	inService int
	waiting   fwdHeap
}

func newForwardingScheduler(profile ForwardingProfile) *forwardingScheduler {
	fs := &forwardingScheduler{profile: profile}
	heap.Init(&fs.waiting)
	return fs
}

// admit either starts run immediately (if a core is free) or queues it.
func (fs *forwardingScheduler) admit(sched *simclock.Scheduler, nowMs float64, run func()) {
	task := &fwdTask{req: fs.profile.ServiceTimeMs, arrived: nowMs, run: run}
	if fs.inService < fs.profile.Cores {
		fs.start(sched, task)
		return
	}
	heap.Push(&fs.waiting, task)
}

func (fs *forwardingScheduler) start(sched *simclock.Scheduler, task *fwdTask) {
	fs.inService++
	sched.After(task.req, fs, task, func(sched *simclock.Scheduler, ctx any, data any) {
		t := data.(*fwdTask)
		fs.inService--
		t.run()
		if fs.waiting.Len() > 0 {
			next := heap.Pop(&fs.waiting).(*fwdTask)
			fs.start(sched, next)
		}
	})
}
