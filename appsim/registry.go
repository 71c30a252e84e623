package appsim

import (
	"strings"

	"github.com/martenwallewein/sapexf-simulation/simclock"
)

// Registry is the ApplicationRegistry of spec.md 4.10: a mapping from
// router_path to the set of applications currently using it.
type Registry struct {
	byPath map[string][]*Application
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string][]*Application)}
}

func registryKey(path []string) string {
	return strings.Join(path, ">")
}

// Register records that app is now using path.
func (r *Registry) Register(path []string, app *Application) {
	k := registryKey(path)
	r.byPath[k] = append(r.byPath[k], app)
}

// Deregister removes app from path's registered set.
func (r *Registry) Deregister(path []string, app *Application) {
	k := registryKey(path)
	list := r.byPath[k]
	for i, a := range list {
		if a == app {
			r.byPath[k] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// NotifyPathDown invokes on_path_down on every application registered
// under path, in insertion order, then clears that path's registration
// (each notified app re-registers itself once it selects a new path).
// A snapshot is taken before iterating since callbacks mutate the
// underlying map (spec.md 5's snapshot-before-iterating rule).
func (r *Registry) NotifyPathDown(sched *simclock.Scheduler, path []string) {
	k := registryKey(path)
	apps := append([]*Application(nil), r.byPath[k]...)
	delete(r.byPath, k)
	for _, app := range apps {
		notifyOne(sched, app)
	}
}

// notifyOne isolates one app's callback so a panic in it cannot stop
// the remaining notifications (spec.md 4.10: "exceptions in one
// callback do not prevent others").
func notifyOne(sched *simclock.Scheduler, app *Application) {
	defer func() { recover() }()
	app.onPathDown(sched)
}
