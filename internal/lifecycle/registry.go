package lifecycle

import (
	"sort"
	"time"
)

// Names of the dashboard actions.
const (
	IOCSync            = "ioc-sync"
	KEVSync            = "kev-sync"
	Correlate          = "correlate"
	Report             = "report"
	LeakUpload         = "leak-upload"
	RansomwareMap      = "ransomware-map"
	InsiderInvestigate = "insider-investigate"
	AuditExport        = "audit-export"
	RepoScan           = "repo-scan"
	FeedSync           = "feed-sync"
)

var ActionNames = []string{IOCSync, KEVSync, Correlate, Report, LeakUpload, RansomwareMap, InsiderInvestigate, AuditExport, RepoScan, FeedSync}

// Registry holds the named actions of one dashboard.
type Registry struct {
	actions map[string]*Action
}

// NewRegistry creates every named action with the same display window and options.
func NewRegistry(window time.Duration, opts ...Option) *Registry {
	r := &Registry{actions: make(map[string]*Action, len(ActionNames))}
	for _, name := range ActionNames {
		r.actions[name] = NewAction(name, window, opts...)
	}
	return r
}

func (r *Registry) Get(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Statuses returns a snapshot of every action, sorted by name.
func (r *Registry) Statuses() []Status {
	out := make([]Status, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

func (r *Registry) Stop() {
	for _, a := range r.actions {
		a.Stop()
	}
}
