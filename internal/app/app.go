// Package app is the dashboard service. It owns the entity collections, the
// named actions and the deferred asset verification, and wires them to the
// persistence gateway, the intelligence gateway, metrics and events.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sloppy/threatone/internal/audit"
	"github.com/sloppy/threatone/internal/config"
	"github.com/sloppy/threatone/internal/db"
	"github.com/sloppy/threatone/internal/events"
	"github.com/sloppy/threatone/internal/gateway"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/logger"
	"github.com/sloppy/threatone/internal/metrics"
	"github.com/sloppy/threatone/internal/secret"
	"github.com/sloppy/threatone/internal/store"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
	minuteLayout   = "2006-01-02 15:04"
)

// Options configures a Dashboard. Store is required; everything else has a
// usable default.
type Options struct {
	Store   db.Store
	Sealer  *secret.Sealer
	Metrics *metrics.Metrics
	Events  events.Publisher
	Timings config.Timings
	Gemini  config.Gemini
	// Gateway overrides the Gemini client built from Gemini.
	Gateway gateway.Intelligence
	// Offline disables every intelligence call.
	Offline bool
	Now     func() time.Time
}

// Selections hold the detail-panel selection of each view.
type Selections struct {
	IOC      store.Selection[string]
	Actor    store.Selection[string]
	Asset    store.Selection[string]
	Victim   store.Selection[string]
	Leak     store.Selection[string]
	Vuln     store.Selection[string]
	Repo     store.Selection[string]
	Feed     store.Selection[string]
	Question store.Selection[int64]
}

// Dashboard is the in-memory intelligence model of one running instance.
type Dashboard struct {
	IOCs      *store.Collection[string, intel.IOC]
	Actors    *store.Collection[string, intel.ThreatActor]
	Assets    *store.Collection[string, intel.ScopeAsset]
	Victims   *store.Collection[string, intel.RansomwareVictim]
	Leaks     *store.Collection[string, intel.LeakedCredential]
	Vulns     *store.Collection[string, intel.Vulnerability]
	Forum     *store.Collection[string, intel.ForumPost]
	Chats     *store.Collection[string, intel.ChatMessage]
	Repos     *store.Collection[string, intel.RepoExposure]
	Feeds     *store.Collection[string, intel.ThreatFeed]
	Questions *store.Collection[int64, intel.AuditQuestion]

	Selected Selections
	Actions  *lifecycle.Registry
	Audit    *audit.Run
	Metrics  *metrics.Metrics

	db             db.Store
	sealer         *secret.Sealer
	events         events.Publisher
	gateway        gateway.Intelligence
	gatewayTimeout time.Duration
	timings        config.Timings
	verify         *lifecycle.Scheduler[string]
	now            func() time.Time

	mu     sync.RWMutex
	hits   []intel.CorrelationHit
	report Report
}

// New builds a dashboard, loads the persisted tables and seeds the rest.
func New(opts Options) (*Dashboard, error) {
	if opts.Store == nil {
		return nil, errors.New("dashboard requires a store")
	}
	d := &Dashboard{
		db:             opts.Store,
		sealer:         opts.Sealer,
		Metrics:        opts.Metrics,
		events:         opts.Events,
		timings:        opts.Timings,
		gatewayTimeout: opts.Gemini.Timeout,
		now:            opts.Now,
		Audit:          audit.NewRun(),
		verify:         lifecycle.NewScheduler[string](),
	}
	if d.sealer == nil {
		s, _, err := secret.FromConfig("")
		if err != nil {
			return nil, err
		}
		d.sealer = s
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.events == nil {
		d.events = events.Nop{}
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.gatewayTimeout <= 0 {
		d.gatewayTimeout = 60 * time.Second
	}
	d.gateway = gateway.Observed{Next: d.buildGateway(opts), Observe: d.Metrics.ObserveGateway}

	window := opts.Timings.DisplayWindow
	if window <= 0 {
		window = lifecycle.DefaultWindow
	}
	d.Actions = lifecycle.NewRegistry(window,
		lifecycle.WithClock(d.now),
		lifecycle.WithObserver(d.observeAction),
	)

	d.initCollections()
	if err := d.load(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Dashboard) buildGateway(opts Options) gateway.Intelligence {
	switch {
	case opts.Gateway != nil:
		return opts.Gateway
	case opts.Offline:
		return gateway.Unavailable{}
	}
	gemini := gateway.NewGemini(gateway.GeminiConfig{
		Key:     d.apiKey(opts.Gemini.APIKey),
		Model:   opts.Gemini.Model,
		BaseURL: opts.Gemini.BaseURL,
		Timeout: opts.Gemini.Timeout,
	})
	if opts.Gemini.CacheSize <= 0 {
		return gemini
	}
	return gateway.NewCached(gemini, opts.Gemini.CacheSize, opts.Gemini.CacheTTL)
}

func (d *Dashboard) initCollections() {
	observe := d.Metrics.ObserveMutation
	d.IOCs = store.New(store.Schema[string, intel.IOC]{
		Kind: "ioc", Next: store.UUIDs(), Observe: observe,
		ID:       func(i intel.IOC) string { return i.ID },
		WithID:   func(i intel.IOC, id string) intel.IOC { i.ID = id; return i },
		Validate: intel.IOC.Validate,
	})
	d.Actors = store.New(store.Schema[string, intel.ThreatActor]{
		Kind: "threat_actor", Next: store.UUIDs(), Observe: observe,
		ID:       func(a intel.ThreatActor) string { return a.ID },
		WithID:   func(a intel.ThreatActor, id string) intel.ThreatActor { a.ID = id; return a },
		Validate: intel.ThreatActor.Validate,
	})
	d.Assets = store.New(store.Schema[string, intel.ScopeAsset]{
		Kind: "scope_asset", Next: store.UUIDs(), Observe: observe,
		ID:       func(a intel.ScopeAsset) string { return a.ID },
		WithID:   func(a intel.ScopeAsset, id string) intel.ScopeAsset { a.ID = id; return a },
		Validate: intel.ScopeAsset.Validate,
		Discard:  func(id string) error { return d.db.DeleteAsset(id) },
	})
	d.Victims = store.New(store.Schema[string, intel.RansomwareVictim]{
		Kind: "ransomware_victim", Next: store.UUIDs(), Observe: observe,
		ID:       func(v intel.RansomwareVictim) string { return v.ID },
		WithID:   func(v intel.RansomwareVictim, id string) intel.RansomwareVictim { v.ID = id; return v },
		Validate: intel.RansomwareVictim.Validate,
	})
	d.Leaks = store.New(store.Schema[string, intel.LeakedCredential]{
		Kind: "leaked_credential", Next: store.UUIDs(), Observe: observe,
		ID:       func(c intel.LeakedCredential) string { return c.ID },
		WithID:   func(c intel.LeakedCredential, id string) intel.LeakedCredential { c.ID = id; return c },
		Validate: intel.LeakedCredential.Validate,
	})
	// The catalog is keyed by CVE id and never assigns ids of its own.
	d.Vulns = store.New(store.Schema[string, intel.Vulnerability]{
		Kind: "vulnerability", Next: func() string { return "" }, Observe: observe,
		ID:       func(v intel.Vulnerability) string { return v.CVE },
		WithID:   func(v intel.Vulnerability, _ string) intel.Vulnerability { return v },
		Validate: intel.Vulnerability.Validate,
	})
	d.Forum = store.New(store.Schema[string, intel.ForumPost]{
		Kind: "forum_post", Next: store.UUIDs(), Observe: observe,
		ID:     func(p intel.ForumPost) string { return p.ID },
		WithID: func(p intel.ForumPost, id string) intel.ForumPost { p.ID = id; return p },
	})
	d.Chats = store.New(store.Schema[string, intel.ChatMessage]{
		Kind: "chat_message", Next: store.UUIDs(), Observe: observe,
		ID:     func(m intel.ChatMessage) string { return m.ID },
		WithID: func(m intel.ChatMessage, id string) intel.ChatMessage { m.ID = id; return m },
	})
	d.Repos = store.New(store.Schema[string, intel.RepoExposure]{
		Kind: "repo_exposure", Next: store.UUIDs(), Observe: observe,
		ID:       func(r intel.RepoExposure) string { return r.ID },
		WithID:   func(r intel.RepoExposure, id string) intel.RepoExposure { r.ID = id; return r },
		Validate: intel.RepoExposure.Validate,
	})
	d.Feeds = store.New(store.Schema[string, intel.ThreatFeed]{
		Kind: "threat_feed", Next: store.UUIDs(), Observe: observe,
		ID:       func(f intel.ThreatFeed) string { return f.ID },
		WithID:   func(f intel.ThreatFeed, id string) intel.ThreatFeed { f.ID = id; return f },
		Validate: intel.ThreatFeed.Validate,
	})
	d.Questions = store.New(store.Schema[int64, intel.AuditQuestion]{
		Kind: "audit_question", Next: store.Counter(0), Observe: observe, Append: true,
		ID:       func(q intel.AuditQuestion) int64 { return q.ID },
		WithID:   func(q intel.AuditQuestion, id int64) intel.AuditQuestion { q.ID = id; return q },
		Validate: intel.AuditQuestion.Validate,
		Discard:  func(id int64) error { return d.db.DeleteQuestion(id) },
	})
}

func (d *Dashboard) load() error {
	assets, err := d.db.ListAssets()
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	if err := d.Assets.Load(assets); err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	for _, a := range assets {
		if a.Status == intel.AssetVerifying {
			d.scheduleVerification(a.ID)
		}
	}

	questions, err := d.db.SeedQuestions(intel.SeedQuestions())
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if err := d.Questions.Load(questions); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	leaks := make([]intel.LeakedCredential, 0, len(intel.SeedLeaks()))
	for _, draft := range intel.SeedLeaks() {
		cred, err := d.sealLeak(draft)
		if err != nil {
			return err
		}
		leaks = append(leaks, cred)
	}

	for _, step := range []struct {
		kind string
		load func() error
	}{
		{"iocs", func() error { return d.IOCs.Load(intel.SeedIOCs()) }},
		{"threat actors", func() error { return d.Actors.Load(intel.SeedActors()) }},
		{"ransomware victims", func() error { return d.Victims.Load(intel.SeedVictims()) }},
		{"vulnerabilities", func() error { return d.Vulns.Load(intel.SeedVulnerabilities()) }},
		{"leaked credentials", func() error { return d.Leaks.Load(leaks) }},
		{"forum posts", func() error { return d.Forum.Load(intel.SeedForumPosts()) }},
		{"chat messages", func() error { return d.Chats.Load(intel.SeedChatMessages()) }},
		{"repo exposures", func() error { return d.Repos.Load(intel.SeedRepoExposures()) }},
		{"threat feeds", func() error { return d.Feeds.Load(intel.SeedThreatFeeds()) }},
	} {
		if err := step.load(); err != nil {
			return fmt.Errorf("seed %s: %w", step.kind, err)
		}
	}

	logger.Info("Dashboard loaded",
		"assets", d.Assets.Len(),
		"questions", d.Questions.Len(),
		"iocs", d.IOCs.Len(),
	)
	return nil
}

func (d *Dashboard) sealLeak(draft intel.LeakDraft) (intel.LeakedCredential, error) {
	sealed, err := d.sealer.Seal(draft.Password)
	if err != nil {
		return intel.LeakedCredential{}, fmt.Errorf("seal leaked credential: %w", err)
	}
	return draft.Credential(sealed, secret.Redact(draft.Password)), nil
}

func (d *Dashboard) observeAction(st lifecycle.Status) {
	d.Metrics.ObserveAction(st.Action, st.Phase.String())
	if st.Phase.Settled() {
		d.publish(events.ActionSettled, st)
	}
}

// publish sends an event without ever failing the caller.
func (d *Dashboard) publish(event string, data any) {
	if err := d.events.Publish(context.Background(), event, data); err != nil {
		d.Metrics.IncrementEventPublishErrors()
		logger.Warn("Event publish failed", "event", event, "error", err)
	}
}

// Close stops pending timers and releases the store and the event publisher.
func (d *Dashboard) Close() error {
	d.verify.Stop()
	d.Actions.Stop()
	d.events.Close()
	return d.db.Close()
}
