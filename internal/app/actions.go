package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/sloppy/threatone/internal/correlate"
	"github.com/sloppy/threatone/internal/events"
	"github.com/sloppy/threatone/internal/extract"
	"github.com/sloppy/threatone/internal/gateway"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/logger"
	"github.com/sloppy/threatone/internal/scope"
	"github.com/sloppy/threatone/internal/store"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingInput  = errors.New("missing action input")
)

// Report kinds accepted by the report action.
const (
	ReportDaily  = "daily"
	ReportWeekly = "weekly"
)

// UploadedFile is a credential dump handed to the leak-upload action.
type UploadedFile struct {
	Name string
	Data []byte
}

// ActionParams carries the inputs some actions need.
type ActionParams struct {
	ReportKind string        `json:"reportKind,omitempty"`
	VictimID   string        `json:"victimId,omitempty"`
	File       *UploadedFile `json:"-"`
}

// Report is the last generated intelligence report.
type Report struct {
	Kind        string             `json:"kind"`
	Text        string             `json:"text"`
	Citations   []gateway.Citation `json:"citations"`
	CVEs        []CVEMention       `json:"cves"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// CVEMention is a CVE id named in a report and whether the KEV catalog
// lists it.
type CVEMention struct {
	ID        extract.CVEID `json:"id"`
	InCatalog bool          `json:"inCatalog"`
}

// Trigger starts the named action. It reports false without starting
// anything while the action is already pending. Input problems are returned
// before the action leaves Idle.
func (d *Dashboard) Trigger(ctx context.Context, name string, p ActionParams) (<-chan lifecycle.Status, bool, error) {
	action, ok := d.Actions.Get(name)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	fn, err := d.actionFunc(name, p)
	if err != nil {
		return nil, false, err
	}
	done, started := action.Trigger(context.WithoutCancel(ctx), fn)
	if started {
		logger.InfoContext(ctx, "Action started", "action", name)
	}
	return done, started, nil
}

func (d *Dashboard) actionFunc(name string, p ActionParams) (lifecycle.Func, error) {
	switch name {
	case lifecycle.IOCSync:
		return d.syncIOCs, nil
	case lifecycle.KEVSync:
		return d.syncKEV, nil
	case lifecycle.Correlate:
		return d.correlate, nil
	case lifecycle.Report:
		kind := strings.ToLower(strings.TrimSpace(p.ReportKind))
		if kind == "" {
			kind = ReportDaily
		}
		if kind != ReportDaily && kind != ReportWeekly {
			return nil, fmt.Errorf("%w: report kind %q", store.ErrValidation, p.ReportKind)
		}
		return func(ctx context.Context) (string, error) { return d.generateReport(ctx, kind) }, nil
	case lifecycle.LeakUpload:
		if p.File == nil {
			return nil, fmt.Errorf("%w: leak upload needs a file", ErrMissingInput)
		}
		file := *p.File
		return func(ctx context.Context) (string, error) { return d.importLeaks(ctx, file) }, nil
	case lifecycle.RansomwareMap:
		if p.VictimID == "" {
			victim, ok := d.Victims.Resolve(&d.Selected.Victim)
			if !ok {
				return nil, fmt.Errorf("%w: select a victim first", ErrMissingInput)
			}
			return func(ctx context.Context) (string, error) { return d.mapTTPs(ctx, victim) }, nil
		}
		victim, ok := d.Victims.Get(p.VictimID)
		if !ok {
			return nil, fmt.Errorf("ransomware victim %s: %w", p.VictimID, store.ErrNotFound)
		}
		return func(ctx context.Context) (string, error) { return d.mapTTPs(ctx, victim) }, nil
	case lifecycle.InsiderInvestigate:
		return d.investigateInsider, nil
	case lifecycle.AuditExport:
		return d.exportAudit, nil
	case lifecycle.RepoScan:
		return d.scanRepos, nil
	case lifecycle.FeedSync:
		return d.syncFeeds, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
}

func (d *Dashboard) ask(ctx context.Context, req gateway.Request) (gateway.Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, d.gatewayTimeout)
	defer cancel()
	ans, err := d.gateway.Ask(ctx, req)
	if err != nil {
		logger.WarnContext(ctx, "Intelligence request failed", "error", err)
		if errors.Is(err, gateway.ErrNotConfigured) {
			return gateway.Answer{}, fmt.Errorf("%w (or save the %s setting)", err, APIKeySetting)
		}
		return gateway.Answer{}, err
	}
	return ans, nil
}

const iocSyncPrompt = "List 5 real, recent indicators of compromise (IP addresses or domains) from global cyber attacks. Give only the value and the type of each, one per line."

// syncIOCs asks for recent indicators and adds the ones not yet tracked.
func (d *Dashboard) syncIOCs(ctx context.Context) (string, error) {
	ans, err := d.ask(ctx, gateway.Request{Prompt: iocSyncPrompt, Grounded: true})
	if err != nil {
		return "", err
	}
	if err := lifecycle.Simulate(ctx, d.timings.SimulatedDelay); err != nil {
		return "", err
	}

	known := make(map[string]bool)
	for _, ioc := range d.IOCs.All() {
		known[strings.ToLower(ioc.Value)] = true
	}
	found := extract.Indicators(ans.Text)
	added := 0
	for _, ind := range found {
		if known[strings.ToLower(ind.Value)] {
			continue
		}
		_, err := d.IOCs.Create(intel.IOC{
			Value:       ind.Value,
			Kind:        ind.Kind,
			Confidence:  70,
			Status:      intel.IOCActive,
			LastSeen:    d.now().Format(dateTimeLayout),
			Tags:        []string{"ai-sync"},
			Description: "Imported by AI indicator sync.",
		})
		if err != nil {
			logger.WarnContext(ctx, "Skipping synced indicator", "value", ind.Value, "error", err)
			continue
		}
		known[strings.ToLower(ind.Value)] = true
		added++
	}
	return fmt.Sprintf("AI sync added %d new indicators (%d found)", added, len(found)), nil
}

func (d *Dashboard) syncKEV(ctx context.Context) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.SimulatedDelay); err != nil {
		return "", err
	}
	active := 0
	vulns := d.Vulns.All()
	for _, v := range vulns {
		if v.Status == "Active" {
			active++
		}
	}
	return fmt.Sprintf("KEV catalog synchronized: %d vulnerabilities, %d active", len(vulns), active), nil
}

func (d *Dashboard) correlate(ctx context.Context) (string, error) {
	prompt, err := correlate.Prompt(d.Assets.All())
	if err != nil {
		return "", err
	}
	ans, err := d.ask(ctx, gateway.Request{Prompt: prompt, Grounded: true})
	if err != nil {
		return "", err
	}
	hits := correlate.ParseHits(ans.Text, d.now())
	local := d.localHits(scope.NewMatcher(d.Assets.All()))
	hits = append(hits, local...)
	d.mu.Lock()
	d.hits = hits
	d.mu.Unlock()
	return fmt.Sprintf("Correlation finished: %d hits (%d from local intelligence)", len(hits), len(local)), nil
}

// localHits matches the tracked indicators, feed artifacts and open credential
// leaks against the scope without asking the gateway.
func (d *Dashboard) localHits(m *scope.Matcher) []intel.CorrelationHit {
	detected := d.now().UTC().Format(time.RFC3339)
	hits := []intel.CorrelationHit{}
	for _, ioc := range d.IOCs.All() {
		if ioc.Status != intel.IOCActive {
			continue
		}
		asset, ok := m.Match(ioc.Value)
		if !ok {
			continue
		}
		severity := intel.SeverityMedium
		if ioc.Confidence >= 80 {
			severity = intel.SeverityHigh
		}
		hits = append(hits, intel.CorrelationHit{
			ID:          uuid.NewString(),
			AssetValue:  asset.Value,
			ThreatTitle: fmt.Sprintf("Tracked %s indicator %s", strings.ToLower(string(ioc.Kind)), ioc.Value),
			Source:      intel.SourceThreatFeed,
			Severity:    severity,
			Description: ioc.Description,
			DetectedAt:  detected,
			Remediation: []string{"Block the indicator at the perimeter", "Search logs for earlier contact"},
		})
	}
	for _, feed := range d.Feeds.All() {
		for _, art := range feed.Artifacts {
			asset, ok := m.Match(art.Value)
			if !ok {
				continue
			}
			hits = append(hits, intel.CorrelationHit{
				ID:          uuid.NewString(),
				AssetValue:  asset.Value,
				ThreatTitle: fmt.Sprintf("%s artifact %s", feed.Source, art.Value),
				Source:      intel.SourceThreatFeed,
				Severity:    art.Severity,
				Link:        feed.SourceURL,
				Description: feed.Description,
				DetectedAt:  detected,
				Remediation: []string{"Block the indicator at the perimeter", "Search logs for earlier contact"},
			})
		}
	}
	for _, leak := range d.Leaks.All() {
		if leak.Status == intel.LeakMitigated {
			continue
		}
		asset, ok := m.Match(leak.TargetURL)
		if !ok {
			asset, ok = m.Match(leak.Username)
		}
		if !ok {
			continue
		}
		severity := intel.SeverityHigh
		if leak.Status == intel.LeakCritical {
			severity = intel.SeverityCritical
		}
		hits = append(hits, intel.CorrelationHit{
			ID:          uuid.NewString(),
			AssetValue:  asset.Value,
			ThreatTitle: fmt.Sprintf("Leaked credential for %s", leak.Username),
			Source:      intel.SourceInfostealer,
			Severity:    severity,
			Link:        leak.TargetURL,
			Description: fmt.Sprintf("Captured by %s on %s", leak.Source, leak.DetectedAt),
			DetectedAt:  detected,
			Remediation: []string{"Reset the password and revoke active sessions", "Enforce MFA on the affected service"},
		})
	}
	return hits
}

// scanRepos rescans every monitored repository and stamps its scan time.
func (d *Dashboard) scanRepos(ctx context.Context) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.SimulatedDelay); err != nil {
		return "", err
	}
	scanned := d.now().Format(minuteLayout)
	high := 0
	for _, repo := range d.Repos.All() {
		updated, err := d.Repos.Update(repo.ID, func(r *intel.RepoExposure) { r.LastScan = scanned })
		if err != nil {
			// Deleted while the scan ran.
			continue
		}
		if updated.Risk == intel.SeverityHigh || updated.Risk == intel.SeverityCritical {
			high++
		}
	}
	return fmt.Sprintf("Repository scan finished: %d repositories, %d high-risk exposures", d.Repos.Len(), high), nil
}

// syncFeeds refreshes every feed and reports how many artifacts they carry.
func (d *Dashboard) syncFeeds(ctx context.Context) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.SimulatedDelay); err != nil {
		return "", err
	}
	updated := d.now().Format(minuteLayout)
	feeds, artifacts := 0, 0
	for _, feed := range d.Feeds.All() {
		f, err := d.Feeds.Update(feed.ID, func(f *intel.ThreatFeed) { f.LastUpdate = updated })
		if err != nil {
			continue
		}
		feeds++
		artifacts += len(f.Artifacts)
	}
	return fmt.Sprintf("Synced %d feeds carrying %d artifacts", feeds, artifacts), nil
}

// Hits returns the hits of the last correlation run.
func (d *Dashboard) Hits() []intel.CorrelationHit {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]intel.CorrelationHit{}, d.hits...)
}

func reportPrompt(kind string, assets []intel.ScopeAsset) string {
	scope := "no assets registered"
	if len(assets) > 0 {
		values := make([]string, 0, len(assets))
		for _, a := range assets {
			values = append(values, a.Value)
		}
		scope = strings.Join(values, ", ")
	}
	var b strings.Builder
	b.WriteString("SEARCH THE WEB FOR REAL EVENTS FROM THE LAST 48 HOURS.\n")
	fmt.Fprintf(&b, "Write a %s threat intelligence report in English focused on real threats.\n", kind)
	fmt.Fprintf(&b, "Monitored assets: %s.\n\n", scope)
	b.WriteString("Required content:\n")
	b.WriteString("1. Real news about new ransomware groups or APT attacks detected today or yesterday.\n")
	b.WriteString("2. Critical vulnerabilities (CVEs) added to the CISA KEV catalog this week.\n")
	b.WriteString("3. Real mentions of data leaks affecting companies in the financial sector.\n\n")
	b.WriteString("Formatting: H1 for the title, H2 for sections, bullet points for IOCs.\n")
	return b.String()
}

func (d *Dashboard) generateReport(ctx context.Context, kind string) (string, error) {
	ans, err := d.ask(ctx, gateway.Request{Prompt: reportPrompt(kind, d.Assets.All()), Grounded: true})
	if err != nil {
		return "", err
	}
	mentions := []CVEMention{}
	for _, id := range extract.CVEs(ans.Text) {
		_, listed := d.Vulns.Get(string(id))
		mentions = append(mentions, CVEMention{ID: id, InCatalog: listed})
	}
	citations := ans.Citations
	if citations == nil {
		citations = []gateway.Citation{}
	}
	report := Report{Kind: kind, Text: ans.Text, Citations: citations, CVEs: mentions, GeneratedAt: d.now().UTC()}
	d.mu.Lock()
	d.report = report
	d.mu.Unlock()
	return fmt.Sprintf("%s report ready with %d sources", strings.ToUpper(kind[:1])+kind[1:], len(citations)), nil
}

// LastReport returns the last generated report.
func (d *Dashboard) LastReport() (Report, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.report, !d.report.GeneratedAt.IsZero()
}

func (d *Dashboard) importLeaks(ctx context.Context, file UploadedFile) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.UploadDelay); err != nil {
		return "", err
	}
	drafts, skipped := ParseLeakDump(file.Name, file.Data, d.now().Format(minuteLayout))
	if len(drafts) == 0 {
		return "", fmt.Errorf("no credentials found in %s (%d lines skipped)", file.Name, skipped)
	}
	creds := make([]intel.LeakedCredential, 0, len(drafts))
	for _, draft := range drafts {
		cred, err := d.sealLeak(draft)
		if err != nil {
			return "", err
		}
		creds = append(creds, cred)
	}
	imported := 0
	for _, cred := range creds {
		if _, err := d.Leaks.Create(cred); err != nil {
			skipped++
			continue
		}
		imported++
	}
	d.publish(events.LeaksUploaded, map[string]any{"file": file.Name, "imported": imported})
	return fmt.Sprintf("Imported %d credentials from %s (%s, %d lines skipped)",
		imported, file.Name, humanize.Bytes(uint64(len(file.Data))), skipped), nil
}

// mapTTPs maps a victim's group onto a tracked actor profile.
func (d *Dashboard) mapTTPs(ctx context.Context, victim intel.RansomwareVictim) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.SimulatedDelay); err != nil {
		return "", err
	}
	group := strings.ToLower(victim.Group)
	for _, actor := range d.Actors.All() {
		words := strings.Fields(strings.ToLower(actor.Name))
		if len(words) > 0 && strings.Contains(group, words[0]) {
			return fmt.Sprintf("Mapped %s against MITRE ATT&CK via %s: %s",
				victim.Group, actor.Name, strings.Join(actor.TTPs, ", ")), nil
		}
	}
	return fmt.Sprintf("Mapped %s against MITRE ATT&CK: no tracked actor profile", victim.Group), nil
}

func (d *Dashboard) investigateInsider(ctx context.Context) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.SimulatedDelay); err != nil {
		return "", err
	}
	return fmt.Sprintf("Investigation opened for %d forum posts and %d chat messages", d.Forum.Len(), d.Chats.Len()), nil
}

func (d *Dashboard) exportAudit(ctx context.Context) (string, error) {
	if err := lifecycle.Simulate(ctx, d.timings.ReportDelay); err != nil {
		return "", err
	}
	return d.Audit.Score(d.Questions.All()).Summary(), nil
}
