package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sloppy/threatone/internal/config"
	"github.com/sloppy/threatone/internal/db"
	"github.com/sloppy/threatone/internal/events"
	"github.com/sloppy/threatone/internal/gateway"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/scope"
	"github.com/sloppy/threatone/internal/secret"
	"github.com/sloppy/threatone/internal/store"
	"github.com/sloppy/threatone/internal/testutil"
)

var testTimings = config.Timings{
	VerifyDelay:    30 * time.Millisecond,
	SimulatedDelay: time.Millisecond,
	UploadDelay:    time.Millisecond,
	ReportDelay:    time.Millisecond,
	DisplayWindow:  time.Second,
}

type fakeGateway struct {
	mu      sync.Mutex
	answer  gateway.Answer
	err     error
	block   chan struct{}
	prompts []string
}

func (f *fakeGateway) Ask(ctx context.Context, req gateway.Request) (gateway.Answer, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return gateway.Answer{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	return f.answer, f.err
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(_ context.Context, event string, _ any) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func openStore(t *testing.T, path string) *db.DB {
	t.Helper()
	s, err := db.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func newTestDashboard(t *testing.T, opts Options) *Dashboard {
	t.Helper()
	if opts.Store == nil {
		opts.Store = openStore(t, testutil.DBPath(t))
	}
	if opts.Gateway == nil && !opts.Offline {
		opts.Gateway = &fakeGateway{}
	}
	if opts.Timings == (config.Timings{}) {
		opts.Timings = testTimings
	}
	d, err := New(opts)
	if err != nil {
		t.Fatalf("new dashboard: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func trigger(t *testing.T, d *Dashboard, name string, p ActionParams) lifecycle.Status {
	t.Helper()
	done, started, err := d.Trigger(context.Background(), name, p)
	if err != nil {
		t.Fatalf("trigger %s: %v", name, err)
	}
	if !started {
		t.Fatalf("trigger %s: not started", name)
	}
	select {
	case st := <-done:
		return st
	case <-time.After(5 * time.Second):
		t.Fatalf("action %s did not settle", name)
	}
	return lifecycle.Status{}
}

func TestNewSeedsCollections(t *testing.T) {
	d := newTestDashboard(t, Options{})

	if d.Questions.Len() != len(intel.SeedQuestions()) || d.Actors.Len() != 4 || d.Vulns.Len() != 5 {
		t.Fatalf("unexpected seeded counts: %#v", d.Summary().Counts)
	}
	for _, leak := range d.Leaks.All() {
		if leak.Secret == "" || strings.Contains(leak.Secret, "Password123!") || strings.Contains(leak.Masked, "Password123!") {
			t.Fatalf("leak secret not sealed: %#v", leak)
		}
	}
	if _, ok := d.Vulns.Get("CVE-2024-21410"); !ok {
		t.Fatalf("vulnerabilities not keyed by CVE id")
	}
}

func TestAssetVerificationSettlesProtected(t *testing.T) {
	path := testutil.DBPath(t)
	rec := &recorder{}
	d := newTestDashboard(t, Options{Store: openStore(t, path), Events: rec})

	asset, err := d.AddAsset(AssetDraft{Kind: intel.AssetDomain, Value: " corp.example "})
	if err != nil {
		t.Fatalf("add asset: %v", err)
	}
	if asset.Status != intel.AssetVerifying || asset.Value != "corp.example" {
		t.Fatalf("unexpected new asset: %#v", asset)
	}

	testutil.Eventually(t, 2*time.Second, func() bool {
		a, ok := d.Assets.Get(asset.ID)
		return ok && a.Status == intel.AssetProtected
	}, "asset settles as Protected")

	stored, err := d.db.ListAssets()
	if err != nil {
		t.Fatalf("list stored assets: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != intel.AssetProtected {
		t.Fatalf("verification not persisted: %#v", stored)
	}
	if !rec.has(events.AssetCreated) || !rec.has(events.AssetVerified) {
		t.Fatalf("expected asset events, got %v", rec.events)
	}
}

func TestDeletedAssetIsNeverResurrected(t *testing.T) {
	d := newTestDashboard(t, Options{})

	asset, err := d.AddAsset(AssetDraft{Kind: intel.AssetIP, Value: "203.0.113.7"})
	if err != nil {
		t.Fatalf("add asset: %v", err)
	}
	removed, err := d.DeleteAsset(asset.ID)
	if err != nil || !removed {
		t.Fatalf("delete asset = %v, %v", removed, err)
	}
	time.Sleep(3 * testTimings.VerifyDelay)

	if _, ok := d.Assets.Get(asset.ID); ok {
		t.Fatalf("deleted asset came back")
	}
	stored, _ := d.db.ListAssets()
	if len(stored) != 0 {
		t.Fatalf("deleted asset still stored: %#v", stored)
	}
	if removed, err := d.DeleteAsset(asset.ID); err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
}

func TestManualStatusCancelsVerification(t *testing.T) {
	d := newTestDashboard(t, Options{})

	asset, _ := d.AddAsset(AssetDraft{Kind: intel.AssetKeyword, Value: "acme"})
	if _, err := d.SetAssetStatus(asset.ID, intel.AssetExposed); err != nil {
		t.Fatalf("set status: %v", err)
	}
	time.Sleep(3 * testTimings.VerifyDelay)

	got, _ := d.Assets.Get(asset.ID)
	if got.Status != intel.AssetExposed {
		t.Fatalf("manual status overwritten: %s", got.Status)
	}
	if _, err := d.SetAssetStatus(asset.ID, intel.AssetProtected); !errors.Is(err, intel.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := d.SetAssetStatus("missing", intel.AssetProtected); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRestartReschedulesVerifyingAssets(t *testing.T) {
	path := testutil.DBPath(t)
	s := openStore(t, path)
	if _, err := s.CreateAsset(intel.ScopeAsset{ID: "a-1", Kind: intel.AssetDomain, Value: "corp.example", Status: intel.AssetVerifying}); err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	d := newTestDashboard(t, Options{Store: s})
	testutil.Eventually(t, 2*time.Second, func() bool {
		a, ok := d.Assets.Get("a-1")
		return ok && a.Status == intel.AssetProtected
	}, "stored Verifying asset settles after restart")
}

func TestIOCSyncAddsOnlyNewIndicators(t *testing.T) {
	gw := &fakeGateway{answer: gateway.Answer{Text: "1. 185.220.101.45 (IP)\n2. 45.9.148.3 (IP)\n3. evil-cdn.example (domain)\n4. 45.9.148.3 again"}}
	d := newTestDashboard(t, Options{Gateway: gw})
	before := d.IOCs.Len()

	st := trigger(t, d, lifecycle.IOCSync, ActionParams{})
	if st.Phase != lifecycle.Succeeded {
		t.Fatalf("ioc sync failed: %#v", st)
	}
	if d.IOCs.Len() != before+2 {
		t.Fatalf("expected 2 new indicators, got %d", d.IOCs.Len()-before)
	}
	first := d.IOCs.All()[0]
	if first.Value != "evil-cdn.example" || first.Kind != intel.IOCDomain || first.Tags[0] != "ai-sync" {
		t.Fatalf("unexpected synced indicator: %#v", first)
	}
	if !strings.Contains(st.Message, "added 2") {
		t.Fatalf("unexpected message: %q", st.Message)
	}
}

func TestGatewayFailureSettlesFailed(t *testing.T) {
	d := newTestDashboard(t, Options{Offline: true})

	st := trigger(t, d, lifecycle.Report, ActionParams{ReportKind: "weekly"})
	if st.Phase != lifecycle.Failed || !strings.Contains(st.Message, "not configured") {
		t.Fatalf("expected failed report, got %#v", st)
	}
	if _, ok := d.LastReport(); ok {
		t.Fatalf("failed report was stored")
	}

	gw := &fakeGateway{err: errors.New("quota exceeded")}
	d2 := newTestDashboard(t, Options{Gateway: gw})
	if _, err := d2.AddAsset(AssetDraft{Kind: intel.AssetDomain, Value: "corp.example"}); err != nil {
		t.Fatalf("add asset: %v", err)
	}
	st = trigger(t, d2, lifecycle.Correlate, ActionParams{})
	if st.Phase != lifecycle.Failed || st.Message != "quota exceeded" {
		t.Fatalf("expected failed correlation, got %#v", st)
	}
}

func TestCorrelate(t *testing.T) {
	gw := &fakeGateway{answer: gateway.Answer{Text: strings.Join([]string{
		"HIT | corp.example | CISA KEV | CRITICAL | CVE-2024-3400 on edge firewall | PAN-OS banner | Command injection",
		"- Patch PAN-OS",
		"noise line",
	}, "\n")}}
	d := newTestDashboard(t, Options{Gateway: gw})

	st := trigger(t, d, lifecycle.Correlate, ActionParams{})
	if st.Phase != lifecycle.Failed || !strings.Contains(st.Message, "no scope assets") {
		t.Fatalf("expected failure without assets, got %#v", st)
	}

	d.AddAsset(AssetDraft{Kind: intel.AssetDomain, Value: "corp.example"})
	// A settled action may run again immediately.
	st = trigger(t, d, lifecycle.Correlate, ActionParams{})
	if st.Phase != lifecycle.Succeeded {
		t.Fatalf("correlation failed: %#v", st)
	}
	hits := d.Hits()
	if len(hits) != 1 || hits[0].Source != intel.SourceKEV || len(hits[0].Remediation) != 1 {
		t.Fatalf("unexpected hits: %#v", hits)
	}
	if !strings.Contains(gw.prompts[0], "Domain: corp.example") {
		t.Fatalf("prompt does not list the asset: %s", gw.prompts[0])
	}
}

func TestCorrelateMatchesLocalIntelligence(t *testing.T) {
	d := newTestDashboard(t, Options{Gateway: &fakeGateway{answer: gateway.Answer{Text: "No confirmed threats."}}})
	if _, err := d.AddAsset(AssetDraft{Kind: intel.AssetDomain, Value: "client-company.com"}); err != nil {
		t.Fatalf("add asset: %v", err)
	}

	st := trigger(t, d, lifecycle.Correlate, ActionParams{})
	if st.Phase != lifecycle.Succeeded || !strings.Contains(st.Message, "2 from local intelligence") {
		t.Fatalf("unexpected correlation status: %#v", st)
	}
	for _, hit := range d.Hits() {
		if hit.Source != intel.SourceInfostealer || hit.AssetValue != "client-company.com" || !strings.Contains(hit.Link, "client-company.com") {
			t.Fatalf("unexpected local hit: %#v", hit)
		}
	}
}

func TestTriggerWhilePendingIsNoop(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{}), answer: gateway.Answer{Text: "Daily report"}}
	d := newTestDashboard(t, Options{Gateway: gw})

	done, started, err := d.Trigger(context.Background(), lifecycle.Report, ActionParams{})
	if err != nil || !started {
		t.Fatalf("first trigger = %v, %v", started, err)
	}
	if _, again, err := d.Trigger(context.Background(), lifecycle.Report, ActionParams{}); err != nil || again {
		t.Fatalf("second trigger while pending = %v, %v", again, err)
	}
	close(gw.block)
	if st := <-done; st.Phase != lifecycle.Succeeded {
		t.Fatalf("report failed: %#v", st)
	}
	if len(gw.prompts) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(gw.prompts))
	}
}

func TestTriggerRejectsBadInput(t *testing.T) {
	d := newTestDashboard(t, Options{})

	if _, _, err := d.Trigger(context.Background(), "launch-missiles", ActionParams{}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected unknown action, got %v", err)
	}
	if _, _, err := d.Trigger(context.Background(), lifecycle.Report, ActionParams{ReportKind: "hourly"}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := d.Trigger(context.Background(), lifecycle.LeakUpload, ActionParams{}); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
	if _, _, err := d.Trigger(context.Background(), lifecycle.RansomwareMap, ActionParams{}); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected missing selection, got %v", err)
	}
	if _, _, err := d.Trigger(context.Background(), lifecycle.RansomwareMap, ActionParams{VictimID: "gone"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for _, st := range d.Actions.Statuses() {
		if st.Phase != lifecycle.Idle {
			t.Fatalf("rejected trigger moved %s to %s", st.Action, st.Phase)
		}
	}
}

func TestReportRecordsCitationsAndCVEs(t *testing.T) {
	gw := &fakeGateway{answer: gateway.Answer{
		Text:      "# Weekly\nFound CVE-2024-21410 and CVE-2099-0001 in the wild",
		Citations: []gateway.Citation{{Title: "CISA", URL: "https://www.cisa.gov"}},
	}}
	d := newTestDashboard(t, Options{Gateway: gw})

	st := trigger(t, d, lifecycle.Report, ActionParams{ReportKind: "Weekly"})
	if st.Phase != lifecycle.Succeeded || st.Message != "Weekly report ready with 1 sources" {
		t.Fatalf("unexpected status: %#v", st)
	}
	report, ok := d.LastReport()
	if !ok || report.Kind != ReportWeekly || len(report.CVEs) != 2 {
		t.Fatalf("unexpected report: %#v", report)
	}
	if !report.CVEs[0].InCatalog || report.CVEs[1].InCatalog {
		t.Fatalf("catalog lookup wrong: %#v", report.CVEs)
	}
}

func TestLeakUpload(t *testing.T) {
	d := newTestDashboard(t, Options{})
	before := d.Leaks.Len()

	dump := "url,username,password\nhttps://vpn.corp.example,j.doe,Winter2024!\nhttps://mail.corp.example/login:ana:123456\ngarbage\n"
	st := trigger(t, d, lifecycle.LeakUpload, ActionParams{File: &UploadedFile{Name: "stealer.txt", Data: []byte(dump)}})
	if st.Phase != lifecycle.Succeeded {
		t.Fatalf("upload failed: %#v", st)
	}
	if !strings.Contains(st.Message, "Imported 2 credentials from stealer.txt") || !strings.Contains(st.Message, "1 lines skipped") {
		t.Fatalf("unexpected message: %q", st.Message)
	}
	if d.Leaks.Len() != before+2 {
		t.Fatalf("expected 2 new leaks, got %d", d.Leaks.Len()-before)
	}
	newest := d.Leaks.All()[0]
	if newest.Username != "ana" || newest.Strength != intel.StrengthLow || newest.Source != "Manual Upload (stealer.txt)" {
		t.Fatalf("unexpected leak: %#v", newest)
	}
	if strings.Contains(newest.Secret, "123456") || newest.Masked != "****" {
		t.Fatalf("plaintext exposed: %#v", newest)
	}

	st = trigger(t, d, lifecycle.LeakUpload, ActionParams{File: &UploadedFile{Name: "empty.txt", Data: []byte("\n# nothing\n")}})
	if st.Phase != lifecycle.Failed {
		t.Fatalf("empty upload succeeded: %#v", st)
	}
}

func TestLeakUploadIsAllOrNothing(t *testing.T) {
	key, err := secret.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	// Nonces for the seeded leaks plus one upload line; the second line fails.
	nonces := bytes.NewReader(make([]byte, 24*(len(intel.SeedLeaks())+1)))
	d := newTestDashboard(t, Options{Sealer: secret.NewSealerWithReader(key, nonces)})
	before := d.Leaks.All()

	dump := "https://vpn.corp.example,j.doe,Winter2024!\nhttps://mail.corp.example,ana,123456\n"
	st := trigger(t, d, lifecycle.LeakUpload, ActionParams{File: &UploadedFile{Name: "stealer.txt", Data: []byte(dump)}})
	if st.Phase != lifecycle.Failed {
		t.Fatalf("expected failed upload, got %#v", st)
	}
	if diff := cmp.Diff(before, d.Leaks.All()); diff != "" {
		t.Fatalf("failed upload changed leaks (-want +got):\n%s", diff)
	}
}

func TestRepoScanAndFeedSyncStampRecords(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	d := newTestDashboard(t, Options{Now: func() time.Time { return now }})

	st := trigger(t, d, lifecycle.RepoScan, ActionParams{})
	if st.Phase != lifecycle.Succeeded || st.Message != "Repository scan finished: 5 repositories, 3 high-risk exposures" {
		t.Fatalf("unexpected repo scan status: %#v", st)
	}
	for _, r := range d.Repos.All() {
		if r.LastScan != "2026-10-19 09:30" {
			t.Fatalf("repo %s not rescanned: %q", r.Name, r.LastScan)
		}
	}

	st = trigger(t, d, lifecycle.FeedSync, ActionParams{})
	if st.Phase != lifecycle.Succeeded || st.Message != "Synced 3 feeds carrying 8 artifacts" {
		t.Fatalf("unexpected feed sync status: %#v", st)
	}
	if f := d.Feeds.All()[0]; f.LastUpdate != "2026-10-19 09:30" {
		t.Fatalf("feed not refreshed: %#v", f)
	}
}

func TestCorrelateMatchesFeedArtifacts(t *testing.T) {
	d := newTestDashboard(t, Options{})
	if _, err := d.AddAsset(AssetDraft{Kind: intel.AssetIP, Value: "45.153.242.0/24"}); err != nil {
		t.Fatalf("add asset: %v", err)
	}
	hits := d.localHits(scope.NewMatcher(d.Assets.All()))
	if len(hits) != 1 || hits[0].Source != intel.SourceThreatFeed || hits[0].Severity != intel.SeverityHigh {
		t.Fatalf("unexpected hits: %#v", hits)
	}
	if !strings.Contains(hits[0].ThreatTitle, "45.153.242.129") {
		t.Fatalf("hit does not name the artifact: %q", hits[0].ThreatTitle)
	}
}

func TestRansomwareMapUsesSelection(t *testing.T) {
	d := newTestDashboard(t, Options{})
	var lockbit intel.RansomwareVictim
	for _, v := range d.Victims.All() {
		if strings.HasPrefix(v.Group, "LockBit") {
			lockbit = v
		}
	}
	d.Selected.Victim.Select(lockbit.ID)

	st := trigger(t, d, lifecycle.RansomwareMap, ActionParams{})
	if st.Phase != lifecycle.Succeeded || !strings.Contains(st.Message, "Double Extortion") {
		t.Fatalf("unexpected mapping: %#v", st)
	}
}

func TestQuestionsPersistAcrossRestarts(t *testing.T) {
	path := testutil.DBPath(t)
	d, err := New(Options{Store: openStore(t, path), Gateway: &fakeGateway{}, Timings: testTimings})
	if err != nil {
		t.Fatalf("new dashboard: %v", err)
	}

	before := d.Questions.Len()
	if _, err := d.AddQuestion("   ", "Governance"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d.Questions.Len() != before {
		t.Fatalf("rejected question changed the list")
	}
	added, err := d.AddQuestion("Is there a bug bounty program?", "")
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	all := d.Questions.All()
	if all[len(all)-1].ID != added.ID || added.Category != intel.DefaultQuestionCategory {
		t.Fatalf("question not appended with default category: %#v", all[len(all)-1])
	}
	first := all[0]
	if removed, err := d.DeleteQuestion(first.ID); err != nil || !removed {
		t.Fatalf("delete question = %v, %v", removed, err)
	}
	d.Close()

	d2 := newTestDashboard(t, Options{Store: openStore(t, path)})
	if d2.Questions.Len() != before {
		t.Fatalf("expected %d questions after restart, got %d", before, d2.Questions.Len())
	}
	if _, ok := d2.Questions.Get(added.ID); !ok {
		t.Fatalf("added question lost on restart")
	}
	if _, ok := d2.Questions.Get(first.ID); ok {
		t.Fatalf("deleted question came back")
	}
}

func TestAuditRunAndReport(t *testing.T) {
	d := newTestDashboard(t, Options{})
	questions := d.Questions.All()
	for i, q := range questions {
		if err := d.AnswerQuestion(q.ID, i < 8); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	if err := d.AnswerQuestion(9999, true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	st := trigger(t, d, lifecycle.AuditExport, ActionParams{})
	if st.Message != "Final score: 80% - Rating: Excellent - APPROVED" {
		t.Fatalf("unexpected audit summary: %q", st.Message)
	}

	var buf bytes.Buffer
	if err := d.AuditReport(&buf); err != nil {
		t.Fatalf("audit report: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Supplier Security Audit\n") || strings.Count(out, "[YES]") != 8 || strings.Count(out, "[NO]") != 2 {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestSettingsAreSealed(t *testing.T) {
	d := newTestDashboard(t, Options{})

	view, err := d.SaveSetting(APIKeySetting, "AIzaSyExampleKey1234567890")
	if err != nil {
		t.Fatalf("save setting: %v", err)
	}
	if !view.Sealed || view.Value != "AIza...7890" {
		t.Fatalf("unexpected setting view: %#v", view)
	}
	if _, err := d.SaveSetting("org_name", "Acme"); err != nil {
		t.Fatalf("save setting: %v", err)
	}

	raw, _ := d.db.ListSettings()
	for _, s := range raw {
		if strings.Contains(s.Value, "Example") {
			t.Fatalf("api key stored in plaintext: %#v", s)
		}
	}
	key, err := d.apiKey("")()
	if err != nil || key != "AIzaSyExampleKey1234567890" {
		t.Fatalf("api key lookup = %q, %v", key, err)
	}
	if key, _ := d.apiKey("from-config")(); key != "from-config" {
		t.Fatalf("configured key not preferred: %q", key)
	}
	if _, err := d.SaveSetting(" ", "x"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthSitePasswordIsMasked(t *testing.T) {
	d := newTestDashboard(t, Options{})

	site, err := d.AddAuthSite(AuthSiteDraft{Name: "VPN", URL: "https://vpn.corp.example", Username: "svc", Password: "hunter2"})
	if err != nil {
		t.Fatalf("add auth site: %v", err)
	}
	if site.Password != maskedPassword {
		t.Fatalf("password not masked: %#v", site)
	}
	raw, _ := d.db.ListAuthSites()
	if raw[0].Password == "hunter2" {
		t.Fatalf("password stored in plaintext")
	}
	if _, err := d.AddAuthSite(AuthSiteDraft{Name: "no url"}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExport(t *testing.T) {
	d := newTestDashboard(t, Options{})

	var buf bytes.Buffer
	if err := d.Export(&buf, "threat-actors", FormatCSV, ExportScope{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != d.Actors.Len()+1 {
		t.Fatalf("expected %d csv lines, got %d", d.Actors.Len()+1, lines)
	}
	buf.Reset()
	if err := d.Export(&buf, "leaks", FormatJSON, ExportScope{}); err != nil {
		t.Fatalf("export json: %v", err)
	}
	if strings.Contains(buf.String(), "Password123!") {
		t.Fatalf("plaintext in json export")
	}
	if err := d.Export(&buf, "nope", FormatCSV, ExportScope{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
	if err := d.Export(&buf, "iocs", "xml", ExportScope{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected unknown format, got %v", err)
	}
	if len(d.ExportKinds()) != 12 {
		t.Fatalf("unexpected kinds: %v", d.ExportKinds())
	}
}

func TestExportScopes(t *testing.T) {
	d := newTestDashboard(t, Options{})
	rows := func(kind string, scope ExportScope) [][]string {
		t.Helper()
		var buf bytes.Buffer
		if err := d.Export(&buf, kind, FormatCSV, scope); err != nil {
			t.Fatalf("export %s: %v", kind, err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("parse csv: %v", err)
		}
		return records[1:]
	}
	column := func(records [][]string, i int) []string {
		out := []string{}
		for _, r := range records {
			out = append(out, r[i])
		}
		return out
	}

	got := column(rows("iocs", ExportScope{Query: "185.220"}), 1)
	if diff := cmp.Diff([]string{"185.220.101.45"}, got); diff != "" {
		t.Fatalf("query export mismatch (-want +got):\n%s", diff)
	}

	got = column(rows("repo-exposures", ExportScope{Filters: map[string]string{"provider": "github", "org": "acme"}}), 1)
	if diff := cmp.Diff([]string{"internal-payment-api", "legacy-website-v2"}, got); diff != "" {
		t.Fatalf("filtered export mismatch (-want +got):\n%s", diff)
	}

	actor := d.Actors.All()[2]
	got = column(rows("threat-actors", ExportScope{ID: actor.ID, Query: "no such actor"}), 1)
	if diff := cmp.Diff([]string{actor.Name}, got); diff != "" {
		t.Fatalf("single record export mismatch (-want +got):\n%s", diff)
	}
	got = column(rows("kev", ExportScope{ID: "CVE-2024-21410"}), 0)
	if diff := cmp.Diff([]string{"CVE-2024-21410"}, got); diff != "" {
		t.Fatalf("kev export by cve mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := d.Export(&buf, "threat-actors", FormatCSV, ExportScope{ID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := d.Export(&buf, "iocs", FormatCSV, ExportScope{Filters: map[string]string{"colour": "red"}}); !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("expected unknown filter, got %v", err)
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	d := newTestDashboard(t, Options{})
	ioc := d.IOCs.All()[0]
	d.Selected.IOC.Select(ioc.ID)

	if !d.DeleteIOC(ioc.ID) {
		t.Fatalf("delete ioc reported nothing removed")
	}
	if _, ok := d.Selected.IOC.ID(); ok {
		t.Fatalf("selection kept a deleted id")
	}
	if d.DeleteIOC(ioc.ID) {
		t.Fatalf("second delete reported a removal")
	}
}
