package intel

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestIOCValidate(t *testing.T) {
	base := IOC{Value: "185.220.101.45", Kind: IOCIP, Confidence: 90, Status: IOCActive}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid ioc rejected: %v", err)
	}

	cases := map[string]func(*IOC){
		"empty value":    func(i *IOC) { i.Value = "  " },
		"unknown kind":   func(i *IOC) { i.Kind = "MUTEX" },
		"confidence low": func(i *IOC) { i.Confidence = -1 },
		"confidence hi":  func(i *IOC) { i.Confidence = 101 },
		"unknown status": func(i *IOC) { i.Status = "Expired" },
	}
	for name, mutate := range cases {
		ioc := base
		mutate(&ioc)
		if err := ioc.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestIOCPatchLeavesNilFields(t *testing.T) {
	ioc := IOC{Value: "evil.example", Kind: IOCDomain, Confidence: 50, Status: IOCActive, Tags: []string{"a"}}
	status := IOCRevoked
	tags := []string{"b", "c"}
	IOCPatch{Status: &status, Tags: &tags}.Apply(&ioc)

	if ioc.Status != IOCRevoked {
		t.Fatalf("status not patched: %s", ioc.Status)
	}
	if ioc.Value != "evil.example" || ioc.Confidence != 50 {
		t.Fatalf("untouched fields changed: %#v", ioc)
	}
	tags[0] = "mutated"
	if ioc.Tags[0] != "b" {
		t.Fatalf("patch aliased caller slice: %v", ioc.Tags)
	}
}

func TestParseSeverity(t *testing.T) {
	for _, raw := range []string{"High", "high", " HIGH "} {
		got, err := ParseSeverity(raw)
		if err != nil || got != SeverityHigh {
			t.Fatalf("ParseSeverity(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseSeverity("severe"); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}

func TestActorWithDefaults(t *testing.T) {
	actor := ThreatActor{}.WithDefaults("2026-10-19")
	if err := actor.Validate(); err != nil {
		t.Fatalf("defaulted actor invalid: %v", err)
	}
	if actor.Name != "New APT Group" || actor.Severity != SeverityMedium || actor.LastActive != "2026-10-19" {
		t.Fatalf("unexpected defaults: %#v", actor)
	}

	kept := ThreatActor{Name: "Sandworm", Severity: SeverityCritical}.WithDefaults("2026-10-19")
	if kept.Name != "Sandworm" || kept.Severity != SeverityCritical {
		t.Fatalf("defaults overwrote fields: %#v", kept)
	}
}

func TestAssetSettle(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	asset := ScopeAsset{ID: "a1", Kind: AssetDomain, Value: "corp.example", Status: AssetVerifying}

	if err := asset.Settle(AssetVerifying, at); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition to Verifying, got %v", err)
	}
	if err := asset.Settle(AssetProtected, at); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if asset.Status != AssetProtected || !asset.LastChecked.Equal(at) {
		t.Fatalf("unexpected asset after settle: %#v", asset)
	}
	if err := asset.Settle(AssetExposed, at); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("settled asset moved again: %v", err)
	}
}

func TestVulnerabilityValidate(t *testing.T) {
	for _, v := range SeedVulnerabilities() {
		if err := v.Validate(); err != nil {
			t.Fatalf("seed %s invalid: %v", v.CVE, err)
		}
	}
	bad := []Vulnerability{
		{CVE: "CVE-24-1", Score: 5},
		{CVE: "cve-2024-21410", Score: 5},
		{CVE: "CVE-2024-21410", Score: 10.5},
	}
	for _, v := range bad {
		if err := v.Validate(); err == nil {
			t.Fatalf("expected error for %#v", v)
		}
	}
}

func TestGradePassword(t *testing.T) {
	cases := map[string]Strength{
		"123456":             StrengthLow,
		"summer2023":         StrengthMedium,
		"Password123!":       StrengthHigh,
		"Admin@2024!Complex": StrengthHigh,
		"abcdefghijklmnop":   StrengthLow,
	}
	for pw, want := range cases {
		if got := GradePassword(pw); got != want {
			t.Fatalf("GradePassword(%q) = %s, want %s", pw, got, want)
		}
	}
}

func TestLeakDraftCredential(t *testing.T) {
	cred := LeakDraft{Username: "root", Password: "123456"}.Credential("sealed", "1****6")
	if cred.Status != LeakPending || cred.Strength != StrengthLow {
		t.Fatalf("unexpected credential: %#v", cred)
	}
	if err := cred.Validate(); err != nil {
		t.Fatalf("credential invalid: %v", err)
	}
	if err := (LeakDraft{Username: "root"}).Credential("", "").Validate(); err == nil {
		t.Fatalf("credential without sealed secret accepted")
	}
}

func TestQuestionPatch(t *testing.T) {
	q := AuditQuestion{ID: 3, Text: "Old", Category: "Technical"}
	text := "  New text  "
	QuestionPatch{Text: &text}.Apply(&q)
	if q.Text != "New text" || q.Category != "Technical" || q.ID != 3 {
		t.Fatalf("unexpected question: %#v", q)
	}
	empty := ""
	QuestionPatch{Text: &empty}.Apply(&q)
	if err := q.Validate(); err == nil {
		t.Fatalf("empty question text accepted")
	}
}

func TestSeedsAreValid(t *testing.T) {
	for _, i := range SeedIOCs() {
		if err := i.Validate(); err != nil {
			t.Fatalf("seed ioc %s: %v", i.Value, err)
		}
	}
	for _, a := range SeedActors() {
		if err := a.Validate(); err != nil {
			t.Fatalf("seed actor %s: %v", a.Name, err)
		}
	}
	for _, v := range SeedVictims() {
		if err := v.Validate(); err != nil {
			t.Fatalf("seed victim %s: %v", v.Target, err)
		}
	}
	for _, r := range SeedRepoExposures() {
		if err := r.Validate(); err != nil {
			t.Fatalf("seed repo %s: %v", r.Name, err)
		}
	}
	for _, f := range SeedThreatFeeds() {
		if err := f.Validate(); err != nil {
			t.Fatalf("seed feed %s: %v", f.Source, err)
		}
	}
	if got := len(SeedQuestions()); got != 10 {
		t.Fatalf("expected 10 seed questions, got %d", got)
	}
}

func TestIOCWithDefaults(t *testing.T) {
	ioc := IOC{Value: " 203.0.113.9 "}.WithDefaults("2026-10-19 10:00:00")
	if err := ioc.Validate(); err != nil {
		t.Fatalf("defaulted ioc invalid: %v", err)
	}
	if ioc.Value != "203.0.113.9" || ioc.Confidence != 50 || ioc.Status != IOCActive || ioc.Description != "Manually added." {
		t.Fatalf("unexpected defaults: %#v", ioc)
	}
	kept := IOC{Value: "x.example", Kind: IOCDomain, Confidence: 80}.WithDefaults("now")
	if kept.Kind != IOCDomain || kept.Confidence != 80 {
		t.Fatalf("defaults overwrote fields: %#v", kept)
	}
}

func TestArtifactPivots(t *testing.T) {
	ip := FeedArtifact{Value: "45.153.242.129", Type: ArtifactIP}
	want := []Pivot{
		{Engine: "VirusTotal", URL: "https://www.virustotal.com/gui/search/45.153.242.129"},
		{Engine: "OTX", URL: "https://otx.alienvault.com/indicator/ip/45.153.242.129"},
		{Engine: "abuse.ch", URL: "https://abuseipdb.com/check/45.153.242.129"},
	}
	if diff := cmp.Diff(want, ip.Pivots()); diff != "" {
		t.Fatalf("ip pivots mismatch (-want +got):\n%s", diff)
	}

	u := FeedArtifact{Value: "http://cdn.top-service.net/dl", Type: ArtifactURL}
	pivots := u.Pivots()
	if pivots[2].URL != "https://urlhaus.abuse.ch/browse.php?search=http%3A%2F%2Fcdn.top-service.net%2Fdl" {
		t.Fatalf("url artifact abuse pivot: %s", pivots[2].URL)
	}
	if pivots[1].URL != "https://otx.alienvault.com/indicator/url/http:%2F%2Fcdn.top-service.net%2Fdl" {
		t.Fatalf("url artifact otx pivot: %s", pivots[1].URL)
	}
}

func TestRepoExposureValidate(t *testing.T) {
	ok := RepoExposure{Name: "api", Provider: ProviderGitLab, Risk: SeverityLow}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid repo rejected: %v", err)
	}
	bad := ok
	bad.Provider = "SourceForge"
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown provider accepted")
	}
}
