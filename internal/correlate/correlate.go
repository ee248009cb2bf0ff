// Package correlate builds the scope-correlation prompt and turns the
// model's answer into correlation hits.
package correlate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sloppy/threatone/internal/extract"
	"github.com/sloppy/threatone/internal/intel"
)

// ErrNoAssets is returned when there is nothing in scope to correlate.
var ErrNoAssets = errors.New("no scope assets to correlate")

// Prompt asks the model to correlate the scope assets against current threats
// and to answer in the HIT line format understood by ParseHits.
func Prompt(assets []intel.ScopeAsset) (string, error) {
	if len(assets) == 0 {
		return "", ErrNoAssets
	}
	list := make([]string, 0, len(assets))
	for _, a := range assets {
		list = append(list, fmt.Sprintf("%s: %s", a.Kind, a.Value))
	}

	var b strings.Builder
	b.WriteString("Act as a senior Cyber Threat Intelligence analyst.\n")
	b.WriteString("Goal: tactical correlation between a client's assets and current real-world threats.\n\n")
	fmt.Fprintf(&b, "Scope assets: [%s]\n\n", strings.Join(list, ", "))
	b.WriteString("Instructions:\n")
	b.WriteString("1. Search for leaks in the last 30 days involving these names or domains on forums and ransomware blogs.\n")
	b.WriteString("2. Check whether the IPs or domains appear in IOC feeds such as Abuse.ch or CISA AIS.\n")
	b.WriteString("3. Identify whether common technologies tied to these assets (VPN, e-mail, firewalls) have recent critical CVEs in CISA KEV.\n\n")
	b.WriteString("Answer with one line per finding, exactly:\n")
	b.WriteString("HIT | <asset value> | <source: " + sourceList() + "> | <severity: CRITICAL, HIGH, MEDIUM or LOW> | <threat title> | <why it links to the asset> | <description>\n")
	b.WriteString("followed by remediation steps, one per line, each starting with \"- \".\n")
	return b.String(), nil
}

func sourceList() string {
	names := make([]string, len(intel.ThreatSources))
	for i, s := range intel.ThreatSources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// ParseHits reads HIT lines from a model answer. Malformed lines are skipped;
// an answer without hits yields an empty slice.
func ParseHits(text string, now time.Time) []intel.CorrelationHit {
	hits := []intel.CorrelationHit{}
	var last *intel.CorrelationHit
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			if last != nil {
				last.Remediation = append(last.Remediation, strings.TrimSpace(line[2:]))
			}
			continue
		}
		line = strings.TrimSpace(strings.Trim(line, "*`"))
		if line == "" {
			continue
		}
		hit, ok := parseHitLine(line, now)
		if !ok {
			last = nil
			continue
		}
		hits = append(hits, hit)
		last = &hits[len(hits)-1]
	}
	return hits
}

func parseHitLine(line string, now time.Time) (intel.CorrelationHit, bool) {
	fields := strings.Split(line, "|")
	if len(fields) != 7 || !strings.EqualFold(strings.TrimSpace(fields[0]), "HIT") {
		return intel.CorrelationHit{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	source := intel.ThreatSource(fields[2])
	if !source.Valid() {
		source = matchSource(fields[2])
	}
	severity, err := intel.ParseSeverity(fields[3])
	if err != nil || fields[1] == "" || fields[4] == "" || !source.Valid() {
		return intel.CorrelationHit{}, false
	}
	return intel.CorrelationHit{
		ID:          uuid.NewString(),
		AssetValue:  fields[1],
		Source:      source,
		Severity:    severity,
		ThreatTitle: fields[4],
		Link:        fields[5],
		Description: fields[6],
		DetectedAt:  now.UTC().Format(time.RFC3339),
		Remediation: []string{},
	}, true
}

func matchSource(raw string) intel.ThreatSource {
	for _, s := range intel.ThreatSources {
		if strings.EqualFold(string(s), raw) {
			return s
		}
	}
	return ""
}

// InvestigationURL is where an analyst continues investigating a hit: the NVD
// page when the title names a CVE, otherwise a source-specific search.
func InvestigationURL(hit intel.CorrelationHit) string {
	if id, ok := extract.FirstCVE(hit.ThreatTitle); ok {
		return "https://nvd.nist.gov/vuln/detail/" + string(id)
	}
	var q string
	switch hit.Source {
	case intel.SourceRansomware:
		q = "ransomware leak site monitoring " + hit.AssetValue
	case intel.SourceDarkweb:
		q = "intel threat actor activity " + hit.ThreatTitle
	default:
		q = hit.ThreatTitle + " " + hit.AssetValue
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(q)
}
