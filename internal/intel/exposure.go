package intel

import (
	"fmt"
	"net/url"
	"strings"
)

// RepoProvider hosts a monitored code repository.
type RepoProvider string

const (
	ProviderGitHub    RepoProvider = "GitHub"
	ProviderGitLab    RepoProvider = "GitLab"
	ProviderBitbucket RepoProvider = "Bitbucket"
)

var RepoProviders = []RepoProvider{ProviderGitHub, ProviderGitLab, ProviderBitbucket}

func (p RepoProvider) Valid() bool {
	for _, known := range RepoProviders {
		if p == known {
			return true
		}
	}
	return false
}

// RepoExposure is a code repository found leaking a secret or personal data.
type RepoExposure struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Provider     RepoProvider `json:"provider"`
	Organization string       `json:"organization"`
	LeakType     string       `json:"leakType"`
	Risk         Severity     `json:"risk"`
	LastScan     string       `json:"lastScan"`
	URL          string       `json:"url"`
}

func (r RepoExposure) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("repository name is required")
	}
	if !r.Provider.Valid() {
		return fmt.Errorf("unknown provider %q", r.Provider)
	}
	if !r.Risk.Valid() {
		return fmt.Errorf("unknown risk %q", r.Risk)
	}
	return nil
}

// RepoSearchFields matches on the repository name only; the organisation has
// its own filter.
func RepoSearchFields(r RepoExposure) []string {
	return []string{r.Name}
}

// FeedArtifactType classifies an artifact published by a feed.
type FeedArtifactType string

const (
	ArtifactIP     FeedArtifactType = "IP"
	ArtifactDomain FeedArtifactType = "Domain"
	ArtifactHash   FeedArtifactType = "Hash"
	ArtifactURL    FeedArtifactType = "URL"
)

type FeedArtifact struct {
	Value    string           `json:"value"`
	Type     FeedArtifactType `json:"type"`
	Severity Severity         `json:"severity"`
}

// Pivot is a lookup of an artifact on an external intelligence engine.
type Pivot struct {
	Engine string `json:"engine"`
	URL    string `json:"url"`
}

// Pivots returns the VirusTotal, OTX and abuse.ch lookups for the artifact.
// IP addresses go to AbuseIPDB; everything else to URLhaus.
func (a FeedArtifact) Pivots() []Pivot {
	escaped := url.PathEscape(a.Value)
	abuse := "https://urlhaus.abuse.ch/browse.php?search=" + url.QueryEscape(a.Value)
	if a.Type == ArtifactIP {
		abuse = "https://abuseipdb.com/check/" + escaped
	}
	return []Pivot{
		{Engine: "VirusTotal", URL: "https://www.virustotal.com/gui/search/" + escaped},
		{Engine: "OTX", URL: "https://otx.alienvault.com/indicator/" + strings.ToLower(string(a.Type)) + "/" + escaped},
		{Engine: "abuse.ch", URL: abuse},
	}
}

// ThreatFeed is an aggregated intelligence source and the artifacts it last
// published.
type ThreatFeed struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Category    string         `json:"category"`
	LastUpdate  string         `json:"lastUpdate"`
	Reliability string         `json:"reliability"`
	Description string         `json:"description"`
	SourceURL   string         `json:"sourceUrl"`
	Artifacts   []FeedArtifact `json:"artifacts"`
}

func (f ThreatFeed) Validate() error {
	if strings.TrimSpace(f.Source) == "" {
		return fmt.Errorf("feed source is required")
	}
	for _, a := range f.Artifacts {
		if strings.TrimSpace(a.Value) == "" {
			return fmt.Errorf("feed %s: artifact value is required", f.Source)
		}
	}
	return nil
}

// Artifact returns the artifact of the feed with value.
func (f ThreatFeed) Artifact(value string) (FeedArtifact, bool) {
	for _, a := range f.Artifacts {
		if a.Value == value {
			return a, true
		}
	}
	return FeedArtifact{}, false
}

func FeedSearchFields(f ThreatFeed) []string {
	fields := []string{f.Source, f.Category, f.Description}
	for _, a := range f.Artifacts {
		fields = append(fields, a.Value)
	}
	return fields
}
