package export

import (
	"strconv"
	"strings"

	"github.com/sloppy/threatone/internal/intel"
)

func joined(values []string) string { return strings.Join(values, "; ") }

var IOCColumns = []Column[intel.IOC]{
	{"id", func(i intel.IOC) string { return i.ID }},
	{"value", func(i intel.IOC) string { return i.Value }},
	{"kind", func(i intel.IOC) string { return string(i.Kind) }},
	{"confidence", func(i intel.IOC) string { return strconv.Itoa(i.Confidence) }},
	{"status", func(i intel.IOC) string { return string(i.Status) }},
	{"last_seen", func(i intel.IOC) string { return i.LastSeen }},
	{"tags", func(i intel.IOC) string { return joined(i.Tags) }},
	{"associated_actor", func(i intel.IOC) string { return i.AssociatedActor }},
	{"location", func(i intel.IOC) string { return i.Location }},
	{"description", func(i intel.IOC) string { return i.Description }},
}

var ActorColumns = []Column[intel.ThreatActor]{
	{"id", func(a intel.ThreatActor) string { return a.ID }},
	{"name", func(a intel.ThreatActor) string { return a.Name }},
	{"origin", func(a intel.ThreatActor) string { return a.Origin }},
	{"motivation", func(a intel.ThreatActor) string { return a.Motivation }},
	{"ttps", func(a intel.ThreatActor) string { return joined(a.TTPs) }},
	{"severity", func(a intel.ThreatActor) string { return string(a.Severity) }},
	{"last_active", func(a intel.ThreatActor) string { return a.LastActive }},
	{"description", func(a intel.ThreatActor) string { return a.Description }},
}

var AssetColumns = []Column[intel.ScopeAsset]{
	{"id", func(a intel.ScopeAsset) string { return a.ID }},
	{"kind", func(a intel.ScopeAsset) string { return string(a.Kind) }},
	{"value", func(a intel.ScopeAsset) string { return a.Value }},
	{"status", func(a intel.ScopeAsset) string { return string(a.Status) }},
	{"last_checked", func(a intel.ScopeAsset) string { return formatTime(a.LastChecked) }},
	{"tags", func(a intel.ScopeAsset) string { return joined(a.Tags) }},
}

var VictimColumns = []Column[intel.RansomwareVictim]{
	{"id", func(v intel.RansomwareVictim) string { return v.ID }},
	{"group", func(v intel.RansomwareVictim) string { return v.Group }},
	{"target", func(v intel.RansomwareVictim) string { return v.Target }},
	{"sector", func(v intel.RansomwareVictim) string { return v.Sector }},
	{"country", func(v intel.RansomwareVictim) string { return v.Country }},
	{"disclosed", func(v intel.RansomwareVictim) string { return v.Disclosed }},
	{"extortion_status", func(v intel.RansomwareVictim) string { return v.ExtortionStatus }},
	{"demand", func(v intel.RansomwareVictim) string {
		if v.Demand == nil {
			return ""
		}
		return *v.Demand
	}},
	{"data_categories", func(v intel.RansomwareVictim) string { return joined(v.DataCategories) }},
}

// LeakColumns carries the masked secret only.
var LeakColumns = []Column[intel.LeakedCredential]{
	{"id", func(c intel.LeakedCredential) string { return c.ID }},
	{"detected_at", func(c intel.LeakedCredential) string { return c.DetectedAt }},
	{"target_url", func(c intel.LeakedCredential) string { return c.TargetURL }},
	{"username", func(c intel.LeakedCredential) string { return c.Username }},
	{"secret", func(c intel.LeakedCredential) string { return c.Masked }},
	{"source", func(c intel.LeakedCredential) string { return c.Source }},
	{"strength", func(c intel.LeakedCredential) string { return string(c.Strength) }},
	{"status", func(c intel.LeakedCredential) string { return string(c.Status) }},
}

var VulnColumns = []Column[intel.Vulnerability]{
	{"cve", func(v intel.Vulnerability) string { return v.CVE }},
	{"vendor", func(v intel.Vulnerability) string { return v.Vendor }},
	{"product", func(v intel.Vulnerability) string { return v.Product }},
	{"date_added", func(v intel.Vulnerability) string { return v.DateAdded }},
	{"due_date", func(v intel.Vulnerability) string { return v.DueDate }},
	{"score", func(v intel.Vulnerability) string { return strconv.FormatFloat(v.Score, 'f', 1, 64) }},
	{"status", func(v intel.Vulnerability) string { return v.Status }},
	{"required_action", func(v intel.Vulnerability) string { return v.RequiredAction }},
	{"reference_url", func(v intel.Vulnerability) string { return v.ReferenceURL }},
}

var ForumColumns = []Column[intel.ForumPost]{
	{"date", func(p intel.ForumPost) string { return p.Date }},
	{"user", func(p intel.ForumPost) string { return p.User }},
	{"forum", func(p intel.ForumPost) string { return p.Forum }},
	{"post", func(p intel.ForumPost) string { return p.Post }},
	{"url", func(p intel.ForumPost) string { return p.URL }},
}

var ChatColumns = []Column[intel.ChatMessage]{
	{"date", func(m intel.ChatMessage) string { return m.Date }},
	{"user", func(m intel.ChatMessage) string { return m.User }},
	{"source", func(m intel.ChatMessage) string { return string(m.Source) }},
	{"chat", func(m intel.ChatMessage) string { return m.Chat }},
	{"message", func(m intel.ChatMessage) string { return m.Message }},
	{"url", func(m intel.ChatMessage) string { return m.URL }},
}

var QuestionColumns = []Column[intel.AuditQuestion]{
	{"id", func(q intel.AuditQuestion) string { return strconv.FormatInt(q.ID, 10) }},
	{"category", func(q intel.AuditQuestion) string { return q.Category }},
	{"text", func(q intel.AuditQuestion) string { return q.Text }},
}

var HitColumns = []Column[intel.CorrelationHit]{
	{"detected_at", func(h intel.CorrelationHit) string { return h.DetectedAt }},
	{"asset", func(h intel.CorrelationHit) string { return h.AssetValue }},
	{"source", func(h intel.CorrelationHit) string { return string(h.Source) }},
	{"severity", func(h intel.CorrelationHit) string { return string(h.Severity) }},
	{"threat", func(h intel.CorrelationHit) string { return h.ThreatTitle }},
	{"link", func(h intel.CorrelationHit) string { return h.Link }},
	{"remediation", func(h intel.CorrelationHit) string { return joined(h.Remediation) }},
}

var RepoColumns = []Column[intel.RepoExposure]{
	{"id", func(r intel.RepoExposure) string { return r.ID }},
	{"name", func(r intel.RepoExposure) string { return r.Name }},
	{"provider", func(r intel.RepoExposure) string { return string(r.Provider) }},
	{"organization", func(r intel.RepoExposure) string { return r.Organization }},
	{"leak_type", func(r intel.RepoExposure) string { return r.LeakType }},
	{"risk", func(r intel.RepoExposure) string { return string(r.Risk) }},
	{"last_scan", func(r intel.RepoExposure) string { return r.LastScan }},
	{"url", func(r intel.RepoExposure) string { return r.URL }},
}

// FeedColumns flattens the artifacts into "TYPE:value" pairs.
var FeedColumns = []Column[intel.ThreatFeed]{
	{"id", func(f intel.ThreatFeed) string { return f.ID }},
	{"source", func(f intel.ThreatFeed) string { return f.Source }},
	{"category", func(f intel.ThreatFeed) string { return f.Category }},
	{"reliability", func(f intel.ThreatFeed) string { return f.Reliability }},
	{"last_update", func(f intel.ThreatFeed) string { return f.LastUpdate }},
	{"artifacts", func(f intel.ThreatFeed) string {
		pairs := make([]string, 0, len(f.Artifacts))
		for _, a := range f.Artifacts {
			pairs = append(pairs, string(a.Type)+":"+a.Value)
		}
		return joined(pairs)
	}},
	{"source_url", func(f intel.ThreatFeed) string { return f.SourceURL }},
	{"description", func(f intel.ThreatFeed) string { return f.Description }},
}
