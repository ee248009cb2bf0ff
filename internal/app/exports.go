package app

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sloppy/threatone/internal/export"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/store"
)

var (
	ErrUnknownKind   = errors.New("unknown export kind")
	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnknownFilter = errors.New("unknown export filter")
)

// Export formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

// ExportScope narrows an export to what a view shows. A non-empty ID exports
// that single record and ignores the rest; otherwise Query and Filters apply
// the same derived filter as the view. The zero scope exports everything.
type ExportScope struct {
	Query   string
	Filters map[string]string
	ID      string
}

type exporter interface {
	write(w io.Writer, format string, at time.Time, scope ExportScope) error
}

// source is one exportable collection. filters maps a filter name to the
// predicate built from its wanted value.
type source[T any] struct {
	kind    string
	columns []export.Column[T]
	items   func() []T
	id      func(T) string
	fields  func(T) []string
	filters map[string]func(string) func(T) bool
}

func (s source[T]) pick(scope ExportScope) ([]T, error) {
	if scope.ID != "" {
		for _, item := range s.items() {
			if s.id(item) == scope.ID {
				return []T{item}, nil
			}
		}
		return nil, fmt.Errorf("export %s %s: %w", s.kind, scope.ID, store.ErrNotFound)
	}
	preds := make([]func(T) bool, 0, len(scope.Filters))
	for name, want := range scope.Filters {
		build, ok := s.filters[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %q filter", ErrUnknownFilter, s.kind, name)
		}
		preds = append(preds, build(want))
	}
	return store.Filter(s.items(), scope.Query, s.fields, preds...), nil
}

func (s source[T]) write(w io.Writer, format string, at time.Time, scope ExportScope) error {
	format = strings.ToLower(format)
	switch format {
	case FormatCSV, "", FormatJSON, FormatTable:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	items, err := s.pick(scope)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		return export.JSON(w, export.NewDocument(s.kind, at, items))
	case FormatTable:
		return export.Table(w, s.columns, items)
	}
	return export.CSV(w, s.columns, items)
}

func equalsFilter[T any, V ~string](key func(T) V) func(string) func(T) bool {
	return func(want string) func(T) bool { return store.Equals(key, want) }
}

func containsFilter[T any](key func(T) string) func(string) func(T) bool {
	return func(want string) func(T) bool { return store.Contains(key, want) }
}

func (d *Dashboard) exporters() map[string]exporter {
	return map[string]exporter{
		"iocs": source[intel.IOC]{
			kind: "iocs", columns: export.IOCColumns, items: d.IOCs.All, fields: intel.IOCSearchFields,
			id: func(i intel.IOC) string { return i.ID },
			filters: map[string]func(string) func(intel.IOC) bool{
				"kind":   equalsFilter(func(i intel.IOC) intel.IOCKind { return i.Kind }),
				"status": equalsFilter(func(i intel.IOC) intel.IOCStatus { return i.Status }),
			},
		},
		"threat-actors": source[intel.ThreatActor]{
			kind: "threat-actors", columns: export.ActorColumns, items: d.Actors.All, fields: intel.ActorSearchFields,
			id: func(a intel.ThreatActor) string { return a.ID },
			filters: map[string]func(string) func(intel.ThreatActor) bool{
				"severity": equalsFilter(func(a intel.ThreatActor) intel.Severity { return a.Severity }),
			},
		},
		"assets": source[intel.ScopeAsset]{
			kind: "assets", columns: export.AssetColumns, items: d.Assets.All, fields: intel.AssetSearchFields,
			id: func(a intel.ScopeAsset) string { return a.ID },
			filters: map[string]func(string) func(intel.ScopeAsset) bool{
				"kind":   equalsFilter(func(a intel.ScopeAsset) intel.AssetKind { return a.Kind }),
				"status": equalsFilter(func(a intel.ScopeAsset) intel.AssetStatus { return a.Status }),
			},
		},
		"ransomware-victims": source[intel.RansomwareVictim]{
			kind: "ransomware-victims", columns: export.VictimColumns, items: d.Victims.All, fields: intel.VictimSearchFields,
			id: func(v intel.RansomwareVictim) string { return v.ID },
			filters: map[string]func(string) func(intel.RansomwareVictim) bool{
				"sector": equalsFilter(func(v intel.RansomwareVictim) string { return v.Sector }),
				"group":  equalsFilter(func(v intel.RansomwareVictim) string { return v.Group }),
			},
		},
		"leaks": source[intel.LeakedCredential]{
			kind: "leaks", columns: export.LeakColumns, items: d.Leaks.All, fields: intel.LeakSearchFields,
			id: func(c intel.LeakedCredential) string { return c.ID },
			filters: map[string]func(string) func(intel.LeakedCredential) bool{
				"status": equalsFilter(func(c intel.LeakedCredential) intel.LeakStatus { return c.Status }),
			},
		},
		"kev": source[intel.Vulnerability]{
			kind: "kev", columns: export.VulnColumns, items: d.Vulns.All, fields: intel.VulnSearchFields,
			id: func(v intel.Vulnerability) string { return v.CVE },
			filters: map[string]func(string) func(intel.Vulnerability) bool{
				"vendor": equalsFilter(func(v intel.Vulnerability) string { return v.Vendor }),
				"status": equalsFilter(func(v intel.Vulnerability) string { return v.Status }),
			},
		},
		"forum": source[intel.ForumPost]{
			kind: "forum", columns: export.ForumColumns, items: d.Forum.All,
			id:     func(p intel.ForumPost) string { return p.ID },
			fields: func(p intel.ForumPost) []string { return []string{p.User, p.Forum, p.Post, p.Details} },
			filters: map[string]func(string) func(intel.ForumPost) bool{
				"forum": equalsFilter(func(p intel.ForumPost) string { return p.Forum }),
			},
		},
		"chats": source[intel.ChatMessage]{
			kind: "chats", columns: export.ChatColumns, items: d.Chats.All,
			id:     func(m intel.ChatMessage) string { return m.ID },
			fields: func(m intel.ChatMessage) []string { return []string{m.User, m.Chat, m.Message} },
			filters: map[string]func(string) func(intel.ChatMessage) bool{
				"source": equalsFilter(func(m intel.ChatMessage) intel.ChatSource { return m.Source }),
			},
		},
		"questions": source[intel.AuditQuestion]{
			kind: "questions", columns: export.QuestionColumns, items: d.Questions.All,
			id:     func(q intel.AuditQuestion) string { return strconv.FormatInt(q.ID, 10) },
			fields: func(q intel.AuditQuestion) []string { return []string{q.Text, q.Category} },
			filters: map[string]func(string) func(intel.AuditQuestion) bool{
				"category": equalsFilter(func(q intel.AuditQuestion) string { return q.Category }),
			},
		},
		"correlation-hits": source[intel.CorrelationHit]{
			kind: "correlation-hits", columns: export.HitColumns, items: d.Hits,
			id:     func(h intel.CorrelationHit) string { return h.ID },
			fields: func(h intel.CorrelationHit) []string { return []string{h.AssetValue, h.ThreatTitle, h.Description} },
			filters: map[string]func(string) func(intel.CorrelationHit) bool{
				"source":   equalsFilter(func(h intel.CorrelationHit) intel.ThreatSource { return h.Source }),
				"severity": equalsFilter(func(h intel.CorrelationHit) intel.Severity { return h.Severity }),
			},
		},
		"repo-exposures": source[intel.RepoExposure]{
			kind: "repo-exposures", columns: export.RepoColumns, items: d.Repos.All, fields: intel.RepoSearchFields,
			id: func(r intel.RepoExposure) string { return r.ID },
			filters: map[string]func(string) func(intel.RepoExposure) bool{
				"provider": equalsFilter(func(r intel.RepoExposure) intel.RepoProvider { return r.Provider }),
				"org":      containsFilter(func(r intel.RepoExposure) string { return r.Organization }),
			},
		},
		"threat-feeds": source[intel.ThreatFeed]{
			kind: "threat-feeds", columns: export.FeedColumns, items: d.Feeds.All, fields: intel.FeedSearchFields,
			id: func(f intel.ThreatFeed) string { return f.ID },
			filters: map[string]func(string) func(intel.ThreatFeed) bool{
				"category":    equalsFilter(func(f intel.ThreatFeed) string { return f.Category }),
				"reliability": equalsFilter(func(f intel.ThreatFeed) string { return f.Reliability }),
			},
		},
	}
}

// ExportKinds lists the exportable collections in name order.
func (d *Dashboard) ExportKinds() []string {
	exporters := d.exporters()
	kinds := make([]string, 0, len(exporters))
	for k := range exporters {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Export writes the part of the named collection selected by scope in format.
func (d *Dashboard) Export(w io.Writer, kind, format string, scope ExportScope) error {
	e, ok := d.exporters()[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return e.write(w, format, d.now(), scope)
}

// AuditReport writes the plain-text supplier audit report of the current run.
func (d *Dashboard) AuditReport(w io.Writer) error {
	questions := d.Questions.All()
	res := d.Audit.Score(questions)
	banner := export.Banner{
		Title:   "Supplier Security Audit",
		Date:    d.now(),
		Summary: []string{res.Summary(), fmt.Sprintf("Questions: %d", len(questions))},
		Section: "Answers",
	}
	return export.Report(w, banner, d.Audit.ReportLines(questions))
}

// Summary is the overview shown on the dashboard home page.
type Summary struct {
	Counts         map[string]int            `json:"counts"`
	CriticalIOCs   int                       `json:"criticalIocs"`
	CriticalLeaks  int                       `json:"criticalLeaks"`
	AssetsByStatus map[intel.AssetStatus]int `json:"assetsByStatus"`
	Hits           int                       `json:"hits"`
	Actions        []lifecycle.Status        `json:"actions"`
}

// criticalConfidence is the confidence from which an active IOC counts as critical.
const criticalConfidence = 90

func (d *Dashboard) Summary() Summary {
	s := Summary{
		Counts: map[string]int{
			"iocs":               d.IOCs.Len(),
			"threat-actors":      d.Actors.Len(),
			"assets":             d.Assets.Len(),
			"ransomware-victims": d.Victims.Len(),
			"leaks":              d.Leaks.Len(),
			"kev":                d.Vulns.Len(),
			"forum":              d.Forum.Len(),
			"chats":              d.Chats.Len(),
			"questions":          d.Questions.Len(),
			"repo-exposures":     d.Repos.Len(),
			"threat-feeds":       d.Feeds.Len(),
		},
		AssetsByStatus: map[intel.AssetStatus]int{},
		Hits:           len(d.Hits()),
		Actions:        d.Actions.Statuses(),
	}
	for _, ioc := range d.IOCs.All() {
		if ioc.Status == intel.IOCActive && ioc.Confidence >= criticalConfidence {
			s.CriticalIOCs++
		}
	}
	for _, leak := range d.Leaks.All() {
		if leak.Status == intel.LeakCritical {
			s.CriticalLeaks++
		}
	}
	for _, a := range d.Assets.All() {
		s.AssetsByStatus[a.Status]++
	}
	return s
}
