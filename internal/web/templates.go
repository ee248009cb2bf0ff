package web

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/sloppy/threatone/internal/app"
	"github.com/sloppy/threatone/internal/export"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/view"
)

func render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// htmlWriter keeps the first write error so markup can be emitted without
// checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) printf(format string, args ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, args...)
	}
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func esc(s string) string { return html.EscapeString(s) }

var navItems = []struct {
	Path  string
	Label string
}{
	{"/", "Overview"},
	{"/iocs", "IOCs"},
	{"/actors", "Actors"},
	{"/assets", "Scope"},
	{"/kev", "KEV"},
	{"/leaks", "Leaks"},
	{"/ransomware", "Ransomware"},
	{"/repos", "Repos"},
	{"/feeds", "Feeds"},
	{"/insider", "Insider"},
	{"/audit", "Audit"},
	{"/correlation", "Correlation"},
	{"/reports", "Reports"},
}

func layout(title string, statuses []lifecycle.Status, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.printf("<title>%s · ThreatOne</title>", esc(title))
		h.raw(layoutStyles)
		h.raw("</head><body><nav class=\"nav\"><span class=\"brand\">ThreatOne</span>")
		for _, item := range navItems {
			h.printf("<a href=\"%s\">%s</a>", item.Path, item.Label)
		}
		h.raw("</nav><main class=\"shell\">")
		h.component(statusStrip(statuses))
		h.component(body)
		h.raw("</main></body></html>")
		return h.err
	})
}

// statusStrip shows every action that is running or recently settled.
func statusStrip(statuses []lifecycle.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		visible := 0
		for _, st := range statuses {
			if st.Phase == lifecycle.Idle {
				continue
			}
			if visible == 0 {
				h.raw("<section class=\"statuses\">")
			}
			visible++
			h.printf("<div class=\"status status--%s\"><strong>%s</strong> %s", st.Phase, esc(st.Action), st.Phase)
			if st.Message != "" {
				h.printf(": %s", esc(st.Message))
			}
			if st.Phase.Settled() {
				h.printf(" <span class=\"muted\">(%s)</span>", humanize.Time(st.SettledAt))
			}
			h.raw("</div>")
		}
		if visible > 0 {
			h.raw("</section>")
		}
		return h.err
	})
}

func header(eyebrow, title, subhead string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.printf("<header class=\"page-header\"><p class=\"eyebrow\">%s</p><h1>%s</h1>", esc(eyebrow), esc(title))
		if subhead != "" {
			h.printf("<p class=\"subhead\">%s</p>", esc(subhead))
		}
		h.raw("</header>")
		return h.err
	})
}

// actionButton posts to the action route and comes back to ret.
func actionButton(name, label, ret string, hidden map[string]string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.printf("<form method=\"post\" action=\"/actions/%s\" class=\"inline\">", url.PathEscape(name))
		h.printf("<input type=\"hidden\" name=\"return\" value=\"%s\">", esc(ret))
		keys := make([]string, 0, len(hidden))
		for k := range hidden {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.printf("<input type=\"hidden\" name=\"%s\" value=\"%s\">", esc(k), esc(hidden[k]))
		}
		h.printf("<button type=\"submit\">%s</button></form>", esc(label))
		return h.err
	})
}

func postButton(action, label string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.printf("<form method=\"post\" action=\"%s\" class=\"inline\"><button class=\"ghost\" type=\"submit\">%s</button></form>", esc(action), esc(label))
		return h.err
	})
}

// filterSelect is a select of Options, or a free text input when Options is
// empty.
type filterSelect struct {
	Name    string
	Label   string
	Options []string
}

// listPage is a searchable record list with a detail panel and an add form.
type listPage[T any] struct {
	Path     string
	Eyebrow  string
	Title    string
	Subhead  string
	Query    url.Values
	Filters  []filterSelect
	Columns  []export.Column[T]
	Items    []T
	ID       func(T) string
	State    view.State[string]
	Selected *T
	// Toolbar renders above the table: action buttons and upload forms.
	Toolbar templ.Component
	// AddForm is shown in add mode. Pages without one cannot enter it.
	AddForm templ.Component
	// Detail renders the record actions below the detail panel fields.
	Detail func(T) templ.Component
	Empty  string
	// Export names the export kind offering downloads of the filtered list
	// and of the selected record.
	Export string
}

func (p listPage[T]) link(state view.State[string]) string {
	q := state.Query(p.Query, func(id string) string { return id }).Encode()
	if q == "" {
		return p.Path
	}
	return p.Path + "?" + q
}

// exportLink downloads what the list currently shows: the search and the
// filters, without the view mode or selection.
func (p listPage[T]) exportLink(ext string) string {
	q := url.Values{}
	if v := p.Query.Get("q"); v != "" {
		q.Set("q", v)
	}
	for _, f := range p.Filters {
		if v := p.Query.Get(f.Name); v != "" {
			q.Set(f.Name, v)
		}
	}
	link := "/api/export/" + p.Export + "." + ext
	if len(q) > 0 {
		link += "?" + q.Encode()
	}
	return link
}

func (p listPage[T]) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.component(header(p.Eyebrow, p.Title, p.Subhead))

		h.printf("<section class=\"card\"><form method=\"get\" action=\"%s\" class=\"filters\">", p.Path)
		h.printf("<label>Search<input name=\"q\" value=\"%s\" placeholder=\"Search\"></label>", esc(p.Query.Get("q")))
		for _, f := range p.Filters {
			current := p.Query.Get(f.Name)
			if len(f.Options) == 0 {
				h.printf("<label>%s<input name=\"%s\" value=\"%s\"></label>", esc(f.Label), esc(f.Name), esc(current))
				continue
			}
			h.printf("<label>%s<select name=\"%s\"><option value=\"\">Any</option>", esc(f.Label), esc(f.Name))
			for _, opt := range f.Options {
				selected := ""
				if strings.EqualFold(opt, current) {
					selected = " selected"
				}
				h.printf("<option value=\"%s\"%s>%s</option>", esc(opt), selected, esc(opt))
			}
			h.raw("</select></label>")
		}
		h.raw("<div class=\"filter-actions\"><button type=\"submit\">Apply</button></div></form>")
		if p.AddForm != nil && p.State.Mode() != view.Adding {
			add, _ := p.State.Add()
			h.printf("<p><a class=\"back-link\" href=\"%s\">+ Add</a></p>", esc(p.link(add)))
		}
		h.component(p.Toolbar)
		if p.Export != "" {
			h.printf("<p class=\"muted\">Export view: <a href=\"%s\">CSV</a> · <a href=\"%s\">JSON</a></p>",
				esc(p.exportLink("csv")), esc(p.exportLink("json")))
		}
		h.raw("</section>")

		if p.State.Mode() == view.Adding && p.AddForm != nil {
			h.printf("<section class=\"card\"><h2>Add</h2>")
			h.component(p.AddForm)
			h.printf("<p><a class=\"back-link\" href=\"%s\">Cancel</a></p></section>", esc(p.link(p.State.Close())))
		}

		if p.Selected != nil {
			h.component(p.detailPanel(*p.Selected))
		}

		h.raw("<section class=\"card\">")
		if len(p.Items) == 0 {
			empty := p.Empty
			if empty == "" {
				empty = "Nothing matches the current filters."
			}
			h.printf("<p class=\"empty\">%s</p></section>", esc(empty))
			return h.err
		}
		h.printf("<p class=\"muted\">%d records</p>", len(p.Items))
		h.component(table(p.Columns, p.Items, func(item T) string {
			inspect, _ := view.Browse[string]().Inspect(p.ID(item))
			return p.link(inspect)
		}))
		h.raw("</section>")
		return h.err
	})
}

func (p listPage[T]) detailPanel(item T) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw("<section class=\"card detail\"><h2>Details</h2><dl>")
		for _, col := range p.Columns {
			h.printf("<dt>%s</dt><dd>%s</dd>", esc(columnLabel(col.Name)), esc(col.Value(item)))
		}
		h.raw("</dl><div class=\"page-actions\">")
		if p.Detail != nil {
			h.component(p.Detail(item))
		}
		if p.Export != "" {
			h.printf("<a class=\"back-link\" href=\"/api/export/%s/%s.csv\">Export record</a>", esc(p.Export), esc(url.PathEscape(p.ID(item))))
		}
		h.printf("<a class=\"back-link\" href=\"%s\">Close</a></div></section>", esc(p.link(p.State.Close())))
		return h.err
	})
}

// table renders items as rows. With href, the first cell links to the record.
func table[T any](columns []export.Column[T], items []T, href func(T) string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw("<div class=\"table-wrap\"><table class=\"data-table\"><thead><tr>")
		for _, col := range columns {
			if col.Name == "id" {
				continue
			}
			h.printf("<th>%s</th>", esc(columnLabel(col.Name)))
		}
		h.raw("</tr></thead><tbody>")
		for _, item := range items {
			h.raw("<tr>")
			first := true
			for _, col := range columns {
				if col.Name == "id" {
					continue
				}
				value := esc(col.Value(item))
				if first && href != nil {
					value = fmt.Sprintf("<a href=\"%s\">%s</a>", esc(href(item)), value)
				}
				first = false
				h.printf("<td>%s</td>", value)
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table></div>")
		return h.err
	})
}

func columnLabel(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func homePage(summary app.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.component(header("ThreatOne", "Threat intelligence overview", "Indicators, exposure and supplier risk in one place."))
		h.raw("<section class=\"card\"><h2>Collections</h2><div class=\"stats-grid\">")
		kinds := make([]string, 0, len(summary.Counts))
		for k := range summary.Counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			h.printf("<div><p class=\"stat-label\">%s</p><p class=\"stat-value\">%d</p></div>", esc(columnLabel(strings.ReplaceAll(k, "-", " "))), summary.Counts[k])
		}
		h.raw("</div></section>")

		h.raw("<section class=\"card\"><h2>Attention</h2><div class=\"stats-grid\">")
		h.printf("<div><p class=\"stat-label\">Critical IOCs</p><p class=\"stat-value\">%d</p></div>", summary.CriticalIOCs)
		h.printf("<div><p class=\"stat-label\">Critical leaks</p><p class=\"stat-value\">%d</p></div>", summary.CriticalLeaks)
		h.printf("<div><p class=\"stat-label\">Exposed assets</p><p class=\"stat-value\">%d</p></div>", summary.AssetsByStatus[intel.AssetExposed])
		h.printf("<div><p class=\"stat-label\">Verifying assets</p><p class=\"stat-value\">%d</p></div>", summary.AssetsByStatus[intel.AssetVerifying])
		h.printf("<div><p class=\"stat-label\">Correlation hits</p><p class=\"stat-value\">%d</p></div>", summary.Hits)
		h.raw("</div></section>")

		h.raw("<section class=\"card\"><h2>Actions</h2><table class=\"data-table\"><thead><tr><th>Action</th><th>Phase</th><th>Message</th></tr></thead><tbody>")
		for _, st := range summary.Actions {
			h.printf("<tr><td>%s</td><td>%s</td><td>%s</td></tr>", esc(st.Action), st.Phase, esc(st.Message))
		}
		h.raw("</tbody></table></section>")
		return h.err
	})
}

func iocKindOptions() []string {
	out := make([]string, len(intel.IOCKinds))
	for i, k := range intel.IOCKinds {
		out[i] = string(k)
	}
	return out
}

func iocsPage(state view.State[string], selected *intel.IOC, items []intel.IOC, q url.Values) templ.Component {
	return listPage[intel.IOC]{
		Path:     "/iocs",
		Export:   "iocs",
		Eyebrow:  "Threat feeds",
		Title:    "Indicators of compromise",
		Subhead:  "Tracked IPs, domains, hashes, URLs and addresses.",
		Query:    q,
		Filters:  []filterSelect{{Name: "kind", Label: "Kind", Options: iocKindOptions()}},
		Columns:  export.IOCColumns,
		Items:    items,
		ID:       func(i intel.IOC) string { return i.ID },
		State:    state,
		Selected: selected,
		Toolbar:  actionButton(lifecycle.IOCSync, "Sync with AI", "/iocs", nil),
		AddForm:  iocForm(),
		Detail: func(i intel.IOC) templ.Component {
			return postButton("/iocs/"+url.PathEscape(i.ID)+"/delete", "Delete")
		},
	}.Component()
}

func iocForm() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw("<form method=\"post\" action=\"/iocs\" class=\"filters\">")
		h.raw("<label>Value<input name=\"value\" required></label><label>Kind<select name=\"kind\">")
		for _, k := range iocKindOptions() {
			h.printf("<option value=\"%s\">%s</option>", k, k)
		}
		h.raw("</select></label><label>Confidence<input name=\"confidence\" type=\"number\" min=\"0\" max=\"100\" placeholder=\"50\"></label>")
		h.raw("<label>Description<input name=\"description\"></label>")
		h.raw("<div class=\"filter-actions\"><button type=\"submit\">Save</button></div></form>")
		return h.err
	})
}

func actorsPage(state view.State[string], selected *intel.ThreatActor, items []intel.ThreatActor, q url.Values) templ.Component {
	return listPage[intel.ThreatActor]{
		Path:     "/actors",
		Export:   "threat-actors",
		Eyebrow:  "Adversaries",
		Title:    "Threat actors",
		Query:    q,
		Columns:  export.ActorColumns,
		Items:    items,
		ID:       func(a intel.ThreatActor) string { return a.ID },
		State:    state,
		Selected: selected,
		AddForm: templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := newHTMLWriter(ctx, w)
			h.raw("<form method=\"post\" action=\"/actors\" class=\"filters\">")
			h.raw("<label>Name<input name=\"name\" required></label><label>Origin<input name=\"origin\"></label>")
			h.raw("<label>Motivation<input name=\"motivation\"></label><label>Severity<select name=\"severity\">")
			for _, sev := range []intel.Severity{intel.SeverityCritical, intel.SeverityHigh, intel.SeverityMedium, intel.SeverityLow} {
				h.printf("<option value=\"%s\">%s</option>", sev, sev)
			}
			h.raw("</select></label><label>Description<input name=\"description\"></label>")
			h.raw("<div class=\"filter-actions\"><button type=\"submit\">Save</button></div></form>")
			return h.err
		}),
		Detail: func(a intel.ThreatActor) templ.Component {
			return postButton("/actors/"+url.PathEscape(a.ID)+"/delete", "Delete")
		},
	}.Component()
}

// assetColumns replace the export timestamp with a relative one.
var assetColumns = []export.Column[intel.ScopeAsset]{
	{Name: "value", Value: func(a intel.ScopeAsset) string { return a.Value }},
	{Name: "kind", Value: func(a intel.ScopeAsset) string { return string(a.Kind) }},
	{Name: "status", Value: func(a intel.ScopeAsset) string { return string(a.Status) }},
	{Name: "last_checked", Value: func(a intel.ScopeAsset) string {
		if a.LastChecked.IsZero() {
			return "never"
		}
		return humanize.Time(a.LastChecked)
	}},
	{Name: "tags", Value: func(a intel.ScopeAsset) string { return strings.Join(a.Tags, ", ") }},
}

func assetsPage(state view.State[string], selected *intel.ScopeAsset, items []intel.ScopeAsset, q url.Values) templ.Component {
	kinds := make([]string, len(intel.AssetKinds))
	for i, k := range intel.AssetKinds {
		kinds[i] = string(k)
	}
	return listPage[intel.ScopeAsset]{
		Path:     "/assets",
		Export:   "assets",
		Eyebrow:  "Attack surface",
		Title:    "Scope assets",
		Subhead:  "New assets are verified shortly after they are added.",
		Query:    q,
		Filters:  []filterSelect{{Name: "kind", Label: "Kind", Options: kinds}},
		Columns:  assetColumns,
		Items:    items,
		ID:       func(a intel.ScopeAsset) string { return a.ID },
		State:    state,
		Selected: selected,
		Empty:    "No assets in scope yet.",
		AddForm: templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := newHTMLWriter(ctx, w)
			h.raw("<form method=\"post\" action=\"/assets\" class=\"filters\"><label>Kind<select name=\"kind\">")
			for _, k := range kinds {
				h.printf("<option value=\"%s\">%s</option>", k, k)
			}
			h.raw("</select></label><label>Value<input name=\"value\" required placeholder=\"corp.example\"></label>")
			h.raw("<label>Tags<input name=\"tags\" placeholder=\"prod, vpn\"></label>")
			h.raw("<div class=\"filter-actions\"><button type=\"submit\">Add</button></div></form>")
			return h.err
		}),
		Detail: func(a intel.ScopeAsset) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				h := newHTMLWriter(ctx, w)
				base := "/assets/" + url.PathEscape(a.ID)
				if a.Status == intel.AssetVerifying {
					for _, st := range []intel.AssetStatus{intel.AssetProtected, intel.AssetExposed} {
						h.printf("<form method=\"post\" action=\"%s/status\" class=\"inline\"><input type=\"hidden\" name=\"status\" value=\"%s\"><button type=\"submit\">Mark %s</button></form>", esc(base), st, st)
					}
				}
				h.component(postButton(base+"/delete", "Delete"))
				return h.err
			})
		},
	}.Component()
}

func kevPage(state view.State[string], selected *intel.Vulnerability, items []intel.Vulnerability, q url.Values) templ.Component {
	return listPage[intel.Vulnerability]{
		Path:     "/kev",
		Export:   "kev",
		Eyebrow:  "Vulnerabilities",
		Title:    "Known exploited vulnerabilities",
		Subhead:  "CISA KEV entries relevant to the monitored estate.",
		Query:    q,
		Columns:  export.VulnColumns,
		Items:    items,
		ID:       func(v intel.Vulnerability) string { return v.CVE },
		State:    state,
		Selected: selected,
		Toolbar:  actionButton(lifecycle.KEVSync, "Sync KEV catalog", "/kev", nil),
		Detail: func(v intel.Vulnerability) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				h := newHTMLWriter(ctx, w)
				if v.ReferenceURL != "" {
					h.printf("<a class=\"back-link\" href=\"%s\" rel=\"noopener\" target=\"_blank\">Reference</a>", esc(v.ReferenceURL))
				}
				return h.err
			})
		},
	}.Component()
}

func leaksPage(state view.State[string], selected *intel.LeakedCredential, items []intel.LeakedCredential, q url.Values) templ.Component {
	return listPage[intel.LeakedCredential]{
		Path:     "/leaks",
		Export:   "leaks",
		Eyebrow:  "Exposure",
		Title:    "Leaked credentials",
		Subhead:  "Secrets are stored sealed and only shown redacted.",
		Query:    q,
		Columns:  export.LeakColumns,
		Items:    items,
		ID:       func(c intel.LeakedCredential) string { return c.ID },
		State:    state,
		Selected: selected,
		Toolbar: templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := newHTMLWriter(ctx, w)
			h.raw("<form method=\"post\" action=\"/leaks/upload\" enctype=\"multipart/form-data\" class=\"inline\">")
			h.raw("<input type=\"file\" name=\"file\" required><button type=\"submit\">Upload dump</button></form>")
			return h.err
		}),
		Detail: func(c intel.LeakedCredential) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				h := newHTMLWriter(ctx, w)
				base := "/leaks/" + url.PathEscape(c.ID)
				if c.Status != intel.LeakMitigated {
					h.component(postButton(base+"/resolve", "Mark mitigated"))
				}
				h.component(postButton(base+"/delete", "Delete"))
				return h.err
			})
		},
	}.Component()
}

func ransomwarePage(state view.State[string], selected *intel.RansomwareVictim, items []intel.RansomwareVictim, q url.Values) templ.Component {
	sectors := map[string]bool{}
	for _, v := range items {
		sectors[v.Sector] = true
	}
	if s := q.Get("sector"); s != "" {
		sectors[s] = true
	}
	options := make([]string, 0, len(sectors))
	for s := range sectors {
		options = append(options, s)
	}
	sort.Strings(options)

	return listPage[intel.RansomwareVictim]{
		Path:     "/ransomware",
		Export:   "ransomware-victims",
		Eyebrow:  "Extortion",
		Title:    "Ransomware victims",
		Query:    q,
		Filters:  []filterSelect{{Name: "sector", Label: "Sector", Options: options}},
		Columns:  export.VictimColumns,
		Items:    items,
		ID:       func(v intel.RansomwareVictim) string { return v.ID },
		State:    state,
		Selected: selected,
		Detail: func(v intel.RansomwareVictim) templ.Component {
			return actionButton(lifecycle.RansomwareMap, "Map TTPs", "/ransomware?selected="+url.QueryEscape(v.ID),
				map[string]string{"victim_id": v.ID})
		},
	}.Component()
}

func reposPage(state view.State[string], selected *intel.RepoExposure, items []intel.RepoExposure, q url.Values) templ.Component {
	providers := make([]string, len(intel.RepoProviders))
	for i, p := range intel.RepoProviders {
		providers[i] = string(p)
	}
	return listPage[intel.RepoExposure]{
		Path:    "/repos",
		Export:  "repo-exposures",
		Eyebrow: "Source code",
		Title:   "Repository exposure",
		Subhead: "Public repositories leaking keys, passwords or personal data.",
		Query:   q,
		Filters: []filterSelect{
			{Name: "provider", Label: "Provider", Options: providers},
			{Name: "org", Label: "Organization"},
		},
		Columns:  export.RepoColumns,
		Items:    items,
		ID:       func(r intel.RepoExposure) string { return r.ID },
		State:    state,
		Selected: selected,
		Empty:    "No repositories match. Try another provider or organization.",
		Toolbar:  actionButton(lifecycle.RepoScan, "Scan repositories", "/repos", nil),
		Detail: func(r intel.RepoExposure) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				h := newHTMLWriter(ctx, w)
				h.printf("<a class=\"back-link\" href=\"%s\" rel=\"noopener\" target=\"_blank\">Go to repository</a>", esc(r.URL))
				return h.err
			})
		},
	}.Component()
}

// feedColumns list the artifact count; the detail panel lists the artifacts.
var feedColumns = []export.Column[intel.ThreatFeed]{
	{Name: "source", Value: func(f intel.ThreatFeed) string { return f.Source }},
	{Name: "category", Value: func(f intel.ThreatFeed) string { return f.Category }},
	{Name: "reliability", Value: func(f intel.ThreatFeed) string { return f.Reliability }},
	{Name: "last_update", Value: func(f intel.ThreatFeed) string { return f.LastUpdate }},
	{Name: "artifacts", Value: func(f intel.ThreatFeed) string { return fmt.Sprint(len(f.Artifacts)) }},
	{Name: "description", Value: func(f intel.ThreatFeed) string { return f.Description }},
}

func feedsPage(state view.State[string], selected *intel.ThreatFeed, items []intel.ThreatFeed, q url.Values) templ.Component {
	return listPage[intel.ThreatFeed]{
		Path:     "/feeds",
		Export:   "threat-feeds",
		Eyebrow:  "Threat feeds",
		Title:    "Active threat feeds",
		Subhead:  "Open and partner intelligence sources with their latest artifacts.",
		Query:    q,
		Columns:  feedColumns,
		Items:    items,
		ID:       func(f intel.ThreatFeed) string { return f.ID },
		State:    state,
		Selected: selected,
		Toolbar:  actionButton(lifecycle.FeedSync, "Sync feeds", "/feeds", nil),
		Detail:   feedArtifacts,
	}.Component()
}

// feedArtifacts lists each artifact with its lookups on external engines.
func feedArtifacts(f intel.ThreatFeed) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw("<table class=\"data-table\"><thead><tr><th>Artifact</th><th>Type</th><th>Severity</th><th>Lookup</th></tr></thead><tbody>")
		for _, a := range f.Artifacts {
			h.printf("<tr><td>%s</td><td>%s</td><td>%s</td><td>", esc(a.Value), esc(string(a.Type)), esc(string(a.Severity)))
			for i, p := range a.Pivots() {
				if i > 0 {
					h.raw(" · ")
				}
				h.printf("<a href=\"%s\" rel=\"noopener\" target=\"_blank\">%s</a>", esc(p.URL), esc(p.Engine))
			}
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
		if f.SourceURL != "" {
			h.printf("<a class=\"back-link\" href=\"%s\" rel=\"noopener\" target=\"_blank\">Feed source</a>", esc(f.SourceURL))
		}
		return h.err
	})
}

func insiderPage(forum []intel.ForumPost, chats []intel.ChatMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.component(header("Insider threat", "Underground mentions", "Forum posts and group chats naming the organisation."))
		h.raw("<section class=\"card\">")
		h.component(actionButton(lifecycle.InsiderInvestigate, "Open investigation", "/insider", nil))
		h.raw("</section><section class=\"card\"><h2>Forums</h2>")
		h.component(table(export.ForumColumns, forum, nil))
		h.raw("</section><section class=\"card\"><h2>Chats</h2>")
		h.component(table(export.ChatColumns, chats, nil))
		h.raw("</section>")
		return h.err
	})
}

func auditPage(run auditRunView, questions []intel.AuditQuestion) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.component(header("Third-party risk", "Supplier security audit", "Answer each question to score the supplier."))

		h.raw("<section class=\"card\">")
		switch {
		case run.Total == 0:
			h.raw("<p class=\"empty\">The questionnaire is empty. Add a question below.</p>")
		case run.Current != nil:
			h.printf("<p class=\"progress\">Question %d of %d · %s</p><h2>%s</h2>",
				run.Index+1, run.Total, esc(run.Current.Category), esc(run.Current.Text))
			for _, answer := range []string{"yes", "no"} {
				h.printf("<form method=\"post\" action=\"/audit/answer\" class=\"inline\"><input type=\"hidden\" name=\"id\" value=\"%d\"><input type=\"hidden\" name=\"answer\" value=\"%s\"><button type=\"submit\">%s</button></form>",
					run.Current.ID, answer, strings.ToUpper(answer[:1])+answer[1:])
			}
		default:
			h.printf("<h2>%s</h2>", esc(run.Result.Summary()))
			h.raw("<div class=\"page-actions\">")
			h.component(actionButton(lifecycle.AuditExport, "Finalize audit", "/audit", nil))
			h.raw("<a class=\"back-link\" href=\"/api/audit/report.txt\">Download report</a></div>")
		}
		h.component(postButton("/audit/reset", "Restart"))
		h.raw("</section>")

		h.raw("<section class=\"card\"><h2>Questions</h2><ul class=\"question-list\">")
		for _, q := range questions {
			h.printf("<li><span>%s <span class=\"muted\">(%s)</span></span>", esc(q.Text), esc(q.Category))
			h.component(postButton(fmt.Sprintf("/audit/questions/%d/delete", q.ID), "Delete"))
			h.raw("</li>")
		}
		h.raw("</ul><form method=\"post\" action=\"/audit/questions\" class=\"filters\">")
		h.raw("<label>Question<input name=\"text\" required></label>")
		h.printf("<label>Category<input name=\"category\" placeholder=\"%s\"></label>", intel.DefaultQuestionCategory)
		h.raw("<div class=\"filter-actions\"><button type=\"submit\">Add question</button></div></form></section>")
		return h.err
	})
}

func correlationPage(assets int, hits []hitView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.component(header("Correlation", "Asset exposure correlation", fmt.Sprintf("%d scope assets checked against current threats.", assets)))
		h.raw("<section class=\"card\">")
		h.component(actionButton(lifecycle.Correlate, "Run correlation", "/correlation", nil))
		h.raw("</section><section class=\"card\">")
		if len(hits) == 0 {
			h.raw("<p class=\"empty\">No hits from the last run.</p></section>")
			return h.err
		}
		for _, hit := range hits {
			h.printf("<article class=\"hit hit--%s\"><p class=\"eyebrow\">%s · %s · %s</p><h3>%s</h3>",
				strings.ToLower(string(hit.Severity)), esc(string(hit.Severity)), esc(string(hit.Source)), esc(hit.AssetValue), esc(hit.ThreatTitle))
			h.printf("<p>%s</p><p class=\"muted\">%s</p>", esc(hit.Description), esc(hit.Link))
			if len(hit.Remediation) > 0 {
				h.raw("<ul>")
				for _, step := range hit.Remediation {
					h.printf("<li>%s</li>", esc(step))
				}
				h.raw("</ul>")
			}
			h.printf("<a class=\"back-link\" href=\"%s\" rel=\"noopener\" target=\"_blank\">Investigate</a></article>", esc(hit.InvestigationURL))
		}
		h.raw("</section>")
		return h.err
	})
}

func reportsPage(report *app.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.component(header("Reporting", "Intelligence reports", "Grounded daily and weekly summaries."))
		h.raw("<section class=\"card page-actions\">")
		h.component(actionButton(lifecycle.Report, "Daily report", "/reports", map[string]string{"kind": app.ReportDaily}))
		h.component(actionButton(lifecycle.Report, "Weekly report", "/reports", map[string]string{"kind": app.ReportWeekly}))
		h.raw("</section><section class=\"card\">")
		if report == nil {
			h.raw("<p class=\"empty\">No report generated yet.</p></section>")
			return h.err
		}
		h.printf("<p class=\"muted\">%s report · %s</p><pre class=\"report\">%s</pre>",
			esc(report.Kind), humanize.Time(report.GeneratedAt), esc(report.Text))
		if len(report.CVEs) > 0 {
			h.raw("<h3>CVEs mentioned</h3><ul>")
			for _, m := range report.CVEs {
				listed := "not in the KEV catalog"
				if m.InCatalog {
					listed = "in the KEV catalog"
				}
				h.printf("<li><a href=\"/kev?selected=%s\">%s</a> <span class=\"muted\">%s</span></li>", url.QueryEscape(string(m.ID)), esc(string(m.ID)), listed)
			}
			h.raw("</ul>")
		}
		if len(report.Citations) > 0 {
			h.raw("<h3>Sources</h3><ul>")
			for _, c := range report.Citations {
				h.printf("<li><a href=\"%s\" rel=\"noopener\" target=\"_blank\">%s</a></li>", esc(c.URL), esc(c.Title))
			}
			h.raw("</ul>")
		}
		h.raw("</section>")
		return h.err
	})
}

const layoutStyles = `<style>
:root {
  color-scheme: dark;
  --bg: #0d1117;
  --bg-accent: #132235;
  --ink: #e6edf3;
  --muted: #8b949e;
  --card: rgba(22, 27, 34, 0.88);
  --stroke: rgba(240, 246, 252, 0.1);
  --accent: #2f81f7;
  --accent-dark: #1f6feb;
  --danger: #f85149;
  --ok: #3fb950;
  --shadow: 0 16px 40px rgba(0, 0, 0, 0.35);
}

* {
  box-sizing: border-box;
}

body {
  margin: 0;
  min-height: 100vh;
  font-family: "Inter", "Segoe UI", system-ui, sans-serif;
  color: var(--ink);
  background: radial-gradient(circle at 20% 0%, var(--bg-accent), transparent 50%), var(--bg);
}

.nav {
  display: flex;
  flex-wrap: wrap;
  gap: 16px;
  align-items: center;
  padding: 14px 24px;
  border-bottom: 1px solid var(--stroke);
}

.nav a {
  color: var(--muted);
  text-decoration: none;
}

.nav a:hover {
  color: var(--ink);
}

.brand {
  font-weight: 700;
  letter-spacing: 0.08em;
  margin-right: 12px;
}

.shell {
  max-width: 1100px;
  margin: 0 auto;
  padding: 32px 24px 72px;
  display: grid;
  gap: 20px;
}

.page-header h1 {
  margin: 8px 0;
  font-size: clamp(1.8rem, 3vw, 2.4rem);
}

.eyebrow {
  text-transform: uppercase;
  letter-spacing: 0.2em;
  font-size: 0.72rem;
  color: var(--muted);
  margin: 0;
}

.subhead,
.muted,
.empty,
.progress {
  margin: 0;
  color: var(--muted);
}

.card {
  background: var(--card);
  border: 1px solid var(--stroke);
  border-radius: 14px;
  padding: 18px 20px;
  box-shadow: var(--shadow);
}

.filters {
  display: grid;
  gap: 12px;
  grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
}

.filters label {
  display: grid;
  gap: 6px;
  font-size: 0.8rem;
  color: var(--muted);
  text-transform: uppercase;
  letter-spacing: 0.08em;
}

.filter-actions,
.page-actions {
  display: flex;
  gap: 12px;
  align-items: end;
  flex-wrap: wrap;
}

input,
select {
  border-radius: 8px;
  border: 1px solid var(--stroke);
  background: #0d1117;
  color: var(--ink);
  padding: 9px 11px;
  font-size: 0.95rem;
  font-family: inherit;
}

button {
  border: none;
  border-radius: 999px;
  padding: 9px 16px;
  background: var(--accent);
  color: white;
  font-size: 0.9rem;
  cursor: pointer;
  font-family: inherit;
}

button:hover {
  background: var(--accent-dark);
}

.ghost {
  background: transparent;
  border: 1px solid var(--stroke);
  color: var(--ink);
}

.inline {
  display: inline-flex;
  gap: 8px;
  align-items: center;
  margin: 4px 8px 4px 0;
}

.back-link {
  color: var(--accent);
  text-decoration: none;
  font-weight: 600;
}

.stats-grid {
  display: grid;
  gap: 16px;
  grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
}

.stat-label {
  margin: 0;
  font-size: 0.8rem;
  color: var(--muted);
  text-transform: uppercase;
  letter-spacing: 0.1em;
}

.stat-value {
  margin: 6px 0 0;
  font-size: 1.5rem;
}

.table-wrap {
  width: 100%;
  overflow-x: auto;
}

.data-table {
  width: 100%;
  border-collapse: collapse;
}

.data-table th,
.data-table td {
  text-align: left;
  padding: 10px 8px;
  border-bottom: 1px solid var(--stroke);
  vertical-align: top;
}

.data-table th {
  font-size: 0.75rem;
  letter-spacing: 0.08em;
  text-transform: uppercase;
  color: var(--muted);
}

.data-table a {
  color: var(--ink);
}

.detail dl {
  display: grid;
  grid-template-columns: max-content 1fr;
  gap: 6px 16px;
}

.detail dt {
  color: var(--muted);
}

.detail dd {
  margin: 0;
}

.statuses {
  display: grid;
  gap: 8px;
}

.status {
  border-radius: 10px;
  padding: 10px 14px;
  border: 1px solid var(--stroke);
}

.status--pending {
  border-color: var(--accent);
}

.status--succeeded {
  border-color: var(--ok);
}

.status--failed {
  border-color: var(--danger);
}

.question-list {
  list-style: none;
  margin: 0 0 16px;
  padding: 0;
  display: grid;
  gap: 8px;
}

.question-list li {
  display: flex;
  justify-content: space-between;
  align-items: center;
  gap: 12px;
}

.hit {
  border-left: 3px solid var(--stroke);
  padding: 4px 0 12px 14px;
  margin-bottom: 14px;
}

.hit--critical,
.hit--high {
  border-left-color: var(--danger);
}

.report {
  white-space: pre-wrap;
  font-family: "SFMono-Regular", "Fira Mono", monospace;
  font-size: 0.9rem;
}
</style>`
