package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/sloppy/threatone/internal/app"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/store"
	"github.com/sloppy/threatone/internal/view"
)

func isHTMXRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// page renders body inside the layout, or alone for HTMX requests.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string, body templ.Component) {
	if isHTMXRequest(r) {
		render(w, r, body)
		return
	}
	render(w, r, layout(title, s.App.Actions.Statuses(), body))
}

// pageState parses the view state of a string-keyed page and resolves the
// selected record. A selection whose record is gone falls back to browsing.
func pageState[T any](r *http.Request, sel *store.Selection[string], get func(string) (T, bool)) (view.State[string], *T, error) {
	state, err := view.Parse(r.URL.Query(), view.StringID)
	if err != nil {
		return state, nil, err
	}
	id, ok := state.Selected()
	if !ok {
		sel.Clear()
		return state, nil, nil
	}
	record, found := get(id)
	if !found {
		sel.ClearIf(id)
		return state.Forget(id), nil, nil
	}
	sel.Select(id)
	return state, &record, nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, "Overview", homePage(s.App.Summary()))
}

func (s *Server) handleIOCsPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.IOC, s.App.IOCs.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	s.page(w, r, "Indicators", iocsPage(state, selected, filterIOCs(s.App.IOCs.All(), q.Get("q"), q.Get("kind")), q))
}

func (s *Server) handleActorsPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Actor, s.App.Actors.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	items := store.Filter(s.App.Actors.All(), q.Get("q"), intel.ActorSearchFields)
	s.page(w, r, "Threat actors", actorsPage(state, selected, items, q))
}

func (s *Server) handleAssetsPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Asset, s.App.Assets.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	s.page(w, r, "Scope", assetsPage(state, selected, filterAssets(s.App.Assets.All(), q.Get("q"), q.Get("kind")), q))
}

func (s *Server) handleKEVPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Vuln, s.App.Vulns.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	items := store.Filter(s.App.Vulns.All(), q.Get("q"), intel.VulnSearchFields)
	s.page(w, r, "CISA KEV", kevPage(state, selected, items, q))
}

func (s *Server) handleLeaksPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Leak, s.App.Leaks.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	items := store.Filter(s.App.Leaks.All(), q.Get("q"), intel.LeakSearchFields)
	s.page(w, r, "Leaked credentials", leaksPage(state, selected, items, q))
}

func (s *Server) handleRansomwarePage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Victim, s.App.Victims.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	s.page(w, r, "Ransomware", ransomwarePage(state, selected, filterVictims(s.App.Victims.All(), q.Get("q"), q.Get("sector")), q))
}

func (s *Server) handleReposPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Repo, s.App.Repos.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	items := filterRepos(s.App.Repos.All(), q.Get("q"), q.Get("provider"), q.Get("org"))
	s.page(w, r, "Repositories", reposPage(state, selected, items, q))
}

func (s *Server) handleFeedsPage(w http.ResponseWriter, r *http.Request) {
	state, selected, err := pageState(r, &s.App.Selected.Feed, s.App.Feeds.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	items := store.Filter(s.App.Feeds.All(), q.Get("q"), intel.FeedSearchFields)
	s.page(w, r, "Threat feeds", feedsPage(state, selected, items, q))
}

func (s *Server) handleInsiderPage(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, "Insider threat", insiderPage(s.App.Forum.All(), s.App.Chats.All()))
}

func (s *Server) handleAuditPage(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, "Supplier audit", auditPage(s.auditRun(), s.App.Questions.All()))
}

func (s *Server) handleCorrelationPage(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, "Correlation", correlationPage(s.App.Assets.Len(), hitViews(s.App.Hits())))
}

func (s *Server) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	report, ok := s.App.LastReport()
	var last *app.Report
	if ok {
		last = &report
	}
	s.page(w, r, "Reports", reportsPage(last))
}

// formError answers a failed form submission with the status its error maps to.
func formError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// returnPath is the local page a form asked to go back to.
func returnPath(r *http.Request, fallback string) string {
	ret := r.FormValue("return")
	if !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") {
		return fallback
	}
	return ret
}

func (s *Server) handleIOCCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	draft := intel.IOC{
		Value:       r.FormValue("value"),
		Kind:        intel.IOCKind(r.FormValue("kind")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if raw := strings.TrimSpace(r.FormValue("confidence")); raw != "" {
		confidence, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid confidence", http.StatusBadRequest)
			return
		}
		draft.Confidence = confidence
	}
	if _, err := s.App.AddIOC(draft); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/iocs", http.StatusSeeOther)
}

func (s *Server) handleIOCDelete(w http.ResponseWriter, r *http.Request) {
	s.App.DeleteIOC(chi.URLParam(r, "id"))
	http.Redirect(w, r, "/iocs", http.StatusSeeOther)
}

func (s *Server) handleActorCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	draft := intel.ThreatActor{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Origin:      strings.TrimSpace(r.FormValue("origin")),
		Motivation:  strings.TrimSpace(r.FormValue("motivation")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if raw := r.FormValue("severity"); raw != "" {
		severity, err := intel.ParseSeverity(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		draft.Severity = severity
	}
	if _, err := s.App.AddActor(draft); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/actors", http.StatusSeeOther)
}

func (s *Server) handleActorDelete(w http.ResponseWriter, r *http.Request) {
	s.App.DeleteActor(chi.URLParam(r, "id"))
	http.Redirect(w, r, "/actors", http.StatusSeeOther)
}

func (s *Server) handleAssetCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	draft := app.AssetDraft{
		Kind:  intel.AssetKind(r.FormValue("kind")),
		Value: r.FormValue("value"),
		Tags:  splitTags(r.FormValue("tags")),
	}
	if _, err := s.App.AddAsset(draft); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/assets", http.StatusSeeOther)
}

func (s *Server) handleAssetStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.App.SetAssetStatus(id, intel.AssetStatus(r.FormValue("status"))); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/assets?selected="+id, http.StatusSeeOther)
}

func (s *Server) handleAssetDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.App.DeleteAsset(chi.URLParam(r, "id")); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/assets", http.StatusSeeOther)
}

func (s *Server) handleLeakUploadForm(w http.ResponseWriter, r *http.Request) {
	file, err := readUpload(w, r)
	if err != nil {
		formError(w, err)
		return
	}
	if _, _, err := s.App.Trigger(r.Context(), lifecycle.LeakUpload, app.ActionParams{File: file}); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/leaks", http.StatusSeeOther)
}

func (s *Server) handleLeakResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.App.ResolveLeak(id); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/leaks?selected="+id, http.StatusSeeOther)
}

func (s *Server) handleLeakDelete(w http.ResponseWriter, r *http.Request) {
	s.App.DeleteLeak(chi.URLParam(r, "id"))
	http.Redirect(w, r, "/leaks", http.StatusSeeOther)
}

func (s *Server) handleQuestionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	if _, err := s.App.AddQuestion(r.FormValue("text"), r.FormValue("category")); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/audit", http.StatusSeeOther)
}

func (s *Server) handleQuestionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		formError(w, err)
		return
	}
	if _, err := s.App.DeleteQuestion(id); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/audit", http.StatusSeeOther)
}

func (s *Server) handleAuditAnswerForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	if err := s.App.AnswerQuestion(id, r.FormValue("answer") == "yes"); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, "/audit", http.StatusSeeOther)
}

func (s *Server) handleAuditResetForm(w http.ResponseWriter, r *http.Request) {
	s.App.Audit.Reset()
	http.Redirect(w, r, "/audit", http.StatusSeeOther)
}

// handleActionForm starts an action from a page button. A click while the
// action is pending changes nothing.
func (s *Server) handleActionForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	params := app.ActionParams{
		ReportKind: r.FormValue("kind"),
		VictimID:   r.FormValue("victim_id"),
	}
	if _, _, err := s.App.Trigger(r.Context(), chi.URLParam(r, "name"), params); err != nil {
		formError(w, err)
		return
	}
	http.Redirect(w, r, returnPath(r, "/"), http.StatusSeeOther)
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
