package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sloppy/threatone/internal/app"
	"github.com/sloppy/threatone/internal/audit"
	"github.com/sloppy/threatone/internal/correlate"
	"github.com/sloppy/threatone/internal/extract"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/lifecycle"
	"github.com/sloppy/threatone/internal/store"
)

func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.App.Summary(), http.StatusOK)
}

func (s *Server) apiListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.App.Settings()
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, settings, http.StatusOK)
}

func (s *Server) apiSaveSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	saved, err := s.App.SaveSetting(req.Key, req.Value)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, saved, http.StatusOK)
}

func (s *Server) apiListAuthSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.App.AuthSites()
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, sites, http.StatusOK)
}

func (s *Server) apiAddAuthSite(w http.ResponseWriter, r *http.Request) {
	var draft app.AuthSiteDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		s.jsonError(w, r, err)
		return
	}
	site, err := s.App.AddAuthSite(draft)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, site, http.StatusCreated)
}

func filterAssets(items []intel.ScopeAsset, q, kind string) []intel.ScopeAsset {
	return store.Filter(items, q, intel.AssetSearchFields,
		store.Equals(func(a intel.ScopeAsset) intel.AssetKind { return a.Kind }, kind))
}

func (s *Server) apiListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.jsonResponse(w, filterAssets(s.App.Assets.All(), q.Get("q"), q.Get("kind")), http.StatusOK)
}

func (s *Server) apiAddAsset(w http.ResponseWriter, r *http.Request) {
	var draft app.AssetDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		s.jsonError(w, r, err)
		return
	}
	asset, err := s.App.AddAsset(draft)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, asset, http.StatusCreated)
}

func (s *Server) apiUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var patch intel.AssetPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.jsonError(w, r, err)
		return
	}
	asset, err := s.App.UpdateAsset(chi.URLParam(r, "id"), patch)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, asset, http.StatusOK)
}

func (s *Server) apiDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.App.DeleteAsset(chi.URLParam(r, "id")); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiSetAssetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status intel.AssetStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	asset, err := s.App.SetAssetStatus(chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, asset, http.StatusOK)
}

func filterIOCs(items []intel.IOC, q, kind string) []intel.IOC {
	return store.Filter(items, q, intel.IOCSearchFields,
		store.Equals(func(i intel.IOC) intel.IOCKind { return i.Kind }, kind))
}

func (s *Server) apiListIOCs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.jsonResponse(w, filterIOCs(s.App.IOCs.All(), q.Get("q"), q.Get("kind")), http.StatusOK)
}

func (s *Server) apiAddIOC(w http.ResponseWriter, r *http.Request) {
	var draft intel.IOC
	if err := decodeJSON(w, r, &draft); err != nil {
		s.jsonError(w, r, err)
		return
	}
	ioc, err := s.App.AddIOC(draft)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, ioc, http.StatusCreated)
}

func (s *Server) apiUpdateIOC(w http.ResponseWriter, r *http.Request) {
	var patch intel.IOCPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.jsonError(w, r, err)
		return
	}
	ioc, err := s.App.UpdateIOC(chi.URLParam(r, "id"), patch)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, ioc, http.StatusOK)
}

func (s *Server) apiDeleteIOC(w http.ResponseWriter, r *http.Request) {
	s.App.DeleteIOC(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiListActors(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, store.Filter(s.App.Actors.All(), r.URL.Query().Get("q"), intel.ActorSearchFields), http.StatusOK)
}

func (s *Server) apiAddActor(w http.ResponseWriter, r *http.Request) {
	var draft intel.ThreatActor
	if err := decodeJSON(w, r, &draft); err != nil {
		s.jsonError(w, r, err)
		return
	}
	actor, err := s.App.AddActor(draft)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, actor, http.StatusCreated)
}

func (s *Server) apiReplaceActor(w http.ResponseWriter, r *http.Request) {
	var actor intel.ThreatActor
	if err := decodeJSON(w, r, &actor); err != nil {
		s.jsonError(w, r, err)
		return
	}
	saved, err := s.App.ReplaceActor(chi.URLParam(r, "id"), actor)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, saved, http.StatusOK)
}

func (s *Server) apiDeleteActor(w http.ResponseWriter, r *http.Request) {
	s.App.DeleteActor(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func filterVictims(items []intel.RansomwareVictim, q, sector string) []intel.RansomwareVictim {
	return store.Filter(items, q, intel.VictimSearchFields,
		store.Equals(func(v intel.RansomwareVictim) string { return v.Sector }, sector))
}

func (s *Server) apiListVictims(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.jsonResponse(w, filterVictims(s.App.Victims.All(), q.Get("q"), q.Get("sector")), http.StatusOK)
}

func (s *Server) apiListKEV(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, store.Filter(s.App.Vulns.All(), r.URL.Query().Get("q"), intel.VulnSearchFields), http.StatusOK)
}

func (s *Server) apiListLeaks(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, store.Filter(s.App.Leaks.All(), r.URL.Query().Get("q"), intel.LeakSearchFields), http.StatusOK)
}

func (s *Server) apiResolveLeak(w http.ResponseWriter, r *http.Request) {
	leak, err := s.App.ResolveLeak(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, leak, http.StatusOK)
}

func (s *Server) apiDeleteLeak(w http.ResponseWriter, r *http.Request) {
	s.App.DeleteLeak(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// readUpload reads the "file" part of a multipart upload, bounded by
// app.MaxUploadSize.
func readUpload(w http.ResponseWriter, r *http.Request) (*app.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize+maxJSONBody)
	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file is required", errBadRequest)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, app.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", errBadRequest, err)
	}
	if len(data) > app.MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", errBadRequest, app.MaxUploadSize)
	}
	return &app.UploadedFile{Name: path.Base(header.Filename), Data: data}, nil
}

func (s *Server) apiUploadLeaks(w http.ResponseWriter, r *http.Request) {
	file, err := readUpload(w, r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.startAction(w, r, lifecycle.LeakUpload, app.ActionParams{File: file})
}

func (s *Server) apiListQuestions(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.App.Questions.All(), http.StatusOK)
}

func (s *Server) apiAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	q, err := s.App.AddQuestion(req.Text, req.Category)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, q, http.StatusCreated)
}

func (s *Server) apiUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	var patch intel.QuestionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.jsonError(w, r, err)
		return
	}
	q, err := s.App.UpdateQuestion(id, patch)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, q, http.StatusOK)
}

func (s *Server) apiDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	if _, err := s.App.DeleteQuestion(id); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type auditRunView struct {
	Current  *intel.AuditQuestion `json:"current"`
	Index    int                  `json:"index"`
	Total    int                  `json:"total"`
	Finished bool                 `json:"finished"`
	Result   *audit.Result        `json:"result,omitempty"`
}

func (s *Server) auditRun() auditRunView {
	questions := s.App.Questions.All()
	current, index, pending := s.App.Audit.Current(questions)
	run := auditRunView{Index: index, Total: len(questions), Finished: !pending}
	if pending {
		run.Current = &current
	} else {
		res := s.App.Audit.Score(questions)
		run.Result = &res
	}
	return run
}

func (s *Server) apiAuditRun(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.auditRun(), http.StatusOK)
}

func (s *Server) apiAuditAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID  int64 `json:"id"`
		Yes bool  `json:"yes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	if err := s.App.AnswerQuestion(req.ID, req.Yes); err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, s.auditRun(), http.StatusOK)
}

func (s *Server) apiAuditReset(w http.ResponseWriter, r *http.Request) {
	s.App.Audit.Reset()
	s.jsonResponse(w, s.auditRun(), http.StatusOK)
}

func (s *Server) apiAuditReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.App.AuditReport(&buf); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="supplier-audit.txt"`)
	w.Write(buf.Bytes())
}

type hitView struct {
	intel.CorrelationHit
	InvestigationURL string `json:"investigationUrl"`
}

func hitViews(hits []intel.CorrelationHit) []hitView {
	out := make([]hitView, 0, len(hits))
	for _, h := range hits {
		out = append(out, hitView{CorrelationHit: h, InvestigationURL: correlate.InvestigationURL(h)})
	}
	return out
}

func (s *Server) apiCorrelationHits(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, hitViews(s.App.Hits()), http.StatusOK)
}

func (s *Server) apiReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.App.LastReport()
	if !ok {
		s.jsonError(w, r, fmt.Errorf("report: %w: none generated yet", store.ErrNotFound))
		return
	}
	s.jsonResponse(w, report, http.StatusOK)
}

func (s *Server) apiExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.jsonResponse(w, map[string]any{
		"cves":       extract.CVEs(req.Text),
		"indicators": extract.Indicators(req.Text),
	}, http.StatusOK)
}

func (s *Server) apiListActions(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.App.Actions.Statuses(), http.StatusOK)
}

func (s *Server) apiTriggerAction(w http.ResponseWriter, r *http.Request) {
	var params app.ActionParams
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &params); err != nil {
			s.jsonError(w, r, err)
			return
		}
	}
	s.startAction(w, r, chi.URLParam(r, "name"), params)
}

type actionResponse struct {
	Started bool             `json:"started"`
	Status  lifecycle.Status `json:"status"`
}

// startAction answers 202 when the run starts and 409 while a previous run
// of the same action is still pending.
func (s *Server) startAction(w http.ResponseWriter, r *http.Request, name string, params app.ActionParams) {
	_, started, err := s.App.Trigger(r.Context(), name, params)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	action, _ := s.App.Actions.Get(name)
	status := http.StatusAccepted
	if !started {
		status = http.StatusConflict
	}
	s.jsonResponse(w, actionResponse{Started: started, Status: action.Status()}, status)
}

// filterRepos applies the name search, the provider and the organisation
// substring filter together.
func filterRepos(items []intel.RepoExposure, q, provider, org string) []intel.RepoExposure {
	return store.Filter(items, q, intel.RepoSearchFields,
		store.Equals(func(r intel.RepoExposure) intel.RepoProvider { return r.Provider }, provider),
		store.Contains(func(r intel.RepoExposure) string { return r.Organization }, org))
}

func (s *Server) apiListRepos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.jsonResponse(w, filterRepos(s.App.Repos.All(), q.Get("q"), q.Get("provider"), q.Get("org")), http.StatusOK)
}

func (s *Server) apiListFeeds(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, store.Filter(s.App.Feeds.All(), r.URL.Query().Get("q"), intel.FeedSearchFields), http.StatusOK)
}

type artifactView struct {
	intel.FeedArtifact
	Pivots []intel.Pivot `json:"pivots"`
}

type feedView struct {
	intel.ThreatFeed
	Artifacts []artifactView `json:"artifacts"`
}

// apiGetFeed returns a feed with the lookups of every artifact. ?artifact=
// narrows the artifacts to one value.
func (s *Server) apiGetFeed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	feed, ok := s.App.Feeds.Get(id)
	if !ok {
		s.jsonError(w, r, fmt.Errorf("threat feed %s: %w", id, store.ErrNotFound))
		return
	}
	artifacts := feed.Artifacts
	if value := r.URL.Query().Get("artifact"); value != "" {
		a, found := feed.Artifact(value)
		if !found {
			s.jsonError(w, r, fmt.Errorf("artifact %q of feed %s: %w", value, id, store.ErrNotFound))
			return
		}
		artifacts = []intel.FeedArtifact{a}
	}
	out := feedView{ThreatFeed: feed, Artifacts: make([]artifactView, 0, len(artifacts))}
	for _, a := range artifacts {
		out.Artifacts = append(out.Artifacts, artifactView{FeedArtifact: a, Pivots: a.Pivots()})
	}
	s.jsonResponse(w, out, http.StatusOK)
}

var exportFormats = map[string]struct {
	format      string
	contentType string
}{
	"csv":  {app.FormatCSV, "text/csv; charset=utf-8"},
	"json": {app.FormatJSON, "application/json"},
	"txt":  {app.FormatTable, "text/plain; charset=utf-8"},
}

// apiExport writes a collection. ?q= applies the view search, ?selected=
// picks one record, and any other parameter except mode is a named filter.
func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	kind, ext, ok := s.splitExportFile(w, r, chi.URLParam(r, "file"))
	if !ok {
		return
	}
	q := r.URL.Query()
	scope := app.ExportScope{Query: q.Get("q"), ID: q.Get("selected")}
	for name, values := range q {
		switch name {
		case "q", "selected", "mode":
			continue
		}
		if scope.Filters == nil {
			scope.Filters = map[string]string{}
		}
		scope.Filters[name] = values[0]
	}
	s.writeExport(w, r, kind, ext, scope, kind+"."+ext)
}

// apiExportRecord writes the single record {kind}/{id}.{ext}.
func (s *Server) apiExportRecord(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id, ext, ok := s.splitExportFile(w, r, chi.URLParam(r, "file"))
	if !ok {
		return
	}
	s.writeExport(w, r, kind, ext, app.ExportScope{ID: id}, kind+"-"+id+"."+ext)
}

func (s *Server) splitExportFile(w http.ResponseWriter, r *http.Request, file string) (name, ext string, ok bool) {
	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		s.badRequest(w, r, "export file %q needs an extension", file)
		return "", "", false
	}
	return file[:dot], file[dot+1:], true
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, kind, ext string, scope app.ExportScope, filename string) {
	f, ok := exportFormats[ext]
	if !ok {
		s.jsonError(w, r, fmt.Errorf("%w: %s", app.ErrUnknownFormat, ext))
		return
	}

	var buf bytes.Buffer
	if err := s.App.Export(&buf, kind, f.format, scope); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "threatone-"+filename))
	w.Write(buf.Bytes())
}

