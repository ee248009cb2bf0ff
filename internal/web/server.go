package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sloppy/threatone/internal/app"
)

// Server wires the web handlers to the dashboard.
type Server struct {
	App    *app.Dashboard
	Router chi.Router
}

// NewServer constructs the router and registers routes.
func NewServer(dashboard *app.Dashboard) *Server {
	server := &Server{App: dashboard}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(sameOrigin)

	r.Get("/healthz", server.handleHealth)
	r.Handle("/metrics", dashboard.Metrics.Handler())

	r.Get("/", server.handleHome)
	r.Get("/iocs", server.handleIOCsPage)
	r.Post("/iocs", server.handleIOCCreate)
	r.Post("/iocs/{id}/delete", server.handleIOCDelete)
	r.Get("/actors", server.handleActorsPage)
	r.Post("/actors", server.handleActorCreate)
	r.Post("/actors/{id}/delete", server.handleActorDelete)
	r.Get("/assets", server.handleAssetsPage)
	r.Post("/assets", server.handleAssetCreate)
	r.Post("/assets/{id}/status", server.handleAssetStatus)
	r.Post("/assets/{id}/delete", server.handleAssetDelete)
	r.Get("/kev", server.handleKEVPage)
	r.Get("/leaks", server.handleLeaksPage)
	r.Post("/leaks/upload", server.handleLeakUploadForm)
	r.Post("/leaks/{id}/resolve", server.handleLeakResolve)
	r.Post("/leaks/{id}/delete", server.handleLeakDelete)
	r.Get("/ransomware", server.handleRansomwarePage)
	r.Get("/repos", server.handleReposPage)
	r.Get("/feeds", server.handleFeedsPage)
	r.Get("/insider", server.handleInsiderPage)
	r.Get("/audit", server.handleAuditPage)
	r.Post("/audit/questions", server.handleQuestionCreate)
	r.Post("/audit/questions/{id}/delete", server.handleQuestionDelete)
	r.Post("/audit/answer", server.handleAuditAnswerForm)
	r.Post("/audit/reset", server.handleAuditResetForm)
	r.Get("/correlation", server.handleCorrelationPage)
	r.Get("/reports", server.handleReportsPage)
	r.Post("/actions/{name}", server.handleActionForm)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", server.apiSummary)

		r.Get("/settings", server.apiListSettings)
		r.Post("/settings", server.apiSaveSetting)
		r.Get("/auth-sites", server.apiListAuthSites)
		r.Post("/auth-sites", server.apiAddAuthSite)

		r.Get("/assets", server.apiListAssets)
		r.Post("/assets", server.apiAddAsset)
		r.Patch("/assets/{id}", server.apiUpdateAsset)
		r.Delete("/assets/{id}", server.apiDeleteAsset)
		r.Post("/assets/{id}/status", server.apiSetAssetStatus)

		r.Get("/iocs", server.apiListIOCs)
		r.Post("/iocs", server.apiAddIOC)
		r.Patch("/iocs/{id}", server.apiUpdateIOC)
		r.Delete("/iocs/{id}", server.apiDeleteIOC)

		r.Get("/threat-actors", server.apiListActors)
		r.Post("/threat-actors", server.apiAddActor)
		r.Put("/threat-actors/{id}", server.apiReplaceActor)
		r.Delete("/threat-actors/{id}", server.apiDeleteActor)

		r.Get("/ransomware-victims", server.apiListVictims)
		r.Get("/repo-exposures", server.apiListRepos)
		r.Get("/threat-feeds", server.apiListFeeds)
		r.Get("/threat-feeds/{id}", server.apiGetFeed)
		r.Get("/kev", server.apiListKEV)

		r.Get("/leaks", server.apiListLeaks)
		r.Post("/leaks/upload", server.apiUploadLeaks)
		r.Post("/leaks/{id}/resolve", server.apiResolveLeak)
		r.Delete("/leaks/{id}", server.apiDeleteLeak)

		r.Get("/audit/questions", server.apiListQuestions)
		r.Post("/audit/questions", server.apiAddQuestion)
		r.Patch("/audit/questions/{id}", server.apiUpdateQuestion)
		r.Delete("/audit/questions/{id}", server.apiDeleteQuestion)
		r.Get("/audit/run", server.apiAuditRun)
		r.Post("/audit/run/answer", server.apiAuditAnswer)
		r.Post("/audit/run/reset", server.apiAuditReset)
		r.Get("/audit/report.txt", server.apiAuditReport)

		r.Get("/correlation/hits", server.apiCorrelationHits)
		r.Get("/report", server.apiReport)
		r.Post("/extract", server.apiExtract)

		r.Get("/actions", server.apiListActions)
		r.Post("/actions/{name}", server.apiTriggerAction)

		r.Get("/export/{file}", server.apiExport)
		r.Get("/export/{kind}/{file}", server.apiExportRecord)
	})

	server.Router = r
	return server
}

// Handler exposes the configured router.
func (s *Server) Handler() http.Handler {
	return s.Router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
