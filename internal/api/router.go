package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// identPattern is the [\w.\-]+ character class spec §4.5 uses for
// client/check/aggregate/severity path segments.
const identPattern = `[\w.\-]+`

// registerRoutes wires every endpoint from spec §6.1 onto router. Specific
// routes are registered before the stash routes' free-form tail (`.*`) per
// spec §9's route-precedence note, since gorilla/mux matches routes in
// registration order.
func (s *Server) registerRoutes(router *mux.Router) {
	router.Handle("/info", s.handleInfo()).Methods(http.MethodGet)
	router.Handle("/health", s.handleHealth()).Methods(http.MethodGet)
	router.Handle("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	router.Handle("/clients", s.handlePostClients()).Methods(http.MethodPost)
	router.Handle("/clients", s.handleGetClients()).Methods(http.MethodGet)
	router.Handle("/clients/{name:"+identPattern+"}", s.handleGetClient()).Methods(http.MethodGet)
	router.Handle("/clients/{name:"+identPattern+"}", s.handleDeleteClient()).Methods(http.MethodDelete)
	router.Handle("/clients/{name:"+identPattern+"}/history", s.handleClientHistory()).Methods(http.MethodGet)

	router.Handle("/checks", s.handleGetChecks()).Methods(http.MethodGet)
	router.Handle("/checks/{name:"+identPattern+"}", s.handleGetCheck()).Methods(http.MethodGet)
	router.Handle("/request", s.handlePostRequest()).Methods(http.MethodPost)

	router.Handle("/events", s.handleGetEvents()).Methods(http.MethodGet)
	router.Handle("/events/{client:"+identPattern+"}", s.handleGetClientEvents()).Methods(http.MethodGet)
	router.Handle("/events/{client:"+identPattern+"}/{check:"+identPattern+"}", s.handleGetEvent()).Methods(http.MethodGet)
	router.Handle("/events/{client:"+identPattern+"}/{check:"+identPattern+"}", s.handleDeleteEvent()).Methods(http.MethodDelete)
	router.Handle("/resolve", s.handlePostResolve()).Methods(http.MethodPost)

	router.Handle("/results", s.handlePostResults()).Methods(http.MethodPost)
	router.Handle("/results", s.handleGetResults()).Methods(http.MethodGet)
	router.Handle("/results/{client:"+identPattern+"}", s.handleGetClientResults()).Methods(http.MethodGet)
	router.Handle("/results/{client:"+identPattern+"}/{check:"+identPattern+"}", s.handleGetResult()).Methods(http.MethodGet)
	router.Handle("/results/{client:"+identPattern+"}/{check:"+identPattern+"}", s.handleDeleteResult()).Methods(http.MethodDelete)

	router.Handle("/aggregates", s.handleGetAggregates()).Methods(http.MethodGet)
	router.Handle("/aggregates/{name:"+identPattern+"}", s.handleGetAggregate()).Methods(http.MethodGet)
	router.Handle("/aggregates/{name:"+identPattern+"}", s.handleDeleteAggregate()).Methods(http.MethodDelete)
	router.Handle("/aggregates/{name:"+identPattern+"}/clients", s.handleGetAggregateClients()).Methods(http.MethodGet)
	router.Handle("/aggregates/{name:"+identPattern+"}/checks", s.handleGetAggregateChecks()).Methods(http.MethodGet)
	router.Handle("/aggregates/{name:"+identPattern+"}/results/{severity:"+identPattern+"}", s.handleGetAggregateResultsBySeverity()).Methods(http.MethodGet)

	// Stash routes: /stashes (fixed) before /stash/{path} (free-form tail).
	router.Handle("/stashes", s.handleGetStashes()).Methods(http.MethodGet)
	router.Handle("/stashes", s.handlePostStashes()).Methods(http.MethodPost)
	router.Handle("/stash/{path:.*}", s.handlePostStash()).Methods(http.MethodPost)
	router.Handle("/stash/{path:.*}", s.handleGetStash()).Methods(http.MethodGet)
	router.Handle("/stash/{path:.*}", s.handleDeleteStash()).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
}
