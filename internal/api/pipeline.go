package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/justinas/alice"
	"go.uber.org/zap"
)

// pipeline assembles the alice.Chain that every request runs through
// before reaching the router, in the exact order spec §4.1 lists: log,
// content-type, CORS, connectivity, auth. OPTIONS requests skip
// authentication entirely but still get steps 1-3.
func (s *Server) pipeline(next http.Handler) http.Handler {
	chain := alice.New(
		s.logRequest,
		s.setContentType,
		s.setCORSHeaders,
		s.requireConnected,
		s.requireAuth,
	)
	return chain.Then(next)
}

// logRequest is step 1: a structured log line with method, path, remote
// address, user-agent, URI and the (consumed) request body, which is then
// made re-readable for the handler — grounded on the teacher's SetLogger
// alice.Constructor in auth.go. Each request is tagged with a generated
// correlation ID, echoed back as X-Request-Id and attached to this request
// log line; log lines emitted later by handlers do not carry it.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		s.Logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
			zap.String("uri", r.RequestURI),
			zap.ByteString("body", body),
		)
		next.ServeHTTP(w, r)
	})
}

// setContentType is step 2.
func (s *Server) setContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// setCORSHeaders is step 3: one Access-Control-Allow-<Key> header per
// configured cors pair, defaulting per settings.DefaultCORS. OPTIONS
// requests are answered here and now, since the CORS headers already
// written are the entire preflight response (spec §4.1, §6.2).
func (s *Server) setCORSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, value := range s.Settings.CORSHeaders() {
			w.Header().Set("Access-Control-Allow-"+key, value)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireConnected is step 4: every path other than /info, /health and
// /metrics requires both backends connected, else 500 with a JSON error body.
func (s *Server) requireConnected(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/info" || r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if !s.Registry.Connected() {
			writeBackendDown(w, "registry not connected")
			return
		}
		if !s.Transport.Connected() {
			writeBackendDown(w, "transport not connected")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeBackendDown(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// requireAuth is step 5: HTTP Basic auth, only enforced when both
// api.user and api.password are configured, skipped entirely for OPTIONS.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || !s.Settings.RequiresAuth() {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Settings.API.User || pass != s.Settings.API.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted Area"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
