package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// handleGetChecks implements GET /checks (spec §4.4): the entire
// check-definitions map, verbatim.
func (s *Server) handleGetChecks() http.Handler {
	e := func(_ context.Context, _ interface{}) (interface{}, error) {
		return ok(s.Settings.Checks), nil
	}
	return s.newHandler(e, decodeNothing)
}

// handleGetCheck implements GET /checks/<name> (spec §4.4).
func (s *Server) handleGetCheck() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(_ context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		def, found := s.Settings.Checks[name]
		if !found {
			return nil, errNotFound()
		}
		body := map[string]interface{}{"name": name}
		for k, v := range def {
			body[k] = v
		}
		return ok(body), nil
	}
	return s.newHandler(e, decode)
}

type requestBody struct {
	Check       string
	Subscribers []interface{}
}

// handlePostRequest implements POST /request (spec §4.4).
func (s *Server) handlePostRequest() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, errBadRequest()
		}
		check, ok := raw["check"].(string)
		if !ok || check == "" {
			return nil, errBadRequest()
		}
		subscribers, _ := raw["subscribers"].([]interface{})
		return requestBody{Check: check, Subscribers: subscribers}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(requestBody)
		def, found := s.Settings.Checks[req.Check]
		if !found {
			return nil, errNotFound()
		}

		clone := map[string]interface{}{}
		for k, v := range def {
			clone[k] = v
		}
		clone["name"] = req.Check
		clone["issued"] = s.now()

		switch {
		case req.Subscribers != nil:
			clone["subscribers"] = req.Subscribers
		case clone["subscribers"] == nil:
			clone["subscribers"] = []interface{}{}
		}

		s.publishCheckRequest(ctx, clone)
		return issuedNow(s.now()), nil
	}
	return s.newHandler(e, decode)
}
