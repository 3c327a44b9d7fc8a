package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"sync"

	"github.com/gorilla/mux"
)

var resultNameRegex = regexp.MustCompile(`^` + identPattern + `$`)

// handlePostResults implements POST /results (spec §4.5): a manually
// submitted check result, published under client "sensu-api" exactly like
// any other check result.
func (s *Server) handlePostResults() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return readData(r, map[string]fieldRule{
			"name":   stringRule(resultNameRegex),
			"output": {Type: "string"},
			"status": {Type: "number", NilOK: true},
			"source": {Type: "string", NilOK: true, Regex: resultNameRegex},
		})
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		body := request.(map[string]interface{})
		s.publishCheckResult(ctx, "sensu-api", body)
		return issuedNow(s.now()), nil
	}
	return s.newHandler(e, decode)
}

type resultEntry struct {
	Client string          `json:"client"`
	Check  json.RawMessage `json:"check"`
}

// handleGetResults implements GET /results (spec §4.5): the cartesian
// enumeration across clients × result:<client>, skipping any result whose
// JSON blob is missing.
func (s *Server) handleGetResults() http.Handler {
	e := func(ctx context.Context, _ interface{}) (interface{}, error) {
		clients, err := s.Registry.SMembers(ctx, clientsSetKey())
		if err != nil {
			return nil, err
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			entries []resultEntry
		)
		for _, client := range clients {
			wg.Add(1)
			go func(client string) {
				defer wg.Done()
				checks, err := s.Registry.SMembers(ctx, resultSetKey(client))
				if err != nil {
					return
				}
				for _, check := range checks {
					raw, err := s.Registry.Get(ctx, resultKey(client, check))
					if err != nil {
						continue
					}
					mu.Lock()
					entries = append(entries, resultEntry{Client: client, Check: json.RawMessage(raw)})
					mu.Unlock()
				}
			}(client)
		}
		wg.Wait()
		if entries == nil {
			entries = []resultEntry{}
		}
		return ok(entries), nil
	}
	return s.newHandler(e, decodeNothing)
}

// handleGetClientResults implements GET /results/<client> (spec §4.5).
func (s *Server) handleGetClientResults() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["client"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		client := request.(string)
		checks, err := s.Registry.SMembers(ctx, resultSetKey(client))
		if err != nil || len(checks) == 0 {
			return nil, errNotFound()
		}

		values := fetchAll(checks, func(check string) (string, error, bool) {
			v, err := s.Registry.Get(ctx, resultKey(client, check))
			if err != nil {
				return "", nil, false
			}
			return v, nil, true
		})
		entries := make([]resultEntry, 0, len(values))
		for _, raw := range values {
			entries = append(entries, resultEntry{Client: client, Check: json.RawMessage(raw)})
		}
		return ok(entries), nil
	}
	return s.newHandler(e, decode)
}

// handleGetResult implements GET /results/<client>/<check> (spec §4.5).
func (s *Server) handleGetResult() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		vars := mux.Vars(r)
		return clientCheckKey{Client: vars["client"], Check: vars["check"]}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		key := request.(clientCheckKey)
		raw, err := s.Registry.Get(ctx, resultKey(key.Client, key.Check))
		if err != nil {
			return nil, errNotFound()
		}
		return ok(json.RawMessage(raw)), nil
	}
	return s.newHandler(e, decode)
}

// handleDeleteResult implements DELETE /results/<client>/<check> (spec §4.5).
func (s *Server) handleDeleteResult() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		vars := mux.Vars(r)
		return clientCheckKey{Client: vars["client"], Check: vars["check"]}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		key := request.(clientCheckKey)
		exists, err := s.Registry.Exists(ctx, resultKey(key.Client, key.Check))
		if err != nil || !exists {
			return nil, errNotFound()
		}
		if err := s.Registry.SRem(ctx, resultSetKey(key.Client), key.Check); err != nil {
			return nil, err
		}
		if err := s.Registry.Del(ctx, resultKey(key.Client, key.Check)); err != nil {
			return nil, err
		}
		return noContent(), nil
	}
	return s.newHandler(e, decode)
}
