package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

// handleGetEvents implements GET /events (spec §4.5): the union of every
// events:<client> hash's values, across every client in the clients set.
func (s *Server) handleGetEvents() http.Handler {
	e := func(ctx context.Context, _ interface{}) (interface{}, error) {
		names, err := s.Registry.SMembers(ctx, clientsSetKey())
		if err != nil {
			return nil, err
		}

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			all []json.RawMessage
		)
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				hash, err := s.Registry.HGetAll(ctx, eventsHashKey(name))
				if err != nil {
					return
				}
				mu.Lock()
				for _, raw := range hash {
					all = append(all, json.RawMessage(raw))
				}
				mu.Unlock()
			}(name)
		}
		wg.Wait()
		if all == nil {
			all = []json.RawMessage{}
		}
		return ok(all), nil
	}
	return s.newHandler(e, decodeNothing)
}

// handleGetClientEvents implements GET /events/<client> (spec §4.5).
func (s *Server) handleGetClientEvents() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["client"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		client := request.(string)
		hash, err := s.Registry.HGetAll(ctx, eventsHashKey(client))
		if err != nil {
			return nil, err
		}
		events := make([]json.RawMessage, 0, len(hash))
		for _, raw := range hash {
			events = append(events, json.RawMessage(raw))
		}
		return ok(events), nil
	}
	return s.newHandler(e, decode)
}

type clientCheckKey struct {
	Client string
	Check  string
}

// handleGetEvent implements GET /events/<client>/<check> (spec §4.5).
func (s *Server) handleGetEvent() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		vars := mux.Vars(r)
		return clientCheckKey{Client: vars["client"], Check: vars["check"]}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		key := request.(clientCheckKey)
		hash, err := s.Registry.HGetAll(ctx, eventsHashKey(key.Client))
		if err != nil {
			return nil, err
		}
		raw, found := hash[key.Check]
		if !found {
			return nil, errNotFound()
		}
		return ok(json.RawMessage(raw)), nil
	}
	return s.newHandler(e, decode)
}

// handleDeleteEvent implements DELETE /events/<client>/<check> (spec §4.5).
func (s *Server) handleDeleteEvent() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		vars := mux.Vars(r)
		return clientCheckKey{Client: vars["client"], Check: vars["check"]}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		key := request.(clientCheckKey)
		return s.resolveEvent(ctx, key.Client, key.Check)
	}
	return s.newHandler(e, decode)
}

// handlePostResolve implements POST /resolve (spec §4.5): same semantics
// as DELETE /events/<client>/<check>, keyed by a JSON body instead of the
// path.
func (s *Server) handlePostResolve() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		body, err := readData(r, map[string]fieldRule{
			"client": {Type: "string"},
			"check":  {Type: "string"},
		})
		if err != nil {
			return nil, err
		}
		return clientCheckKey{Client: body["client"].(string), Check: body["check"].(string)}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		key := request.(clientCheckKey)
		return s.resolveEvent(ctx, key.Client, key.Check)
	}
	return s.newHandler(e, decode)
}

// resolveEvent is the shared implementation behind DELETE
// /events/<client>/<check> and POST /resolve.
func (s *Server) resolveEvent(ctx context.Context, client, check string) (interface{}, error) {
	hash, err := s.Registry.HGetAll(ctx, eventsHashKey(client))
	if err != nil {
		return nil, err
	}
	raw, found := hash[check]
	if !found {
		return nil, errNotFound()
	}
	s.publishResolvingResult(ctx, client, check, raw)
	return issuedNow(s.now()), nil
}
