package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bngnha/sensu/internal/model"
	"github.com/bngnha/sensu/internal/settings"
)

// selfRepair removes a dangling member from a set, fire-and-forget, per
// spec I5: enumeration endpoints must not gate their response on this, and
// its failure is never a request error.
func (s *Server) selfRepair(setKey, member string) {
	go func() {
		if err := s.Registry.SRem(context.Background(), setKey, member); err != nil {
			s.Logger.Debug("self-repair failed", zap.String("set", setKey), zap.String("member", member), zap.Error(err))
			return
		}
		s.Logger.Debug("self-repair removed dangling member", zap.String("set", setKey), zap.String("member", member))
	}()
}

// fetchAll issues fetch for every key concurrently and joins on completion
// of all of them — the explicit join point spec §9 calls for in place of
// the source's callback-counting pattern.
func fetchAll(keys []string, fetch func(key string) (string, error, bool)) map[string]string {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(map[string]string, len(keys))
	)
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			value, err, found := fetch(key)
			if err != nil || !found {
				return
			}
			mu.Lock()
			out[key] = value
			mu.Unlock()
		}(key)
	}
	wg.Wait()
	return out
}

// handlePostClients implements POST /clients (spec §4.3).
func (s *Server) handlePostClients() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, errBadRequest()
		}
		name, ok := body["name"].(string)
		if !ok || name == "" {
			return nil, errBadRequest()
		}
		return body, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		body := request.(map[string]interface{})
		name := body["name"].(string)

		keepalives, _ := body["keepalives"].(bool)
		body["keepalives"] = keepalives
		body["version"] = settings.Version
		body["timestamp"] = s.now()

		if !s.Validator.Valid(body) {
			return nil, errBadRequest()
		}

		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		if err := s.Registry.Set(ctx, clientKey(name), string(data)); err != nil {
			return nil, err
		}
		if err := s.Registry.SAdd(ctx, clientsSetKey(), name); err != nil {
			return nil, err
		}

		// client is the thin typed projection model.Client documents: just
		// the fields the API itself reasons about, for the registration log
		// line. The stored blob keeps every field the caller POSTed.
		client := model.Client{Name: name, Version: settings.Version, Timestamp: s.now(), Keepalives: keepalives}
		if addr, ok := body["address"].(string); ok {
			client.Address = addr
		}
		s.Logger.Debug("client registered",
			zap.String("name", client.Name),
			zap.String("address", client.Address),
			zap.String("version", client.Version),
			zap.Int64("timestamp", client.Timestamp),
		)

		return created(map[string]string{"name": name}), nil
	}
	return s.newHandler(e, decode)
}

// handleGetClients implements GET /clients (spec §4.3).
//
// Pagination applies to the set of client names before the fan-out read,
// matching the teacher's and spec §8 P3's expectation that X-Pagination's
// total reflects the cardinality of the clients set, not the number of
// client objects successfully resolved afterward.
func (s *Server) handleGetClients() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return r, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*http.Request)
		names, err := s.Registry.SMembers(ctx, clientsSetKey())
		if err != nil {
			return nil, err
		}

		nameItems := make([]interface{}, len(names))
		for i, n := range names {
			nameItems[i] = n
		}
		paged, header, hasHeader := paginate(r, nameItems)
		pagedNames := make([]string, len(paged))
		for i, n := range paged {
			pagedNames[i] = n.(string)
		}

		values := fetchAll(pagedNames, func(name string) (string, error, bool) {
			v, err := s.Registry.Get(ctx, clientKey(name))
			if err != nil {
				return "", nil, false
			}
			return v, nil, true
		})
		for _, name := range pagedNames {
			if _, ok := values[name]; !ok {
				s.selfRepair(clientsSetKey(), name)
			}
		}

		items := make([]json.RawMessage, 0, len(values))
		for _, raw := range values {
			items = append(items, json.RawMessage(raw))
		}
		resp := ok(items)
		if hasHeader {
			resp = withHeader(resp, "X-Pagination", header)
		}
		return resp, nil
	}
	return s.newHandler(e, decode)
}

// handleGetClient implements GET /clients/<name> (spec §4.3).
func (s *Server) handleGetClient() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		raw, err := s.Registry.Get(ctx, clientKey(name))
		if err != nil {
			return nil, errNotFound()
		}
		return ok(json.RawMessage(raw)), nil
	}
	return s.newHandler(e, decode)
}

// handleClientHistory implements GET /clients/<name>/history (spec §4.3).
func (s *Server) handleClientHistory() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		checks, err := s.Registry.SMembers(ctx, resultSetKey(name))
		if err != nil {
			return nil, err
		}

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			out []model.ClientHistoryEntry
		)
		for _, check := range checks {
			wg.Add(1)
			go func(check string) {
				defer wg.Done()
				hist, _ := s.Registry.LRange(ctx, historyKey(name, check), -21, -1)
				res, err := s.Registry.Get(ctx, resultKey(name, check))
				if err != nil || len(hist) == 0 {
					return
				}
				var parsed struct {
					Status   int    `json:"status"`
					Output   string `json:"output"`
					Executed int64  `json:"executed"`
				}
				if err := json.Unmarshal([]byte(res), &parsed); err != nil {
					return
				}
				ints := make([]int, 0, len(hist))
				for _, h := range hist {
					if n, err := strconv.Atoi(h); err == nil {
						ints = append(ints, n)
					}
				}
				entry := model.ClientHistoryEntry{
					Check:         check,
					History:       ints,
					LastExecution: parsed.Executed,
					LastStatus:    parsed.Status,
					LastResult:    json.RawMessage(res),
				}
				mu.Lock()
				out = append(out, entry)
				mu.Unlock()
			}(check)
		}
		wg.Wait()
		return ok(out), nil
	}
	return s.newHandler(e, decode)
}

// handleDeleteClient implements DELETE /clients/<name> (spec §4.3).
func (s *Server) handleDeleteClient() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		if exists, err := s.Registry.Exists(ctx, clientKey(name)); err != nil || !exists {
			return nil, errNotFound()
		}

		events, err := s.Registry.HGetAll(ctx, eventsHashKey(name))
		if err == nil {
			for check, raw := range events {
				s.publishResolvingResult(context.Background(), name, check, raw)
			}
		}

		go s.purgeClient(name)

		return issuedNow(s.now()), nil
	}
	return s.newHandler(e, decode)
}
