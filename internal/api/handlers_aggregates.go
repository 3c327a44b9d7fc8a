package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"

	"github.com/bngnha/sensu/internal/model"
)

// handleGetAggregates implements GET /aggregates (spec §4.5).
func (s *Server) handleGetAggregates() http.Handler {
	e := func(ctx context.Context, _ interface{}) (interface{}, error) {
		names, err := s.Registry.SMembers(ctx, aggregatesSetKey())
		if err != nil {
			return nil, err
		}
		out := make([]map[string]string, 0, len(names))
		for _, n := range names {
			out = append(out, map[string]string{"name": n})
		}
		return ok(out), nil
	}
	return s.newHandler(e, decodeNothing)
}

// aggregateMemberResult is one member of an aggregate joined with its
// parsed result, or an indication that the result was missing.
type aggregateMemberResult struct {
	Client string
	Check  string
	Result model.Result
	Found  bool
}

// fetchAggregateMembers reads aggregates:<name> and joins every member
// against its result:<client>:<check> blob concurrently. Missing result
// keys are reported (Found=false) so callers can self-repair per I5.
func (s *Server) fetchAggregateMembers(ctx context.Context, name string) ([]aggregateMemberResult, error) {
	members, err := s.Registry.SMembers(ctx, aggregateMembersKey(name))
	if err != nil {
		return nil, err
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out []aggregateMemberResult
	)
	for _, member := range members {
		client, check, valid := splitAggregateMember(member)
		if !valid {
			continue
		}
		wg.Add(1)
		go func(client, check string) {
			defer wg.Done()
			raw, err := s.Registry.Get(ctx, resultKey(client, check))
			entry := aggregateMemberResult{Client: client, Check: check}
			if err != nil {
				mu.Lock()
				out = append(out, entry)
				mu.Unlock()
				return
			}
			var res model.Result
			if jsonErr := json.Unmarshal([]byte(raw), &res); jsonErr != nil {
				mu.Lock()
				out = append(out, entry)
				mu.Unlock()
				return
			}
			entry.Result = res
			entry.Found = true
			mu.Lock()
			out = append(out, entry)
			mu.Unlock()
		}(client, check)
	}
	wg.Wait()
	return out, nil
}

// handleGetAggregate implements GET /aggregates/<name> (spec §4.5).
func (s *Server) handleGetAggregate() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		maxAge, hasMaxAge := queryInt(r, "max_age")
		return struct {
			Name      string
			MaxAge    int
			HasMaxAge bool
		}{Name: mux.Vars(r)["name"], MaxAge: maxAge, HasMaxAge: hasMaxAge}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(struct {
			Name      string
			MaxAge    int
			HasMaxAge bool
		})
		members, err := s.fetchAggregateMembers(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, errNotFound()
		}

		clients := map[string]struct{}{}
		checks := map[string]struct{}{}
		var counts model.AggregateCounts

		now := s.now()
		for _, m := range members {
			clients[m.Client] = struct{}{}
			checks[m.Check] = struct{}{}
			if !m.Found {
				s.selfRepair(aggregateMembersKey(req.Name), aggregateMember(m.Client, m.Check))
				continue
			}
			if req.HasMaxAge && m.Result.Executed < now-int64(req.MaxAge) {
				counts.Stale++
				continue
			}
			switch model.SeverityOf(m.Result.Status) {
			case model.SeverityOK:
				counts.OK++
			case model.SeverityWarning:
				counts.Warning++
			case model.SeverityCritical:
				counts.Critical++
			default:
				counts.Unknown++
			}
			counts.Total++
		}

		return ok(model.AggregateSummary{
			Clients: len(clients),
			Checks:  len(checks),
			Results: counts,
		}), nil
	}
	return s.newHandler(e, decode)
}

// handleDeleteAggregate implements DELETE /aggregates/<name> (spec §4.5).
func (s *Server) handleDeleteAggregate() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		exists, err := s.Registry.Exists(ctx, aggregateMembersKey(name))
		if err != nil || !exists {
			return nil, errNotFound()
		}
		if err := s.Registry.SRem(ctx, aggregatesSetKey(), name); err != nil {
			return nil, err
		}
		if err := s.Registry.Del(ctx, aggregateMembersKey(name)); err != nil {
			return nil, err
		}
		return noContent(), nil
	}
	return s.newHandler(e, decode)
}

// handleGetAggregateClients implements GET /aggregates/<name>/clients
// (spec §4.5): members grouped by client, each carrying its checks.
func (s *Server) handleGetAggregateClients() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		members, err := s.Registry.SMembers(ctx, aggregateMembersKey(name))
		if err != nil || len(members) == 0 {
			return nil, errNotFound()
		}

		grouped := map[string][]string{}
		for _, member := range members {
			client, check, valid := splitAggregateMember(member)
			if !valid {
				continue
			}
			grouped[client] = append(grouped[client], check)
		}

		out := make([]model.AggregateClientGroup, 0, len(grouped))
		for client, checks := range grouped {
			sort.Strings(checks)
			out = append(out, model.AggregateClientGroup{Name: client, Checks: checks})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return ok(out), nil
	}
	return s.newHandler(e, decode)
}

// handleGetAggregateChecks implements GET /aggregates/<name>/checks
// (spec §4.5): the dual grouping, members grouped by check.
func (s *Server) handleGetAggregateChecks() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		return mux.Vars(r)["name"], nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		name := request.(string)
		members, err := s.Registry.SMembers(ctx, aggregateMembersKey(name))
		if err != nil || len(members) == 0 {
			return nil, errNotFound()
		}

		grouped := map[string][]string{}
		for _, member := range members {
			client, check, valid := splitAggregateMember(member)
			if !valid {
				continue
			}
			grouped[check] = append(grouped[check], client)
		}

		out := make([]model.AggregateCheckGroup, 0, len(grouped))
		for check, clients := range grouped {
			sort.Strings(clients)
			out = append(out, model.AggregateCheckGroup{Check: check, Clients: clients})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Check < out[j].Check })
		return ok(out), nil
	}
	return s.newHandler(e, decode)
}

// handleGetAggregateResultsBySeverity implements
// GET /aggregates/<name>/results/<severity> (spec §4.5).
func (s *Server) handleGetAggregateResultsBySeverity() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		vars := mux.Vars(r)
		severity := vars["severity"]
		if !validSeverityPath(severity) {
			return nil, errBadRequest()
		}
		maxAge, hasMaxAge := queryInt(r, "max_age")
		return struct {
			Name      string
			Severity  string
			MaxAge    int
			HasMaxAge bool
		}{Name: vars["name"], Severity: severity, MaxAge: maxAge, HasMaxAge: hasMaxAge}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(struct {
			Name      string
			Severity  string
			MaxAge    int
			HasMaxAge bool
		})
		members, err := s.fetchAggregateMembers(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, errNotFound()
		}

		now := s.now()
		// checkOutputClients[check][output] = clients
		checkOutputClients := map[string]map[string][]string{}
		for _, m := range members {
			if !m.Found {
				continue
			}
			if string(model.SeverityOf(m.Result.Status)) != req.Severity {
				continue
			}
			if req.HasMaxAge && m.Result.Executed < now-int64(req.MaxAge) {
				continue
			}
			if checkOutputClients[m.Check] == nil {
				checkOutputClients[m.Check] = map[string][]string{}
			}
			checkOutputClients[m.Check][m.Result.Output] = append(checkOutputClients[m.Check][m.Result.Output], m.Client)
		}

		checks := make([]string, 0, len(checkOutputClients))
		for check := range checkOutputClients {
			checks = append(checks, check)
		}
		sort.Strings(checks)

		out := make([]model.AggregateSeverityGroup, 0, len(checks))
		for _, check := range checks {
			outputs := checkOutputClients[check]
			outputNames := make([]string, 0, len(outputs))
			for o := range outputs {
				outputNames = append(outputNames, o)
			}
			sort.Strings(outputNames)

			summary := make([]model.AggregateSeverityOutcome, 0, len(outputNames))
			for _, output := range outputNames {
				clients := outputs[output]
				sort.Strings(clients)
				summary = append(summary, model.AggregateSeverityOutcome{
					Output:  output,
					Total:   len(clients),
					Clients: clients,
				})
			}
			out = append(out, model.AggregateSeverityGroup{Check: check, Summary: summary})
		}
		return ok(out), nil
	}
	return s.newHandler(e, decode)
}
