package api

import (
	"context"
	"net/http"

	"github.com/bngnha/sensu/internal/settings"
	"github.com/bngnha/sensu/internal/transport"
)

type queueStats struct {
	Messages  int `json:"messages"`
	Consumers int `json:"consumers"`
}

type infoResponse struct {
	Sensu     infoSensu     `json:"sensu"`
	Transport infoTransport `json:"transport"`
	Redis     infoRedis     `json:"redis"`
	Build     infoBuild     `json:"build"`
}

type infoSensu struct {
	Version string `json:"version"`
}

// infoBuild is the go_version-less build provenance block: just the three
// linker-injected identifiers, no runtime.Version() (that's --version's job).
type infoBuild struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

type infoTransport struct {
	Keepalives *queueStats `json:"keepalives"`
	Results    *queueStats `json:"results"`
	Connected  bool        `json:"connected"`
}

type infoRedis struct {
	Connected bool `json:"connected"`
}

// handleInfo implements GET /info (spec §4.2).
func (s *Server) handleInfo() http.Handler {
	e := func(ctx context.Context, _ interface{}) (interface{}, error) {
		resp := infoResponse{
			Sensu: infoSensu{Version: settings.Version},
			Redis: infoRedis{Connected: s.Registry.Connected()},
			Build: infoBuild{
				Version:   settings.Version,
				GitCommit: settings.GitCommit,
				BuildTime: settings.BuildTime,
			},
		}
		connected := s.Transport.Connected()
		resp.Transport.Connected = connected
		if connected {
			keepalives, _ := s.Transport.Stats(ctx, transport.QueueKeepalives)
			results, _ := s.Transport.Stats(ctx, transport.QueueResults)
			resp.Transport.Keepalives = &queueStats{Messages: keepalives.Messages, Consumers: keepalives.Consumers}
			resp.Transport.Results = &queueStats{Messages: results.Messages, Consumers: results.Consumers}
		}
		return ok(resp), nil
	}
	return s.newHandler(e, decodeNothing)
}

// handleHealth implements GET /health (spec §4.2).
func (s *Server) handleHealth() http.Handler {
	decode := func(_ context.Context, r *http.Request) (interface{}, error) {
		minConsumers, hasMin := queryInt(r, "consumers")
		maxMessages, hasMax := queryInt(r, "messages")
		return healthRequest{MinConsumers: minConsumers, HasMin: hasMin, MaxMessages: maxMessages, HasMax: hasMax}, nil
	}
	e := func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(healthRequest)
		if !s.Registry.Connected() || !s.Transport.Connected() {
			return nil, errPreconditionFailed()
		}
		for _, q := range []transport.Queue{transport.QueueKeepalives, transport.QueueResults} {
			stats, err := s.Transport.Stats(ctx, q)
			if err != nil {
				return nil, errPreconditionFailed()
			}
			if req.HasMin && stats.Consumers < req.MinConsumers {
				return nil, errPreconditionFailed()
			}
			if req.HasMax && stats.Messages > req.MaxMessages {
				return nil, errPreconditionFailed()
			}
		}
		return noContent(), nil
	}
	return s.newHandler(e, decode)
}

type healthRequest struct {
	MinConsumers int
	HasMin       bool
	MaxMessages  int
	HasMax       bool
}

// handleMetrics serves the Prometheus exposition format directly — this
// bypasses the go-kit endpoint/transport split the rest of the package
// uses, since promhttp.Handler already is an http.Handler and re-wrapping
// it through an endpoint.Endpoint would only strip its content negotiation.
func (s *Server) handleMetrics() http.Handler {
	if s.Measures == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return s.Measures.Handler()
}
