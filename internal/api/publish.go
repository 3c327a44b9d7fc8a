package api

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/bngnha/sensu/internal/transport"
)

// publishCheckRequest fans a resolved check request out to its
// subscribers, per spec §4.6. Each subscription is "<type>:<topic>"; a
// type of direct or roundrobin routes to the direct exchange, anything
// else to fanout, in both cases with the full subscription string as
// routing key. Publish failures are logged and never surfaced to the
// caller, since the HTTP response (202 issued) has already been decided.
func (s *Server) publishCheckRequest(ctx context.Context, check map[string]interface{}) {
	subscribers, _ := check["subscribers"].([]interface{})
	payload, err := json.Marshal(check)
	if err != nil {
		s.Logger.Error("failed to marshal check request", zap.Error(err))
		return
	}
	for _, sub := range subscribers {
		subscription, ok := sub.(string)
		if !ok || subscription == "" {
			continue
		}
		exchange := transport.ExchangeFanout
		subType := subscription
		if idx := strings.IndexByte(subscription, ':'); idx >= 0 {
			subType = subscription[:idx]
		}
		if subType == "direct" || subType == "roundrobin" {
			exchange = transport.ExchangeDirect
		}
		if err := s.Transport.Publish(ctx, exchange, subscription, payload); err != nil {
			s.Logger.Error("failed to publish check request", zap.String("routing_key", subscription), zap.Error(err))
		}
	}
}

// publishCheckResult publishes a check result as the monitoring pipeline
// expects it, per spec §4.6: {client, check} with check.issued =
// check.executed = now and check.status defaulted to 0, on the direct
// exchange under the results queue.
func (s *Server) publishCheckResult(ctx context.Context, clientName string, check map[string]interface{}) {
	now := s.now()
	check["issued"] = now
	check["executed"] = now
	if status, ok := check["status"]; !ok || status == nil {
		check["status"] = 0
	}
	envelope := map[string]interface{}{
		"client": clientName,
		"check":  check,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		s.Logger.Error("failed to marshal check result", zap.Error(err))
		return
	}
	if err := s.Transport.Publish(ctx, transport.ExchangeDirect, string(transport.QueueResults), payload); err != nil {
		s.Logger.Error("failed to publish check result", zap.Error(err))
	}
}

// publishResolvingResult builds the resolving pseudo-result for an event
// and publishes it, per spec §4.6. eventRaw is the JSON value stored at
// events:<client> for one check.
func (s *Server) publishResolvingResult(ctx context.Context, fallbackClient, checkName, eventRaw string) {
	var event struct {
		Client struct {
			Name string `json:"name"`
		} `json:"client"`
		Check map[string]interface{} `json:"check"`
	}
	if err := json.Unmarshal([]byte(eventRaw), &event); err != nil {
		s.Logger.Error("failed to unmarshal event for resolution", zap.String("check", checkName), zap.Error(err))
		return
	}

	check := event.Check
	if check == nil {
		check = map[string]interface{}{}
	}
	check["name"] = checkName
	check["output"] = "Resolving on request of the API"
	check["status"] = 0
	check["force_resolve"] = true
	delete(check, "history")

	clientName := event.Client.Name
	if clientName == "" {
		clientName = fallbackClient
	}
	s.publishCheckResult(ctx, clientName, check)
}
