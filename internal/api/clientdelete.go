package api

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// maxPurgeProbes is the index of the last probe attempt the deletion
// state machine runs (attempts 0..5, six probes in all) before giving up
// and purging anyway, per spec §4.3.
const maxPurgeProbes = 5

// purgeClient runs the client-deletion retry loop described in spec §4.3
// as a probe/purge state machine, detached from the HTTP request that
// triggered it — the 202 response has already been written by the time
// this runs. It must never be awaited by a caller.
func (s *Server) purgeClient(name string) {
	ctx := context.Background()
	for attempt := 0; attempt <= maxPurgeProbes; attempt++ {
		events, err := s.Registry.HGetAll(ctx, eventsHashKey(name))
		if err == nil && len(events) == 0 {
			break
		}
		if attempt == maxPurgeProbes {
			break
		}
		time.Sleep(1 * time.Second)
	}
	s.purgeClientData(ctx, name)
}

// purgeClientData implements the purge state: remove the client from the
// clients set, delete its primary keys, then every per-check result and
// history key, then the result set itself, per spec I2.
func (s *Server) purgeClientData(ctx context.Context, name string) {
	if err := s.Registry.SRem(ctx, clientsSetKey(), name); err != nil {
		s.Logger.Error("purge: failed to remove client from clients set", zap.String("client", name), zap.Error(err))
	}
	for _, key := range []string{clientKey(name), clientSignatureKey(name), eventsHashKey(name)} {
		if err := s.Registry.Del(ctx, key); err != nil {
			s.Logger.Error("purge: failed to delete key", zap.String("key", key), zap.Error(err))
		}
	}

	checks, err := s.Registry.SMembers(ctx, resultSetKey(name))
	if err == nil {
		for _, check := range checks {
			if err := s.Registry.Del(ctx, resultKey(name, check)); err != nil {
				s.Logger.Error("purge: failed to delete result", zap.String("client", name), zap.String("check", check), zap.Error(err))
			}
			if err := s.Registry.Del(ctx, historyKey(name, check)); err != nil {
				s.Logger.Error("purge: failed to delete history", zap.String("client", name), zap.String("check", check), zap.Error(err))
			}
		}
	}
	if err := s.Registry.Del(ctx, resultSetKey(name)); err != nil {
		s.Logger.Error("purge: failed to delete result set", zap.String("client", name), zap.Error(err))
	}
}
