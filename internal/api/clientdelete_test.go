package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bngnha/sensu/internal/registry"
)

func TestPurgeClientDataRemovesEverything(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewInMemory()
	s := &Server{Registry: reg, Logger: zap.NewNop()}

	require.NoError(t, reg.SAdd(ctx, clientsSetKey(), "host1"))
	require.NoError(t, reg.Set(ctx, clientKey("host1"), `{"name":"host1"}`))
	require.NoError(t, reg.Set(ctx, clientSignatureKey("host1"), "sig"))
	reg.HSet(eventsHashKey("host1"), "check1", `{"status":2}`)
	require.NoError(t, reg.SAdd(ctx, resultSetKey("host1"), "check1"))
	require.NoError(t, reg.Set(ctx, resultKey("host1", "check1"), `{"status":2}`))
	reg.LPush(historyKey("host1", "check1"), `{"status":2}`)

	s.purgeClientData(ctx, "host1")

	members, err := reg.SMembers(ctx, clientsSetKey())
	require.NoError(t, err)
	assert.NotContains(t, members, "host1")

	for _, key := range []string{clientKey("host1"), clientSignatureKey("host1"), eventsHashKey("host1"), resultKey("host1", "check1"), resultSetKey("host1")} {
		exists, err := reg.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, "expected %s to be deleted", key)
	}

	hist, err := reg.LRange(ctx, historyKey("host1", "check1"), 0, -1)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestPurgeClientBreaksOnceEventsDrain(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewInMemory()
	s := &Server{Registry: reg, Logger: zap.NewNop()}

	require.NoError(t, reg.SAdd(ctx, clientsSetKey(), "host1"))
	require.NoError(t, reg.Set(ctx, clientKey("host1"), `{"name":"host1"}`))

	s.purgeClient("host1")

	exists, err := reg.Exists(ctx, clientKey("host1"))
	require.NoError(t, err)
	assert.False(t, exists)
}
