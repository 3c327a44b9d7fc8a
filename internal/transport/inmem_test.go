package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishRecordsAndReportsErrors(t *testing.T) {
	ctx := context.Background()
	tr := NewInMemory()

	require.NoError(t, tr.Publish(ctx, ExchangeDirect, "results", []byte(`{"a":1}`)))
	published := tr.Published()
	require.Len(t, published, 1)
	assert.Equal(t, ExchangeDirect, published[0].Exchange)
	assert.Equal(t, "results", published[0].RoutingKey)

	tr.SetPublishErr(errors.New("bus down"))
	err := tr.Publish(ctx, ExchangeFanout, "topic", []byte(`{}`))
	assert.EqualError(t, err, "bus down")
	assert.Len(t, tr.Published(), 1, "failed publish must not be recorded")
}

func TestInMemoryStatsAndConnected(t *testing.T) {
	ctx := context.Background()
	tr := NewInMemory()
	assert.True(t, tr.Connected())

	tr.SetStats(QueueResults, Stats{Messages: 3, Consumers: 2})
	stats, err := tr.Stats(ctx, QueueResults)
	require.NoError(t, err)
	assert.Equal(t, Stats{Messages: 3, Consumers: 2}, stats)

	tr.SetDown(true)
	assert.False(t, tr.Connected())
}
