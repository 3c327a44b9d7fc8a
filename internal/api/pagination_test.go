package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(n int) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginateNoLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/clients", nil)
	got, header, hasHeader := paginate(r, items(5))
	assert.Equal(t, items(5), got)
	assert.False(t, hasHeader)
	assert.Empty(t, header)
}

func TestPaginateWithLimitAndOffset(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/clients?limit=2&offset=1", nil)
	got, header, hasHeader := paginate(r, items(5))
	require.True(t, hasHeader)
	assert.Equal(t, []interface{}{1, 2}, got)
	assert.Contains(t, header, `"total":5`)
	assert.Contains(t, header, `"limit":2`)
	assert.Contains(t, header, `"offset":1`)
}

func TestPaginateOffsetBeyondRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/clients?limit=2&offset=50", nil)
	got, _, hasHeader := paginate(r, items(5))
	assert.True(t, hasHeader)
	assert.Empty(t, got)
}

func TestPaginateInvalidLimitIgnored(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/clients?limit=notanumber", nil)
	got, _, hasHeader := paginate(r, items(3))
	assert.False(t, hasHeader)
	assert.Equal(t, items(3), got)
}
