package api

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDataRules(t *testing.T) {
	identRegex := regexp.MustCompile(`^[\w.\-]+$`)
	rules := map[string]fieldRule{
		"name":   stringRule(identRegex),
		"output": {Type: "string"},
		"status": {Type: "number", NilOK: true},
	}

	testCases := []struct {
		Name    string
		Body    string
		WantErr bool
	}{
		{Name: "valid, status present", Body: `{"name":"host1","output":"ok","status":0}`},
		{Name: "valid, status absent", Body: `{"name":"host1","output":"ok"}`},
		{Name: "name fails regex", Body: `{"name":"bad name!","output":"ok"}`, WantErr: true},
		{Name: "name wrong type", Body: `{"name":1,"output":"ok"}`, WantErr: true},
		{Name: "output missing", Body: `{"name":"host1"}`, WantErr: true},
		{Name: "status wrong type", Body: `{"name":"host1","output":"ok","status":"x"}`, WantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.Body))
			_, err := readData(r, rules)
			if tc.WantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReadDataEmptyBodyIsEmptyObject(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	body, err := readData(r, map[string]fieldRule{"name": {Type: "string", NilOK: true}})
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestRuleMatchesNilHandling(t *testing.T) {
	assert.True(t, ruleMatches(fieldRule{Type: "string", NilOK: true}, nil, false))
	assert.False(t, ruleMatches(fieldRule{Type: "string"}, nil, false))
	assert.True(t, ruleMatches(fieldRule{Type: "string", NilOK: true}, nil, true))
}
