package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultValidator(t *testing.T) {
	testCases := []struct {
		Name    string
		Payload map[string]interface{}
		Valid   bool
	}{
		{Name: "missing name", Payload: map[string]interface{}{}, Valid: false},
		{Name: "empty name", Payload: map[string]interface{}{"name": ""}, Valid: false},
		{Name: "non-string name", Payload: map[string]interface{}{"name": 5}, Valid: false},
		{Name: "valid name", Payload: map[string]interface{}{"name": "host1"}, Valid: true},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Valid, Default.Valid(tc.Payload))
		})
	}
}

func TestFuncAdapter(t *testing.T) {
	always := Func(func(map[string]interface{}) bool { return true })
	assert.True(t, always.Valid(nil))
}
