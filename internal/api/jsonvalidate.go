package api

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
)

// fieldRule is one entry of the rules map handed to readData, matching
// spec §4.1's read_data(rules): a JSON value passes a rule iff either it
// is null/absent and NilOK is set, or (its type matches Type) AND (Regex
// is nil OR a string value matches Regex). Regex.MatchString is not
// anchored, so a rule that needs a match from position 0 anchors its
// pattern with ^.
//
// Per spec §9's Open Question, the boolean reading codified here lets a
// value pass when no regex is configured regardless of whether NilOK
// applies — Regex absence alone satisfies the second clause.
type fieldRule struct {
	Type  string // "string", "number", "boolean", "array", "object"
	NilOK bool
	Regex *regexp.Regexp
}

func stringRule(regex *regexp.Regexp) fieldRule { return fieldRule{Type: "string", Regex: regex} }

// readData reads the request body, parses it as a JSON object, and checks
// every rule. Any parse error or rule failure yields errBadRequest(); on
// success the parsed object is returned for the handler to use.
func readData(r *http.Request, rules map[string]fieldRule) (map[string]interface{}, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errBadRequest()
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errBadRequest()
	}

	for key, rule := range rules {
		value, present := body[key]
		if !ruleMatches(rule, value, present) {
			return nil, errBadRequest()
		}
	}
	return body, nil
}

func ruleMatches(rule fieldRule, value interface{}, present bool) bool {
	isNil := !present || value == nil
	if isNil {
		return rule.NilOK
	}
	if !typeMatches(rule.Type, value) {
		return false
	}
	if rule.Regex == nil {
		return true
	}
	s, ok := value.(string)
	if !ok {
		// non-string value with a regex configured: type already matched
		// (meaning Type != "string"), so the regex clause is moot — the
		// predicate only inspects strings.
		return true
	}
	return rule.Regex.MatchString(s)
}

func typeMatches(ruleType string, value interface{}) bool {
	switch ruleType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return true
	}
}
