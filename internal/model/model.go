// Package model defines the fleet-state shapes stored in the registry:
// clients, events, results, history, check definitions, aggregates and
// stashes.
package model

import "encoding/json"

// Client is a monitored host registered with the fleet.
//
// The registry stores whatever JSON object the caller POSTed, with
// name/version/timestamp/keepalives overlaid by the API, so Client is a
// thin typed view over the fields the API itself reasons about; unknown
// fields round-trip through the map[string]interface{} form handlers use
// when reading/writing client:<name> directly.
type Client struct {
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Subscriptions []string `json:"subscriptions,omitempty"`
	Version       string   `json:"version"`
	Timestamp     int64    `json:"timestamp"`
	Keepalives    bool     `json:"keepalives"`
}

// Severity is the closed set of buckets a Result's Status maps into.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// SeverityOf maps a raw check status code onto its named bucket.
func SeverityOf(status int) Severity {
	switch status {
	case 0:
		return SeverityOK
	case 1:
		return SeverityWarning
	case 2:
		return SeverityCritical
	default:
		return SeverityUnknown
	}
}

// ValidSeverity reports whether s names one of the four buckets.
func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityOK, SeverityWarning, SeverityCritical, SeverityUnknown:
		return true
	default:
		return false
	}
}

// Result is the latest outcome of a check run against a client.
type Result struct {
	Status   int    `json:"status"`
	Output   string `json:"output"`
	Executed int64  `json:"executed"`
	Issued   int64  `json:"issued,omitempty"`
	Client   string `json:"client,omitempty"`
	Check    string `json:"check,omitempty"`
	Source   string `json:"source,omitempty"`

	// ForceResolve marks a pseudo-result published purely to resolve an
	// event, never persisted as a genuine check outcome.
	ForceResolve bool `json:"force_resolve,omitempty"`
}

// CheckDefinition is an in-memory check definition loaded from settings.
// It is never persisted by the API; the registry has no opinion on it.
type CheckDefinition map[string]interface{}

// AggregateSummary is the counts side of GET /aggregates/<name>.
type AggregateSummary struct {
	Clients int             `json:"clients"`
	Checks  int             `json:"checks"`
	Results AggregateCounts `json:"results"`
}

// AggregateCounts buckets aggregate member results by severity, plus a
// running total and a count of entries excluded as stale.
type AggregateCounts struct {
	OK       int `json:"ok"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Unknown  int `json:"unknown"`
	Total    int `json:"total"`
	Stale    int `json:"stale"`
}

// AggregateClientGroup is one entry of GET /aggregates/<name>/clients.
type AggregateClientGroup struct {
	Name   string   `json:"name"`
	Checks []string `json:"checks"`
}

// AggregateCheckGroup is one entry of GET /aggregates/<name>/checks.
type AggregateCheckGroup struct {
	Check   string   `json:"check"`
	Clients []string `json:"clients"`
}

// AggregateSeverityGroup is one entry of
// GET /aggregates/<name>/results/<severity>.
type AggregateSeverityGroup struct {
	Check   string                      `json:"check"`
	Summary []AggregateSeverityOutcome `json:"summary"`
}

// AggregateSeverityOutcome groups members of a single check that reported
// the same output string.
type AggregateSeverityOutcome struct {
	Output  string   `json:"output"`
	Total   int      `json:"total"`
	Clients []string `json:"clients"`
}

// ClientHistoryEntry is one row of GET /clients/<name>/history. LastResult
// carries the registry's result blob verbatim rather than a typed Result,
// since that blob may carry fields the API doesn't model.
type ClientHistoryEntry struct {
	Check         string          `json:"check"`
	History       []int           `json:"history"`
	LastExecution int64           `json:"last_execution"`
	LastStatus    int             `json:"last_status"`
	LastResult    json.RawMessage `json:"last_result"`
}

// StashEntry is one row of GET /stashes.
type StashEntry struct {
	Path    string      `json:"path"`
	Content interface{} `json:"content"`
	Expire  int64       `json:"expire"`
}
