// Package validate defines the pluggable client-payload predicate
// (spec §2.4): a capability the process is handed at bootstrap, consulted
// by POST /clients before a client is admitted to the fleet.
package validate

// Validator decides whether a client payload is acceptable. Implementations
// are supplied externally (spec §1 lists the validator as a collaborator
// outside this core); Default below is a permissive stand-in for
// deployments that don't need one.
type Validator interface {
	Valid(payload map[string]interface{}) bool
}

// Func adapts a plain function to the Validator interface.
type Func func(payload map[string]interface{}) bool

func (f Func) Valid(payload map[string]interface{}) bool { return f(payload) }

// Default accepts every payload that at least has a non-empty "name"
// field, which every other handler already assumes is present.
var Default Validator = Func(func(payload map[string]interface{}) bool {
	name, ok := payload["name"].(string)
	return ok && name != ""
})
