// Package engine evaluates administrative access policy for governance
// operations: which callers may run which operations, and what remains
// reachable while the engine is paused.
package engine

import "context"

// Input describes one attempted operation for policy evaluation.
type Input struct {
	// Operation is the boundary operation name, e.g. "vote" or "pause".
	Operation string
	// Caller is the identity attempting the operation.
	Caller string
	// Owner is the designated owner identity.
	Owner string
	// Paused reports whether the engine is paused.
	Paused bool
}

// Denial reasons produced by the access policy.
const (
	ReasonPaused   = "paused"
	ReasonNotOwner = "not_owner"
)

// Decision is the policy outcome. Reason is set when Allow is false and
// names the rule that denied: ReasonPaused or ReasonNotOwner.
type Decision struct {
	Allow  bool
	Reason string
}

// Evaluator decides whether an operation may proceed. Implementations
// must fail closed: an evaluation error denies the operation.
type Evaluator interface {
	Authorize(ctx context.Context, in Input) (Decision, error)
}
