package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.stakegov.access"

// Default Rego policy: admin operations (pause, unpause, admin_withdraw)
// are owner-only; while paused, the only reachable operations are
// unpause and admin_withdraw.
const defaultRegoPolicy = `package stakegov.access

admin_ops := {"pause", "unpause", "admin_withdraw"}

default allow := false

allow if {
	input.operation in admin_ops
	input.caller == input.owner
	reachable_while_paused
}

allow if {
	not input.operation in admin_ops
	not input.paused
}

reachable_while_paused if not input.paused
reachable_while_paused if input.operation != "pause"

default reason := ""

reason := "not_owner" if {
	input.operation in admin_ops
	input.caller != input.owner
}

reason := "paused" if {
	input.operation in admin_ops
	input.caller == input.owner
	not reachable_while_paused
}

reason := "paused" if {
	not input.operation in admin_ops
	input.paused
}
`

// OPAEvaluator evaluates access policy using OPA Rego. The policy is
// compiled once at construction.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the given Rego policy source, or the built-in
// default when source is empty. A custom policy must live in package
// stakegov.access and define allow and reason.
func NewOPAEvaluator(source string) (*OPAEvaluator, error) {
	if source == "" {
		source = defaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"access.rego": source})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// Authorize evaluates the access policy for the given input. Returns an
// error if evaluation fails or the policy yields no result; callers must
// treat that as denial.
func (e *OPAEvaluator) Authorize(ctx context.Context, in Input) (Decision, error) {
	input := map[string]interface{}{
		"operation": in.Operation,
		"caller":    in.Caller,
		"owner":     in.Owner,
		"paused":    in.Paused,
	}
	q := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("access policy returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("access policy returned unexpected shape %T", rs[0].Expressions[0].Value)
	}
	var d Decision
	if allow, ok := doc["allow"].(bool); ok {
		d.Allow = allow
	}
	if reason, ok := doc["reason"].(string); ok {
		d.Reason = reason
	}
	return d, nil
}
