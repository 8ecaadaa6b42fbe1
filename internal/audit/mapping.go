package audit

import "strings"

// ActionResource holds the action and resource recorded for an operation.
type ActionResource struct {
	Action   string
	Resource string
}

// ResourceForOperation returns the resource category an operation acts on.
// Unknown operations map to "unknown".
func ResourceForOperation(op string) string {
	switch op {
	case "join", "leave":
		return "membership"
	case "create_proposal", "vote", "execute":
		return "proposal"
	case "deposit", "admin_withdraw":
		return "treasury"
	case "pause", "unpause":
		return "control"
	default:
		return "unknown"
	}
}

// ParseSubject returns action and resource for a request subject
// (e.g. stakegov.op.vote). The action is the last subject token; the
// resource is derived from the operation name.
func ParseSubject(subject string) ActionResource {
	dot := strings.LastIndex(subject, ".")
	if dot < 0 || dot == len(subject)-1 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	op := subject[dot+1:]
	return ActionResource{Action: op, Resource: ResourceForOperation(op)}
}
