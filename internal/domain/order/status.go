package order

// TransitionPolicy decides which status transitions are legal. A nil
// Allowed map is the loose policy: any transition between statuses is
// permitted. Transitions out of CANCELLED are rejected before the policy
// is ever consulted; cancelled orders are immutable regardless of
// configuration.
type TransitionPolicy struct {
	Allowed map[Status][]Status
}

// LoosePolicy permits every transition, including backward jumps such as
// DELIVERED to PREPARING. This matches how restaurants actually operate:
// staff correct mis-taps rather than file tickets.
func LoosePolicy() TransitionPolicy {
	return TransitionPolicy{}
}

// StrictPolicy permits only the forward fulfillment order plus
// cancellation from any non-terminal state.
func StrictPolicy() TransitionPolicy {
	return TransitionPolicy{Allowed: map[Status][]Status{
		StatusPlaced:     {StatusPreparing, StatusCancelled},
		StatusPreparing:  {StatusDispatched, StatusCancelled},
		StatusDispatched: {StatusDelivered, StatusCancelled},
	}}
}

// Allows reports whether the policy permits moving from one status to
// another. The CANCELLED-is-immutable rule is enforced by the service and
// storage layers, not here.
func (p TransitionPolicy) Allows(from, to Status) bool {
	if p.Allowed == nil {
		return true
	}
	for _, s := range p.Allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
