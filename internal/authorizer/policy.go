package authorizer

// Effect is the policy outcome.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

const (
	policyVersion = "2012-10-17"
	actionInvoke  = "execute-api:Invoke"

	// UnauthorizedPrincipal is the sentinel principal id on every deny.
	UnauthorizedPrincipal = "unauthorized"
)

// Statement is a single IAM policy statement.
type Statement struct {
	Action   string `json:"Action"`
	Effect   Effect `json:"Effect"`
	Resource string `json:"Resource"`
}

// PolicyDocument is the IAM-style policy attached to a decision. The
// gateway always emits exactly one statement.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Decision is the authorization outcome handed back to the API gateway.
// Context is flat and string-valued: downstream consumers cannot read
// anything richer.
type Decision struct {
	PrincipalID string            `json:"principalId"`
	Policy      PolicyDocument    `json:"policyDocument"`
	Context     map[string]string `json:"context,omitempty"`
}

// Effect returns the decision's single-statement effect; Deny when the
// policy is malformed or empty.
func (d Decision) Effect() Effect {
	if len(d.Policy.Statement) != 1 {
		return EffectDeny
	}
	return d.Policy.Statement[0].Effect
}

func newPolicy(effect Effect, resource string) PolicyDocument {
	return PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{
			{Action: actionInvoke, Effect: effect, Resource: resource},
		},
	}
}
