package tool

import (
	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/response"
)

// ExplainPolicyDecision forwards to the governor, which owns the audit
// log the lookup reads from.
func ExplainPolicyDecision(g *governor.Governor, auditID, ownerID string) response.Response {
	return g.ExplainPolicyDecision(auditID, ownerID)
}
