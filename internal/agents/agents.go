// Package agents holds the responders that turn a routed query into a final
// answer: the knowledge responder (retrieval-grounded answers), the support
// responder (account data and ticket triage) and the personality layer.
package agents

import (
	"context"

	"github.com/vireopay/agentdesk/apimodels"
	"github.com/vireopay/agentdesk/internal/llm"
)

const (
	AgentKnowledge = "knowledge"
	AgentSupport   = "support"
)

// Reply is a responder's output before the router wraps it into the response
// envelope. Every responder path returns a valid Reply; upstream failures are
// absorbed into degraded but well-formed answers.
type Reply struct {
	Answer         string
	Agent          string
	Sources        []string
	RequiresUserID bool
	Triage         *apimodels.TriageSummary
}

// generator is the slice of llm.Provider the responders need.
type generator interface {
	Generate(ctx context.Context, system, user string, opts ...llm.Option) (*llm.Response, error)
}
