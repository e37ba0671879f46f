// Package router is the pipeline core: detect language, classify intent,
// dispatch to a responder, apply the personality layer and assemble the
// response envelope.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/vireopay/agentdesk/apimodels"
	"github.com/vireopay/agentdesk/internal/agents"
	"github.com/vireopay/agentdesk/internal/config"
	"github.com/vireopay/agentdesk/internal/intent"
	"github.com/vireopay/agentdesk/internal/lang"
)

// Query is one routed customer message.
type Query struct {
	Message string
	UserID  string
	Debug   bool
}

type classifier interface {
	Classify(ctx context.Context, query string) intent.Decision
}

type knowledgeResponder interface {
	Answer(ctx context.Context, query string, code lang.Code) *agents.Reply
	Deflect(code lang.Code) *agents.Reply
}

type supportResponder interface {
	Answer(ctx context.Context, query, userID string, code lang.Code) *agents.Reply
}

type personality interface {
	Apply(text string, code lang.Code) string
}

type Router struct {
	classifier  classifier
	knowledge   knowledgeResponder
	support     supportResponder
	personality personality
	cfg         *config.AgentConfig
	provider    string
}

func New(cls classifier, knowledge knowledgeResponder, support supportResponder, pers personality, cfg *config.AgentConfig, provider string) *Router {
	return &Router{
		classifier:  cls,
		knowledge:   knowledge,
		support:     support,
		personality: pers,
		cfg:         cfg,
		provider:    provider,
	}
}

// Route runs the full pipeline. It is total: every query, including every
// upstream failure mode, resolves to a well-formed response.
func (r *Router) Route(ctx context.Context, q Query) apimodels.QueryResponse {
	start := time.Now()

	code := lang.Detect(q.Message)
	decision := r.classifier.Classify(ctx, q.Message)

	var reply *agents.Reply
	switch decision.Intent {
	case intent.Support:
		reply = r.support.Answer(ctx, q.Message, q.UserID, code)
	case intent.Knowledge:
		reply = r.knowledge.Answer(ctx, q.Message, code)
	default:
		// Off-topic deflections are served by the knowledge responder so the
		// user still sees what IS in scope.
		reply = r.knowledge.Deflect(code)
	}

	answer := r.personality.Apply(reply.Answer, code)

	slog.Info("query routed",
		"intent", decision.Intent,
		"confidence", decision.Confidence,
		"agent", reply.Agent,
		"language", code,
		"override", decision.OverrideReason != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	resp := apimodels.QueryResponse{
		Answer:         answer,
		AgentUsed:      reply.Agent,
		Intent:         string(decision.Intent),
		Confidence:     decision.Confidence,
		Sources:        reply.Sources,
		OverrideReason: decision.OverrideReason,
		RequiresUserID: reply.RequiresUserID,
	}

	if q.Debug {
		resp.Debug = &apimodels.DebugInfo{
			Language: string(code),
			Triage:   reply.Triage,
		}
	}

	return resp
}

// Capabilities describes the running configuration for the discovery
// endpoint.
func (r *Router) Capabilities() map[string]any {
	return map[string]any{
		"provider":            r.provider,
		"locale":              r.cfg.Locale,
		"intents":             []string{string(intent.Knowledge), string(intent.Support), string(intent.OffTopic)},
		"languages":           []string{string(lang.Portuguese), string(lang.English)},
		"default_language":    string(lang.Default),
		"personality_enabled": r.cfg.Personality,
		"retrieval_top_k":     r.cfg.TopK,
	}
}
