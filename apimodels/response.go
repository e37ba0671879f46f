package apimodels

// QueryResponse is the uniform envelope every routed query resolves to. It is
// assembled once by the router and not mutated afterwards.
type QueryResponse struct {
	// The language-matched answer text
	Answer string `json:"answer"`

	// Responder that produced the answer ("knowledge" or "support")
	AgentUsed string `json:"agent_used"`

	// Classified intent ("knowledge", "support" or "off_topic")
	Intent string `json:"intent"`

	// Classifier confidence in [0,1]
	Confidence float64 `json:"confidence"`

	// Deduplicated source identifiers, first-seen order
	Sources []string `json:"sources,omitempty"`

	// Set when a deterministic rule decided the route instead of the classifier
	OverrideReason string `json:"override_reason,omitempty"`

	// Set when the responder needs a user identifier to personalize
	RequiresUserID bool `json:"requires_user_id,omitempty"`

	// Populated only when the caller sets the debug flag
	Debug *DebugInfo `json:"debug,omitempty"`
}

type DebugInfo struct {
	// Detected language code ("pt" or "en")
	Language string `json:"language"`

	// Triage outcome for ticket-creating support queries
	Triage *TriageSummary `json:"triage,omitempty"`
}

// TriageSummary carries the internal-only triage result. It never leaks into
// answer text; priority in particular is for logging and debugging only.
type TriageSummary struct {
	Subject      string `json:"subject"`
	Priority     string `json:"priority"`
	TicketID     string `json:"ticket_id,omitempty"`
	UsedFallback bool   `json:"used_fallback"`
}
