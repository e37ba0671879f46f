package models

const MaxMessageLength = 1000

type QueryRequest struct {
	// Message is the natural language customer query
	Message string `json:"message"`

	// UserID enables personalized support responses when present
	UserID string `json:"user_id,omitempty"`

	// Debug attaches language and triage details to the response
	Debug bool `json:"debug,omitempty"`
}
