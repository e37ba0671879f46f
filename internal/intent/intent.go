// Package intent classifies customer queries into the fixed intent set.
// Deterministic override rules are evaluated before the statistical
// classifier and win unconditionally: a user explicitly asking for a ticket
// or a human must never be deflected to content retrieval.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/vireopay/agentdesk/internal/llm"
)

type Intent string

const (
	Knowledge Intent = "knowledge"
	Support   Intent = "support"
	OffTopic  Intent = "off_topic"
)

// Decision is the classification result. When OverrideReason is set the
// intent is always Support with confidence 1.0.
type Decision struct {
	Intent         Intent
	Confidence     float64
	OverrideReason string
}

// overrideRule fires for explicit ticket or escalation requests.
type overrideRule struct {
	pattern *regexp.Regexp
	reason  string
}

var overrideRules = []overrideRule{
	{regexp.MustCompile(`(?i)\b(open|create|file)\s+(a\s+)?(support\s+)?ticket\b`), "explicit ticket request"},
	{regexp.MustCompile(`(?i)\bsupport\s+ticket\b`), "explicit ticket request"},
	{regexp.MustCompile(`(?i)\bfile\s+(a\s+)?complaint\b`), "explicit complaint filing"},
	{regexp.MustCompile(`(?i)\babrir\s+(um\s+)?(chamado|ticket)\b`), "explicit ticket request"},
	{regexp.MustCompile(`(?i)\bcriar\s+(um\s+)?(chamado|ticket)\b`), "explicit ticket request"},
	{regexp.MustCompile(`(?i)\bregistrar\s+(uma\s+)?reclama[çc][ãa]o\b`), "explicit complaint filing"},
	{regexp.MustCompile(`(?i)\b(escalate|speak|talk)\s+to\s+a\s+human\b`), "explicit human escalation"},
	{regexp.MustCompile(`(?i)\bhuman\s+agent\b`), "explicit human escalation"},
	{regexp.MustCompile(`(?i)\bfalar\s+com\s+(um\s+)?atendente\b`), "explicit human escalation"},
	{regexp.MustCompile(`(?i)\batendente\s+humano\b`), "explicit human escalation"},
}

// A pre-structured ticket body also routes straight to support.
var structuredTicketRe = regexp.MustCompile(`(?is)\b(subject|assunto)\s*:.*\b(description|descri[çc][ãa]o)\s*:`)

const classifierPrompt = `You are an intent classifier for a payments company customer service system.
Classify the user query into exactly one of these categories:

- "support": account issues, login problems, balance or transaction queries, transfer issues, complaints about something not working
- "knowledge": product information, fees, rates, how-to questions, general company information
- "off_topic": anything unrelated to the company, its products, or the user's account (sports, news, personal questions)

Respond with exactly two lines:
CLASSIFICATION: <support|knowledge|off_topic>
CONFIDENCE: <0.0-1.0>`

// generator is the slice of llm.Provider the classifier needs.
type generator interface {
	Generate(ctx context.Context, system, user string, opts ...llm.Option) (*llm.Response, error)
}

type Classifier struct {
	llm       generator
	threshold float64
}

// NewClassifier builds a classifier. threshold is the minimum confidence
// below which a statistical classification degrades to off_topic.
func NewClassifier(provider generator, threshold float64) *Classifier {
	return &Classifier{
		llm:       provider,
		threshold: threshold,
	}
}

// Classify runs the two-stage decision: deterministic overrides first, then
// the statistical classifier. It never returns an error; an unavailable
// backend degrades to the conservative off_topic default with confidence 0.
func (c *Classifier) Classify(ctx context.Context, query string) Decision {
	if reason, ok := CheckOverride(query); ok {
		slog.Info("deterministic override fired", "reason", reason)
		return Decision{Intent: Support, Confidence: 1.0, OverrideReason: reason}
	}

	label, confidence, err := c.classifyWithLLM(ctx, query)
	if err != nil {
		slog.Warn("intent classification backend unavailable", "error", err)
		return Decision{Intent: OffTopic, Confidence: 0.0}
	}

	// Below the threshold the label is not trusted and the query is treated
	// as off-topic. A confidence exactly at the threshold keeps the label, so
	// boundary calls resolve toward content retrieval rather than deflection.
	if confidence < c.threshold {
		return Decision{Intent: OffTopic, Confidence: confidence}
	}
	return Decision{Intent: label, Confidence: confidence}
}

// CheckOverride reports whether a deterministic rule applies to query and
// which one. Exposed so the support responder can recognize the same markers.
func CheckOverride(query string) (string, bool) {
	for _, rule := range overrideRules {
		if rule.pattern.MatchString(query) {
			return rule.reason, true
		}
	}
	if structuredTicketRe.MatchString(query) {
		return "structured ticket body", true
	}
	return "", false
}

func (c *Classifier) classifyWithLLM(ctx context.Context, query string) (Intent, float64, error) {
	resp, err := c.llm.Generate(ctx, classifierPrompt, "User query: "+query,
		llm.WithMaxTokens(50))
	if err != nil {
		return OffTopic, 0, fmt.Errorf("classification call failed: %w", err)
	}

	label, confidence, ok := parseClassification(resp.Content)
	if !ok {
		return OffTopic, 0, fmt.Errorf("unparseable classification output: %q", resp.Content)
	}
	return label, confidence, nil
}

// parseClassification reads the CLASSIFICATION/CONFIDENCE line protocol. The
// backend output is untrusted text; anything malformed is rejected so the
// caller can apply the conservative default.
func parseClassification(content string) (Intent, float64, bool) {
	label := Intent("")
	confidence := 0.5

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.Contains(line, "CLASSIFICATION:"):
			raw := strings.ToLower(strings.TrimSpace(after(line, "CLASSIFICATION:")))
			switch raw {
			case "support":
				label = Support
			case "knowledge":
				label = Knowledge
			case "off_topic":
				label = OffTopic
			}
		case strings.Contains(line, "CONFIDENCE:"):
			if v, err := strconv.ParseFloat(strings.TrimSpace(after(line, "CONFIDENCE:")), 64); err == nil {
				confidence = v
			}
		}
	}

	if label == "" {
		return OffTopic, 0, false
	}
	if confidence < 0 {
		confidence = 0
	}
	// Cap statistical confidence below the deterministic 1.0
	if confidence > 0.95 {
		confidence = 0.95
	}
	return label, confidence, true
}

func after(line, marker string) string {
	if i := strings.Index(line, marker); i >= 0 {
		return line[i+len(marker):]
	}
	return ""
}
