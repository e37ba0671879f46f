package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vireopay/agentdesk/internal/lang"
	"github.com/vireopay/agentdesk/internal/llm"
	"github.com/vireopay/agentdesk/internal/retrieval"
)

// ScaffoldMarker separates retrieved context from instructions inside the
// generation request. It is internal framing and must never appear in the
// rendered answer.
const ScaffoldMarker = "===CONTEXT==="

// Retriever is the slice of the retrieval engine the responder needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retrieval.Passage, error)
}

// Knowledge composes grounded answers from retrieved passages. Answers are
// always written in the detected query language and carry a localized,
// deduplicated sources footer.
type Knowledge struct {
	retriever Retriever
	llm       generator
	topK      int
	minScore  float64
}

func NewKnowledge(retriever Retriever, provider generator, topK int, minScore float64) *Knowledge {
	return &Knowledge{
		retriever: retriever,
		llm:       provider,
		topK:      topK,
		minScore:  minScore,
	}
}

// Answer never fails: retrieval or generation trouble degrades into a valid
// localized reply.
func (k *Knowledge) Answer(ctx context.Context, query string, code lang.Code) *Reply {
	passages, err := k.retriever.Retrieve(ctx, query, k.topK)
	if err != nil {
		slog.Warn("retrieval failed, serving unavailable reply", "error", err)
		return &Reply{Answer: knowledgeUnavailableMessage(code), Agent: AgentKnowledge}
	}

	// No grounding means no answer: deflect instead of fabricating.
	if len(passages) == 0 || passages[0].Score < k.minScore {
		return k.Deflect(code)
	}

	deduped := dedupeBySource(passages)
	sources := sourceList(deduped)
	footer := sourcesFooter(code, sources)

	resp, err := k.llm.Generate(ctx,
		knowledgeSystemPrompt(code),
		buildGenerationRequest(query, deduped),
		llm.WithMaxTokens(800),
	)
	if err != nil {
		// Retrieval succeeded, so the sources are still worth returning.
		slog.Warn("answer generation failed, returning sources only", "error", err)
		return &Reply{Answer: appendFooter(generationFailedMessage(code), footer), Agent: AgentKnowledge, Sources: sources}
	}

	answer := appendFooter(strings.TrimSpace(stripScaffold(resp.Content)), footer)

	return &Reply{
		Answer:  answer,
		Agent:   AgentKnowledge,
		Sources: sources,
	}
}

// Deflect produces the out-of-scope reply: no grounding, no sources, a short
// list of in-scope topics, in the query language.
func (k *Knowledge) Deflect(code lang.Code) *Reply {
	return &Reply{
		Answer: deflectionMessage(code),
		Agent:  AgentKnowledge,
	}
}

func knowledgeSystemPrompt(code lang.Code) string {
	return fmt.Sprintf(`You are a knowledge assistant for VireoPay, a payments company.
Answer the user's question using ONLY the passages between the %s markers.
Rules:
- You MUST write the answer in %s.
- Base the answer strictly on the provided passages; if they do not contain the answer, say you don't have that information.
- Never reproduce the %s marker or any scaffolding in your answer.
- Do not list sources; they are appended separately.
- Be clear, concise and friendly.`, ScaffoldMarker, lang.Name(code), ScaffoldMarker)
}

func buildGenerationRequest(query string, passages []retrieval.Passage) string {
	var b strings.Builder
	b.WriteString(ScaffoldMarker)
	b.WriteString("\n")
	for _, p := range passages {
		if p.Title != "" {
			b.WriteString(p.Title)
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	b.WriteString(ScaffoldMarker)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// dedupeBySource merges passages with identical source identifiers,
// preserving first-seen order. The first (most relevant) passage per source
// is kept.
func dedupeBySource(passages []retrieval.Passage) []retrieval.Passage {
	seen := make(map[string]bool, len(passages))
	out := make([]retrieval.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Source != "" && seen[p.Source] {
			continue
		}
		seen[p.Source] = true
		out = append(out, p)
	}
	return out
}

func sourceList(passages []retrieval.Passage) []string {
	sources := make([]string, 0, len(passages))
	for _, p := range passages {
		if p.Source != "" {
			sources = append(sources, p.Source)
		}
	}
	return sources
}

// stripScaffold enforces the post-condition that the literal marker never
// leaks into visible text, even if the model echoes it.
func stripScaffold(text string) string {
	return strings.ReplaceAll(text, ScaffoldMarker, "")
}

// appendFooter attaches the sources footer; sourceless answers keep a clean
// ending instead of a dangling blank line.
func appendFooter(body, footer string) string {
	if footer == "" {
		return body
	}
	return body + "\n\n" + footer
}
