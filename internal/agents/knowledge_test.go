package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireopay/agentdesk/internal/lang"
	"github.com/vireopay/agentdesk/internal/llm"
	"github.com/vireopay/agentdesk/internal/retrieval"
)

type fakeRetriever struct {
	passages []retrieval.Passage
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int) ([]retrieval.Passage, error) {
	f.gotQuery = query
	f.gotK = k
	return f.passages, f.err
}

type fakeGenerator struct {
	content string
	err     error
	calls   int
	lastSys string
	lastUsr string
}

func (f *fakeGenerator) Generate(_ context.Context, system, user string, _ ...llm.Option) (*llm.Response, error) {
	f.calls++
	f.lastSys = system
	f.lastUsr = user
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func TestKnowledgeAnswerGrounded(t *testing.T) {
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "A taxa da maquininha é 1,99% no débito.", Source: "https://help.vireopay.com/taxas", Title: "Taxas", Score: 0.91},
		{Text: "No crédito à vista a taxa é 3,15%.", Source: "https://help.vireopay.com/taxas", Title: "Taxas", Score: 0.88},
		{Text: "O Pix na maquininha é gratuito.", Source: "https://help.vireopay.com/pix", Title: "Pix", Score: 0.80},
	}}
	gen := &fakeGenerator{content: "A taxa no débito é 1,99% e o Pix é gratuito."}

	k := NewKnowledge(ret, gen, 5, 0.35)
	reply := k.Answer(context.Background(), "qual a taxa da maquininha?", lang.Portuguese)

	require.Equal(t, AgentKnowledge, reply.Agent)
	assert.Equal(t, 5, ret.gotK)
	assert.Contains(t, reply.Answer, "1,99%")
	assert.Contains(t, reply.Answer, "Fontes:")
	// Duplicate source collapses, first-seen order preserved.
	assert.Equal(t, []string{"https://help.vireopay.com/taxas", "https://help.vireopay.com/pix"}, reply.Sources)
	assert.Equal(t, 1, strings.Count(reply.Answer, "https://help.vireopay.com/taxas"))
}

func TestKnowledgeAnswerEnglishFooter(t *testing.T) {
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "Card reader fees start at 1.99%.", Source: "https://help.vireopay.com/fees", Score: 0.9},
	}}
	gen := &fakeGenerator{content: "Fees start at 1.99% on debit."}

	k := NewKnowledge(ret, gen, 5, 0.35)
	reply := k.Answer(context.Background(), "what are the card reader fees?", lang.English)

	assert.Contains(t, reply.Answer, "Sources:")
	assert.NotContains(t, reply.Answer, "Fontes:")
}

func TestKnowledgeDeflectsWithoutGrounding(t *testing.T) {
	tests := []struct {
		name     string
		passages []retrieval.Passage
	}{
		{name: "no results", passages: nil},
		{name: "low score", passages: []retrieval.Passage{
			{Text: "unrelated", Source: "https://help.vireopay.com/other", Score: 0.12},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := &fakeRetriever{passages: tt.passages}
			gen := &fakeGenerator{content: "should not be used"}

			k := NewKnowledge(ret, gen, 5, 0.35)
			reply := k.Answer(context.Background(), "qual a previsão do tempo?", lang.Portuguese)

			assert.Equal(t, AgentKnowledge, reply.Agent)
			assert.Contains(t, reply.Answer, "Maquininhas")
			assert.Empty(t, reply.Sources)
			assert.Zero(t, gen.calls, "deflection must not call the generation service")
		})
	}
}

func TestKnowledgeRetrievalError(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("search cluster down")}
	gen := &fakeGenerator{}

	k := NewKnowledge(ret, gen, 5, 0.35)
	reply := k.Answer(context.Background(), "taxas da maquininha", lang.Portuguese)

	assert.Contains(t, reply.Answer, "indisponível")
	assert.Zero(t, gen.calls)
}

func TestKnowledgeGenerationErrorKeepsSources(t *testing.T) {
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "Pix é gratuito.", Source: "https://help.vireopay.com/pix", Score: 0.85},
	}}
	gen := &fakeGenerator{err: errors.New("model overloaded")}

	k := NewKnowledge(ret, gen, 5, 0.35)
	reply := k.Answer(context.Background(), "pix tem taxa?", lang.Portuguese)

	assert.Contains(t, reply.Answer, "Fontes:")
	assert.Contains(t, reply.Answer, "https://help.vireopay.com/pix")
	assert.Equal(t, []string{"https://help.vireopay.com/pix"}, reply.Sources)
}

func TestKnowledgeSourcelessPassagesKeepCleanEnding(t *testing.T) {
	// Passages that carry no source identifier produce no footer and must not
	// leave trailing blank lines, on either the success or the failure path.
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "Pix é gratuito.", Score: 0.85},
	}}

	k := NewKnowledge(ret, &fakeGenerator{content: "Pix é gratuito."}, 5, 0.35)
	reply := k.Answer(context.Background(), "pix tem taxa?", lang.Portuguese)
	assert.Equal(t, "Pix é gratuito.", reply.Answer)
	assert.Empty(t, reply.Sources)

	k = NewKnowledge(ret, &fakeGenerator{err: errors.New("model overloaded")}, 5, 0.35)
	reply = k.Answer(context.Background(), "pix tem taxa?", lang.Portuguese)
	assert.Equal(t, reply.Answer, strings.TrimSpace(reply.Answer))
	assert.NotContains(t, reply.Answer, "Fontes:")
}

func TestKnowledgeStripsScaffoldMarker(t *testing.T) {
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "Pix é gratuito.", Source: "https://help.vireopay.com/pix", Score: 0.85},
	}}
	gen := &fakeGenerator{content: ScaffoldMarker + "\nPix é gratuito na VireoPay.\n" + ScaffoldMarker}

	k := NewKnowledge(ret, gen, 5, 0.35)
	reply := k.Answer(context.Background(), "pix tem taxa?", lang.Portuguese)

	assert.NotContains(t, reply.Answer, ScaffoldMarker)
	assert.Contains(t, reply.Answer, "Pix é gratuito na VireoPay.")
}

func TestKnowledgePromptCarriesPassagesAndMarker(t *testing.T) {
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "Pix é gratuito.", Source: "https://help.vireopay.com/pix", Title: "Pix", Score: 0.85},
	}}
	gen := &fakeGenerator{content: "ok"}

	k := NewKnowledge(ret, gen, 5, 0.35)
	k.Answer(context.Background(), "pix tem taxa?", lang.Portuguese)

	require.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.lastUsr, ScaffoldMarker)
	assert.Contains(t, gen.lastUsr, "Pix é gratuito.")
	assert.Contains(t, gen.lastUsr, "pix tem taxa?")
	assert.Contains(t, gen.lastSys, "Portuguese")
}
