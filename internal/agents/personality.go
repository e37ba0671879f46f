package agents

import (
	"strings"

	"github.com/vireopay/agentdesk/internal/lang"
)

// Personality rewrites the final answer into the VireoPay voice: warm,
// informal, emoji-light. It is a pure text transform over the answer body;
// the sources footer and any cited URLs pass through untouched.
type Personality struct {
	enabled bool
}

func NewPersonality(enabled bool) *Personality {
	return &Personality{enabled: enabled}
}

var ptToneReplacer = strings.NewReplacer(
	"Prezado cliente", "Oi",
	"Prezada cliente", "Oi",
	"Prezado(a)", "Oi",
	"Atenciosamente", "Um abraço",
	"Cordialmente", "Um abraço",
	"Não hesite em", "Pode",
	"Entre em contato conosco", "Fala com a gente",
)

var enToneReplacer = strings.NewReplacer(
	"Dear customer", "Hi",
	"Dear Customer", "Hi",
	"Best regards", "Cheers",
	"Kind regards", "Cheers",
	"Do not hesitate to", "Feel free to",
	"Please do not hesitate to", "Feel free to",
)

var (
	ptClosings = []string{"abraço", "qualquer coisa", "estamos aqui", "conte com a gente", "😊"}
	enClosings = []string{"cheers", "we're here", "here to help", "let me know", "😊"}
)

// Apply applies the tone transform. With personality disabled the text is
// returned unchanged.
func (p *Personality) Apply(text string, code lang.Code) string {
	if !p.enabled || text == "" {
		return text
	}

	body, footer := splitSourcesFooter(text)

	if code == lang.English {
		body = enToneReplacer.Replace(body)
		body = ensureClosing(body, enClosings, "\n\nAnything else, just let me know! 😊")
	} else {
		body = ptToneReplacer.Replace(body)
		body = ensureClosing(body, ptClosings, "\n\nQualquer coisa, é só chamar! 😊")
	}

	if footer == "" {
		return body
	}
	return body + "\n\n" + footer
}

// ensureClosing appends a friendly sign-off unless the body already has one.
func ensureClosing(body string, markers []string, closing string) string {
	lower := strings.ToLower(body)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return body
		}
	}
	return body + closing
}
