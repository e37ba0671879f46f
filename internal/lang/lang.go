// Package lang provides deterministic language detection for customer
// queries. Only Portuguese and English need to be told apart; Portuguese is
// the primary locale and the fallback whenever the text carries no decisive
// signal.
package lang

import "strings"

type Code string

const (
	Portuguese Code = "pt"
	English    Code = "en"
)

// Default is returned for empty or ambiguous input.
const Default = Portuguese

var ptWords = map[string]struct{}{
	"o": {}, "os": {}, "da": {}, "de": {}, "do": {}, "das": {}, "dos": {},
	"e": {}, "em": {}, "um": {}, "uma": {}, "que": {}, "como": {},
	"qual": {}, "quais": {}, "quando": {}, "onde": {}, "quem": {},
	"meu": {}, "minha": {}, "meus": {}, "minhas": {}, "seu": {}, "sua": {},
	"foi": {}, "ser": {}, "sou": {}, "esta": {}, "estou": {},
	"nao": {}, "sim": {}, "ja": {}, "mais": {}, "por": {}, "para": {},
	"com": {}, "sem": {}, "ou": {}, "se": {}, "eu": {}, "voce": {},
	"conta": {}, "saldo": {}, "ajuda": {}, "problema": {}, "quero": {},
	"preciso": {}, "fazer": {}, "abrir": {}, "jogo": {}, "ultimo": {},
	"consigo": {}, "obrigado": {}, "ola": {}, "oi": {},
}

var enWords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "am": {}, "was": {}, "be": {},
	"what": {}, "which": {}, "how": {}, "why": {}, "when": {}, "where": {},
	"who": {}, "my": {}, "your": {}, "i": {}, "you": {}, "it": {},
	"not": {}, "can": {}, "cannot": {}, "does": {}, "did": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "for": {}, "with": {},
	"and": {}, "or": {}, "if": {}, "me": {}, "please": {},
	"account": {}, "balance": {}, "help": {}, "issue": {}, "unable": {},
	"make": {}, "open": {}, "want": {}, "need": {}, "ticket": {},
	"fees": {}, "transfers": {}, "hello": {}, "hi": {},
}

// Runes that only occur in Portuguese text within this domain. Each hit is a
// strong signal; English borrowings in the corpus never carry them.
const ptRunes = "ãõçáéíóúâêôàü"

// Detect returns the language of text. Pure function, no external calls;
// falls back to Default when the text is empty or the signal is tied.
func Detect(text string) Code {
	pt, en := 0, 0

	for _, r := range strings.ToLower(text) {
		if strings.ContainsRune(ptRunes, r) {
			pt += 2
		}
	}

	for _, tok := range tokenize(text) {
		if _, ok := ptWords[tok]; ok {
			pt++
		}
		if _, ok := enWords[tok]; ok {
			en++
		}
	}

	if en > pt {
		return English
	}
	return Default
}

// Name returns the language name used in generation instructions.
func Name(c Code) string {
	if c == English {
		return "English"
	}
	return "Portuguese"
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(stripAccents(text)), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// stripAccents folds the Portuguese diacritics so that stopword lookup works
// on plain ASCII keys.
func stripAccents(s string) string {
	return accentReplacer.Replace(s)
}

var accentReplacer = strings.NewReplacer(
	"ã", "a", "á", "a", "â", "a", "à", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"õ", "o", "ó", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)
