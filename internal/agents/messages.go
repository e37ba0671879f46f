package agents

import (
	"fmt"
	"strings"

	"github.com/vireopay/agentdesk/internal/lang"
)

// Localized fixed messages. Degraded paths never go through the generation
// service, so every fallback needs a canned text per language.

func sourcesLabel(code lang.Code) string {
	if code == lang.English {
		return "Sources:"
	}
	return "Fontes:"
}

// sourcesFooter renders the localized footer from an already-deduplicated,
// ordered source list.
func sourcesFooter(code lang.Code, sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sourcesLabel(code))
	for _, src := range sources {
		b.WriteString("\n- ")
		b.WriteString(src)
	}
	return b.String()
}

// splitSourcesFooter separates the answer body from its sources footer so
// that tone adjustments never touch citations. It recognizes both labels
// regardless of language to stay conservative.
func splitSourcesFooter(text string) (body, footer string) {
	for _, label := range []string{"\nFontes:", "\nSources:"} {
		if i := strings.LastIndex(text, label); i >= 0 {
			return strings.TrimRight(text[:i], "\n"), strings.TrimLeft(text[i:], "\n")
		}
	}
	return text, ""
}

func deflectionMessage(code lang.Code) string {
	if code == lang.English {
		return "That topic is outside what I can help with. I can answer questions about VireoPay products and services, for example:\n" +
			"- Card readers (Maquininha) and fees\n" +
			"- Pix, payment links and online store\n" +
			"- Digital account, card and earnings\n\n" +
			"How can I help you with one of these?"
	}
	return "Esse assunto está fora do que consigo ajudar. Posso responder perguntas sobre os produtos e serviços da VireoPay, por exemplo:\n" +
		"- Maquininhas e taxas\n" +
		"- Pix, link de pagamento e loja online\n" +
		"- Conta digital, cartão e rendimento\n\n" +
		"Como posso ajudar com um desses temas?"
}

func knowledgeUnavailableMessage(code lang.Code) string {
	if code == lang.English {
		return "I'm sorry, my knowledge base is unavailable right now, so I can't answer your question at the moment. Please try again in a few minutes."
	}
	return "Desculpe, minha base de conhecimento está indisponível no momento, então não consigo responder sua pergunta agora. Por favor, tente novamente em alguns minutos."
}

func generationFailedMessage(code lang.Code) string {
	if code == lang.English {
		return "I'm sorry, I couldn't compose a full answer right now. The references below should still help:"
	}
	return "Desculpe, não consegui montar uma resposta completa agora. As referências abaixo ainda podem ajudar:"
}

func askForUserIDMessage(code lang.Code) string {
	if code == lang.English {
		return "To look into your account, transactions or open a ticket I need your user ID. Please provide it so I can securely verify your information and help you faster."
	}
	return "Para verificar sua conta, transações ou abrir um chamado, preciso do seu ID de usuário. Por favor, me informe para que eu possa verificar com segurança e ajudar mais rápido."
}

func storeDegradedMessage(code lang.Code) string {
	if code == lang.English {
		return "Our account service is temporarily degraded and I can't access your data safely right now. Please try again in a few minutes; no action was taken on your account."
	}
	return "Nosso serviço de contas está temporariamente instável e não consigo acessar seus dados com segurança agora. Por favor, tente novamente em alguns minutos; nenhuma ação foi feita na sua conta."
}

func ticketAckMessage(code lang.Code, subject string) string {
	if code == lang.English {
		return fmt.Sprintf("Your support ticket has been created.\n\nSubject: %s\n\nOur team will review it and contact you shortly. You can reply here if you want to add details.", subject)
	}
	return fmt.Sprintf("Seu chamado de suporte foi criado.\n\nAssunto: %s\n\nNossa equipe vai analisar e entrar em contato em breve. Você pode responder aqui se quiser acrescentar detalhes.", subject)
}

func generalSupportFallbackMessage(code lang.Code) string {
	if code == lang.English {
		return "I can help you with:\n\n- Account data: balance and registration details\n- Transactions: payment and withdrawal history\n- Support tickets for problems\n\nWhat would you like to do? If you need account-specific information, please include your user ID."
	}
	return "Posso ajudar você com:\n\n- Dados da conta: saldo e informações cadastrais\n- Transações: histórico de pagamentos e saques\n- Chamados de suporte para problemas\n\nO que você gostaria de fazer? Se precisar de informações da sua conta, inclua seu ID de usuário."
}

// statusWord humanizes an account status for user-visible text.
func statusWord(code lang.Code, status string) string {
	if code == lang.English {
		return status
	}
	switch status {
	case "active":
		return "ativa"
	case "suspended":
		return "suspensa"
	case "inactive":
		return "inativa"
	default:
		return status
	}
}

// formatBRL renders centavos in Brazilian currency style, e.g. 152090 ->
// "R$ 1.520,90". Both locales show BRL since that is the account currency.
func formatBRL(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}
	reais := cents / 100
	rest := cents % 100

	digits := fmt.Sprintf("%d", reais)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), rest)
}
