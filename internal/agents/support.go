package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vireopay/agentdesk/apimodels"
	"github.com/vireopay/agentdesk/internal/intent"
	"github.com/vireopay/agentdesk/internal/lang"
	"github.com/vireopay/agentdesk/internal/llm"
	"github.com/vireopay/agentdesk/internal/ticketsink"
	"github.com/vireopay/agentdesk/internal/userstore"
)

// Support answers account and ticket queries. Structured data lookups are
// deterministic and never call the generation service; free-form complaints
// go through LLM triage into a TicketDraft before the ticket-creation command
// is issued to the user store.
type Support struct {
	store userstore.Store
	llm   generator
	sink  *ticketsink.Sink
}

func NewSupport(store userstore.Store, provider generator, sink *ticketsink.Sink) *Support {
	return &Support{
		store: store,
		llm:   provider,
		sink:  sink,
	}
}

var (
	accountKeywords = []string{
		"saldo", "minha conta", "meus dados", "cadastro", "perfil",
		"balance", "my account", "account details", "profile", "login", "sign in",
	}
	transactionKeywords = []string{
		"transações", "transacoes", "extrato", "histórico", "historico", "movimentações", "movimentacoes",
		"transactions", "statement", "history",
	}
	transferKeywords = []string{
		"transferência", "transferencia", "transferências", "transferencias", "transferir",
		"transfer", "transfers", "pix",
	}
	complaintKeywords = []string{
		"problema", "reclamação", "reclamacao", "defeito", "erro", "falha", "não funciona", "nao funciona",
		"não consigo", "nao consigo", "quebrou", "suporte",
		"problem", "issue", "complaint", "broken", "not working", "error", "stopped working", "can't", "cannot",
	}
)

// Answer is total: every branch, including all upstream failure modes, yields
// a valid localized reply.
func (s *Support) Answer(ctx context.Context, query, userID string, code lang.Code) *Reply {
	if userID == "" {
		// Reduced-capability path, not an error: invite the user to identify.
		return &Reply{
			Answer:         askForUserIDMessage(code),
			Agent:          AgentSupport,
			RequiresUserID: true,
		}
	}

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return &Reply{
			Answer:         askForUserIDMessage(code),
			Agent:          AgentSupport,
			RequiresUserID: true,
		}
	}
	if err != nil {
		// Without the store there is nothing truthful to personalize with.
		slog.Error("user store unreachable", "user_id", userID, "error", err)
		return &Reply{Answer: storeDegradedMessage(code), Agent: AgentSupport}
	}

	ql := strings.ToLower(query)
	switch {
	case containsAny(ql, accountKeywords):
		return &Reply{Answer: s.accountSummary(user, code), Agent: AgentSupport}
	case containsAny(ql, transactionKeywords):
		return s.transactionSummary(ctx, user, query, code)
	case containsAny(ql, transferKeywords):
		return s.transferDiagnostics(ctx, user, code)
	}

	if _, override := intent.CheckOverride(query); override || containsAny(ql, complaintKeywords) {
		return s.openTicket(ctx, user, query, code)
	}

	return s.generalReply(ctx, query, code)
}

// accountSummary is composed directly from the user record: fast,
// deterministic, no generation call.
func (s *Support) accountSummary(user *userstore.UserRecord, code lang.Code) string {
	if code == lang.English {
		return fmt.Sprintf("Here is your account overview:\n\n- Name: %s\n- Account type: %s\n- Current balance: %s\n- Status: %s",
			user.Name, accountTypeWord(code, user.AccountType), formatBRL(user.BalanceCents), statusWord(code, user.Status))
	}
	return fmt.Sprintf("Aqui está o resumo da sua conta:\n\n- Nome: %s\n- Tipo de conta: %s\n- Saldo atual: %s\n- Status: %s",
		user.Name, accountTypeWord(code, user.AccountType), formatBRL(user.BalanceCents), statusWord(code, user.Status))
}

func (s *Support) transactionSummary(ctx context.Context, user *userstore.UserRecord, query string, code lang.Code) *Reply {
	limit := extractLimit(query)
	txns, err := s.store.RecentTransactions(ctx, user.ID, limit)
	if err != nil {
		slog.Error("transaction lookup failed", "user_id", user.ID, "error", err)
		return &Reply{Answer: storeDegradedMessage(code), Agent: AgentSupport}
	}

	if len(txns) == 0 {
		msg := "Nenhuma transação recente encontrada na sua conta."
		if code == lang.English {
			msg = "No recent transactions found on your account."
		}
		return &Reply{Answer: msg, Agent: AgentSupport}
	}

	var b strings.Builder
	if code == lang.English {
		b.WriteString("Your recent transactions:\n")
	} else {
		b.WriteString("Suas transações recentes:\n")
	}
	for _, t := range txns {
		b.WriteString(fmt.Sprintf("\n- %s: %s (%s)", transactionTypeWord(code, t.Type), formatBRL(t.AmountCents), transactionStatusWord(code, t.Status)))
	}
	return &Reply{Answer: b.String(), Agent: AgentSupport}
}

// transferDiagnostics summarizes why transfers may be failing using only
// verified store data. A non-active status is referenced in plain words,
// never as a raw record dump.
func (s *Support) transferDiagnostics(ctx context.Context, user *userstore.UserRecord, code lang.Code) *Reply {
	pending, failed := 0, 0
	if txns, err := s.store.RecentTransactions(ctx, user.ID, 5); err == nil {
		for _, t := range txns {
			switch t.Status {
			case "pending":
				pending++
			case "failed":
				failed++
			}
		}
	} else {
		slog.Warn("transaction signal unavailable for transfer diagnostics", "user_id", user.ID, "error", err)
	}

	if user.Status != "active" {
		if code == lang.English {
			return &Reply{
				Answer: fmt.Sprintf("I checked your account and transfers are currently unavailable because your account is %s. This blocks Pix and bank transfers.\n\nWhat you can do now:\n- Confirm your registration data if the app asks for it\n- Resolve any pending security or compliance review\n- If you want, ask me to open a support ticket to speed this up", statusWord(code, user.Status)),
				Agent:  AgentSupport,
			}
		}
		return &Reply{
			Answer: fmt.Sprintf("Verifiquei sua conta e as transferências estão indisponíveis porque sua conta está %s. Isso bloqueia Pix e transferências bancárias.\n\nO que você pode fazer agora:\n- Confirmar seus dados cadastrais se o app solicitar\n- Resolver pendências de segurança ou conformidade\n- Se quiser, me peça para abrir um chamado de suporte para agilizar", statusWord(code, user.Status)),
			Agent:  AgentSupport,
		}
	}

	if code == lang.English {
		return &Reply{
			Answer: fmt.Sprintf("Your account is active. A quick check on transfers:\n\n- Available balance: %s\n- Recent transactions: %d pending, %d failed\n\nIf you still see errors when transferring:\n1. Confirm the recipient data and the amount\n2. Check for pending app updates\n3. Try again in a few minutes", formatBRL(user.BalanceCents), pending, failed),
			Agent:  AgentSupport,
		}
	}
	return &Reply{
		Answer: fmt.Sprintf("Sua conta está ativa. Um check rápido sobre transferências:\n\n- Saldo disponível: %s\n- Transações recentes: %d pendentes, %d com falha\n\nSe ainda estiver vendo erro ao transferir:\n1. Confira os dados do destinatário e o valor\n2. Verifique se há atualização pendente do app\n3. Tente novamente em alguns minutos", formatBRL(user.BalanceCents), pending, failed),
		Agent:  AgentSupport,
	}
}

const triagePrompt = `You are a support triage assistant for a payments company.
Extract a structured ticket from the user's complaint.
Respond with exactly three lines:
SUBJECT: <short subject, max 100 characters>
DESCRIPTION: <one-paragraph structured description of the problem>
PRIORITY: <low|medium|high>`

// openTicket triages the complaint, issues the ticket-creation command and
// acknowledges with subject and next step only. Priority and the raw draft
// stay internal.
func (s *Support) openTicket(ctx context.Context, user *userstore.UserRecord, query string, code lang.Code) *Reply {
	draft, usedFallback := s.triage(ctx, query)
	draft.UserID = user.ID
	draft.IdempotencyKey = uuid.NewString()

	// A cancelled request must not leave a half-issued ticket behind.
	if err := ctx.Err(); err != nil {
		slog.Warn("request cancelled before ticket creation, command not issued", "user_id", user.ID, "error", err)
		return &Reply{Answer: storeDegradedMessage(code), Agent: AgentSupport}
	}

	ticket, err := s.store.CreateTicket(ctx, draft)
	if err != nil {
		slog.Error("ticket creation failed", "user_id", user.ID, "error", err)
		return &Reply{Answer: storeDegradedMessage(code), Agent: AgentSupport}
	}

	slog.Info("ticket triaged and created",
		"ticket_id", ticket.ID,
		"user_id", user.ID,
		"subject", draft.Subject,
		"priority", draft.Priority,
		"triage_fallback", usedFallback,
	)

	if s.sink.Enabled() {
		if err := s.sink.Post(ctx, ticketsink.Payload{
			TicketID:    ticket.ID,
			UserID:      user.ID,
			Subject:     draft.Subject,
			Description: draft.Description,
			Priority:    draft.Priority,
		}); err != nil {
			slog.Warn("ticket webhook delivery failed", "ticket_id", ticket.ID, "error", err)
		}
	}

	return &Reply{
		Answer: ticketAckMessage(code, draft.Subject),
		Agent:  AgentSupport,
		Triage: &apimodels.TriageSummary{
			Subject:      draft.Subject,
			Priority:     draft.Priority,
			TicketID:     ticket.ID,
			UsedFallback: usedFallback,
		},
	}
}

// triage asks the generation service for a structured draft and validates it;
// anything malformed falls back to the raw complaint text.
func (s *Support) triage(ctx context.Context, query string) (userstore.TicketDraft, bool) {
	resp, err := s.llm.Generate(ctx, triagePrompt, query, llm.WithMaxTokens(300))
	if err != nil {
		slog.Warn("triage generation failed, using raw complaint", "error", err)
		return fallbackDraft(query), true
	}

	draft, ok := parseTriage(resp.Content)
	if !ok {
		slog.Warn("triage output malformed, using raw complaint", "output", resp.Content)
		return fallbackDraft(query), true
	}
	return draft, false
}

func parseTriage(content string) (userstore.TicketDraft, bool) {
	var draft userstore.TicketDraft
	var desc []string
	inDescription := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "SUBJECT:"):
			draft.Subject = strings.TrimSpace(strings.TrimPrefix(trimmed, "SUBJECT:"))
			inDescription = false
		case strings.HasPrefix(trimmed, "DESCRIPTION:"):
			desc = append(desc, strings.TrimSpace(strings.TrimPrefix(trimmed, "DESCRIPTION:")))
			inDescription = true
		case strings.HasPrefix(trimmed, "PRIORITY:"):
			draft.Priority = normalizePriority(strings.TrimSpace(strings.TrimPrefix(trimmed, "PRIORITY:")))
			inDescription = false
		case inDescription && trimmed != "":
			desc = append(desc, trimmed)
		}
	}
	draft.Description = strings.TrimSpace(strings.Join(desc, " "))

	if draft.Subject == "" || draft.Description == "" {
		return userstore.TicketDraft{}, false
	}
	if draft.Priority == "" {
		draft.Priority = "medium"
	}
	return draft, true
}

func normalizePriority(p string) string {
	switch strings.ToLower(p) {
	case "low", "medium", "high":
		return strings.ToLower(p)
	default:
		return "medium"
	}
}

func fallbackDraft(query string) userstore.TicketDraft {
	return userstore.TicketDraft{
		Subject:     clip(query, 100),
		Description: clip(query, 1000),
		Priority:    "medium",
	}
}

const supportSystemPrompt = `You are a customer support assistant for VireoPay, a payments company.
Help the user with account and transaction questions. Be concise and friendly.
You have no verified account data for this conversation turn, so never invent balances, statuses or ticket numbers.
You MUST respond in %s.`

func (s *Support) generalReply(ctx context.Context, query string, code lang.Code) *Reply {
	resp, err := s.llm.Generate(ctx,
		fmt.Sprintf(supportSystemPrompt, lang.Name(code)),
		"User query: "+query,
		llm.WithMaxTokens(500),
	)
	if err != nil {
		slog.Warn("general support generation failed, using canned reply", "error", err)
		return &Reply{Answer: generalSupportFallbackMessage(code), Agent: AgentSupport}
	}
	return &Reply{Answer: strings.TrimSpace(resp.Content), Agent: AgentSupport}
}

func containsAny(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

var digitsRe = regexp.MustCompile(`\d+`)

// extractLimit reads an explicit count from the query ("last 10
// transactions"), clamped to a sane range.
func extractLimit(query string) int {
	m := digitsRe.FindString(query)
	if m == "" {
		return 5
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 5
	}
	if n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// clip truncates to at most max bytes without splitting a rune, so accented
// text stays valid UTF-8.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func accountTypeWord(code lang.Code, accountType string) string {
	if code == lang.English {
		return accountType
	}
	switch accountType {
	case "personal":
		return "pessoal"
	case "business":
		return "empresarial"
	default:
		return accountType
	}
}

func transactionTypeWord(code lang.Code, t string) string {
	if code == lang.English {
		return t
	}
	switch t {
	case "payment":
		return "pagamento"
	case "withdrawal":
		return "saque"
	case "deposit":
		return "depósito"
	case "transfer":
		return "transferência"
	default:
		return t
	}
}

func transactionStatusWord(code lang.Code, s string) string {
	if code == lang.English {
		return s
	}
	switch s {
	case "completed":
		return "concluída"
	case "pending":
		return "pendente"
	case "failed":
		return "com falha"
	default:
		return s
	}
}
