package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireopay/agentdesk/internal/lang"
	"github.com/vireopay/agentdesk/internal/userstore"
)

type fakeStore struct {
	user       *userstore.UserRecord
	userErr    error
	txns       []userstore.Transaction
	txnErr     error
	ticket     *userstore.Ticket
	ticketErr  error
	gotLimit   int
	gotDraft   userstore.TicketDraft
	createCall int
}

func (f *fakeStore) GetUser(_ context.Context, _ string) (*userstore.UserRecord, error) {
	return f.user, f.userErr
}

func (f *fakeStore) RecentTransactions(_ context.Context, _ string, limit int) ([]userstore.Transaction, error) {
	f.gotLimit = limit
	return f.txns, f.txnErr
}

func (f *fakeStore) CreateTicket(_ context.Context, draft userstore.TicketDraft) (*userstore.Ticket, error) {
	f.createCall++
	f.gotDraft = draft
	return f.ticket, f.ticketErr
}

func activeUser() *userstore.UserRecord {
	return &userstore.UserRecord{
		ID:           "usr_123",
		Name:         "Ana Souza",
		Email:        "ana@example.com",
		Status:       "active",
		BalanceCents: 152090,
		AccountType:  "personal",
	}
}

func TestSupportRequiresUserID(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "qual o meu saldo?", "", lang.Portuguese)

	assert.True(t, reply.RequiresUserID)
	assert.Contains(t, reply.Answer, "ID de usuário")
	assert.Equal(t, AgentSupport, reply.Agent)
	assert.Zero(t, gen.calls)
}

func TestSupportUnknownUserAsksForID(t *testing.T) {
	store := &fakeStore{userErr: userstore.ErrNotFound}
	s := NewSupport(store, &fakeGenerator{}, nil)

	reply := s.Answer(context.Background(), "what's my balance?", "usr_nope", lang.English)

	assert.True(t, reply.RequiresUserID)
	assert.Contains(t, reply.Answer, "user ID")
}

func TestSupportStoreUnavailable(t *testing.T) {
	store := &fakeStore{userErr: userstore.ErrUnavailable}
	s := NewSupport(store, &fakeGenerator{}, nil)

	reply := s.Answer(context.Background(), "qual o meu saldo?", "usr_123", lang.Portuguese)

	assert.Contains(t, reply.Answer, "temporariamente instável")
	assert.False(t, reply.RequiresUserID)
}

func TestSupportAccountSummary(t *testing.T) {
	store := &fakeStore{user: activeUser()}
	gen := &fakeGenerator{}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "qual o meu saldo?", "usr_123", lang.Portuguese)

	assert.Contains(t, reply.Answer, "Ana Souza")
	assert.Contains(t, reply.Answer, "R$ 1.520,90")
	assert.Contains(t, reply.Answer, "ativa")
	assert.Zero(t, gen.calls, "structured lookups never call the generation service")
}

func TestSupportTransactionListWithLimit(t *testing.T) {
	store := &fakeStore{
		user: activeUser(),
		txns: []userstore.Transaction{
			{Type: "payment", Status: "completed", AmountCents: 5000},
			{Type: "withdrawal", Status: "pending", AmountCents: 20000},
		},
	}
	s := NewSupport(store, &fakeGenerator{}, nil)

	reply := s.Answer(context.Background(), "me mostra minhas últimas 10 transações", "usr_123", lang.Portuguese)

	assert.Equal(t, 10, store.gotLimit)
	assert.Contains(t, reply.Answer, "pagamento")
	assert.Contains(t, reply.Answer, "R$ 50,00")
	assert.Contains(t, reply.Answer, "pendente")
}

func TestSupportTransactionDefaultLimit(t *testing.T) {
	store := &fakeStore{user: activeUser()}
	s := NewSupport(store, &fakeGenerator{}, nil)

	s.Answer(context.Background(), "cadê meu extrato?", "usr_123", lang.Portuguese)

	assert.Equal(t, 5, store.gotLimit)
}

func TestSupportSuspendedAccountTransferDiagnostics(t *testing.T) {
	user := activeUser()
	user.Status = "suspended"
	store := &fakeStore{user: user}
	gen := &fakeGenerator{}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "não consigo fazer transferências", "usr_123", lang.Portuguese)

	assert.Contains(t, reply.Answer, "suspensa")
	assert.Contains(t, reply.Answer, "transferências")
	// Plain-language explanation, never a raw record dump.
	assert.NotContains(t, reply.Answer, "suspended")
	assert.NotContains(t, reply.Answer, "ana@example.com")
	assert.Zero(t, gen.calls)
}

func TestSupportActiveAccountTransferChecklist(t *testing.T) {
	store := &fakeStore{
		user: activeUser(),
		txns: []userstore.Transaction{
			{Type: "transfer", Status: "failed", AmountCents: 100000},
			{Type: "transfer", Status: "pending", AmountCents: 5000},
			{Type: "payment", Status: "completed", AmountCents: 700},
		},
	}
	s := NewSupport(store, &fakeGenerator{}, nil)

	reply := s.Answer(context.Background(), "my transfer is not going through", "usr_123", lang.English)

	assert.Contains(t, reply.Answer, "active")
	assert.Contains(t, reply.Answer, "1 pending, 1 failed")
}

func TestSupportTicketTriage(t *testing.T) {
	store := &fakeStore{
		user:   activeUser(),
		ticket: &userstore.Ticket{ID: "tkt_900", Status: "open"},
	}
	gen := &fakeGenerator{content: "SUBJECT: Maquininha não liga\nDESCRIPTION: O leitor de cartão do cliente não liga mesmo após carga completa.\nPRIORITY: high"}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "minha maquininha quebrou e não liga mais", "usr_123", lang.Portuguese)

	require.NotNil(t, reply.Triage)
	assert.Equal(t, "Maquininha não liga", reply.Triage.Subject)
	assert.Equal(t, "high", reply.Triage.Priority)
	assert.Equal(t, "tkt_900", reply.Triage.TicketID)
	assert.False(t, reply.Triage.UsedFallback)

	assert.Equal(t, "usr_123", store.gotDraft.UserID)
	assert.NotEmpty(t, store.gotDraft.IdempotencyKey)

	assert.Contains(t, reply.Answer, "Maquininha não liga")
	assert.NotContains(t, reply.Answer, "high", "priority stays internal")
	assert.NotContains(t, reply.Answer, "prioridade")
}

func TestSupportTicketTriageFallback(t *testing.T) {
	store := &fakeStore{
		user:   activeUser(),
		ticket: &userstore.Ticket{ID: "tkt_901", Status: "open"},
	}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	s := NewSupport(store, gen, nil)

	query := "estou com um problema sério no pagamento"
	reply := s.Answer(context.Background(), query, "usr_123", lang.Portuguese)

	require.NotNil(t, reply.Triage)
	assert.True(t, reply.Triage.UsedFallback)
	assert.Equal(t, "medium", reply.Triage.Priority)
	assert.Equal(t, query, store.gotDraft.Subject)
	assert.Equal(t, 1, store.createCall, "triage failure must not block ticket creation")
}

func TestSupportTicketTriageMalformedOutput(t *testing.T) {
	store := &fakeStore{
		user:   activeUser(),
		ticket: &userstore.Ticket{ID: "tkt_902", Status: "open"},
	}
	gen := &fakeGenerator{content: "I think the user has a problem with their card reader."}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "my card reader is broken", "usr_123", lang.English)

	require.NotNil(t, reply.Triage)
	assert.True(t, reply.Triage.UsedFallback)
}

func TestSupportCancelledContextSkipsTicket(t *testing.T) {
	store := &fakeStore{
		user:   activeUser(),
		ticket: &userstore.Ticket{ID: "tkt_903", Status: "open"},
	}
	gen := &fakeGenerator{content: "SUBJECT: x\nDESCRIPTION: y\nPRIORITY: low"}
	s := NewSupport(store, gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reply := s.openTicket(ctx, activeUser(), "problema com pagamento", lang.Portuguese)

	assert.Zero(t, store.createCall, "cancelled request must not issue the ticket command")
	assert.Nil(t, reply.Triage)
}

func TestSupportTicketCreationFailure(t *testing.T) {
	store := &fakeStore{
		user:      activeUser(),
		ticketErr: userstore.ErrUnavailable,
	}
	gen := &fakeGenerator{content: "SUBJECT: x\nDESCRIPTION: y\nPRIORITY: low"}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "tenho um problema com a cobrança", "usr_123", lang.Portuguese)

	assert.Nil(t, reply.Triage)
	assert.Contains(t, reply.Answer, "temporariamente instável")
}

func TestSupportGeneralReply(t *testing.T) {
	store := &fakeStore{user: activeUser()}
	gen := &fakeGenerator{content: "Claro! Posso ajudar com isso."}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "como altero meu plano?", "usr_123", lang.Portuguese)

	assert.Equal(t, "Claro! Posso ajudar com isso.", reply.Answer)
	assert.Equal(t, 1, gen.calls)
}

func TestSupportGeneralReplyFallback(t *testing.T) {
	store := &fakeStore{user: activeUser()}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	s := NewSupport(store, gen, nil)

	reply := s.Answer(context.Background(), "como altero meu plano?", "usr_123", lang.Portuguese)

	assert.Contains(t, reply.Answer, "Posso ajudar você com")
}

func TestParseTriage(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		ok       bool
		subject  string
		priority string
	}{
		{
			name:     "well formed",
			content:  "SUBJECT: Cobrança duplicada\nDESCRIPTION: Cliente relata cobrança duplicada no Pix.\nPRIORITY: high",
			ok:       true,
			subject:  "Cobrança duplicada",
			priority: "high",
		},
		{
			name:     "multi-line description",
			content:  "SUBJECT: App crash\nDESCRIPTION: App crashes on login.\nHappens on Android 14.\nPRIORITY: medium",
			ok:       true,
			subject:  "App crash",
			priority: "medium",
		},
		{
			name:     "missing priority defaults to medium",
			content:  "SUBJECT: Dúvida\nDESCRIPTION: Dúvida sobre taxas.",
			ok:       true,
			subject:  "Dúvida",
			priority: "medium",
		},
		{
			name:     "invalid priority normalized",
			content:  "SUBJECT: x\nDESCRIPTION: y\nPRIORITY: URGENT!!!",
			ok:       true,
			subject:  "x",
			priority: "medium",
		},
		{name: "missing subject", content: "DESCRIPTION: only a description", ok: false},
		{name: "free text", content: "the user seems upset", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, ok := parseTriage(tt.content)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.subject, draft.Subject)
				assert.Equal(t, tt.priority, draft.Priority)
			}
		})
	}
}

func TestFallbackDraftMultibyteBoundary(t *testing.T) {
	// 99 ASCII bytes followed by "ç" put the 100-byte cut inside the rune.
	query := strings.Repeat("a", 99) + "ção no cartão"
	draft := fallbackDraft(query)

	assert.True(t, utf8.ValidString(draft.Subject))
	assert.Equal(t, strings.Repeat("a", 99), draft.Subject)
	assert.LessOrEqual(t, len(draft.Subject), 100)
	assert.True(t, utf8.ValidString(draft.Description))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 10))
	assert.Equal(t, "ab", clip("abcd", 2))
	assert.Equal(t, "não", clip("não consigo", 4))
	// The two-byte "ã" straddles the cut and is dropped whole.
	assert.Equal(t, "n", clip("não", 2))
	assert.True(t, utf8.ValidString(clip(strings.Repeat("ç", 80), 99)))
}

func TestExtractLimit(t *testing.T) {
	assert.Equal(t, 5, extractLimit("show my transactions"))
	assert.Equal(t, 10, extractLimit("last 10 transactions"))
	assert.Equal(t, 1, extractLimit("last 0 transactions"))
	assert.Equal(t, 50, extractLimit("last 9000 transactions"))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,05", formatBRL(5))
	assert.Equal(t, "R$ 1.520,90", formatBRL(152090))
	assert.Equal(t, "R$ 1.234.567,89", formatBRL(123456789))
	assert.Equal(t, "-R$ 10,00", formatBRL(-1000))
}
