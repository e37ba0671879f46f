// Package userstore is the client for the external user store: account
// records, transaction history and ticket creation. The store is exposed over
// GraphQL; the core only reads user data and issues explicit ticket-creation
// commands, never mutating records directly.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Khan/genqlient/graphql"

	"github.com/vireopay/agentdesk/internal/config"
)

var (
	// ErrNotFound means the store answered but knows no such user.
	ErrNotFound = errors.New("user not found")
	// ErrUnavailable means the store could not be reached or errored.
	ErrUnavailable = errors.New("user store unavailable")
)

// UserRecord is read-only from the core's perspective. Amounts are in
// centavos to keep money arithmetic exact.
type UserRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Status       string `json:"status"` // active | suspended | inactive
	BalanceCents int64  `json:"balanceCents"`
	AccountType  string `json:"accountType"` // personal | business
	CreatedAt    string `json:"createdAt"`
}

type Transaction struct {
	ID          string `json:"id"`
	Type        string `json:"type"`   // payment | withdrawal | deposit | transfer
	Status      string `json:"status"` // completed | pending | failed
	AmountCents int64  `json:"amountCents"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// TicketDraft is the structured triage output sent to the store. It is never
// shown to the end user.
type TicketDraft struct {
	UserID         string `json:"userId"`
	Subject        string `json:"subject"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type Ticket struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Store is the interface the responders depend on.
type Store interface {
	GetUser(ctx context.Context, userID string) (*UserRecord, error)
	RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
	CreateTicket(ctx context.Context, draft TicketDraft) (*Ticket, error)
}

type Client struct {
	gql graphql.Client
}

func NewClient(cfg config.UserStoreConfig) (*Client, error) {
	slog.Info("creating user store client", "endpoint", cfg.GraphQLEndpoint)
	if cfg.GraphQLEndpoint == "" {
		return nil, fmt.Errorf("user store endpoint cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}

	return &Client{
		gql: graphql.NewClient(cfg.GraphQLEndpoint, httpClient),
	}, nil
}

const getUserQuery = `
query GetUser($id: ID!) {
  user(id: $id) {
    id
    name
    email
    status
    balanceCents
    accountType
    createdAt
  }
}`

func (c *Client) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var data struct {
		User *UserRecord `json:"user"`
	}
	err := c.makeRequest(ctx, "GetUser", getUserQuery, map[string]interface{}{"id": userID}, &data)
	if err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, ErrNotFound
	}
	return data.User, nil
}

const recentTransactionsQuery = `
query RecentTransactions($userId: ID!, $limit: Int!) {
  transactions(userId: $userId, limit: $limit) {
    id
    type
    status
    amountCents
    description
    createdAt
  }
}`

func (c *Client) RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	var data struct {
		Transactions []Transaction `json:"transactions"`
	}
	vars := map[string]interface{}{"userId": userID, "limit": limit}
	if err := c.makeRequest(ctx, "RecentTransactions", recentTransactionsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Transactions, nil
}

const createTicketMutation = `
mutation CreateTicket($input: TicketInput!) {
  createTicket(input: $input) {
    id
    status
    createdAt
  }
}`

func (c *Client) CreateTicket(ctx context.Context, draft TicketDraft) (*Ticket, error) {
	var data struct {
		CreateTicket *Ticket `json:"createTicket"`
	}
	vars := map[string]interface{}{"input": draft}
	if err := c.makeRequest(ctx, "CreateTicket", createTicketMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.CreateTicket == nil {
		return nil, fmt.Errorf("%w: empty createTicket payload", ErrUnavailable)
	}
	slog.Info("support ticket created", "ticket_id", data.CreateTicket.ID)
	return data.CreateTicket, nil
}

func (c *Client) makeRequest(ctx context.Context, opName, query string, vars map[string]interface{}, data interface{}) error {
	req := &graphql.Request{
		OpName:    opName,
		Query:     query,
		Variables: vars,
	}
	resp := &graphql.Response{Data: data}

	if err := c.gql.MakeRequest(ctx, req, resp); err != nil {
		slog.Error("user store request failed", "operation", opName, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
