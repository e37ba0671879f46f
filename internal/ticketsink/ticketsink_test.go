package ticketsink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostDeliversPayloadWithBearerToken(t *testing.T) {
	var gotAuth string
	var gotPayload Payload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	sink := New(ts.URL, "secret-token")
	err := sink.Post(context.Background(), Payload{
		TicketID: "ticket042",
		UserID:   "client789",
		Subject:  "Card reader will not turn on",
		Priority: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "ticket042", gotPayload.TicketID)
	assert.Equal(t, "high", gotPayload.Priority)
}

func TestPostUnconfiguredIsNoop(t *testing.T) {
	sink := New("", "")
	assert.False(t, sink.Enabled())
	assert.NoError(t, sink.Post(context.Background(), Payload{TicketID: "t"}))
}

func TestPostErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	sink := New(ts.URL, "")
	assert.Error(t, sink.Post(context.Background(), Payload{TicketID: "t"}))
}
