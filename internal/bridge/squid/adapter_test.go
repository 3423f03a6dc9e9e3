package squid

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentswarm.treasury/internal/bridge"
)

func TestAdapter_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp routeResponse
		resp.TransactionRequest.TargetAddress = "0xbridge"
		resp.TransactionRequest.Data = "0xdead"
		resp.TransactionRequest.Value = "0"
		resp.Estimate.FromAmount = "5050000"
		resp.RequestID = "req-1"
		resp.RouteURL = "https://track/req-1"
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	a := New(srv.URL)
	q, err := a.Quote(context.Background(), bridge.QuoteRequest{
		SrcChain: "base", DstChain: "celo", Token: "USDC", Amount: big.NewInt(5_000000),
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", q.OrderOrQuote)
	assert.Equal(t, big.NewInt(5050000), q.SrcAmount)
}

func TestAdapter_Poll_NotFoundIsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "not_found"})
	}))
	defer srv.Close()

	a := New(srv.URL)
	status, err := a.Poll(context.Background(), bridge.Quote{OrderOrQuote: "req-1"})
	require.NoError(t, err)
	assert.False(t, status.Terminal())
}

func TestAdapter_Poll_TerminalStates(t *testing.T) {
	for _, tc := range []struct {
		remote string
		want   bridge.Status
	}{
		{"success", bridge.StatusSuccess},
		{"partial_success", bridge.StatusPartialSuccess},
		{"needs_gas", bridge.StatusNeedsGas},
		{"refund", bridge.StatusRefund},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(statusResponse{Status: tc.remote})
		}))
		a := New(srv.URL)
		status, err := a.Poll(context.Background(), bridge.Quote{OrderOrQuote: "req-1"})
		require.NoError(t, err)
		assert.Equal(t, tc.want, status)
		assert.True(t, status.Terminal())
		srv.Close()
	}
}
