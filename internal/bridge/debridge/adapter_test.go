package debridge

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
		assert.Equal(t, "/dln/order/create-tx", r.URL.Path)
		_ = json.NewEncoder(w).Encode(createOrderResponse{
			To: "0xbridge", Data: "0xabcd", Value: "0",
			SrcAmountRequired: "5100000", OrderID: "order-xyz", TrackingURL: "https://track/order-xyz",
		})
	}))
	defer srv.Close()

	a := New(srv.URL)
	q, err := a.Quote(context.Background(), bridge.QuoteRequest{
		SrcChain: "43114", DstChain: "8453", Token: "USDC", Amount: big.NewInt(5_000000),
	})
	require.NoError(t, err)
	assert.Equal(t, "order-xyz", q.OrderOrQuote)
	assert.Equal(t, big.NewInt(5100000), q.SrcAmount)
	assert.Equal(t, []byte{0xab, 0xcd}, q.Data)
}

func TestAdapter_Poll_NotFoundMapsToPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(orderStatusResponse{Status: "not_found"})
	}))
	defer srv.Close()

	a := New(srv.URL)
	status, err := a.Poll(context.Background(), bridge.Quote{OrderOrQuote: "order-xyz"})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusPending, status)
	assert.False(t, status.Terminal())
}

func TestAdapter_Poll_FulfilledIsTerminalSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(orderStatusResponse{Status: "Fulfilled"})
	}))
	defer srv.Close()

	a := New(srv.URL)
	status, err := a.Poll(context.Background(), bridge.Quote{OrderOrQuote: "order-xyz"})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusSuccess, status)
	assert.True(t, status.Terminal())
}

func TestAdapter_Poll_HTTPErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	a := New(srv.URL)
	_, err := a.Poll(context.Background(), bridge.Quote{OrderOrQuote: "order-xyz"})
	assert.Error(t, err)
}
