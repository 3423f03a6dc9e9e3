package identity

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentswarm.treasury/internal/signing"
)

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return priv
}

func TestClient_RegisterWorker_CreatedSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workers/register", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Signature"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(registerWorkerResponse{ID: "exec-1", Created: true})
	}))
	defer srv.Close()

	signer := signing.NewSigner(mustKey(t), 1, "")
	client := New(srv.URL, signer)

	result, err := client.RegisterWorker(context.Background(), "0xabc", "agent-0")
	require.NoError(t, err)
	assert.Equal(t, "exec-1", result.ExecutorID)
	assert.False(t, result.AlreadyExisted)
}

func TestClient_RegisterWorker_409IsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(registerWorkerResponse{ID: "exec-existing"})
	}))
	defer srv.Close()

	signer := signing.NewSigner(mustKey(t), 1, "")
	client := New(srv.URL, signer)

	result, err := client.RegisterWorker(context.Background(), "0xabc", "agent-0")
	require.NoError(t, err)
	assert.True(t, result.AlreadyExisted)
	assert.Equal(t, "exec-existing", result.ExecutorID)
}

func TestClient_RegisterReputation_AlreadyRegisteredIsNotFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(registerReputationResponse{Success: false, Error: "agent already registered"})
	}))
	defer srv.Close()

	signer := signing.NewSigner(mustKey(t), 1, "")
	client := New(srv.URL, signer)

	result, err := client.RegisterReputation(context.Background(), "base", "https://agents.example.com/0xabc", "0xrecipient", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.AlreadyExisted)
}

func TestClient_RegisterReputation_GenuineFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(registerReputationResponse{Success: false, Error: "insufficient gas"})
	}))
	defer srv.Close()

	signer := signing.NewSigner(mustKey(t), 1, "")
	client := New(srv.URL, signer)

	result, err := client.RegisterReputation(context.Background(), "base", "https://agents.example.com/0xabc", "0xrecipient", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.AlreadyExisted)
}

func TestClient_RegisterWorker_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	signer := signing.NewSigner(mustKey(t), 1, "")
	client := New(srv.URL, signer)

	_, err := client.RegisterWorker(context.Background(), "0xabc", "agent-0")
	assert.Error(t, err)
}
