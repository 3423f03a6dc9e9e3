package signing

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentswarm.treasury/internal/domainerrors"
	"agentswarm.treasury/internal/noncestore/memstore"
)

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return priv
}

func buildSignedRequest(t *testing.T, priv *ecdsa.PrivateKey, chainID int64, method, authority, path string, body []byte, nonce string, now time.Time) *http.Request {
	t.Helper()
	p := SigParams{
		Created: now.Unix(),
		Expires: now.Add(300 * time.Second).Unix(),
		Nonce:   nonce,
		KeyID:   KeyID(chainID, crypto.PubkeyToAddress(priv.PublicKey).Hex()),
	}
	req := SignableRequest{Method: method, Authority: authority, Path: path, Body: body}
	base, params, err := Base(req, p)
	require.NoError(t, err)

	hash := accounts.TextHash([]byte(base))
	sig, err := crypto.Sign(hash, priv)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(method, "http://"+authority+path, strings.NewReader(string(body)))
	httpReq.Host = authority
	httpReq.Header.Set("Signature-Input", "eth="+params)
	httpReq.Header.Set("Signature", "eth=:"+base64.StdEncoding.EncodeToString(sig)+":")
	if isBodyBearing(method) {
		httpReq.Header.Set("Content-Digest", contentDigest(body))
	}
	return httpReq
}

func TestVerifier_RoundTripAccepts(t *testing.T) {
	priv := mustKey(t)
	store := memstore.New()
	v := NewVerifier(8453, store)

	now := time.Now()
	v.Now = func() time.Time { return now }

	body := []byte(`{"title":"test"}`)
	req := buildSignedRequest(t, priv, 8453, "POST", "api.execution.market", "/api/v1/tasks", body, "nonce-1", now)

	identity, err := v.Verify(context.Background(), req, body)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(crypto.PubkeyToAddress(priv.PublicKey).Hex()), strings.ToLower(identity.Address))
	assert.Equal(t, int64(8453), identity.ChainID)
}

func TestVerifier_ReplayRejected(t *testing.T) {
	priv := mustKey(t)
	store := memstore.New()
	v := NewVerifier(8453, store)
	now := time.Now()
	v.Now = func() time.Time { return now }

	body := []byte(`{"title":"test"}`)
	req1 := buildSignedRequest(t, priv, 8453, "POST", "api.execution.market", "/api/v1/tasks", body, "same-nonce", now)
	_, err := v.Verify(context.Background(), req1, body)
	require.NoError(t, err)

	req2 := buildSignedRequest(t, priv, 8453, "POST", "api.execution.market", "/api/v1/tasks", body, "same-nonce", now)
	_, err = v.Verify(context.Background(), req2, body)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.SigReplayedNonce, appErr.SigKind)
}

func TestVerifier_ExpiredRejected(t *testing.T) {
	priv := mustKey(t)
	store := memstore.New()
	v := NewVerifier(8453, store)

	past := time.Now().Add(-time.Hour)
	v.Now = func() time.Time { return past }
	body := []byte(`{}`)
	req := buildSignedRequest(t, priv, 8453, "POST", "host.test", "/x", body, "n1", past)

	v.Now = func() time.Time { return time.Now() } // verify "later", after expiry
	_, err := v.Verify(context.Background(), req, body)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.SigExpired, appErr.SigKind)
}

func TestVerifier_KeyidChainMismatchRejected(t *testing.T) {
	priv := mustKey(t)
	store := memstore.New()
	v := NewVerifier(1, store) // verifier expects chain 1
	now := time.Now()
	v.Now = func() time.Time { return now }

	body := []byte(`{}`)
	req := buildSignedRequest(t, priv, 8453, "POST", "host.test", "/x", body, "n1", now) // signed for chain 8453

	_, err := v.Verify(context.Background(), req, body)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.SigUnknownChain, appErr.SigKind)
}

func TestVerifier_TamperedBodyInvalidatesSignature(t *testing.T) {
	// changing a single byte of the body invalidates the signature
	// when content-digest is covered.
	priv := mustKey(t)
	store := memstore.New()
	v := NewVerifier(8453, store)
	now := time.Now()
	v.Now = func() time.Time { return now }

	body := []byte(`{"title":"test"}`)
	req := buildSignedRequest(t, priv, 8453, "POST", "host.test", "/x", body, "n1", now)

	tampered := []byte(`{"title":"tset"}`)
	_, err := v.Verify(context.Background(), req, tampered)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.SigBadSignature, appErr.SigKind)
}

func TestVerifier_TamperedContentDigestHeaderRejected(t *testing.T) {
	priv := mustKey(t)
	store := memstore.New()
	v := NewVerifier(8453, store)
	now := time.Now()
	v.Now = func() time.Time { return now }

	body := []byte(`{"title":"test"}`)
	req := buildSignedRequest(t, priv, 8453, "POST", "host.test", "/x", body, "n1", now)
	req.Header.Set("Content-Digest", "sha-256=:bogus-unrelated-digest:")

	_, err := v.Verify(context.Background(), req, body)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.SigBodyDigestMismatch, appErr.SigKind)
}

func TestVerifier_MissingHeadersRejected(t *testing.T) {
	store := memstore.New()
	v := NewVerifier(8453, store)
	req := httptest.NewRequest("GET", "http://host.test/x", nil)
	_, err := v.Verify(context.Background(), req, nil)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.SigMalformedHeader, appErr.SigKind)
}
