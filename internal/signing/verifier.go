package signing

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"agentswarm.treasury/internal/domainerrors"
	"agentswarm.treasury/internal/noncestore"
)

// Verifier is the server side of C5: parses, enforces freshness/nonce
// uniqueness, recomputes the base, and recovers the signer.
type Verifier struct {
	ExpectedChainID int64
	Store           noncestore.Store
	SkewTolerance   time.Duration
	Now             func() time.Time
}

// NewVerifier builds a Verifier with a default 5s skew tolerance, matching
// spec.md's tightened verifier window.
func NewVerifier(chainID int64, store noncestore.Store) *Verifier {
	return &Verifier{
		ExpectedChainID: chainID,
		Store:           store,
		SkewTolerance:   5 * time.Second,
		Now:             time.Now,
	}
}

// Verify checks an incoming signed request and returns the recovered signer
// identity, or one of the distinct SignatureError sub-kinds.
func (v *Verifier) Verify(ctx context.Context, r *http.Request, body []byte) (*VerifiedIdentity, error) {
	sigInputHeader := r.Header.Get("Signature-Input")
	sigHeader := r.Header.Get("Signature")
	if sigInputHeader == "" || sigHeader == "" {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, "missing Signature/Signature-Input header")
	}
	if !strings.HasPrefix(sigInputHeader, "eth=") {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, "Signature-Input missing eth= label")
	}

	components, params, err := ParseSignatureInput(sigInputHeader)
	if err != nil {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, err.Error())
	}

	wantComponents := componentsFor(r.Method)
	if !equalStrings(components, wantComponents) {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, "covered components do not match method class")
	}

	now := v.Now()
	if params.Expires < now.Unix() {
		return nil, domainerrors.Signature(domainerrors.SigExpired, "request expired")
	}
	if params.Created > now.Unix()+int64(v.SkewTolerance.Seconds()) {
		return nil, domainerrors.Signature(domainerrors.SigExpired, "request created too far in the future")
	}

	ttl := time.Duration(params.Expires-now.Unix())*time.Second + v.SkewTolerance
	if ttl <= 0 {
		ttl = v.SkewTolerance
	}
	inserted, err := v.Store.Insert(ctx, params.Nonce, ttl)
	if err != nil {
		return nil, domainerrors.NetworkError("nonce store insert failed", err)
	}
	if !inserted {
		return nil, domainerrors.Signature(domainerrors.SigReplayedNonce, "nonce already consumed")
	}

	chainID, address, err := parseKeyID(params.KeyID)
	if err != nil {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, err.Error())
	}
	if chainID != v.ExpectedChainID {
		return nil, domainerrors.Signature(domainerrors.SigUnknownChain, "keyid chain id does not match expected chain")
	}

	authority := r.Host
	req := SignableRequest{
		Method:    r.Method,
		Authority: authority,
		Path:      r.URL.RequestURI(),
		Body:      body,
	}
	expectedBase, _, err := Base(req, params)
	if err != nil {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, err.Error())
	}

	sigBytes, err := decodeEthSignature(sigHeader)
	if err != nil {
		return nil, domainerrors.Signature(domainerrors.SigMalformedHeader, err.Error())
	}

	hash := accounts.TextHash([]byte(expectedBase))
	pubKey, err := crypto.SigToPub(hash, sigBytes)
	if err != nil {
		return nil, domainerrors.Signature(domainerrors.SigBadSignature, "signature recovery failed")
	}
	recovered := crypto.PubkeyToAddress(*pubKey).Hex()
	if !strings.EqualFold(recovered, address) {
		return nil, domainerrors.Signature(domainerrors.SigBadSignature, "recovered signer does not match keyid")
	}

	if containsString(components, "content-digest") {
		got := r.Header.Get("Content-Digest")
		want := contentDigest(body)
		if got != want {
			return nil, domainerrors.Signature(domainerrors.SigBodyDigestMismatch, "content-digest mismatch")
		}
	}

	return &VerifiedIdentity{Address: recovered, ChainID: chainID, KeyID: params.KeyID}, nil
}

func parseKeyID(keyid string) (chainID int64, address string, err error) {
	parts := strings.SplitN(keyid, ":", 3)
	if len(parts) != 3 || parts[0] != "erc8128" {
		return 0, "", errMalformedKeyID
	}
	chainID, parseErr := strconv.ParseInt(parts[1], 10, 64)
	if parseErr != nil {
		return 0, "", errMalformedKeyID
	}
	return chainID, parts[2], nil
}

var errMalformedKeyID = errors.New("signing: malformed keyid")

func decodeEthSignature(header string) ([]byte, error) {
	// "eth=:<base64>:"
	rest := strings.TrimPrefix(header, "eth=")
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimSuffix(rest, ":")
	sig, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, err
	}
	if len(sig) != 65 {
		return nil, errMalformedSignature
	}
	return sig, nil
}

var errMalformedSignature = errors.New("signing: malformed eth signature")

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
