// Package signing implements the ERC-8128 HTTP message-signing profile:
// RFC 9421 signature bases, EIP-191 personal_sign as the underlying
// signature scheme, RFC 9530 Content-Digest for body-bearing requests, and a
// server-issued nonce protocol with a client-side random fallback.
package signing

import (
	"strconv"
	"strings"
)

// SignableRequest is the logical request the base is built over, independent
// of any concrete HTTP client/server type.
type SignableRequest struct {
	Method    string
	Authority string
	Path      string
	Body      []byte
}

// isBodyBearing reports whether method requires a content-digest component,
// per §4.5.1.
func isBodyBearing(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}

// SignedHeaders are the three headers a signer emits.
type SignedHeaders struct {
	ContentDigest   string // empty for non-body-bearing requests
	Signature       string
	SignatureInput  string
}

// VerifiedIdentity is what a successful Verify call returns to the route.
type VerifiedIdentity struct {
	Address string
	ChainID int64
	KeyID   string
}

// KeyID formats the erc8128 keyid: "erc8128:<chain_id>:<lowercase_address>".
func KeyID(chainID int64, address string) string {
	return "erc8128:" + strconv.FormatInt(chainID, 10) + ":" + strings.ToLower(address)
}
