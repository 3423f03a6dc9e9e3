package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorMessages(t *testing.T) {
	e := NetworkError("rpc dial failed", errors.New("dial tcp: timeout"))
	assert.Contains(t, e.Error(), "NetworkError")
	assert.Contains(t, e.Error(), "dial tcp: timeout")

	sig := Signature(SigReplayedNonce, "nonce already consumed")
	assert.Equal(t, "SignatureError/ReplayedNonce: nonce already consumed", sig.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	e := ConfigError("bad config", cause)
	assert.Same(t, cause, errors.Unwrap(e))
}

func TestAppError_Is(t *testing.T) {
	e := OnChainRevert("reverted", "0xdead", nil)
	assert.True(t, errors.Is(e, &AppError{Kind: KindOnChainRevert}))
	assert.False(t, errors.Is(e, &AppError{Kind: KindTimeoutUnknown}))

	sig := Signature(SigExpired, "too old")
	assert.True(t, errors.Is(sig, &AppError{Kind: KindSignatureError, SigKind: SigExpired}))
	assert.False(t, errors.Is(sig, &AppError{Kind: KindSignatureError, SigKind: SigReplayedNonce}))
}

func TestErrUnknownChain(t *testing.T) {
	e := ErrUnknownChain("mars")
	assert.Equal(t, KindConfigError, e.Kind)
	assert.Contains(t, e.Error(), "mars")
}
