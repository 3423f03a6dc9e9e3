// Package walletledger derives the swarm's agent wallets deterministically
// from a single BIP-39 mnemonic, along the BIP-44 path
// m/44'/60'/0'/0/{index}, the same non-hardened-leaf convention every EVM
// wallet uses. It never returns or persists private key material on a
// struct; PrivateKeyAt re-derives transiently, at signing time only.
package walletledger

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

const (
	derivationPathMain  = "m/44'/60'/0'/0/{index}"
	derivationPathRelay = "m/44'/60'/0'/0/{index+100}"
	relayIndexOffset    = 100
	manifestVersion     = "1.0"

	hardenedOffset = uint32(0x80000000)
	purposeBIP44   = uint32(44) + hardenedOffset
	coinTypeETH    = uint32(60) + hardenedOffset
	accountZero    = uint32(0) + hardenedOffset
	changeExternal = uint32(0)
)

type extendedKey struct {
	key       *big.Int
	chainCode []byte
}

// deriveMaster turns a BIP-39 mnemonic into the BIP-32 master extended key.
func deriveMaster(mnemonic string) (*extendedKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("walletledger: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)

	return &extendedKey{
		key:       new(big.Int).SetBytes(sum[:32]),
		chainCode: sum[32:],
	}, nil
}

var secp256k1N = crypto.S256().Params().N

// child derives the non-hardened or hardened child at index, per SLIP-10 /
// BIP-32 CKDpriv.
func (k *extendedKey) child(index uint32) (*extendedKey, error) {
	var data []byte
	if index&hardenedOffset != 0 {
		data = make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, leftPad32(k.key.Bytes())...)
	} else {
		priv, err := k.toECDSA()
		if err != nil {
			return nil, err
		}
		data = crypto.CompressPubkey(&priv.PublicKey)
	}
	idxBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(idxBytes, index)
	data = append(data, idxBytes...)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)

	il := new(big.Int).SetBytes(sum[:32])
	childKey := new(big.Int).Add(il, k.key)
	childKey.Mod(childKey, secp256k1N)
	if childKey.Sign() == 0 {
		return nil, fmt.Errorf("walletledger: derived zero key at index %d, unusable (astronomically unlikely)", index)
	}

	return &extendedKey{key: childKey, chainCode: sum[32:]}, nil
}

func (k *extendedKey) toECDSA() (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(leftPad32(k.key.Bytes()))
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// deriveIndex walks m/44'/60'/0'/0/{index} from mnemonic and returns the
// resulting private key.
func deriveIndex(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	k, err := deriveMaster(mnemonic)
	if err != nil {
		return nil, err
	}
	for _, step := range []uint32{purposeBIP44, coinTypeETH, accountZero, changeExternal, index} {
		k, err = k.child(step)
		if err != nil {
			return nil, err
		}
	}
	return k.toECDSA()
}

// PrivateKeyAt re-derives the private key at a BIP-44 index. It and
// RelayPrivateKeyAt are the only exported functions in this package that
// return key material; callers must not store the result beyond the scope
// of a single signing operation.
func PrivateKeyAt(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	return deriveIndex(mnemonic, index)
}

// RelayPrivateKeyAt derives the relay key at index+100, the key used only
// for on-chain reputation signatures so a main wallet never signs its own
// feedback.
func RelayPrivateKeyAt(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	return deriveIndex(mnemonic, index+relayIndexOffset)
}
