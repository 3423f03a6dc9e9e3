package walletledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// WalletType distinguishes system agents (named, fixed roles) from the bulk
// of user agents.
type WalletType string

const (
	TypeSystem WalletType = "system"
	TypeUser   WalletType = "user"
)

// WalletEntry is one immutable line of the wallet manifest.
type WalletEntry struct {
	Index   uint32     `json:"index"`
	Name    string     `json:"name"`
	Address string     `json:"address"`
	Type    WalletType `json:"type"`
}

// RelayWalletEntry mirrors WalletEntry but for the index+100 relay key.
type RelayWalletEntry struct {
	Index       uint32     `json:"index"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Type        WalletType `json:"type"`
	MainAddress string     `json:"main_address"`
	RelayIndex  uint32     `json:"relay_index"`
}

// Manifest is the canonical store of derived main wallets.
type Manifest struct {
	Version         string        `json:"version"`
	DerivationPath  string        `json:"derivationPath"`
	Count           int           `json:"count"`
	Wallets         []WalletEntry `json:"wallets"`
}

// RelayManifest is the canonical store of derived relay wallets.
type RelayManifest struct {
	DerivationPathMain  string             `json:"derivationPathMain"`
	DerivationPathRelay string             `json:"derivationPathRelay"`
	RelayIndexOffset    uint32             `json:"relayIndexOffset"`
	Wallets             []RelayWalletEntry `json:"wallets"`
}

// Derive produces count WalletEntrys at m/44'/60'/0'/0/{0..count-1}.
// Indices [0, len(systemNames)) become "system" agents named from
// systemNames in order; the rest are "user" agents named kk-agent-<000>.
func Derive(mnemonic string, count int, systemNames []string) (*Manifest, error) {
	if count <= 0 {
		return nil, fmt.Errorf("walletledger: count must be positive, got %d", count)
	}
	if len(systemNames) > count {
		return nil, fmt.Errorf("walletledger: %d system names exceeds wallet count %d", len(systemNames), count)
	}

	wallets := make([]WalletEntry, 0, count)
	for i := 0; i < count; i++ {
		priv, err := PrivateKeyAt(mnemonic, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("walletledger: deriving index %d: %w", i, err)
		}
		addr := crypto.PubkeyToAddress(priv.PublicKey).Hex()

		name := fmt.Sprintf("kk-agent-%03d", i)
		typ := TypeUser
		if i < len(systemNames) {
			name = systemNames[i]
			typ = TypeSystem
		}

		wallets = append(wallets, WalletEntry{
			Index:   uint32(i),
			Name:    name,
			Address: addr,
			Type:    typ,
		})
	}

	return &Manifest{
		Version:        manifestVersion,
		DerivationPath: derivationPathMain,
		Count:          count,
		Wallets:        wallets,
	}, nil
}

// DeriveRelays derives, for every entry in manifest, the relay wallet at
// index+100.
func DeriveRelays(mnemonic string, manifest *Manifest) (*RelayManifest, error) {
	relays := make([]RelayWalletEntry, 0, len(manifest.Wallets))
	for _, w := range manifest.Wallets {
		priv, err := RelayPrivateKeyAt(mnemonic, w.Index)
		if err != nil {
			return nil, fmt.Errorf("walletledger: deriving relay for index %d: %w", w.Index, err)
		}
		addr := crypto.PubkeyToAddress(priv.PublicKey).Hex()
		if addr == w.Address {
			return nil, fmt.Errorf("walletledger: relay address collided with main address at index %d", w.Index)
		}

		relays = append(relays, RelayWalletEntry{
			Index:       w.Index + relayIndexOffset,
			Name:        w.Name,
			Address:     addr,
			Type:        w.Type,
			MainAddress: w.Address,
			RelayIndex:  w.Index + relayIndexOffset,
		})
	}

	return &RelayManifest{
		DerivationPathMain:  derivationPathMain,
		DerivationPathRelay: derivationPathRelay,
		RelayIndexOffset:    relayIndexOffset,
		Wallets:             relays,
	}, nil
}
