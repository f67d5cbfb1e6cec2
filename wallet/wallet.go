// Package wallet derives Ethereum signing identities from hierarchical-
// deterministic entropy supplied by the host wallet.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// PrivateKeySize is the length of a usable secp256k1 private key.
const PrivateKeySize = 32

// EntropyHandle is an opaque HD key-tree node scoped to one coin type
// (m/44'/60'). It is immutable once constructed and borrowed for the
// duration of a single derivation.
type EntropyHandle struct {
	node *bip32.Key
}

// EntropyFromMnemonic builds an EntropyHandle from a BIP-39 mnemonic by
// deriving the coin-type node m/44'/60'.
func EntropyFromMnemonic(mnemonic string) (*EntropyHandle, error) {
	seed := bip39.NewSeed(mnemonic, "")

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	// m/44'
	purpose, err := masterKey.NewChildKey(bip32.FirstHardenedChild + 44)
	if err != nil {
		return nil, fmt.Errorf("deriving purpose: %w", err)
	}

	// m/44'/60'
	coinType, err := purpose.NewChildKey(bip32.FirstHardenedChild + 60)
	if err != nil {
		return nil, fmt.Errorf("deriving coin type: %w", err)
	}

	return &EntropyHandle{node: coinType}, nil
}

// EntropyFromNode builds an EntropyHandle from the raw private key and chain
// code of a coin-type node, as returned by the host wallet's entropy request.
func EntropyFromNode(privateKey, chainCode []byte) (*EntropyHandle, error) {
	if len(privateKey) != PrivateKeySize {
		return nil, fmt.Errorf("node private key must be %d bytes, got %d", PrivateKeySize, len(privateKey))
	}
	if len(chainCode) != 32 {
		return nil, fmt.Errorf("node chain code must be 32 bytes, got %d", len(chainCode))
	}

	node := &bip32.Key{
		Key:         append([]byte(nil), privateKey...),
		ChainCode:   append([]byte(nil), chainCode...),
		Version:     bip32.PrivateWalletVersion,
		ChildNumber: []byte{0, 0, 0, 0},
		FingerPrint: []byte{0, 0, 0, 0},
		Depth:       2,
		IsPrivate:   true,
	}

	return &EntropyHandle{node: node}, nil
}

// KeyMaterial is the raw output of an address-key derivation. The first 32
// bytes are the private key; the derivation appends the 32-byte chain code
// after it, so the buffer may be up to 64 bytes long.
type KeyMaterial []byte

// AddressKey derives the key material for the given address index, walking
// account 0' and external change 0 below the coin-type node
// (m/44'/60'/0'/0/{index}). The returned buffer is the private key with the
// chain code concatenated after it.
func (h *EntropyHandle) AddressKey(index uint32) (KeyMaterial, error) {
	// m/44'/60'/0'
	account, err := h.node.NewChildKey(bip32.FirstHardenedChild + 0)
	if err != nil {
		return nil, fmt.Errorf("deriving account: %w", err)
	}

	// m/44'/60'/0'/0
	change, err := account.NewChildKey(0)
	if err != nil {
		return nil, fmt.Errorf("deriving change: %w", err)
	}

	// m/44'/60'/0'/0/{index}
	child, err := change.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("deriving child %d: %w", index, err)
	}

	material := make(KeyMaterial, 0, len(child.Key)+len(child.ChainCode))
	material = append(material, child.Key...)
	material = append(material, child.ChainCode...)
	return material, nil
}

// PrivateKeyBytes is a fixed-size private key. Extracting into this type
// forces the 32-byte truncation; handing the combined key+chain-code buffer
// to a key constructor would silently produce a different, wrong key rather
// than an error.
type PrivateKeyBytes [PrivateKeySize]byte

// PrivateKeyFromMaterial extracts the usable private key from derived key
// material, taking exactly the first 32 bytes.
func PrivateKeyFromMaterial(material KeyMaterial) (PrivateKeyBytes, error) {
	var pk PrivateKeyBytes
	if len(material) < PrivateKeySize {
		return pk, fmt.Errorf("key material too short: %d bytes", len(material))
	}
	copy(pk[:], material[:PrivateKeySize])
	return pk, nil
}

// Signer is a private-key-backed identity. It is derived fresh on each
// invocation and never cached.
type Signer struct {
	key     *ecdsa.PrivateKey
	Address common.Address
}

// NewSigner builds a Signer from a 32-byte private key.
func NewSigner(pk PrivateKeyBytes) (*Signer, error) {
	key, err := crypto.ToECDSA(pk[:])
	if err != nil {
		return nil, fmt.Errorf("converting to ECDSA: %w", err)
	}
	return &Signer{
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// DeriveSigner derives the Signer for the given address index from an
// EntropyHandle. Deterministic for a given handle and index; performs no
// network calls.
func DeriveSigner(handle *EntropyHandle, index uint32) (*Signer, error) {
	material, err := handle.AddressKey(index)
	if err != nil {
		return nil, fmt.Errorf("deriving address key: %w", err)
	}

	pk, err := PrivateKeyFromMaterial(material)
	if err != nil {
		return nil, fmt.Errorf("extracting private key: %w", err)
	}

	return NewSigner(pk)
}

// SignTx signs the transaction with the EIP-155 signer for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
}
