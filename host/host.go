// Package host wraps the host wallet's request interface: the entropy
// request that feeds signer derivation, and the extension listing,
// permission, and lookup pass-throughs.
package host

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/snapwallet/dexswap/wallet"
)

// ErrEntropyUnavailable means the host denied or failed to supply entropy.
// Fatal for the invocation; never retried.
var ErrEntropyUnavailable = errors.New("entropy source unavailable")

const (
	methodGetEntropy         = "snap_getBip44Entropy"
	methodGetExtensions      = "wallet_getSnaps"
	methodRequestPermissions = "wallet_requestSnaps"

	// BIP-44 coin type for Ethereum.
	coinTypeETH = 60
)

// Requester is the host provider's request interface.
type Requester interface {
	Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
}

// Client is a thin wrapper over a host provider.
type Client struct {
	provider Requester
}

// NewClient wraps the given host provider.
func NewClient(provider Requester) *Client {
	return &Client{provider: provider}
}

// bip44Node is the HD node shape the host returns for an entropy request.
type bip44Node struct {
	PrivateKey string `json:"privateKey"`
	ChainCode  string `json:"chainCode"`
	CoinType   uint32 `json:"coin_type"`
	Depth      uint8  `json:"depth"`
}

// Entropy requests the coin-type HD node from the host wallet and wraps it
// as an EntropyHandle. Any failure or denial surfaces as
// ErrEntropyUnavailable.
func (c *Client) Entropy(ctx context.Context) (*wallet.EntropyHandle, error) {
	raw, err := c.provider.Request(ctx, methodGetEntropy, map[string]interface{}{
		"coinType": coinTypeETH,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	var node bip44Node
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("%w: decoding node: %v", ErrEntropyUnavailable, err)
	}

	privateKey, err := decodeHex(node.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: node private key: %v", ErrEntropyUnavailable, err)
	}
	chainCode, err := decodeHex(node.ChainCode)
	if err != nil {
		return nil, fmt.Errorf("%w: node chain code: %v", ErrEntropyUnavailable, err)
	}

	handle, err := wallet.EntropyFromNode(privateKey, chainCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	return handle, nil
}

// Extension describes one extension installed in the host wallet.
type Extension struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// InstalledExtensions lists the extensions installed in the host wallet,
// keyed by extension ID.
func (c *Client) InstalledExtensions(ctx context.Context) (map[string]Extension, error) {
	raw, err := c.provider.Request(ctx, methodGetExtensions, nil)
	if err != nil {
		return nil, fmt.Errorf("listing extensions: %w", err)
	}

	var installed map[string]Extension
	if err := json.Unmarshal(raw, &installed); err != nil {
		return nil, fmt.Errorf("decoding extensions: %w", err)
	}

	return installed, nil
}

// RequestPermissions asks the host wallet to connect the given extensions.
func (c *Client) RequestPermissions(ctx context.Context, ids ...string) error {
	params := make(map[string]interface{}, len(ids))
	for _, id := range ids {
		params[id] = map[string]interface{}{}
	}

	if _, err := c.provider.Request(ctx, methodRequestPermissions, params); err != nil {
		return fmt.Errorf("requesting permissions: %w", err)
	}

	return nil
}

// FindExtension looks up an installed extension by ID and, if version is
// non-empty, by exact version. It reports not-found on any error.
func (c *Client) FindExtension(ctx context.Context, id, version string) (Extension, bool) {
	installed, err := c.InstalledExtensions(ctx)
	if err != nil {
		return Extension{}, false
	}

	ext, ok := installed[id]
	if !ok {
		return Extension{}, false
	}
	if version != "" && ext.Version != version {
		return Extension{}, false
	}

	return ext, true
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
