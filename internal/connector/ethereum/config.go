package ethereum

import (
	"moff.io/wallet-connector/internal/chains"
)

// Config of the connector. The zero ChainID is mainnet, use DefaultConfig to
// start from testnet.
type Config struct {
	ChainID chains.ID `json:"ckb_chain_id"`
	RPCURL  string    `json:"ckb_rpc_url"`
	// PWLockCodeHash overrides the PW-Lock code hash of the chain spec, used
	// for devnets with their own deployment.
	PWLockCodeHash string `json:"pw_lock_code_hash,omitempty"`
}

func DefaultConfig() Config {
	return Config{ChainID: chains.Testnet}
}

// spec resolves the chain spec and fills RPCURL when it is empty.
func (c *Config) spec() (*chains.Spec, error) {
	spec, err := chains.Lookup(c.ChainID)
	if err != nil {
		return nil, err
	}
	if c.PWLockCodeHash != "" {
		spec.PWLock.CodeHash = c.PWLockCodeHash
	}
	if c.RPCURL == "" {
		c.RPCURL = spec.DefaultRPCURL
	}
	return spec, nil
}
