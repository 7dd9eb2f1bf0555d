package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/pkg/errors"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("log_level: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, defaultProviderURL, c.Connector.ProviderURL)
	assert.Equal(t, defaultHTTPAddress, c.HTTP.Address)
	assert.Equal(t, 5, c.Connector.Poll.Times)
	assert.Equal(t, 100*time.Millisecond, c.Connector.Poll.Interval)

	cfg, err := c.Connector.Ethereum()
	require.NoError(t, err)
	assert.Equal(t, chains.Testnet, cfg.ChainID)
	assert.Empty(t, cfg.RPCURL)
}

func TestParseConnector(t *testing.T) {
	c, err := Parse([]byte(`
connector:
  chain: devnet
  rpc_url: http://127.0.0.1:8114
  pw_lock_code_hash: "0x01"
  poll:
    times: 3
    interval: 250ms
`))
	require.NoError(t, err)
	cfg, err := c.Connector.Ethereum()
	require.NoError(t, err)
	assert.Equal(t, chains.Devnet, cfg.ChainID)
	assert.Equal(t, "http://127.0.0.1:8114", cfg.RPCURL)
	assert.Equal(t, "0x01", cfg.PWLockCodeHash)

	opts := c.Connector.Poll.Options()
	assert.Equal(t, 3, opts.Times)
	assert.Equal(t, 250*time.Millisecond, opts.Interval)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte("connector:\n  chain: ropsten\n"))
	assert.True(t, errors.Is(err, chains.ErrUnknownChain))

	_, err = Parse([]byte("unknown_key: 1\n"))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	c, err := ReadFile("config.yml")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8546", c.Connector.ProviderURL)
	assert.Equal(t, 60*time.Second, c.HTTP.RequestTimeout)

	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte("connector: [\n"), 0600))
	_, err = ReadFile(path)
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
