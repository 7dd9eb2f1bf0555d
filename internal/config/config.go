package config

import (
	"flag"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"io/ioutil"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/internal/connector/ethereum"
	"moff.io/wallet-connector/internal/retry"
	"moff.io/wallet-connector/pkg/errors"
	"time"
)

// Configuration struct
type Configuration struct {
	LogLevel  int       `yaml:"log_level"`
	Connector Connector `yaml:"connector"`
	HTTP      HTTP      `yaml:"http"`
	SentryDSN string    `yaml:"sentry_dsn"`
}

type Connector struct {
	// mainnet, testnet or devnet, testnet when empty
	Chain          string `yaml:"chain"`
	RPCURL         string `yaml:"rpc_url"`
	PWLockCodeHash string `yaml:"pw_lock_code_hash"`
	ProviderURL    string `yaml:"provider_url"`
	Poll           Poll   `yaml:"poll"`
}

type Poll struct {
	Times    int           `yaml:"times"`
	Interval time.Duration `yaml:"interval"`
}

type HTTP struct {
	Address        string        `yaml:"address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

const (
	defaultProviderURL = "ws://127.0.0.1:8546"
	defaultHTTPAddress = ":8080"
)

// Ethereum returns the connector configuration described by the file.
func (in Connector) Ethereum() (ethereum.Config, error) {
	id, err := chains.ParseID(in.Chain)
	if err != nil {
		return ethereum.Config{}, err
	}
	return ethereum.Config{
		ChainID:        id,
		RPCURL:         in.RPCURL,
		PWLockCodeHash: in.PWLockCodeHash,
	}, nil
}

func (in Poll) Options() retry.Options {
	return retry.Options{Times: in.Times, Interval: in.Interval}
}

func (c *Configuration) applyDefaults() {
	if c.Connector.ProviderURL == "" {
		c.Connector.ProviderURL = defaultProviderURL
	}
	if c.Connector.Poll.Times == 0 {
		c.Connector.Poll.Times = retry.DefaultPoll.Times
	}
	if c.Connector.Poll.Interval == 0 {
		c.Connector.Poll.Interval = retry.DefaultPoll.Interval
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = defaultHTTPAddress
	}
}

// Parse decodes a yaml configuration and applies defaults.
func Parse(data []byte) (*Configuration, error) {
	c := Configuration{}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if _, err := c.Connector.Ethereum(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func ReadFile(path string) (*Configuration, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

var Global *Configuration

// Read reads configuration information from yml.
func Read() {
	configFilePath := flag.String("config-path", "internal/config/config.yml", "The path to the configuration file")
	flag.Parse()
	logrus.Infof("Loading configuration file from %s", *configFilePath)
	globalConfig, err := ReadFile(*configFilePath)
	if err != nil {
		logrus.Fatal(err)
	}
	Global = globalConfig
}
