// Package ethereum connects an EIP-1193 Ethereum wallet to CKB: accounts
// exposed by the wallet are published as signers holding the PW-Lock CKB
// address of the account.
package ethereum

import (
	"context"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/atomic"
	"io"
	"moff.io/wallet-connector/internal/address"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/internal/connector"
	"moff.io/wallet-connector/internal/retry"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
	"sync"
)

type WarnFunc func(format string, args ...interface{})

type Option func(*Connector)

// WithPollOptions replaces retry.DefaultPoll for the pre-authorization poll.
func WithPollOptions(opts retry.Options) Option {
	return func(c *Connector) {
		c.pollOpts = opts
	}
}

// WithWarnFunc receives malformed provider data diagnostics, log.Warnf by default.
func WithWarnFunc(warnf WarnFunc) Option {
	return func(c *Connector) {
		c.warnf = warnf
	}
}

type Connector struct {
	base   connector.Base
	config Config
	detect Detector

	pollOpts retry.Options
	warnf    WarnFunc

	ctx    context.Context
	cancel context.CancelFunc

	// Initialize may run only once.
	initialized atomic.Bool
	pollDone    chan struct{}

	mu       sync.RWMutex
	provider Provider
	spec     *chains.Spec
	poll     *retry.Task

	// serializes signer updates
	updateMu sync.Mutex
}

var (
	_ connector.Connector = (*Connector)(nil)
	_ connector.Observer  = (*Connector)(nil)
)

func New(config Config, detect Detector, opts ...Option) *Connector {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connector{
		config:   config,
		detect:   detect,
		pollOpts: retry.DefaultPoll,
		warnf:    log.Warnf,
		ctx:      ctx,
		cancel:   cancel,
		pollDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize detects the provider, selects the chain configuration and starts
// polling for an account the wallet already authorized. It returns without
// waiting for the poll, see PollDone.
func (c *Connector) Initialize(ctx context.Context) (err error) {
	if !c.initialized.CAS(false, true) {
		return errors.New("connector already initialized")
	}
	defer func() {
		if err != nil {
			close(c.pollDone)
		}
	}()
	provider, err := c.detect(ctx)
	if err != nil {
		return errors.Wrapf(connector.ErrProviderUnavailable, "detect provider: %v", err)
	}
	if provider == nil {
		return errors.Wrap(connector.ErrProviderUnavailable, "no ethereum provider detected")
	}
	config := c.Config()
	spec, err := config.spec()
	if err != nil {
		return err
	}
	log.Infof("ethereum connector - using ckb chain %v (%s), rpc %s", config.ChainID, spec.Name, config.RPCURL)

	c.mu.Lock()
	c.config = config
	c.spec = spec
	c.provider = provider
	c.mu.Unlock()

	// providers may replay the current accounts from within On
	provider.On(EventAccountsChanged, c.onAccountsChanged)
	poll := retry.Start(c.ctx, c.pollOpts, func() bool {
		return c.checkSelectedAddress(provider)
	})
	c.mu.Lock()
	c.poll = poll
	c.mu.Unlock()
	go c.awaitPoll(poll)
	return nil
}

func (c *Connector) checkSelectedAddress(provider Provider) bool {
	selected := provider.SelectedAddress()
	if selected == "" {
		return false
	}
	c.onAccountsChanged(selected)
	return true
}

func (c *Connector) awaitPoll(task *retry.Task) {
	<-task.Done()
	attempts, ok := task.Result()
	if ok {
		log.Debugf("ethereum connector - authorized account found after %d attempt(s)", attempts)
	} else {
		log.Debugf("ethereum connector - no authorized account after %d attempt(s)", attempts)
	}
	close(c.pollDone)
}

// PollDone is closed once the pre-authorization poll finished, or right away
// when Initialize failed.
func (c *Connector) PollDone() <-chan struct{} {
	return c.pollDone
}

// Connect asks the wallet to authorize this application. Errors returned by
// the provider are passed through unchanged.
func (c *Connector) Connect(ctx context.Context) error {
	provider := c.currentProvider()
	if provider == nil {
		return errors.Wrap(connector.ErrProviderUnavailable, "provider is not loaded, maybe no wallet is installed")
	}
	accounts, err := provider.Request(ctx, RequestArguments{Method: MethodRequestAccounts})
	if err != nil {
		return err
	}
	c.onAccountsChanged(accounts)
	return nil
}

// Disconnect is not supported by injected wallets.
func (c *Connector) Disconnect(context.Context) error {
	return errors.WithStack(connector.ErrUnimplemented)
}

// Close stops the pre-authorization poll and closes the provider when it
// implements io.Closer.
func (c *Connector) Close() {
	c.cancel()
	c.mu.RLock()
	poll, provider := c.poll, c.provider
	c.mu.RUnlock()
	if poll != nil {
		poll.Stop()
	}
	if closer, ok := provider.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warnf("ethereum connector - close provider: %v", err)
		}
	}
}

func (c *Connector) currentProvider() Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.provider
}

// Spec returns a copy of the chain spec in use, nil until Initialize succeeded.
func (c *Connector) Spec() *chains.Spec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.spec == nil {
		return nil
	}
	spec := *c.spec
	return &spec
}

func (c *Connector) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Connector) onAccountsChanged(accounts interface{}) {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	account, ok := firstAccount(accounts, c.warnf)
	if !ok {
		c.base.ChangeSigner(nil)
		return
	}
	signer, err := c.newSigner(account)
	if err != nil {
		c.warnf("ethereum connector - derive ckb address of %s: %v", account, err)
		c.base.ChangeSigner(nil)
		return
	}
	c.base.ChangeStatus(connector.Connected)
	c.base.ChangeSigner(signer)
}

func (c *Connector) newSigner(ethAddress string) (*Signer, error) {
	c.mu.RLock()
	spec, provider, config := c.spec, c.provider, c.config
	c.mu.RUnlock()
	ckbAddress, err := address.ToCKBAddress(ethAddress, address.TypeEth, spec)
	if err != nil {
		return nil, err
	}
	return &Signer{
		CKBAddress: ckbAddress,
		EthAddress: ethAddress,
		Config:     config,
		provider:   provider,
	}, nil
}

// firstAccount accepts a single address or a list of addresses.
func firstAccount(accounts interface{}, warnf WarnFunc) (string, bool) {
	switch v := accounts.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return v[0], v[0] != ""
	case []interface{}:
		if len(v) == 0 {
			return "", false
		}
		account, ok := v[0].(string)
		return account, ok && account != ""
	default:
		warnf("unknown account type: %v", accounts)
		return "", false
	}
}

func (c *Connector) Status() connector.Status {
	return c.base.Status()
}

// Signer returns nil or a *Signer.
func (c *Connector) Signer() connector.Signer {
	return c.base.Signer()
}

func (c *Connector) SubscribeStatus(ch chan<- connector.StatusEvent) event.Subscription {
	return c.base.SubscribeStatus(ch)
}

func (c *Connector) SubscribeSigner(ch chan<- connector.SignerEvent) event.Subscription {
	return c.base.SubscribeSigner(ch)
}
