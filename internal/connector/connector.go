// Package connector holds the contract shared by wallet connectors: the
// Connect/Disconnect capability and the status and signer state observed by
// the application.
package connector

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/atomic"
	"moff.io/wallet-connector/pkg/errors"
	"sync"
)

var (
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	ErrUnimplemented       = errors.New("unimplemented")
)

type Status int32

const (
	Disconnected Status = iota
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Signer is what a connector hands out once the wallet exposes an account.
type Signer interface {
	// Address is the address on the target chain.
	Address() string
	// NativeAddress is the address reported by the wallet.
	NativeAddress() string
}

// Connector is the capability an application drives.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

type StatusEvent struct {
	Status Status
}

// SignerEvent carries a nil Signer when the signer was cleared.
type SignerEvent struct {
	Signer Signer
}

// Observer is the read side of Base.
type Observer interface {
	Status() Status
	Signer() Signer
	SubscribeStatus(ch chan<- StatusEvent) event.Subscription
	SubscribeSigner(ch chan<- SignerEvent) event.Subscription
}

// Base keeps the status and signer of one connector and broadcasts their
// changes. Sends block until every subscriber received the event, so
// subscribers must keep draining their channel.
type Base struct {
	status atomic.Int32

	mu     sync.RWMutex
	signer Signer

	statusFeed event.Feed
	signerFeed event.Feed
}

var _ Observer = (*Base)(nil)

// ChangeStatus only notifies when the status actually changes.
func (b *Base) ChangeStatus(status Status) {
	if Status(b.status.Swap(int32(status))) == status {
		return
	}
	b.statusFeed.Send(StatusEvent{Status: status})
}

// ChangeSigner replaces the current signer, nil clears it.
func (b *Base) ChangeSigner(signer Signer) {
	b.mu.Lock()
	b.signer = signer
	b.mu.Unlock()
	b.signerFeed.Send(SignerEvent{Signer: signer})
}

func (b *Base) Status() Status {
	return Status(b.status.Load())
}

func (b *Base) Signer() Signer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.signer
}

func (b *Base) SubscribeStatus(ch chan<- StatusEvent) event.Subscription {
	return b.statusFeed.Subscribe(ch)
}

func (b *Base) SubscribeSigner(ch chan<- SignerEvent) event.Subscription {
	return b.signerFeed.Subscribe(ch)
}
