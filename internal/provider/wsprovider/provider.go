// Package wsprovider implements an EIP-1193 provider on top of a wallet
// bridge speaking JSON-RPC 2.0 over websocket. Messages carrying an id are
// responses, messages carrying only a method are provider events whose params
// are the event payload.
package wsprovider

import (
	"context"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"io"
	"moff.io/wallet-connector/internal/connector/ethereum"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
	"net/http"
	"sync"
)

var ErrClosed = errors.New("provider closed")

const eventBufferSize = 64

type Option func(*Provider)

func WithDialer(dialer *websocket.Dialer) Option {
	return func(p *Provider) {
		p.dialer = dialer
	}
}

func WithHeader(header http.Header) Option {
	return func(p *Provider) {
		p.header = header
	}
}

type Provider struct {
	url    string
	dialer *websocket.Dialer
	header http.Header

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]chan response
	handlers map[string][]func(interface{})

	selected atomic.String
	events   chan providerEvent

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

var (
	_ ethereum.Provider = (*Provider)(nil)
	_ io.Closer         = (*Provider)(nil)
)

// Detect returns a detector making a single dial attempt to url.
func Detect(url string, opts ...Option) ethereum.Detector {
	return func(ctx context.Context) (ethereum.Provider, error) {
		p, err := Dial(ctx, url, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Dial connects to the bridge and reads the accounts already authorized.
func Dial(ctx context.Context, url string, opts ...Option) (*Provider, error) {
	p := &Provider{
		url:      url,
		dialer:   websocket.DefaultDialer,
		pending:  make(map[string]chan response),
		handlers: make(map[string][]func(interface{})),
		events:   make(chan providerEvent, eventBufferSize),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	conn, _, err := p.dialer.DialContext(ctx, url, p.header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial to wallet bridge %s", url)
	}
	p.conn = conn
	go p.readLoop()
	go p.dispatchLoop()

	accounts, err := p.Request(ctx, ethereum.RequestArguments{Method: ethereum.MethodAccounts})
	if err != nil {
		var providerErr *ethereum.ProviderError
		if !errors.As(err, &providerErr) {
			p.Close()
			return nil, err
		}
		log.Warnf("ws provider - %s unsupported by bridge: %v", ethereum.MethodAccounts, err)
	} else {
		p.selected.Store(selectedOf(accounts))
	}
	log.Infof("ws provider - connected to %s", url)
	return p, nil
}

func (p *Provider) Request(ctx context.Context, args ethereum.RequestArguments) (interface{}, error) {
	id := uuid.NewString()
	payload, err := newJSONRpcRequest(id, args).Marshal()
	if err != nil {
		return nil, err
	}
	ch := make(chan response, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	select {
	case <-p.closed:
		return nil, p.closeErr
	default:
	}
	log.Debugf("ws provider - send:%s", payload)
	p.writeMu.Lock()
	err = p.conn.WriteMessage(websocket.TextMessage, payload)
	p.writeMu.Unlock()
	if err != nil {
		return nil, errors.WrapAndReport(err, "write wallet bridge request")
	}

	select {
	case resp := <-ch:
		if resp.err != nil {
			return nil, resp.err
		}
		return resp.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, p.closeErr
	}
}

func (p *Provider) On(event string, handler func(payload interface{})) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[event] = append(p.handlers[event], handler)
}

func (p *Provider) SelectedAddress() string {
	return p.selected.Load()
}

// Close terminates the connection, pending requests fail with ErrClosed.
func (p *Provider) Close() error {
	p.shutdown(ErrClosed)
	return nil
}

// Closed is closed once the connection is gone.
func (p *Provider) Closed() <-chan struct{} {
	return p.closed
}

func (p *Provider) shutdown(err error) {
	p.closeOnce.Do(func() {
		p.closeErr = err
		close(p.closed)
		if p.conn != nil {
			p.conn.Close()
		}
	})
}

func (p *Provider) readLoop() {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			select {
			case <-p.closed:
			default:
				log.Warnf("ws provider - connection to %s lost: %v", p.url, err)
			}
			p.shutdown(errors.Wrap(ErrClosed, err.Error()))
			return
		}
		log.Debugf("ws provider - receive:%s", data)
		if !gjson.ValidBytes(data) {
			log.Warnf("ws provider - invalid message %s", data)
			continue
		}
		msg := gjson.ParseBytes(data)
		if id := msg.Get("id"); id.Exists() && id.Type != gjson.Null {
			p.resolve(id.String(), newResponse(msg))
			continue
		}
		if method := msg.Get("method").String(); method != "" {
			select {
			case p.events <- providerEvent{name: method, payload: msg.Get("params").Value()}:
			case <-p.closed:
				return
			}
			continue
		}
		log.Warnf("ws provider - unexpected message %s", data)
	}
}

func (p *Provider) resolve(id string, resp response) {
	p.mu.Lock()
	ch, ok := p.pending[id]
	p.mu.Unlock()
	if !ok {
		log.Debugf("ws provider - response to unknown request %s", id)
		return
	}
	select {
	case ch <- resp:
	default:
		log.Warnf("ws provider - duplicated response to request %s", id)
	}
}

// dispatchLoop runs handlers one event at a time.
func (p *Provider) dispatchLoop() {
	for {
		select {
		case ev := <-p.events:
			if ev.name == ethereum.EventAccountsChanged {
				p.selected.Store(selectedOf(ev.payload))
			}
			p.mu.Lock()
			handlers := append([]func(interface{}){}, p.handlers[ev.name]...)
			p.mu.Unlock()
			for _, h := range handlers {
				h(ev.payload)
			}
		case <-p.closed:
			return
		}
	}
}
