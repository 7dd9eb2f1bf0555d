package wsprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"moff.io/wallet-connector/internal/connector"
	"moff.io/wallet-connector/internal/connector/ethereum"
	"moff.io/wallet-connector/internal/retry"
	"moff.io/wallet-connector/pkg/errors"
)

const (
	firstAddr  = "0x32f4C2df50f678a94609e67b53D1BC3a9bD8ec06"
	secondAddr = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
)

// bridge is a minimal wallet bridge. accounts answers eth_accounts,
// requested answers eth_requestAccounts unless reject is set.
type bridge struct {
	accounts  []string
	requested []string
	reject    bool
	push      chan string

	upgrader websocket.Upgrader
}

func newBridge() *bridge {
	return &bridge{push: make(chan string, 8)}
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	var writeMu sync.Mutex
	write := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteJSON(v)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case raw := <-b.push:
				writeMu.Lock()
				_ = conn.WriteMessage(websocket.TextMessage, []byte(raw))
				writeMu.Unlock()
			case <-done:
				return
			}
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req jsonRpcRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		switch {
		case req.Method == ethereum.MethodAccounts:
			write(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": b.accounts})
		case req.Method == ethereum.MethodRequestAccounts && b.reject:
			write(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "error": map[string]interface{}{
				"code": ethereum.CodeUserRejectedRequest, "message": "User rejected the request.",
			}})
		case req.Method == ethereum.MethodRequestAccounts:
			write(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": b.requested})
		case req.Method == "echo_params":
			write(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": req.Params})
		case req.Method == "never_answered":
		default:
			write(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "error": map[string]interface{}{
				"code": ethereum.CodeUnsupportedMethod, "message": "unsupported " + req.Method,
			}})
		}
	}
}

func serve(t *testing.T, b *bridge) string {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Provider {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestDialSeedsSelectedAddress(t *testing.T) {
	b := newBridge()
	b.accounts = []string{firstAddr, secondAddr}
	p := dial(t, serve(t, b))
	assert.Equal(t, firstAddr, p.SelectedAddress())

	b2 := newBridge()
	p2 := dial(t, serve(t, b2))
	assert.Empty(t, p2.SelectedAddress())
}

func TestRequest(t *testing.T) {
	b := newBridge()
	b.requested = []string{firstAddr, secondAddr}
	p := dial(t, serve(t, b))

	result, err := p.Request(context.Background(), ethereum.RequestArguments{Method: ethereum.MethodRequestAccounts})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{firstAddr, secondAddr}, result)

	result, err = p.Request(context.Background(), ethereum.RequestArguments{Method: "echo_params", Params: []interface{}{"0x68656c6c6f", firstAddr}})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"0x68656c6c6f", firstAddr}, result)
}

func TestRequestProviderError(t *testing.T) {
	b := newBridge()
	b.reject = true
	p := dial(t, serve(t, b))

	_, err := p.Request(context.Background(), ethereum.RequestArguments{Method: ethereum.MethodRequestAccounts})
	var providerErr *ethereum.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ethereum.CodeUserRejectedRequest, providerErr.Code)
	assert.Equal(t, "User rejected the request.", providerErr.Message)
}

func TestRequestContextAndClose(t *testing.T) {
	p := dial(t, serve(t, newBridge()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.Request(ctx, ethereum.RequestArguments{Method: "never_answered"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.Close()
	<-p.Closed()
	_, err = p.Request(context.Background(), ethereum.RequestArguments{Method: ethereum.MethodAccounts})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAccountsChangedEvents(t *testing.T) {
	b := newBridge()
	b.accounts = []string{firstAddr}
	p := dial(t, serve(t, b))

	received := make(chan interface{}, 4)
	p.On(ethereum.EventAccountsChanged, func(payload interface{}) {
		received <- payload
	})

	b.push <- `{"jsonrpc":"2.0","method":"accountsChanged","params":["` + secondAddr + `"]}`
	b.push <- `{"jsonrpc":"2.0","method":"accountsChanged","params":[]}`

	for _, want := range []interface{}{[]interface{}{secondAddr}, []interface{}{}} {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Empty(t, p.SelectedAddress())
}

func TestDetectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	provider, err := Detect(url)(context.Background())
	assert.Error(t, err)
	assert.Nil(t, provider)
}

func TestConnectorOverBridge(t *testing.T) {
	b := newBridge()
	b.accounts = []string{firstAddr}
	b.requested = []string{secondAddr}
	url := serve(t, b)

	conn := ethereum.New(ethereum.DefaultConfig(), Detect(url), ethereum.WithPollOptions(retry.Options{Times: 5, Interval: time.Millisecond}))
	defer conn.Close()
	require.NoError(t, conn.Initialize(context.Background()))
	<-conn.PollDone()

	assert.Equal(t, connector.Connected, conn.Status())
	require.NotNil(t, conn.Signer())
	assert.Equal(t, firstAddr, conn.Signer().NativeAddress())

	require.NoError(t, conn.Connect(context.Background()))
	assert.Equal(t, secondAddr, conn.Signer().NativeAddress())

	signers := make(chan connector.SignerEvent, 1)
	sub := conn.SubscribeSigner(signers)
	defer sub.Unsubscribe()
	b.push <- `{"jsonrpc":"2.0","method":"accountsChanged","params":[]}`
	select {
	case ev := <-signers:
		assert.Nil(t, ev.Signer)
	case <-time.After(2 * time.Second):
		t.Fatal("signer not cleared")
	}
	assert.Equal(t, connector.Connected, conn.Status())
}
