package ethereum

import (
	"context"
	"fmt"
)

const (
	EventAccountsChanged = "accountsChanged"

	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodPersonalSign    = "personal_sign"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejectedRequest = 4001
	CodeUnauthorized        = 4100
	CodeUnsupportedMethod   = 4200
	CodeDisconnected        = 4900
)

type RequestArguments struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params,omitempty"`
}

// Provider is an EIP-1193 wallet provider.
type Provider interface {
	Request(ctx context.Context, args RequestArguments) (interface{}, error)
	// On registers handler for a provider event. Handlers run one at a time
	// in the order the events arrive.
	On(event string, handler func(payload interface{}))
	// SelectedAddress is the currently selected account, empty when the
	// wallet has not authorized this application yet. It must not block.
	SelectedAddress() string
}

// Detector makes a single attempt to find a provider. Both a nil provider
// and an error mean no provider is available.
type Detector func(ctx context.Context) (Provider, error)

// ProviderError is an error object returned by the wallet, e.g. the user
// rejecting an authorization request.
type ProviderError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}
