package wsprovider

import (
	"encoding/json"
	"github.com/tidwall/gjson"
	"moff.io/wallet-connector/internal/connector/ethereum"
	"moff.io/wallet-connector/pkg/errors"
)

type jsonRpcRequest struct {
	ID      string        `json:"id"`
	JSONRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

func newJSONRpcRequest(id string, args ethereum.RequestArguments) *jsonRpcRequest {
	r := &jsonRpcRequest{
		ID:      id,
		JSONRpc: "2.0",
		Method:  args.Method,
		Params:  []interface{}{},
	}
	if len(args.Params) > 0 {
		r.Params = args.Params
	}
	return r
}

func (r *jsonRpcRequest) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s request", r.Method)
	}
	return data, nil
}

type response struct {
	result interface{}
	err    *ethereum.ProviderError
}

func newResponse(msg gjson.Result) response {
	if e := msg.Get("error"); e.Exists() && e.Type != gjson.Null {
		return response{err: &ethereum.ProviderError{
			Code:    int(e.Get("code").Int()),
			Message: e.Get("message").String(),
			Data:    e.Get("data").Value(),
		}}
	}
	return response{result: msg.Get("result").Value()}
}

type providerEvent struct {
	name    string
	payload interface{}
}

// selectedOf returns the account a wallet reports first, "" when none.
func selectedOf(accounts interface{}) string {
	switch v := accounts.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
