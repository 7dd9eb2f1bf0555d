package ethereum

import (
	"context"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"moff.io/wallet-connector/internal/connector"
	"moff.io/wallet-connector/pkg/errors"
)

var ErrSignatureMismatch = errors.New("signature does not match signer address")

// Signer is published by Connector for the account selected in the wallet.
type Signer struct {
	CKBAddress string `json:"ckb_address"`
	EthAddress string `json:"eth_address"`
	Config     Config `json:"config"`

	provider Provider
}

var _ connector.Signer = (*Signer)(nil)

func (s *Signer) Address() string {
	return s.CKBAddress
}

func (s *Signer) NativeAddress() string {
	return s.EthAddress
}

// SignMessage asks the wallet for a personal_sign signature of message and
// checks it recovers to EthAddress. The signature is returned as produced by
// the wallet, V being 27 or 28.
func (s *Signer) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	result, err := s.provider.Request(ctx, RequestArguments{
		Method: MethodPersonalSign,
		Params: []interface{}{hexutil.Encode(message), s.EthAddress},
	})
	if err != nil {
		return nil, err
	}
	signatureHex, ok := result.(string)
	if !ok {
		return nil, errors.Errorf("unexpected personal_sign result %v", result)
	}
	signature, err := hexutil.Decode(signatureHex)
	if err != nil {
		return nil, errors.Wrap(err, "decode signature")
	}
	if len(signature) != crypto.SignatureLength {
		return nil, errors.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}
	recovered, err := recoverAddress(message, signature)
	if err != nil {
		return nil, err
	}
	if recovered != common.HexToAddress(s.EthAddress) {
		return nil, errors.Wrapf(ErrSignatureMismatch, "recovered %s", recovered.Hex())
	}
	return signature, nil
}

func recoverAddress(message, signature []byte) (common.Address, error) {
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}
	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recover public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}
