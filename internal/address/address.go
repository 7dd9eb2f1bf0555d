// Package address derives CKB addresses for foreign chain accounts locked by
// PW-Lock. Addresses use the full format of CKB RFC 0021 encoded with bech32m.
// pw-core still emits the deprecated full formats (0x02/0x04 with bech32), so
// its strings differ from ours for the same lock script.
package address

import (
	"fmt"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/pkg/errors"
)

// Type tags the chain a native address belongs to.
type Type int

const (
	TypeCKB Type = iota
	TypeEth
	TypeEOS
	TypeTron
)

func (t Type) String() string {
	switch t {
	case TypeCKB:
		return "ckb"
	case TypeEth:
		return "eth"
	case TypeEOS:
		return "eos"
	case TypeTron:
		return "tron"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

const fullFormat byte = 0x00

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrUnsupportedType = errors.New("unsupported address type")
)

// ToCKBAddress converts native into the CKB address of the chain described by
// spec. CKB addresses are returned unchanged.
func ToCKBAddress(native string, t Type, spec *chains.Spec) (string, error) {
	if spec == nil {
		return "", errors.Wrap(chains.ErrUnknownChain, "nil chain spec")
	}
	switch t {
	case TypeCKB:
		return native, nil
	case TypeEth:
		if !common.IsHexAddress(native) {
			return "", errors.Wrapf(ErrInvalidAddress, "eth address %q", native)
		}
		return FullAddress(spec.AddressPrefix, spec.PWLock, common.HexToAddress(native).Bytes())
	}
	return "", errors.Wrapf(ErrUnsupportedType, "%v", t)
}

// FullAddress encodes the lock script {script, args} under prefix.
func FullAddress(prefix string, script chains.Script, args []byte) (string, error) {
	codeHash, err := hexutil.Decode(script.CodeHash)
	if err != nil {
		return "", errors.Wrapf(err, "decode code hash %s", script.CodeHash)
	}
	if len(codeHash) != common.HashLength {
		return "", errors.Errorf("code hash must be %d bytes, got %d", common.HashLength, len(codeHash))
	}
	payload := make([]byte, 0, 2+len(codeHash)+len(args))
	payload = append(payload, fullFormat)
	payload = append(payload, codeHash...)
	payload = append(payload, byte(script.HashType))
	payload = append(payload, args...)

	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "convert address payload")
	}
	addr, err := bech32.EncodeM(prefix, data)
	if err != nil {
		return "", errors.Wrap(err, "encode bech32m address")
	}
	return addr, nil
}
