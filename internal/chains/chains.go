package chains

import (
	"fmt"
	"moff.io/wallet-connector/pkg/errors"
	"strings"
)

// ID identifies a CKB network.
type ID int

const (
	Mainnet ID = 0 // Lina
	Testnet ID = 1 // Aggron
	Devnet  ID = 2 // Lay2 dev chain
)

var ErrUnknownChain = errors.New("unknown ckb chain")

// HashType of a CKB script.
type HashType byte

const (
	HashTypeData HashType = 0x00
	HashTypeType HashType = 0x01
)

// Script is the part of a lock script that is fixed per chain.
type Script struct {
	CodeHash string
	HashType HashType
}

type Spec struct {
	ID            ID
	Name          string
	AddressPrefix string
	DefaultRPCURL string
	PWLock        Script
}

var (
	lina = Spec{
		ID:            Mainnet,
		Name:          "lina",
		AddressPrefix: "ckb",
		DefaultRPCURL: "https://mainnet.ckb.dev/rpc",
		PWLock: Script{
			CodeHash: "0xbf43c3602455798c1a61a596e0d95278864c552fafe231c063b3fabf97a8febc",
			HashType: HashTypeType,
		},
	}
	aggron = Spec{
		ID:            Testnet,
		Name:          "aggron",
		AddressPrefix: "ckt",
		DefaultRPCURL: "https://testnet.ckb.dev/rpc",
		PWLock: Script{
			CodeHash: "0x58c5f491aba6d61678b7cf7edf4910b1f5e00ec0cde2f42e0abb4fd9aff25a63",
			HashType: HashTypeType,
		},
	}
	// devnet deployments differ between environments, see config pw_lock_code_hash.
	lay2 = Spec{
		ID:            Devnet,
		Name:          "lay2",
		AddressPrefix: "ckt",
		DefaultRPCURL: "http://127.0.0.1:8114",
		PWLock: Script{
			CodeHash: "0xe09352af0066f3162287763ce4ddba9af6bfaeab198dc7ab37f8c71c9e68bb5b",
			HashType: HashTypeType,
		},
	}
)

// Lookup returns a copy of the spec registered for id.
func Lookup(id ID) (*Spec, error) {
	var spec Spec
	switch id {
	case Mainnet:
		spec = lina
	case Testnet:
		spec = aggron
	case Devnet:
		spec = lay2
	default:
		return nil, errors.Wrapf(ErrUnknownChain, "chain id %d", int(id))
	}
	return &spec, nil
}

// ParseID accepts the network name, the chain spec name or the numeric id.
func ParseID(s string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet", "lina", "0":
		return Mainnet, nil
	case "testnet", "aggron", "1", "":
		return Testnet, nil
	case "devnet", "lay2", "2":
		return Devnet, nil
	}
	return 0, errors.Wrapf(ErrUnknownChain, "chain %q", s)
}

func (id ID) String() string {
	switch id {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Devnet:
		return "devnet"
	}
	return fmt.Sprintf("ID(%d)", int(id))
}
