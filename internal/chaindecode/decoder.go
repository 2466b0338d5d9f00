// Package chaindecode implements chainfeed.Decoder for the Balancer vault's
// two pool-registration events, the concrete ABI-decoding seam the rest of
// the registry pipeline consumes as an interface.
package chaindecode

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/gnosis/oba-services/internal/poolregistry"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/hash"
)

// event signatures straight off the Balancer V2 Vault ABI:
//
//	event PoolRegistered(bytes32 indexed poolId, address indexed poolAddress, uint8 specialization)
//	event TokensRegistered(bytes32 indexed poolId, address[] tokens, address[] assetManagers)
var (
	poolRegisteredSig   = gethcommon.HexToHash("0x3c13bc30b8e878c53fd2a36b679409c073afd75950be43d8858768e956fbc20e")
	tokensRegisteredSig = gethcommon.HexToHash("0xf5847d3f2197b16cdcd2098ec95d0905cd1abdaf415f07bb7cef2bba8ac5dec4")
)

var (
	uint8Type, _   = abi.NewType("uint8", "", nil)
	addressesType, _ = abi.NewType("address[]", "", nil)
)

var (
	poolRegisteredArgs   = abi.Arguments{{Type: uint8Type}}
	tokensRegisteredArgs = abi.Arguments{{Type: addressesType}, {Type: addressesType}}
)

// Decoder implements chainfeed.Decoder against raw vault logs.
type Decoder struct {
	vaultAddress address.Address
}

// New builds a Decoder that only considers logs emitted by vaultAddress.
func New(vaultAddress address.Address) *Decoder {
	return &Decoder{vaultAddress: vaultAddress}
}

// Decode translates a raw log into a poolregistry.IndexedEvent. A log
// emitted by a different contract, or with a topic0 this decoder does not
// recognize, is reported as not-ok rather than an error — chainfeed logs
// and skips it.
func (d *Decoder) Decode(log gethtypes.Log) (poolregistry.IndexedEvent, bool, error) {
	if address.FromCommon(log.Address) != d.vaultAddress {
		return poolregistry.IndexedEvent{}, false, nil
	}
	if len(log.Topics) == 0 {
		return poolregistry.IndexedEvent{}, false, nil
	}

	index := poolregistry.EventIndex{BlockNumber: log.BlockNumber, LogIndex: uint64(log.Index)}

	switch log.Topics[0] {
	case poolRegisteredSig:
		return d.decodePoolRegistered(index, log)
	case tokensRegisteredSig:
		return d.decodeTokensRegistered(index, log)
	default:
		return poolregistry.IndexedEvent{}, false, nil
	}
}

func (d *Decoder) decodePoolRegistered(index poolregistry.EventIndex, log gethtypes.Log) (poolregistry.IndexedEvent, bool, error) {
	if len(log.Topics) != 3 {
		return poolregistry.IndexedEvent{}, false, fmt.Errorf("chaindecode: PoolRegistered wants 3 topics, got %d", len(log.Topics))
	}

	values, err := poolRegisteredArgs.Unpack(log.Data)
	if err != nil {
		return poolregistry.IndexedEvent{}, false, fmt.Errorf("chaindecode: unpack PoolRegistered data: %w", err)
	}
	spec, err := poolregistry.ParsePoolSpecialization(values[0].(uint8))
	if err != nil {
		return poolregistry.IndexedEvent{}, false, fmt.Errorf("chaindecode: %w", err)
	}

	evt := poolregistry.PoolRegisteredEvent{
		PoolID:         hash.FromCommon(log.Topics[1]),
		PoolAddress:    address.FromCommon(gethcommon.BytesToAddress(log.Topics[2].Bytes())),
		Specialization: spec,
	}
	return poolregistry.IndexedEvent{
		Index: index,
		Event: poolregistry.PoolRegistered{Event: evt},
	}, true, nil
}

func (d *Decoder) decodeTokensRegistered(index poolregistry.EventIndex, log gethtypes.Log) (poolregistry.IndexedEvent, bool, error) {
	if len(log.Topics) != 2 {
		return poolregistry.IndexedEvent{}, false, fmt.Errorf("chaindecode: TokensRegistered wants 2 topics, got %d", len(log.Topics))
	}

	values, err := tokensRegisteredArgs.Unpack(log.Data)
	if err != nil {
		return poolregistry.IndexedEvent{}, false, fmt.Errorf("chaindecode: unpack TokensRegistered data: %w", err)
	}
	rawTokens := values[0].([]gethcommon.Address)
	tokens := make([]address.Address, len(rawTokens))
	for i, t := range rawTokens {
		tokens[i] = address.FromCommon(t)
	}

	evt := poolregistry.TokensRegisteredEvent{
		PoolID: hash.FromCommon(log.Topics[1]),
		Tokens: tokens,
	}
	return poolregistry.IndexedEvent{
		Index: index,
		Event: poolregistry.TokensRegistered{Event: evt},
	}, true, nil
}
