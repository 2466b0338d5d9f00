package chaindecode

import (
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/gnosis/oba-services/pkg/address"
)

func mustVault(s string) address.Address {
	a, err := address.Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestDecodePoolRegistered(t *testing.T) {
	vaultAddr := mustVault("0x1111111111111111111111111111111111111111")
	poolAddr := gethcommon.HexToAddress("0x2222222222222222222222222222222222222222")
	poolID := gethcommon.HexToHash("0x3333333333333333333333333333333333333333333333333333333333333333")

	log := gethtypes.Log{
		Address:     vaultAddr.Common(),
		BlockNumber: 10,
		Index:       2,
		Topics: []gethcommon.Hash{
			poolRegisteredSig,
			poolID,
			gethcommon.BytesToHash(poolAddr.Bytes()),
		},
		Data: mustPack(t, uint8(2)),
	}

	d := New(vaultAddr)
	evt, ok, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for a recognized vault event")
	}
	if evt.Index.BlockNumber != 10 || evt.Index.LogIndex != 2 {
		t.Fatalf("unexpected index: %+v", evt.Index)
	}
}

func TestDecodeIgnoresOtherContract(t *testing.T) {
	vaultAddr := mustVault("0x1111111111111111111111111111111111111111")
	other := gethcommon.HexToAddress("0x9999999999999999999999999999999999999999")

	log := gethtypes.Log{
		Address: other,
		Topics:  []gethcommon.Hash{poolRegisteredSig, {}, {}},
	}

	d := New(vaultAddr)
	_, ok, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a log from a different contract")
	}
}

func TestDecodeIgnoresUnknownTopic(t *testing.T) {
	vaultAddr := mustVault("0x1111111111111111111111111111111111111111")
	log := gethtypes.Log{
		Address: vaultAddr.Common(),
		Topics:  []gethcommon.Hash{{0xaa}},
	}

	d := New(vaultAddr)
	_, ok, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for an unrecognized topic0")
	}
}

func mustPack(t *testing.T, specialization uint8) []byte {
	t.Helper()
	b, err := poolRegisteredArgs.Pack(specialization)
	if err != nil {
		t.Fatalf("pack fixture: %v", err)
	}
	return b
}
