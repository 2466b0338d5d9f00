package poolregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

func TestCheckpointSaveLoadRestore(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenCheckpointStore(dir)
	if err != nil {
		t.Fatalf("OpenCheckpointStore: %v", err)
	}

	p0, p1 := poolID(0), poolID(1)
	a0, a1, a2 := addrFromLowU64(0), addrFromLowU64(1), addrFromLowU64(2)

	events := []IndexedEvent{
		{Index: EventIndex{1, 0}, Event: PoolRegistered{PoolRegisteredEvent{PoolID: p0, PoolAddress: a0, Specialization: TwoToken}}},
		{Index: EventIndex{1, 1}, Event: TokensRegistered{TokensRegisteredEvent{PoolID: p0, Tokens: []address.Address{a0, a1}}}},
		{Index: EventIndex{2, 0}, Event: PoolRegistered{PoolRegisteredEvent{PoolID: p1, PoolAddress: a1, Specialization: General}}},
		{Index: EventIndex{2, 1}, Event: TokensRegistered{TokensRegisteredEvent{PoolID: p1, Tokens: []address.Address{a1, a2}}}},
	}

	registry := New()
	if err := registry.AppendEvents(events); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	if err := store.Save(registry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "checkpoint.json")); err != nil {
		t.Fatalf("checkpoint.json not written: %v", err)
	}

	checkpoint, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if checkpoint == nil {
		t.Fatal("Load returned nil checkpoint after Save")
	}
	if checkpoint.LastEventBlock != 2 {
		t.Fatalf("LastEventBlock = %d, want 2", checkpoint.LastEventBlock)
	}
	if len(checkpoint.Pools) != 2 {
		t.Fatalf("got %d pools, want 2", len(checkpoint.Pools))
	}

	restored := Restore(checkpoint)
	if restored.LastEventBlock() != 2 {
		t.Fatalf("restored LastEventBlock = %d, want 2", restored.LastEventBlock())
	}

	pairA0A1, err := tokenpair.New(a0, a1)
	if err != nil {
		t.Fatalf("tokenpair.New(a0,a1): %v", err)
	}
	pools := restored.PoolsContainingPair(pairA0A1)
	if len(pools) != 1 || pools[0].PoolID != p0 {
		t.Fatalf("PoolsContainingPair(a0,a1) = %+v, want [pool %x]", pools, p0)
	}

	pairA1A2, err := tokenpair.New(a1, a2)
	if err != nil {
		t.Fatalf("tokenpair.New(a1,a2): %v", err)
	}
	pools = restored.PoolsContainingPair(pairA1A2)
	if len(pools) != 1 || pools[0].PoolID != p1 {
		t.Fatalf("PoolsContainingPair(a1,a2) = %+v, want [pool %x]", pools, p1)
	}
}

func TestCheckpointLoadMissingReturnsNil(t *testing.T) {
	store, err := OpenCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCheckpointStore: %v", err)
	}
	checkpoint, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if checkpoint != nil {
		t.Fatalf("expected nil checkpoint, got %+v", checkpoint)
	}
	if restored := Restore(checkpoint); restored.LastEventBlock() != 0 {
		t.Fatalf("Restore(nil) LastEventBlock = %d, want 0", restored.LastEventBlock())
	}
}
