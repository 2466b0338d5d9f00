package poolregistry

import "sync"

// Driver wraps a Registry behind a mutex held for the duration of a
// maintenance tick, mirroring the teacher's pattern of a single mutex-guarded
// collaborator polled by a driver loop (internal/risk.Manager's reportCh/
// killCh loop, internal/market.Book's RWMutex). The blockchain event source
// that calls AppendEvents/ReplaceEvents on tip advance or reorg detection is
// a consumed interface, out of this package's scope.
type Driver struct {
	mu       sync.Mutex
	registry *Registry
}

// NewDriver wraps registry for concurrent use.
func NewDriver(registry *Registry) *Driver {
	return &Driver{registry: registry}
}

// Append appends new tip events under lock.
func (d *Driver) Append(events []IndexedEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.AppendEvents(events)
}

// Replace replays events after a reorg under lock.
func (d *Driver) Replace(fromBlock uint64, events []IndexedEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.ReplaceEvents(fromBlock, events)
}

// LastEventBlock reads the registry's high-water mark under lock.
func (d *Driver) LastEventBlock() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.LastEventBlock()
}

// Snapshot runs fn with exclusive access to the registry, for queries that
// need a consistent multi-step read (e.g. PoolsContainingPair for several
// pairs at once during auction assembly).
func (d *Driver) Snapshot(fn func(*Registry)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.registry)
}
