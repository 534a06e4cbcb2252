package schema

import "sync/atomic"

// Registry publishes the active plugin snapshot. Reload replaces the
// pointer atomically; evaluations that started against the previous
// snapshot keep using it untouched.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry serving snap.
func NewRegistry(snap *Snapshot) *Registry {
	r := &Registry{}
	r.current.Store(snap)
	return r
}

// Snapshot returns the active snapshot. Never nil for a registry built
// with NewRegistry.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Swap installs a new snapshot and returns the previous one.
func (r *Registry) Swap(snap *Snapshot) *Snapshot {
	return r.current.Swap(snap)
}

// Reload loads plugin data from path and installs it on success. On
// failure the active snapshot stays in place.
func (r *Registry) Reload(path string) error {
	snap, err := Load(path)
	if err != nil {
		return err
	}
	r.current.Store(snap)
	return nil
}
