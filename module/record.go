package module

import (
	"sync/atomic"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
)

// Record is the module record from spec.md §3: "(numeric-id, absolute-path,
// configured-path, factory-handle, live-object-count, class-list)".
type Record struct {
	ID             int
	Path           string // resolved absolute path
	ConfiguredPath string // as requested by the caller, before resolution
	FactoryHandle  capability.Handle
	Factory        Factory
	Classes        []object.ClassDescriptor

	// Invalid is set when the library failed to map, did not export the
	// factory symbol, or returned a class list that failed the wire round
	// trip. The record is retained so repeated Load calls
	// observe the same failure without re-attempting the OS-level map
	// (spec.md §4.3 step 3).
	Invalid  bool
	LoadErr  error
	handle   pluginHandle // closes over plugin.Plugin; zero value for core records and for libraries that failed to map
	liveCnt  int64
}

// LiveCount returns the number of objects the repository has created from
// this module and not yet destroyed.
func (r *Record) LiveCount() int64 { return atomic.LoadInt64(&r.liveCnt) }

func (r *Record) incrLive() { atomic.AddInt64(&r.liveCnt, 1) }
func (r *Record) decrLive() { atomic.AddInt64(&r.liveCnt, -1) }

// HasActiveObjects combines the host's own tracked live count with the
// module's self-reported state, so a module that created background
// objects outside the repository's Create path (unusual, but the ABI
// contract in spec.md §4.3 allows it since has-active-objects() is the
// module's own call) still blocks an unforced unload.
func (r *Record) HasActiveObjects() bool {
	if r.LiveCount() > 0 {
		return true
	}
	if r.Factory != nil {
		return r.Factory.HasActiveObjects()
	}
	return false
}

// ClassByName searches this record's class list the way
// object.ClassDescriptor.Matches does, returning the matching descriptor.
func (r *Record) ClassByName(name string) (object.ClassDescriptor, bool) {
	for _, c := range r.Classes {
		if c.Matches(name) {
			return c, true
		}
	}
	return object.ClassDescriptor{}, false
}
