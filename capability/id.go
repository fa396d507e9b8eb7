// Package capability implements the core's capability-query primitives:
// a stable 64-bit id per capability set (spec.md §3 "Capability id") and a
// type-erased, weak handle pair (id, pointer) used to carry a capability
// across an interface-map lookup (spec.md §4.1).
package capability

import (
	"fmt"

	"github.com/mitchellh/hashstructure"
)

// ID is the stable 64-bit identifier of a capability set. Ids are unique
// within a process; the zero value denotes "no capability".
type ID uint64

// NilID is the null capability id.
const NilID ID = 0

// qualifiedName is hashed, not the capability's Go type, because the
// capability-id boundary crosses shared-library loads where two independent
// compilations of "the same" interface must still agree on its id (spec.md
// §3: "Ids are generated offline or from a stable hash of a fully qualified
// name").
type qualifiedName struct {
	Name string
}

// DeriveID computes a capability id from a fully qualified capability name,
// e.g. "sdv.core.Lifecycle" or "vehicle.powertrain.TorqueRequest/v1". The
// hash is stable across processes and across module boundaries, which is
// the property spec.md §3 requires of generated ids.
func DeriveID(fullyQualifiedName string) ID {
	h, err := hashstructure.Hash(qualifiedName{Name: fullyQualifiedName}, nil)
	if err != nil {
		// hashstructure only fails on unsupported field types; qualifiedName
		// is a single string field, so this is unreachable in practice.
		panic(fmt.Sprintf("capability: could not derive id for %q: %v", fullyQualifiedName, err))
	}
	id := ID(h)
	if id == NilID {
		// Vanishingly unlikely, but NilID is reserved for "no capability".
		id = ID(1)
	}
	return id
}

func (id ID) String() string {
	return fmt.Sprintf("0x%016x", uint64(id))
}
