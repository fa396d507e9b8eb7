package object

import "github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"

// Well-known capability ids every object base exposes. They are derived the
// same way a class-specific capability would be (capability.DeriveID), so a
// module built independently of this source tree still agrees on their
// value as long as it hashes the same qualified name.
var (
	LifecycleCapabilityID  = capability.DeriveID("sdv.core.Lifecycle")
	ClassInfoCapabilityID  = capability.DeriveID("sdv.core.ClassInfo")
	AttributesCapabilityID = capability.DeriveID("sdv.core.Attributes")
)

// Lifecycle is the capability every object exposes through its base
// (spec.md §4.2).
type Lifecycle interface {
	Initialize(config string) error
	GetStatus() Status
	SetOperationMode(mode OperationMode) error
	Shutdown() error
}

// ClassInfo is the class-descriptor introspection capability (spec.md
// §4.2).
type ClassInfo interface {
	Descriptor() ClassDescriptor
}

// AttributeFlag is a bit in the flag set returned by Attributes.GetFlags.
type AttributeFlag uint8

const (
	AttrReadOnly AttributeFlag = 1 << iota
	AttrPersistent
	AttrTransient
)

// Attributes is the optional attribute capability (spec.md §4.2). Presence
// is declared by the class (by including AttributesCapabilityID in its
// InterfaceMap), never discovered by reflection.
type Attributes interface {
	GetNames() []string
	Get(name string) (interface{}, bool)
	Set(name string, value interface{}) bool
	GetFlags(name string) AttributeFlag
}
