// Package module implements the dynamic module host (spec.md §4.3): loading
// a shared library, retrieving its factory, listing the classes it exports,
// instantiating objects from it, and tracking per-module live object counts
// so unload only happens when it is safe.
package module

import (
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
)

// FactoryCapabilityID is the capability id a module's exported factory
// handle must expose (spec.md §6 "Module ABI").
var FactoryCapabilityID = capability.DeriveID("sdv.core.ModuleFactory")

// Info describes the module itself, returned by Factory.ModuleInfo
// (spec.md §6 "get-module-info").
type Info struct {
	Name    string
	Version string
	BuildID string
}

// Factory is the capability every module's factory symbol exposes
// (spec.md §4.3 "Contract on each module"). Create's config parameter is
// the msgpack-encoded wire form (module/wire.go's EncodeConfig), not the
// plain string: even though Go's plugin mechanism shares an address space,
// this keeps every module bound to the same POD wire discipline spec.md §9
// requires of everything that crosses the boundary, rather than only
// enforcing it for the class list. Each module decodes it with
// module.DecodeConfig before use.
type Factory interface {
	ModuleInfo() Info
	HasActiveObjects() bool
	ListClasses() []object.ClassDescriptor
	Create(className, instanceName string, config []byte) (capability.Handle, error)
}

// FactoryFunc is the signature of the single symbol every module exports.
// Its name on the wire is fixed by SPEC_FULL.md §13: "SDVModuleFactory".
type FactoryFunc func() capability.Handle

// ExportedSymbolName is the name every module's shared library must export,
// resolved via plugin.Lookup. Go's plugin package, not any third-party
// library, is the mechanism for mapping the library and resolving this
// symbol (SPEC_FULL.md §13): it is the only thing in the module's process
// that genuinely crosses a separately-compiled-and-loaded boundary, so it is
// where the POD/wire discipline in spec.md §9 actually matters.
const ExportedSymbolName = "SDVModuleFactory"
