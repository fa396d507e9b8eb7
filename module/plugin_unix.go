//go:build linux || darwin

package module

import (
	"fmt"
	"plugin"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
)

// pluginHandle holds the mapped shared library. Go's plugin package never
// exposes a way to unmap a library once plugin.Open has succeeded; there is
// no Close. That is precisely the limitation spec.md §4.3's Unload
// algorithm is written against ("force ... may leak the library mapping to
// avoid use-after-free"): in this implementation every unload leaks the
// mapping, and "force" only changes whether the active-objects check is
// honored first.
type pluginHandle struct {
	p *plugin.Plugin
}

func openLibrary(path string) (pluginHandle, capability.Handle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return pluginHandle{}, capability.NullHandle, fmt.Errorf("plugin.Open(%s): %w", path, err)
	}
	sym, err := p.Lookup(ExportedSymbolName)
	if err != nil {
		return pluginHandle{p: p}, capability.NullHandle, fmt.Errorf("lookup %s in %s: %w", ExportedSymbolName, path, err)
	}
	factory, ok := sym.(func() capability.Handle)
	if !ok {
		return pluginHandle{p: p}, capability.NullHandle, fmt.Errorf("symbol %s in %s has the wrong type", ExportedSymbolName, path)
	}
	return pluginHandle{p: p}, factory(), nil
}
