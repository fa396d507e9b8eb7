//go:build !linux && !darwin

package module

import (
	"fmt"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
)

// pluginHandle is empty on platforms where Go's plugin package is
// unsupported (notably Windows). Module loading there always fails with
// module-load-failed; a vehicle target running this core on such a platform
// is expected to ship every class linked into the core binary itself
// (a deployment choice, not something this package can paper over).
type pluginHandle struct{}

func openLibrary(path string) (pluginHandle, capability.Handle, error) {
	return pluginHandle{}, capability.NullHandle, fmt.Errorf("dynamic module loading is not supported on this platform: %s", path)
}
