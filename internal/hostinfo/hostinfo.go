// Package hostinfo logs a one-time host fingerprint at startup (SPEC_FULL.md
// §11): OS, CPU count, and hostname, purely as diagnostic context with no
// behavioral effect on the runtime.
package hostinfo

import (
	hclog "github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
)

// LogFingerprint queries the host once and emits a single Info record
// summarizing it. Errors from the underlying gopsutil calls are logged at
// Debug and otherwise swallowed - a fingerprint is a convenience, not
// something startup should ever fail over.
func LogFingerprint(logger hclog.Logger) {
	info, err := host.Info()
	if err != nil {
		logger.Debug("host fingerprint unavailable", "error", err)
		return
	}
	cpuCount, err := cpu.Counts(true)
	if err != nil {
		cpuCount = 0
	}
	logger.Info("host fingerprint",
		"hostname", info.Hostname,
		"os", info.OS,
		"platform", info.Platform,
		"platform_version", info.PlatformVersion,
		"kernel_version", info.KernelVersion,
		"cpus", cpuCount,
		"uptime_seconds", info.Uptime,
	)
}
