package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStartupDecodesKnownSections(t *testing.T) {
	src := `[LogHandler]
Class = "log.Handler"
Path = "log.so"
Tag = "vehicle-main"
Filter = "Info"
ViewFilter = "Warning"

[Application]
Mode = "Main"
Instance = 42
Retries = 100
InstallDir = "/opt/sdv"
Config = "app-override.toml"

[Console]
Report = "Verbose"
`
	s, err := ParseStartup(src)
	require.NoError(t, err)
	require.Equal(t, "log.Handler", s.LogHandler.Class)
	require.Equal(t, "log.so", s.LogHandler.Path)
	require.Equal(t, "vehicle-main", s.LogHandler.Tag)
	require.Equal(t, "Info", s.LogHandler.Filter)
	require.Equal(t, "Warning", s.LogHandler.ViewFilter)
	require.Equal(t, "Main", s.Application.Mode)
	require.Equal(t, uint32(42), s.Application.Instance)
	require.Equal(t, uint32(MaxRetries), s.Application.Retries) // 100 clamped to 30
	require.Equal(t, "/opt/sdv", s.Application.InstallDir)
	require.Equal(t, "app-override.toml", s.Application.Config)
	require.Equal(t, "Verbose", s.Console.Report)
}

func TestParseStartupMissingSectionsAreZeroValue(t *testing.T) {
	s, err := ParseStartup("")
	require.NoError(t, err)
	require.Empty(t, s.Application.Mode)
	require.Empty(t, s.Console.Report)
	require.Equal(t, uint32(DefaultInstance), s.Application.Instance)
}

func TestParseStartupRetriesClampedToLowerBound(t *testing.T) {
	s, err := ParseStartup("[Application]\nRetries = 1\n")
	require.NoError(t, err)
	require.Equal(t, uint32(MinRetries), s.Application.Retries)
}

func TestParseSettingsVersionCompatible(t *testing.T) {
	src := `Version = "1.2.3"
SystemConfig = ["core.so", "powertrain.so"]
AppConfig = "app.toml"
`
	s, err := ParseSettings(src)
	require.NoError(t, err)
	require.Equal(t, []string{"core.so", "powertrain.so"}, s.SystemConfig)
	require.Equal(t, "app.toml", s.AppConfig)
}

func TestParseSettingsIncompatibleMajorVersionRejected(t *testing.T) {
	src := `Version = "2.0.0"
SystemConfig = []
`
	_, err := ParseSettings(src)
	require.Error(t, err)
}

func TestParseSettingsMissingVersionRejected(t *testing.T) {
	_, err := ParseSettings("SystemConfig = []\n")
	require.Error(t, err)
}
