// Package config decodes the startup configuration TOML document
// (spec.md §6) into the structures the application controller needs:
// [LogHandler], [Application], and [Console] sections, plus the persisted
// per-instance Settings file (module system-config list, optional
// app-config path, and a Settings.Version compatibility check).
package config

import (
	"fmt"
	"strconv"

	hcversion "github.com/hashicorp/go-version"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/toml"
)

// CurrentSettingsVersion is the Settings schema version this build
// understands (spec.md §6 "Settings.Version").
const CurrentSettingsVersion = "1.0.0"

// MinRetries and MaxRetries bound Application.Retries (spec.md §6:
// "clamped to [3,30]").
const (
	MinRetries = 3
	MaxRetries = 30
)

// DefaultInstance is Application.Instance's default when the field is
// absent (spec.md §6 "default 1000").
const DefaultInstance = 1000

// LogHandler is the [LogHandler] section (spec.md §6): the custom logger
// class and module path, the program tag, and the two severity filters
// applied once the logger service is instantiated.
type LogHandler struct {
	Class      string
	Path       string
	Tag        string
	Filter     string
	ViewFilter string
}

// Application is the [Application] section (spec.md §6): the operating
// mode, instance id, retry count, install directory, and an optional
// config path overriding the persisted Settings.AppConfig.
type Application struct {
	Mode       string // "Standalone"|"External"|"Isolated"|"Main"|"Essential"|"Maintenance"
	Instance   uint32 // default 1000
	Retries    uint32 // clamped to [3,30]
	InstallDir string
	Config     string // overrides settings.toml's AppConfig, disables auto-save
}

// Console is the [Console] section (spec.md §6).
type Console struct {
	Report string // "Silent"|"Normal"|"Verbose"
}

// Startup is the fully decoded startup configuration document.
type Startup struct {
	LogHandler  LogHandler
	Application Application
	Console     Console
}

// ParseStartup parses src as the startup configuration TOML and decodes the
// three known top-level sections. Missing sections decode to their zero
// value; nothing here is required, matching spec.md's permissive startup
// parse. Application.Instance defaults to DefaultInstance and
// Application.Retries is clamped to [MinRetries, MaxRetries] when present.
func ParseStartup(src string) (*Startup, error) {
	tree, err := toml.Parse(src)
	if err != nil {
		return nil, err
	}
	s := &Startup{}
	if n := tree.Root.Get("LogHandler"); n != nil {
		s.LogHandler.Class = stringField(n, "Class")
		s.LogHandler.Path = stringField(n, "Path")
		s.LogHandler.Tag = stringField(n, "Tag")
		s.LogHandler.Filter = stringField(n, "Filter")
		s.LogHandler.ViewFilter = stringField(n, "ViewFilter")
	}
	if n := tree.Root.Get("Application"); n != nil {
		s.Application.Mode = stringField(n, "Mode")
		s.Application.InstallDir = stringField(n, "InstallDir")
		s.Application.Config = stringField(n, "Config")
		if v, ok := intField(n, "Instance"); ok {
			s.Application.Instance = uint32(v)
		}
		if v, ok := intField(n, "Retries"); ok {
			s.Application.Retries = clampRetries(uint32(v))
		}
	}
	if s.Application.Instance == 0 {
		s.Application.Instance = DefaultInstance
	}
	if n := tree.Root.Get("Console"); n != nil {
		s.Console.Report = stringField(n, "Report")
	}
	return s, nil
}

func clampRetries(v uint32) uint32 {
	if v < MinRetries {
		return MinRetries
	}
	if v > MaxRetries {
		return MaxRetries
	}
	return v
}

// Settings is the persisted per-instance settings document (spec.md §6):
// a schema version, the ordered list of system module paths to load at
// startup, and an optional path to a further application-supplied config
// document.
type Settings struct {
	Version      string
	SystemConfig []string
	AppConfig    string
}

// ParseSettings parses src as the Settings TOML document and checks its
// Version against CurrentSettingsVersion (spec.md §6: a settings file
// from an incompatible schema version must be rejected, not silently
// misread).
func ParseSettings(src string) (*Settings, error) {
	tree, err := toml.Parse(src)
	if err != nil {
		return nil, err
	}
	s := &Settings{
		Version:   stringField(tree.Root, "Version"),
		AppConfig: stringField(tree.Root, "AppConfig"),
	}
	if n := tree.Root.Get("SystemConfig"); n != nil && n.Kind == toml.KindArray {
		for _, c := range n.Children {
			if c.Kind == toml.KindString {
				if v, ok := c.Value.(string); ok {
					s.SystemConfig = append(s.SystemConfig, v)
				}
			}
		}
	}
	if err := checkVersion(s.Version); err != nil {
		return s, err
	}
	return s, nil
}

func checkVersion(raw string) error {
	if raw == "" {
		return fmt.Errorf("settings file has no Version field: %w", sdverrors.ErrInvalidState)
	}
	got, err := hcversion.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("settings Version %q is not a valid version: %w", raw, sdverrors.ErrInvalidState)
	}
	want, _ := hcversion.NewVersion(CurrentSettingsVersion)
	if got.Segments()[0] != want.Segments()[0] {
		return fmt.Errorf("settings Version %s is incompatible with supported major version %s: %w", got, want, sdverrors.ErrInvalidState)
	}
	return nil
}

func stringField(n *toml.Node, key string) string {
	c := n.Get(key)
	if c == nil || c.Kind != toml.KindString {
		return ""
	}
	v, _ := c.Value.(string)
	return v
}

func intField(n *toml.Node, key string) (int64, bool) {
	c := n.Get(key)
	if c == nil {
		return 0, false
	}
	if c.Kind == toml.KindInteger {
		if v, ok := c.Value.(int64); ok {
			return v, true
		}
	}
	// Tolerate a quoted integer (e.g. Instance = "1234") since nothing in
	// spec.md §6 forbids it and the TOML decoder otherwise has no numeric
	// string coercion.
	if c.Kind == toml.KindString {
		if v, ok := c.Value.(string); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
