// Package sdverrors defines the closed set of error kinds the core runtime
// reports across the module ABI, the repository, and the application
// controller. Components never throw across those boundaries; they return
// one of these sentinels, usually wrapped with %w so callers can use
// errors.Is without caring about the wrapping text.
package sdverrors

import "errors"

// Sentinel error kinds, one per spec.md §7 entry.
var (
	ErrModuleNotFound      = errors.New("module not found")
	ErrModuleLoadFailed    = errors.New("module load failed")
	ErrModuleFactoryMissing = errors.New("module factory missing")
	ErrClassNotFound       = errors.New("class not found")
	ErrSingletonViolated   = errors.New("singleton violated")
	ErrDependencyCycle     = errors.New("dependency cycle")
	ErrInitializationFailed = errors.New("initialization failed")
	ErrShutdownInProgress  = errors.New("shutdown in progress")
	ErrInvalidState        = errors.New("invalid state")
	ErrAccessDenied        = errors.New("access denied")
	ErrTOMLParse           = errors.New("toml parse error")
	ErrTOMLInvalidOperation = errors.New("toml invalid operation")
)
