package object

import (
	"fmt"
	"sync"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
)

// Hooks are the class-specific behaviors a concrete class plugs into Base.
// Base owns the status state machine (spec.md §3 "status"); the class only
// supplies what happens at each transition. This is the idiomatic-Go stand-in
// for the "base class with virtual methods" shape spec.md describes: no
// inheritance, composition plus function fields (Base is always embedded by
// value into the concrete struct, and Self is wired back after
// construction so InterfaceMap entries can type-assert the concrete type).
type Hooks struct {
	// OnInitialize runs the class's own setup against the initialize(...)
	// config string. Returning an error lands the object in
	// StatusInitializationFailure.
	OnInitialize func(config string) error
	// OnShutdown runs the class's own teardown. Errors are logged by the
	// caller but do not block the status transition to
	// StatusDestructionPending: spec.md's repository Destroy algorithm has
	// no path back from shutdown-in-progress.
	OnShutdown func() error
}

// Base is embedded by every class implementing SdvObject. It supplies the
// lifecycle capability (spec.md §4.2) and capability-query dispatch through
// the class's InterfaceMap.
type Base struct {
	mu     sync.Mutex
	status Status
	desc   ClassDescriptor
	hooks  Hooks
	imap   *InterfaceMap
	self   interface{}
}

// Init wires up a freshly embedded Base. self must be the concrete object
// that embeds this Base (used so InterfaceMap entries built against the
// concrete type can type-assert it back out of a Queryable.QueryInterface
// call); imap is the class's shared, pre-built InterfaceMap.
func (b *Base) Init(self interface{}, desc ClassDescriptor, imap *InterfaceMap, hooks Hooks) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.self = self
	b.desc = desc
	b.imap = imap
	b.hooks = hooks
	b.status = StatusInitializationPending
}

// QueryInterface implements Queryable by evaluating the class's InterfaceMap
// against the concrete self that was wired in by Init.
func (b *Base) QueryInterface(id capability.ID) capability.Handle {
	b.mu.Lock()
	self, imap := b.self, b.imap
	b.mu.Unlock()
	return imap.Query(self, id)
}

// Descriptor implements ClassInfo.
func (b *Base) Descriptor() ClassDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.desc
}

// GetStatus implements Lifecycle.
func (b *Base) GetStatus() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Initialize implements Lifecycle. It transitions
// InitializationPending -> Initializing -> {Initialized,
// InitializationFailure}.
func (b *Base) Initialize(config string) error {
	b.mu.Lock()
	if b.status != StatusInitializationPending {
		b.mu.Unlock()
		return fmt.Errorf("initialize called in status %s: %w", b.status, sdverrors.ErrInvalidState)
	}
	b.status = StatusInitializing
	hook := b.hooks.OnInitialize
	b.mu.Unlock()

	var err error
	if hook != nil {
		err = hook(config)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.status = StatusInitializationFailure
		return fmt.Errorf("%s: %w", err.Error(), sdverrors.ErrInitializationFailed)
	}
	b.status = StatusInitialized
	return nil
}

// SetOperationMode implements Lifecycle's configuring<->running toggle. It
// is a no-op error (spec.md §4.4 Set-config-mode/Set-running-mode: "ignoring
// objects whose current status does not support the transition") rather
// than a hard failure, matching how the repository sweeps every live entry
// without aborting on the first object that can't make the jump.
func (b *Base) SetOperationMode(mode OperationMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch mode {
	case ModeRunning:
		if b.status != StatusInitialized && b.status != StatusConfiguring {
			return fmt.Errorf("cannot enter running from %s: %w", b.status, sdverrors.ErrInvalidState)
		}
		b.status = StatusRunning
	case ModeConfiguring:
		if b.status != StatusInitialized && b.status != StatusRunning {
			return fmt.Errorf("cannot enter configuring from %s: %w", b.status, sdverrors.ErrInvalidState)
		}
		b.status = StatusConfiguring
	default:
		return fmt.Errorf("unknown operation mode %d: %w", mode, sdverrors.ErrInvalidState)
	}
	return nil
}

// Shutdown implements Lifecycle. It always succeeds from the caller's
// perspective; a hook failure is returned so the repository can log it, but
// the status still advances to DestructionPending so the repository entry
// can be removed.
func (b *Base) Shutdown() error {
	b.mu.Lock()
	b.status = StatusShutdownInProgress
	hook := b.hooks.OnShutdown
	b.mu.Unlock()

	var err error
	if hook != nil {
		err = hook()
	}

	b.mu.Lock()
	b.status = StatusDestructionPending
	b.mu.Unlock()
	return err
}
