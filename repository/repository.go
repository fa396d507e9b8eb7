// Package repository implements the process-global object repository
// (spec.md §4.4): a name -> object table enforcing the lifecycle, singleton
// and default-naming policies, dependency pre-creation, and reverse-order
// teardown.
package repository

import (
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/module"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
)

// entry is the repository entry from spec.md §3: "(instance-name,
// owning-module-id, capability-handle-to-object, insertion-index)".
type entry struct {
	Name           string
	ClassName      string
	ModuleID       int
	Handle         capability.Handle
	Lifecycle      object.Lifecycle
	InsertionIndex int
}

// Repository owns the name -> object table. All mutations are serialized by
// mu; spec.md §4.4 calls for a recursive mutex because Create recurses into
// itself for dependency auto-creation, but this implementation restructures
// that recursion into an internal, already-locked helper
// (createLocked/destroyLocked) instead, which is the more idiomatic Go way
// to get the same serialization without a hand-rolled recursive mutex (see
// DESIGN.md).
type Repository struct {
	mu       sync.Mutex
	host     *module.Host
	logger   hclog.Logger
	manifest module.ManifestResolver

	entries   map[string]*entry
	order     []string // insertion order, for DestroyAll's reversal
	nextIndex int
	creating  map[string]bool // class names currently being auto-created, for cycle detection

	runningMode bool // if true, newly created objects are driven straight to Running
}

// New constructs a Repository bound to host.
func New(logger hclog.Logger, host *module.Host) *Repository {
	return &Repository{
		host:     host,
		logger:   logger.Named("repository"),
		entries:  map[string]*entry{},
		creating: map[string]bool{},
	}
}

// SetManifestResolver installs the installation-manifest fallback used by
// the module host's class lookup (spec.md §4.3). appctl does not call it, so
// a repository built by Startup has no manifest fallback in any mode.
func (r *Repository) SetManifestResolver(m module.ManifestResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest = m
}

// SetRunningMode controls whether subsequently created objects are
// immediately driven to Running (spec.md §4.4 Create step 8).
func (r *Repository) SetRunningMode(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runningMode = running
}

// Create implements spec.md §4.4's Create algorithm.
func (r *Repository) Create(className, instanceName, config string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(className, instanceName, config)
}

func (r *Repository) createLocked(className, instanceName, config string) (string, error) {
	moduleID, desc, err := r.host.LookupClass(className, r.manifest)
	if err != nil {
		return "", err
	}

	effectiveName := instanceName
	if effectiveName == "" {
		effectiveName = desc.DefaultInstanceName
	}
	if effectiveName == "" {
		effectiveName = desc.ClassName
	}

	if desc.Singleton {
		for _, e := range r.entries {
			if e.ClassName == desc.ClassName {
				return "", fmt.Errorf("class %q already has instance %q: %w", desc.ClassName, e.Name, sdverrors.ErrSingletonViolated)
			}
		}
	}

	for _, dep := range desc.Dependencies {
		if err := r.ensureDependencyLocked(dep); err != nil {
			return "", fmt.Errorf("dependency %q of %q: %w", dep, desc.ClassName, err)
		}
	}

	handle, err := r.host.CreateObject(moduleID, desc.ClassName, effectiveName, config)
	if err != nil {
		return "", err
	}
	if handle.IsNull() {
		return "", fmt.Errorf("module refused to create class %q: %w", desc.ClassName, sdverrors.ErrClassNotFound)
	}

	lifecycle, ok := capability.Get[object.Lifecycle](handle, object.LifecycleCapabilityID)
	if !ok || lifecycle == nil {
		r.host.ReleaseObject(moduleID)
		return "", fmt.Errorf("object %q does not expose the lifecycle capability: %w", effectiveName, sdverrors.ErrInitializationFailed)
	}

	if err := lifecycle.Initialize(config); err != nil || lifecycle.GetStatus() != object.StatusInitialized {
		_ = lifecycle.Shutdown()
		r.host.ReleaseObject(moduleID)
		if err == nil {
			err = fmt.Errorf("status after initialize was %s", lifecycle.GetStatus())
		}
		return "", fmt.Errorf("%s: %w", err.Error(), sdverrors.ErrInitializationFailed)
	}

	r.nextIndex++
	e := &entry{
		Name:           effectiveName,
		ClassName:      desc.ClassName,
		ModuleID:       moduleID,
		Handle:         handle,
		Lifecycle:      lifecycle,
		InsertionIndex: r.nextIndex,
	}
	r.entries[effectiveName] = e
	r.order = append(r.order, effectiveName)

	if r.runningMode {
		if err := lifecycle.SetOperationMode(object.ModeRunning); err != nil {
			r.logger.Warn("could not drive freshly created object to running", "name", effectiveName, "error", err)
		}
	}

	r.logger.Info("object created", "name", effectiveName, "class", desc.ClassName, "index", e.InsertionIndex)
	return effectiveName, nil
}

// ensureDependencyLocked implements spec.md §4.4 Create step 4: ensure an
// object of depClass exists and is at least Initialized, auto-creating it
// (recursively) under its default instance name if not, with cycle
// detection via r.creating.
func (r *Repository) ensureDependencyLocked(depClass string) error {
	for _, e := range r.entries {
		if e.ClassName == depClass {
			if e.Lifecycle.GetStatus() == object.StatusInitializationPending || e.Lifecycle.GetStatus() == object.StatusInitializing {
				return fmt.Errorf("dependency %q not yet initialized: %w", depClass, sdverrors.ErrInitializationFailed)
			}
			return nil
		}
	}
	if r.creating[depClass] {
		return fmt.Errorf("class %q: %w", depClass, sdverrors.ErrDependencyCycle)
	}
	r.creating[depClass] = true
	defer delete(r.creating, depClass)

	_, err := r.createLocked(depClass, "", "")
	return err
}

// Destroy implements spec.md §4.4's Destroy algorithm. name may be an
// instance name; destroying a missing entry succeeds silently.
func (r *Repository) Destroy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyLocked(name)
}

func (r *Repository) destroyLocked(name string) error {
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	if err := e.Lifecycle.Shutdown(); err != nil {
		r.logger.Warn("shutdown hook returned an error", "name", name, "error", err)
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.host.ReleaseObject(e.ModuleID)
	r.logger.Info("object destroyed", "name", name, "class", e.ClassName)
	return nil
}

// DestroyAll walks entries in reverse insertion order (spec.md §4.4,
// §5 "Objects are torn down in the exact reverse of the insertion order"),
// skipping any name present in ignore.
func (r *Repository) DestroyAll(ignore map[string]bool) {
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	r.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		if ignore[name] {
			continue
		}
		r.mu.Lock()
		_ = r.destroyLocked(name)
		r.mu.Unlock()
	}
}

// SetConfigMode drives every live entry to Configuring, ignoring objects
// whose current status rejects the transition (spec.md §4.4).
func (r *Repository) SetConfigMode() {
	r.forEachLifecycle(func(l object.Lifecycle) {
		_ = l.SetOperationMode(object.ModeConfiguring)
	})
}

// SetRunningModeAll drives every live entry to Running.
func (r *Repository) SetRunningModeAll() {
	r.forEachLifecycle(func(l object.Lifecycle) {
		_ = l.SetOperationMode(object.ModeRunning)
	})
}

func (r *Repository) forEachLifecycle(fn func(object.Lifecycle)) {
	r.mu.Lock()
	lifecycles := make([]object.Lifecycle, 0, len(r.entries))
	for _, e := range r.entries {
		lifecycles = append(lifecycles, e.Lifecycle)
	}
	r.mu.Unlock()
	for _, l := range lifecycles {
		fn(l)
	}
}

// Lookup returns the capability handle stored for name.
func (r *Repository) Lookup(name string) (capability.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return capability.NullHandle, false
	}
	return e.Handle, true
}

// Names returns every live instance name, in insertion order.
func (r *Repository) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Len reports the number of live entries.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
