package module

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	uuid "github.com/hashicorp/go-uuid"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
)

// CoreModuleID is the reserved id of the core library itself (spec.md §4.3
// step 5, §3 "Module record"). It is never unloaded by the normal path.
const CoreModuleID = 0

// ManifestResolver is the installation-manifest external collaborator
// (spec.md §4.3 "Lookup for a class by name"): it maps a class name to a
// module path when no loaded module already advertises the class, and is
// consulted only in main/isolated mode.
type ManifestResolver interface {
	Resolve(className string) (path string, ok bool)
}

// Host is the module host (spec.md §4.3). It resolves relative paths
// against a fixed search-path order, loads and unloads shared libraries,
// and tracks per-module live object counts.
type Host struct {
	mu         sync.Mutex
	logger     hclog.Logger
	coreDir    string
	execDir    string
	searchDirs []string

	nextID int
	byID   map[int]*Record
	byPath map[string]int // resolved absolute path -> id
	loadOrder []int
}

// NewHost constructs a Host. coreDir is the core library's own directory
// (search order step a) and execDir is the hosting executable's directory
// (step b); both participate in relative-path resolution (spec.md §4.3
// step 1).
func NewHost(logger hclog.Logger, coreDir, execDir string) *Host {
	h := &Host{
		logger:  logger.Named("module"),
		coreDir: coreDir,
		execDir: execDir,
		nextID:  CoreModuleID + 1,
		byID:    map[int]*Record{},
		byPath:  map[string]int{},
	}
	h.byID[CoreModuleID] = &Record{ID: CoreModuleID, Path: "<core>", Invalid: false}
	return h
}

// AddSearchDir appends a directory to search-path step (c).
func (h *Host) AddSearchDir(dir string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searchDirs = append(h.searchDirs, dir)
}

// resolvePath implements spec.md §4.3 step 1's search order: core
// library's directory, executable directory, explicitly added search dirs,
// then an empty path defers entirely to the OS loader's own rules.
func (h *Host) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	candidates := make([]string, 0, 2+len(h.searchDirs)+1)
	if h.coreDir != "" {
		candidates = append(candidates, filepath.Join(h.coreDir, path))
	}
	if h.execDir != "" {
		candidates = append(candidates, filepath.Join(h.execDir, path))
	}
	for _, d := range h.searchDirs {
		candidates = append(candidates, filepath.Join(d, path))
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	// Step (d): empty path, defer to the OS loader (plugin.Open will
	// resolve path as given, typically relative to the working directory).
	return path
}

// LoadFactory registers an already-constructed Factory directly, bypassing
// plugin.Open entirely. This is how the core library's own built-in
// classes (if any) join the same id space the dynamic loader populates
// (spec.md §4.3's module record applies equally to them), and it gives
// anything embedding this core a way to ship a class statically linked
// into the host binary rather than as a separate shared object.
func (h *Host) LoadFactory(path string, factory Factory) int {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.mu.Unlock()

	classes, err := classesAcrossWire(factory.ListClasses())
	if err != nil {
		// A factory's class list that cannot round-trip through the POD
		// wire codec cannot cross the boundary at all; registering it with
		// its in-process list would let a non-POD shape slip through for
		// in-process factories alone.
		classes = nil
	}
	rec := &Record{ID: id, Path: path, ConfiguredPath: path, Factory: factory, Classes: classes}
	h.retain(id, path, rec)
	h.logger.Info("module registered in-process", "path", path, "id", id, "classes", len(rec.Classes))
	return id
}

// Load implements spec.md §4.3's load algorithm.
func (h *Host) Load(path string) (int, error) {
	h.mu.Lock()
	resolved := h.resolvePath(path)
	if id, ok := h.byPath[resolved]; ok {
		rec := h.byID[id]
		h.mu.Unlock()
		if rec != nil && rec.Invalid {
			// spec.md §4.3 step 3: a retained invalid record lets repeated
			// loads observe the same failure without re-mapping, not a
			// pretend success.
			h.logger.Debug("load is idempotent, retained record is invalid", "path", resolved, "id", id)
			return 0, rec.LoadErr
		}
		h.logger.Debug("load is idempotent, module already loaded", "path", resolved, "id", id)
		return id, nil
	}
	id := h.nextID
	h.nextID++
	h.mu.Unlock()

	tag, _ := uuid.GenerateUUID()
	pHandle, factoryHandle, err := openLibrary(resolved)
	rec := &Record{ID: id, Path: resolved, ConfiguredPath: path, handle: pHandle}

	if err != nil {
		rec.Invalid = true
		rec.LoadErr = fmt.Errorf("%s: %w", err.Error(), sdverrors.ErrModuleLoadFailed)
		h.retain(id, resolved, rec)
		h.logger.Error("module load failed, retaining invalid record", "path", resolved, "id", id, "correlation", tag, "error", err)
		return 0, rec.LoadErr
	}

	factory, ok := capability.Get[Factory](factoryHandle, FactoryCapabilityID)
	if !ok || factory == nil {
		rec.Invalid = true
		rec.LoadErr = fmt.Errorf("module %s did not expose the factory capability: %w", resolved, sdverrors.ErrModuleFactoryMissing)
		h.retain(id, resolved, rec)
		h.logger.Error("module factory missing", "path", resolved, "id", id)
		return 0, rec.LoadErr
	}

	classes, err := classesAcrossWire(factory.ListClasses())
	if err != nil {
		rec.Invalid = true
		rec.LoadErr = fmt.Errorf("module %s returned a non-POD class list: %w", resolved, sdverrors.ErrModuleLoadFailed)
		h.retain(id, resolved, rec)
		h.logger.Error("module class list failed the wire round trip", "path", resolved, "id", id, "error", err)
		return 0, rec.LoadErr
	}

	rec.Factory = factory
	rec.FactoryHandle = factoryHandle
	rec.Classes = classes
	h.retain(id, resolved, rec)
	h.logger.Info("module loaded", "path", resolved, "id", id, "classes", len(rec.Classes), "correlation", tag)
	return id, nil
}

func (h *Host) retain(id int, resolvedPath string, rec *Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byID[id] = rec
	h.byPath[resolvedPath] = id
	h.loadOrder = append(h.loadOrder, id)
}

// Unload implements spec.md §4.3's unload algorithm.
func (h *Host) Unload(id int, force bool) bool {
	if id == CoreModuleID {
		return true // refuse, but always report success: the core is never unloaded.
	}
	h.mu.Lock()
	rec, ok := h.byID[id]
	h.mu.Unlock()
	if !ok {
		return false
	}
	if rec.HasActiveObjects() && !force {
		h.logger.Warn("unload refused, module has active objects", "id", id, "live", rec.LiveCount())
		return false
	}
	h.mu.Lock()
	delete(h.byID, id)
	delete(h.byPath, rec.Path)
	for i, lid := range h.loadOrder {
		if lid == id {
			h.loadOrder = append(h.loadOrder[:i], h.loadOrder[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	h.logger.Info("module unloaded", "id", id, "forced", force)
	// rec.handle is intentionally dropped without any unmap call: see the
	// pluginHandle doc comment for why that is unavoidable in Go.
	return true
}

// UnloadAll unloads every loaded module in reverse load order, skipping any
// id present in ignore (spec.md §4.3 "Unload-all").
func (h *Host) UnloadAll(ignore map[int]bool, force bool) {
	h.mu.Lock()
	order := append([]int(nil), h.loadOrder...)
	h.mu.Unlock()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if ignore[id] {
			continue
		}
		h.Unload(id, force)
	}
}

// FindClass searches loaded modules in load order for className, returning
// the first match.
func (h *Host) FindClass(className string) (moduleID int, desc object.ClassDescriptor, ok bool) {
	h.mu.Lock()
	order := append([]int(nil), h.loadOrder...)
	h.mu.Unlock()
	for _, id := range order {
		h.mu.Lock()
		rec := h.byID[id]
		h.mu.Unlock()
		if rec == nil || rec.Invalid {
			continue
		}
		if d, found := rec.ClassByName(className); found {
			return id, d, true
		}
	}
	return 0, object.ClassDescriptor{}, false
}

// LookupClass implements spec.md §4.3's "Lookup for a class by name": search
// loaded modules first; if not found and manifest is non-nil (the caller is
// responsible for only passing one in main/isolated mode), consult it, load
// the referenced module, and search again.
func (h *Host) LookupClass(className string, manifest ManifestResolver) (moduleID int, desc object.ClassDescriptor, err error) {
	if id, d, ok := h.FindClass(className); ok {
		return id, d, nil
	}
	if manifest == nil {
		return 0, object.ClassDescriptor{}, fmt.Errorf("class %q: %w", className, sdverrors.ErrClassNotFound)
	}
	path, ok := manifest.Resolve(className)
	if !ok {
		return 0, object.ClassDescriptor{}, fmt.Errorf("class %q: %w", className, sdverrors.ErrClassNotFound)
	}
	id, loadErr := h.Load(path)
	if loadErr != nil {
		return 0, object.ClassDescriptor{}, fmt.Errorf("class %q via manifest %s: %w", className, path, loadErr)
	}
	if d, found := h.FindClass(className); found {
		return id, d, nil
	}
	return 0, object.ClassDescriptor{}, fmt.Errorf("class %q: manifest module %s did not expose it: %w", className, path, sdverrors.ErrClassNotFound)
}

// CreateObject asks the module's factory to instantiate className, encoding
// the config string through the same msgpack wire discipline every other
// module-ABI payload uses (module/wire.go) before handing it to the
// factory - the module itself decodes it on its side of the boundary via
// DecodeConfig - and updates the module's live object count on success.
func (h *Host) CreateObject(moduleID int, className, instanceName, config string) (capability.Handle, error) {
	h.mu.Lock()
	rec := h.byID[moduleID]
	h.mu.Unlock()
	if rec == nil || rec.Factory == nil {
		return capability.NullHandle, fmt.Errorf("module %d: %w", moduleID, sdverrors.ErrModuleNotFound)
	}
	wire, err := EncodeConfig(config)
	if err != nil {
		return capability.NullHandle, err
	}
	handle, err := rec.Factory.Create(className, instanceName, wire)
	if err != nil {
		return capability.NullHandle, err
	}
	if !handle.IsNull() {
		rec.incrLive()
	}
	return handle, nil
}

// ReleaseObject decrements the owning module's live object count
// (spec.md §4.4 Destroy step 3).
func (h *Host) ReleaseObject(moduleID int) {
	h.mu.Lock()
	rec := h.byID[moduleID]
	h.mu.Unlock()
	if rec != nil {
		rec.decrLive()
	}
}

// Record returns the module record for id, if any.
func (h *Host) Record(id int) (*Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.byID[id]
	return rec, ok
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
