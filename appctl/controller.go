// Package appctl implements the application controller (spec.md §4.5): the
// top-level state machine that takes a process from "not started" through
// initialization, into configuring/running, and back down through an
// orderly shutdown, wiring the module host and object repository together
// and applying the mode matrix's restrictions along the way.
package appctl

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/LK4D4/joincontext"
	hclog "github.com/hashicorp/go-hclog"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/config"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/instancelock"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/internal/hostinfo"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/internal/logsink"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/module"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/repository"
	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
)

// State is the controller's own top-level status, distinct from (and
// coarser than) any individual object's Status (spec.md §4.5).
type State int

const (
	StateNotStarted State = iota
	StateInitializing
	StateInitialized
	StateConfiguring
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

// EventSink receives lifecycle notifications the controller emits along
// the way (spec.md §4.5: "an event sink parameter" to Startup), such as
// "running-loop" on every run-loop iteration. Implementations must not
// block.
type EventSink interface {
	OnEvent(name string, fields map[string]interface{})
}

// NoopSink discards every event; the zero value is ready to use.
type NoopSink struct{}

func (NoopSink) OnEvent(string, map[string]interface{}) {}

// modeProfile captures what the mode matrix (spec.md §4.5) controls per
// Application.Mode: whether the mode uses installation manifests for class
// lookup misses (recorded only: Startup installs no manifest resolver in any
// mode), whether the application config module is loaded, and whether this
// instance expects
// to act as an RPC client, server, both, or neither. RPC itself is outside
// this core's scope (spec.md §1 Non-goals); the flags exist so a transport
// layer built on top of this package has somewhere authoritative to read
// them from.
type modeProfile struct {
	useManifest        bool
	allowModuleLoading bool
	rpcServer          bool
	rpcClient          bool
}

// DefaultMode is Application.Mode's value when the field is absent
// (spec.md §6: "Mode = \"Standalone\" (default)").
const DefaultMode = "Standalone"

// CoreServicesModulePath names the reserved, core-shipped module spec.md
// §4.5 step 5 loads unconditionally. A real deployment installs this
// alongside the executable; tests and embedders that statically link the
// core services classes into the binary register them instead with
// SetCoreServicesFactory, so Startup never attempts the dynamic load.
const CoreServicesModulePath = "sdv_core_services"

var modeProfiles = map[string]modeProfile{
	"Standalone":  {useManifest: false, allowModuleLoading: true},
	"External":    {useManifest: false, allowModuleLoading: true, rpcClient: true},
	"Isolated":    {useManifest: true, allowModuleLoading: false, rpcClient: true},
	"Main":        {useManifest: true, allowModuleLoading: true, rpcServer: true},
	"Essential":   {useManifest: false, allowModuleLoading: true},
	"Maintenance": {useManifest: false, allowModuleLoading: false, rpcClient: true},
}

// Controller is the application controller. The zero value is not usable;
// construct with New.
type Controller struct {
	mu     sync.Mutex
	state  State
	logger hclog.Logger
	early  *logsink.Buffer

	host *module.Host
	repo *repository.Repository
	lock *instancelock.Lock
	mode modeProfile

	coreServicesFactory module.Factory

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	cancelJoin   context.CancelFunc
	atExit       []func()
}

// New constructs a Controller. Logging before Startup completes is
// buffered (spec.md §4.5 step 1) and replayed once the real logger exists.
func New() *Controller {
	return &Controller{
		early:      logsink.New("appctl", 256),
		shutdownCh: make(chan struct{}),
	}
}

// Logger returns the logger Startup created, or nil before Startup has
// created it.
func (c *Controller) Logger() hclog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// SetCoreServicesFactory registers the core services classes (spec.md §4.5
// step 5) as an in-process factory instead of a dynamically loaded module.
// Call before Startup. When unset, Startup loads CoreServicesModulePath
// from disk the same way any other module is loaded.
func (c *Controller) SetCoreServicesFactory(f module.Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coreServicesFactory = f
}

// Startup implements spec.md §4.5's startup sequence: parse the startup
// TOML, resolve the mode and instance id (an unrecognized mode fails
// startup), take the instance lock for main, attach the real logger and
// replay anything buffered, log the host fingerprint, build the module
// host and repository, load the reserved core services module (fatal on
// failure) and the optional custom logger module, then load every module
// named in the instance's persisted Settings (main only, any failure
// fatal) followed by the application-specific config (partial failure
// tolerated). ctx is joined with the controller's own shutdown signal so a
// caller-initiated cancellation and RequestShutdown behave identically to
// whatever is blocked on the returned context.
func (c *Controller) Startup(ctx context.Context, startupTOML, settingsTOML, lockDir string, sink EventSink) (context.Context, error) {
	c.mu.Lock()
	if c.state != StateNotStarted {
		c.mu.Unlock()
		return nil, fmt.Errorf("startup called in state %s: %w", c.state, sdverrors.ErrInvalidState)
	}
	c.state = StateInitializing
	c.mu.Unlock()

	joined, cancel := joincontext.Join(ctx, c.shutdownContext())
	c.mu.Lock()
	c.cancelJoin = cancel
	c.mu.Unlock()

	startup, err := config.ParseStartup(startupTOML)
	if err != nil {
		return joined, fmt.Errorf("parsing startup config: %w", err)
	}

	mode := startup.Application.Mode
	if mode == "" {
		mode = DefaultMode
	}
	profile, ok := modeProfiles[mode]
	if !ok {
		return joined, fmt.Errorf("application mode %q: %w", mode, sdverrors.ErrInvalidState)
	}

	instance := startup.Application.Instance
	if instance == 0 {
		instance = config.DefaultInstance
	}

	var lock *instancelock.Lock
	if mode == "Main" {
		lockPath := fmt.Sprintf("%s/sdv_core_%d.lock", lockDir, instance)
		lock, err = instancelock.Acquire(lockPath)
		if err != nil {
			return joined, fmt.Errorf("acquiring instance lock for instance %d: %w", instance, err)
		}
	}

	loggerName := startup.LogHandler.Tag
	if loggerName == "" {
		loggerName = fmt.Sprintf("sdv-instance-%d", instance)
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: loggerName, Level: hclog.Info})

	c.mu.Lock()
	c.logger = logger
	c.mode = profile
	c.lock = lock
	c.mu.Unlock()
	c.early.Replay(logger)

	hostinfo.LogFingerprint(logger)

	execDir, _ := os.Getwd()
	host := module.NewHost(logger, execDir, execDir)
	repo := repository.New(logger, host)

	// Step 5: core services module. Reserved and mandatory; a failure here
	// is fatal to Startup (spec.md §4.5 step 5).
	if c.coreServicesFactory != nil {
		host.LoadFactory(CoreServicesModulePath, c.coreServicesFactory)
	} else if _, err := host.Load(CoreServicesModulePath); err != nil {
		if lock != nil {
			lock.Release()
		}
		return joined, fmt.Errorf("loading core services module: %w", err)
	}

	// Step 6: optional custom logger module. Unlike step 5, its absence or
	// failure is not fatal - the built-in logger keeps running.
	if startup.LogHandler.Path != "" {
		if _, err := host.Load(startup.LogHandler.Path); err != nil {
			logger.Warn("custom logger module failed to load", "path", startup.LogHandler.Path, "error", err)
		} else if startup.LogHandler.Class != "" {
			loggerConfig := fmt.Sprintf("Filter=%s;ViewFilter=%s", startup.LogHandler.Filter, startup.LogHandler.ViewFilter)
			if _, err := repo.Create(startup.LogHandler.Class, "", loggerConfig); err != nil {
				logger.Warn("custom logger service failed to initialize", "class", startup.LogHandler.Class, "error", err)
			}
		}
	}

	// Step 8: settings-listed system modules load only for main, and any
	// failure there aborts startup; the application-specific config that
	// follows is allowed to be only partially successful.
	if settingsTOML != "" {
		settings, err := config.ParseSettings(settingsTOML)
		if err != nil {
			if lock != nil {
				lock.Release()
			}
			return joined, fmt.Errorf("parsing settings: %w", err)
		}
		if mode == "Main" {
			for _, path := range settings.SystemConfig {
				if _, err := host.Load(path); err != nil {
					if lock != nil {
						lock.Release()
					}
					return joined, fmt.Errorf("loading system module %s: %w", path, err)
				}
			}
		}

		appConfig := startup.Application.Config
		if appConfig == "" {
			appConfig = settings.AppConfig
		}
		if appConfig != "" && profile.allowModuleLoading {
			if _, err := host.Load(appConfig); err != nil {
				logger.Warn("application-specific config module failed to load", "path", appConfig, "error", err)
			}
		}
	} else if !profile.allowModuleLoading {
		logger.Info("module loading suppressed by application mode", "mode", mode)
	}

	c.mu.Lock()
	c.host = host
	c.repo = repo
	c.state = StateInitialized
	c.mu.Unlock()

	if sink == nil {
		sink = NoopSink{}
	}
	sink.OnEvent("initialized", map[string]interface{}{"instance": instance, "mode": mode})
	return joined, nil
}

func (c *Controller) shutdownContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c.shutdownCh
		cancel()
	}()
	return ctx
}

// Repository returns the object repository built during Startup.
func (c *Controller) Repository() *repository.Repository {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repo
}

// Host returns the module host built during Startup.
func (c *Controller) Host() *module.Host {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

// SetConfigMode drives every live object to Configuring (spec.md §4.5
// "Set-config-mode").
func (c *Controller) SetConfigMode() error {
	c.mu.Lock()
	if c.state != StateInitialized && c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("set-config-mode called in state %s: %w", state, sdverrors.ErrInvalidState)
	}
	c.state = StateConfiguring
	repo := c.repo
	c.mu.Unlock()
	repo.SetConfigMode()
	return nil
}

// SetRunningMode drives every live object to Running (spec.md §4.5
// "Set-running-mode").
func (c *Controller) SetRunningMode() error {
	c.mu.Lock()
	if c.state != StateInitialized && c.state != StateConfiguring {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("set-running-mode called in state %s: %w", state, sdverrors.ErrInvalidState)
	}
	c.state = StateRunning
	repo := c.repo
	c.mu.Unlock()
	repo.SetRunningModeAll()
	return nil
}

// RequestShutdown asynchronously signals the run loop (and anyone holding
// the joined context from Startup) to stop; it never blocks (spec.md §4.5:
// "request-shutdown only raises the flag, the actual teardown happens on
// the controller's own thread").
func (c *Controller) RequestShutdown() {
	c.shutdownOnce.Do(func() { close(c.shutdownCh) })
}

// ShutdownRequested reports whether RequestShutdown has been called.
func (c *Controller) ShutdownRequested() bool {
	select {
	case <-c.shutdownCh:
		return true
	default:
		return false
	}
}

// RegisterAtExit records a hook to run during Shutdown, in registration
// order (spec.md §9 "Global state": "an at-exit hook tears down whatever
// the controller built, in the reverse order the original system
// registers them" - run in registration order here since the repository's
// own reverse-insertion teardown already provides the reversal that
// matters for object lifecycles; hooks are for anything built *outside*
// the repository, like the lock file).
func (c *Controller) RegisterAtExit(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.atExit = append(c.atExit, fn)
}

// Shutdown implements spec.md §4.5's shutdown sequence: destroy every
// repository entry in reverse insertion order, unload every module, run
// registered at-exit hooks, and release the instance lock. force is
// forwarded to the module host's unload so modules with objects that
// refused to go away can still be torn down when the caller insists.
func (c *Controller) Shutdown(force bool) {
	c.mu.Lock()
	if c.state == StateShuttingDown {
		c.mu.Unlock()
		return
	}
	c.state = StateShuttingDown
	repo, host, lock, hooks := c.repo, c.host, c.lock, append([]func(){}, c.atExit...)
	cancelJoin := c.cancelJoin
	c.mu.Unlock()

	c.RequestShutdown()
	if cancelJoin != nil {
		cancelJoin()
	}

	if repo != nil {
		repo.DestroyAll(nil)
	}
	if host != nil {
		host.UnloadAll(map[int]bool{module.CoreModuleID: true}, force)
	}
	for _, fn := range hooks {
		fn()
	}
	if lock != nil {
		lock.Release()
	}
}

// RunLoop implements spec.md §4.5's idle run loop: it polls at a fixed
// 2ms interval, emitting a "running-loop" event each iteration, until ctx
// is done or RequestShutdown is called. Typical callers pass the context
// Startup returned, which is already joined with the shutdown signal.
func (c *Controller) RunLoop(ctx context.Context, sink EventSink) {
	if sink == nil {
		sink = NoopSink{}
	}
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdownCh:
			return
		case <-ticker.C:
			sink.OnEvent("running-loop", nil)
		}
	}
}
