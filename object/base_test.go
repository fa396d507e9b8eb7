package object

import (
	"errors"
	"testing"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"
)

type widget struct {
	Base
	initConfig string
	shutdowns  int
}

var widgetGreetID = capability.DeriveID("test.widget.Greet")

var widgetMap = NewBuilder().
	Direct(widgetGreetID, func(self interface{}) capability.Handle {
		return capability.NewHandle(widgetGreetID, self.(*widget))
	}).
	Build()

func newWidget(failInit bool) *widget {
	w := &widget{}
	w.Init(w, ClassDescriptor{ClassName: "test.Widget"}, widgetMap, Hooks{
		OnInitialize: func(config string) error {
			w.initConfig = config
			if failInit {
				return errors.New("boom")
			}
			return nil
		},
		OnShutdown: func() error {
			w.shutdownCount()
			return nil
		},
	})
	return w
}

func (w *widget) shutdownCount() { w.shutdowns++ }

func TestBaseInitializeSuccess(t *testing.T) {
	w := newWidget(false)
	if got := w.GetStatus(); got != StatusInitializationPending {
		t.Fatalf("fresh object status = %s, want initialization_pending", got)
	}
	if err := w.Initialize("cfg"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := w.GetStatus(); got != StatusInitialized {
		t.Fatalf("status after successful Initialize = %s, want initialized", got)
	}
	if w.initConfig != "cfg" {
		t.Fatalf("OnInitialize did not see config, got %q", w.initConfig)
	}
}

func TestBaseInitializeFailure(t *testing.T) {
	w := newWidget(true)
	if err := w.Initialize(""); err == nil {
		t.Fatalf("expected Initialize to fail")
	}
	if got := w.GetStatus(); got != StatusInitializationFailure {
		t.Fatalf("status after failed Initialize = %s, want initialization_failure", got)
	}
}

func TestBaseInitializeOnlyOnce(t *testing.T) {
	w := newWidget(false)
	if err := w.Initialize(""); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	if err := w.Initialize(""); err == nil {
		t.Fatalf("second Initialize must fail, object is no longer pending")
	}
}

func TestBaseOperationModeToggle(t *testing.T) {
	w := newWidget(false)
	_ = w.Initialize("")
	if err := w.SetOperationMode(ModeRunning); err != nil {
		t.Fatalf("initialized -> running: %v", err)
	}
	if err := w.SetOperationMode(ModeConfiguring); err != nil {
		t.Fatalf("running -> configuring: %v", err)
	}
	if err := w.SetOperationMode(ModeRunning); err != nil {
		t.Fatalf("configuring -> running: %v", err)
	}
}

func TestBaseOperationModeRejectedBeforeInitialized(t *testing.T) {
	w := newWidget(false)
	if err := w.SetOperationMode(ModeRunning); err == nil {
		t.Fatalf("expected rejection, object was never initialized")
	}
}

func TestBaseShutdownAlwaysAdvancesStatus(t *testing.T) {
	w := newWidget(false)
	_ = w.Initialize("")
	if err := w.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := w.GetStatus(); got != StatusDestructionPending {
		t.Fatalf("status after Shutdown = %s, want destruction_pending", got)
	}
	if w.shutdowns != 1 {
		t.Fatalf("OnShutdown hook ran %d times, want 1", w.shutdowns)
	}
}

func TestBaseQueryInterface(t *testing.T) {
	w := newWidget(false)
	h := w.QueryInterface(widgetGreetID)
	if h.IsNull() {
		t.Fatalf("expected a hit for the widget's own capability")
	}
	if got, ok := capability.Get[*widget](h, widgetGreetID); !ok || got != w {
		t.Fatalf("QueryInterface did not resolve back to the same instance")
	}

	if miss := w.QueryInterface(capability.DeriveID("not.registered")); !miss.IsNull() {
		t.Fatalf("unregistered capability must resolve to the null handle")
	}
}

func TestBaseDescriptor(t *testing.T) {
	w := newWidget(false)
	if got := w.Descriptor().ClassName; got != "test.Widget" {
		t.Fatalf("Descriptor().ClassName = %q, want test.Widget", got)
	}
}
