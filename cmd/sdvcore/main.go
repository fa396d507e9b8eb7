// Command sdvcore is the process entry point: it wires the application
// controller to the process environment (spec.md §9 "Global state" /
// SPEC_FULL.md §12) - startup TOML from stdin or a file named on argv,
// SIGINT/SIGTERM mapped to RequestShutdown, and an at-exit hook that always
// runs the controller's own Shutdown before the process actually exits.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/appctl"
)

func main() {
	os.Exit(run())
}

func run() int {
	startupTOML, err := readStartupConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "sdvcore: ", err)
		return 1
	}

	ctrl := appctl.New()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		ctrl.RequestShutdown()
	}()

	lockDir := os.TempDir()
	ctx, err := ctrl.Startup(context.Background(), startupTOML, "", lockDir, appctl.NoopSink{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "sdvcore: startup failed: ", err)
		return 1
	}
	defer ctrl.Shutdown(false)

	if err := ctrl.SetRunningMode(); err != nil {
		ctrl.Logger().Error("could not enter running mode", "error", err)
		return 1
	}

	ctrl.RunLoop(ctx, appctl.NoopSink{})
	return 0
}

// readStartupConfig reads the startup TOML document from the file named by
// args[0], or from stdin if no argument was given.
func readStartupConfig(args []string) (string, error) {
	if len(args) > 0 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading startup config %s: %w", args[0], err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading startup config from stdin: %w", err)
	}
	return string(b), nil
}
