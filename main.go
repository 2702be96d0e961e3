package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/gamepad"
	"github.com/soar/joyview/internal/host"
	"github.com/soar/joyview/internal/hub"
	"github.com/soar/joyview/internal/options"
	"github.com/soar/joyview/internal/panel"
	"github.com/soar/joyview/internal/server"
	"github.com/soar/joyview/internal/transport"
	"github.com/soar/joyview/internal/tray"
	"github.com/spf13/pflag"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
// On Windows: os.Interrupt is sent when Ctrl+C is pressed
// On Unix: os.Interrupt is equivalent to syscall.SIGINT
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	opts, err := options.Parse(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	statePath := opts.State
	if statePath == "" {
		if statePath, err = config.DefaultStatePath(); err != nil {
			log.Fatalf("Cannot locate state file: %v", err)
		}
	}
	store := config.NewFileStore(statePath)
	saved, err := store.Load()
	if err != nil {
		log.Fatalf("Error reading panel state: %v", err)
	}

	// Create and start hub
	h := hub.NewHub()
	go h.Run(ctx)

	// Create broadcaster
	broadcaster := hub.NewBroadcaster(h)
	go broadcaster.Run(ctx)

	var wg sync.WaitGroup
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("%s stopped: %v", name, err)
			}
		}()
	}

	// Topic bus: a recording, a remote bus, the bus served here, or none
	busAddr := opts.Bus
	if busAddr == "" && opts.ServeBus {
		busAddr = "ws" + strings.TrimPrefix(localURL(opts.Addr), "http") + "/bus"
	}
	var bus host.Bus
	switch {
	case opts.Recording != "":
		replay := transport.NewReplay(opts.Recording, opts.Loop)
		bus = replay
		start("Replay", replay.Run)
		log.Printf("Playing back %s", opts.Recording)
	case busAddr != "":
		client := transport.NewClient(busAddr)
		bus = client
		start("Bus client", client.Run)
		log.Printf("Connecting to bus %s", busAddr)
	}

	var busHandler http.Handler
	if opts.ServeBus {
		busHandler = transport.NewServer()
	}

	runtimeHost := host.New(store, broadcaster, bus, opts.FrameInterval())
	p, err := panel.New(runtimeHost, saved, panel.Options{
		ReadOnly: opts.ReadOnly(),
		FrameID:  opts.FrameID,
		Debug:    opts.Debug,
	})
	if err != nil {
		log.Fatalf("Error loading panel state from %s: %v", store.Path(), err)
	}
	start("Panel", func(ctx context.Context) error {
		p.Run(ctx)
		return nil
	})
	start("Render loop", func(ctx context.Context) error {
		runtimeHost.Drive(ctx, p)
		return nil
	})

	if !opts.ReadOnly() {
		var driver gamepad.Driver
		if opts.Driver == options.DriverJoystick {
			driver = gamepad.NewJoystickDriver(opts.MaxJoysticks)
		} else {
			driver = gamepad.NewSDLDriver(opts.Debug)
		}
		// The listener returns once ctx is cancelled
		start("Gamepad listener", gamepad.NewListener(driver, p, opts.FrameInterval()).Run)
	}

	// Create and start HTTP server
	srv := server.New(h, broadcaster, p, busHandler, getFrontendFS(), opts.Addr)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	url := localURL(opts.Addr)
	log.Printf("joyview started (%s mode): %s", opts.Mode, url)

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})

	// Initialize system tray on Windows only
	var t *tray.Tray
	if runtime.GOOS == "windows" && !opts.NoTray {
		t = tray.New(url, "Mode: "+opts.Mode, func() {
			close(shutdownRequested)
		})
		go t.Run()
	} else {
		log.Println("Press Ctrl+C to exit")
	}

	// Wait for shutdown signal, tray request, or server error
	select {
	case <-sigCh:
		log.Println("Shutting down...")
	case <-shutdownRequested:
		log.Println("Shutdown requested from tray")
	case err := <-serverErrCh:
		log.Printf("HTTP server error: %v", err)
	}
	cancel()
	if t != nil {
		t.Quit()
	}

	// Wait for panel, listener and bus to finish
	wg.Wait()

	// Shutdown the HTTP server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("joyview stopped")
}

// localURL turns a listen address into a URL a local browser can open.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
