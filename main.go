// ABOUTME: Entry point for the spatial audio player
// ABOUTME: Parses config and flags, then decodes a file to the sound device
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/spatial-go/internal/config"
	"github.com/Resonate-Protocol/spatial-go/internal/control"
	"github.com/Resonate-Protocol/spatial-go/internal/discovery"
	"github.com/Resonate-Protocol/spatial-go/internal/ui"
	"github.com/Resonate-Protocol/spatial-go/internal/version"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
	"github.com/Resonate-Protocol/spatial-go/pkg/stream"
)

const (
	// decodeInterval is how often the decode loop tops up the queue
	decodeInterval = 10 * time.Millisecond

	statusInterval = 250 * time.Millisecond
)

func main() {
	cfg, err := config.Load(context.Background(), config.DefaultEnvFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	showVersion := flag.BoolP("version", "v", false, "Print version information and exit")
	streamLogs := flag.Bool("stream-logs", false, "Alias for --no-tui")
	cfg.BindFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... FILE\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	source := flag.Arg(0)

	// Determine if we should use TUI or streaming logs
	useTUI := !(cfg.NoTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	playerName := cfg.PlayerName()
	log.Printf("Starting %s %s: %s", version.Product, version.Version, playerName)

	player := stream.New(stream.Options{
		DeviceKind:            cfg.Device,
		QueueFramesPerChannel: cfg.QueueFramesOrDefault(),
		BitDepth:              cfg.BitDepth,
	})
	if err := player.Open(source, cfg.UseDevice(), cfg.Layout); err != nil {
		log.Fatalf("Failed to open %s: %v", source, err)
	}
	if cfg.UseDevice() {
		if err := player.StartDevice(); err != nil {
			log.Fatalf("Failed to start %s device: %v", cfg.Device, err)
		}
	}
	if err := player.Play(); err != nil {
		log.Fatalf("Failed to start playback: %v", err)
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	if info, err := player.Info(); err == nil {
		updateTUI(ui.StatusMsg{
			Source:     source,
			Codec:      info.Format.Codec,
			SampleRate: info.Format.SampleRate,
			Channels:   info.Format.Channels,
			Layout:     cfg.Layout.String(),
			Device:     cfg.Device,
		})
	}

	// Remote control and its advertisement
	var server *control.Server
	var disc *discovery.Manager
	if cfg.ControlAddr != "" {
		server = control.New(control.Config{Addr: cfg.ControlAddr}, player)
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start control server: %v", err)
		}
		updateTUI(ui.StatusMsg{ControlAddr: cfg.ControlAddr})

		if !cfg.NoMDNS {
			disc = discovery.NewManager(discovery.Config{
				ServiceName: playerName,
				Port:        server.Port(),
				Layout:      cfg.Layout.String(),
				Version:     version.Version,
			})
			if err := disc.Advertise(); err != nil {
				log.Printf("Failed to start mDNS advertisement: %v", err)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	finished := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		decodeLoop(ctx, player, finished)
	}()

	if !cfg.UseDevice() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			realtimeDrain(ctx, player)
		}()
	}

	if controls != nil {
		go handleControls(ctx, player, controls)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		statusLoop(ctx, player, server, updateTUI)
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if controls != nil {
		quit = controls.Quit
	}

	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-finished:
		log.Printf("Playback finished")
	}

	cancel()
	wg.Wait()

	if tuiProg != nil {
		tuiProg.Quit()
	}
	if disc != nil {
		disc.Stop()
	}
	if server != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Stop(stopCtx); err != nil {
			log.Printf("Control server shutdown error: %v", err)
		}
		stopCancel()
	}
	if err := player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}

	log.Printf("Player stopped")
}

// decodeLoop keeps the playback queue full until the stream drains or fails
func decodeLoop(ctx context.Context, player *stream.Controller, finished chan<- struct{}) {
	ticker := time.NewTicker(decodeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := player.Decode()
		if status == stream.StatusError {
			log.Printf("Decode failed: %v", err)
			close(finished)
			return
		}
		if player.Drained() && !player.SeekPending() {
			close(finished)
			return
		}
	}
}

// realtimeDrain consumes the queue at the stream rate when no device is attached
func realtimeDrain(ctx context.Context, player *stream.Controller) {
	ticker := time.NewTicker(decodeInterval)
	defer ticker.Stop()

	frames := player.SampleRate() * int(decodeInterval) / int(time.Second)
	buf := make([]float32, 2*frames)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := player.Mix(buf); err != nil {
				return
			}
		}
	}
}

// handleControls applies key presses from the TUI
func handleControls(ctx context.Context, player *stream.Controller, controls *ui.Controls) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-controls.Commands:
			var err error
			switch cmd.Kind {
			case ui.CommandTogglePlay:
				if player.PlayState() == audio.PlayStatePlaying {
					err = player.Pause()
				} else {
					err = player.Play()
				}
			case ui.CommandSeek:
				err = player.Seek(cmd.SeekMs)
			case ui.CommandOrientation:
				player.SetListenerRotationEuler(geom.DegToRad(cmd.Yaw), geom.DegToRad(cmd.Pitch), 0)
			case ui.CommandVolume:
				log.Printf("Volume change: %d%%, muted=%v", cmd.Volume, cmd.Muted)
				player.SetVolume(cmd.Volume)
				player.SetMuted(cmd.Muted)
			}
			if err != nil {
				log.Printf("Command failed: %v", err)
			}
		}
	}
}

// statusLoop periodically updates the TUI and pushes state changes to remotes
func statusLoop(ctx context.Context, player *stream.Controller, server *control.Server, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastState stream.State
	var lastPlay audio.PlayState
	var lastRotation geom.Quat

	for {
		select {
		case <-ctx.Done():
			return

		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			updateTUI(ui.StatusMsg{
				Goroutines: runtime.NumGoroutine(),
				MemAlloc:   m.Alloc,
				MemSys:     m.Sys,
			})

		case <-ticker.C:
			state, play, rotation := player.State(), player.PlayState(), player.ListenerRotation()
			pitch, yaw, _ := rotation.Euler()

			msg := ui.StatusMsg{
				Stream:      state.String(),
				Playback:    play.String(),
				ElapsedMs:   player.ElapsedTimeMs(),
				DurationMs:  player.DurationMs(),
				Orientation: &ui.Orientation{Yaw: geom.RadToDeg(yaw), Pitch: geom.RadToDeg(pitch)},
			}
			if server != nil {
				remotes := server.Clients()
				msg.Remotes = &remotes
				if state != lastState || play != lastPlay || rotation != lastRotation {
					server.Broadcast()
				}
			}
			updateTUI(msg)
			lastState, lastPlay, lastRotation = state, play, rotation
		}
	}
}
