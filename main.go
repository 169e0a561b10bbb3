// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"notedetect/cmd"
	"notedetect/internal/audio"
	"notedetect/internal/config"
	"notedetect/internal/detector"
	applog "notedetect/internal/log"
	"notedetect/internal/transport"
	"notedetect/internal/transport/udp"
	"notedetect/internal/tui"
	"notedetect/pkg/build"
)

// main is the entry point for the note detection application.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Initialize PortAudio
//   - Parse command line arguments
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Assemble the detection pipeline and event transports
//   - Begin input stream processing
//   - Start recording if enabled
//   - Run the note monitor UI
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to the audio callback (time-critical)
	// - One thread for UI and I/O operations
	runtime.GOMAXPROCS(2)

	// Parse command line arguments and build configuration
	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	defer applog.Sync()

	// Transcription runs entirely offline, no PortAudio needed.
	if cfg.Command == "transcribe" {
		if err := transcribe(cfg); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	if cfg.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}
	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	fanout, monitor, err := buildTransports(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	defer fanout.Close()

	det, err := detector.New(cfg, cfg.Audio.SampleRate, fanout)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	engine, err := audio.NewEngine(cfg, det)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// CRITICAL: Start of real-time audio processing
	// The first call to StartInputStream triggers PortAudio to begin
	// calling the callback function, marking the start of the hot path
	if err := engine.StartInputStream(); err != nil {
		applog.Fatalf("%v", err)
	}

	// Start recording if enabled in configuration
	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			applog.Fatalf("%v", err)
		}
	}

	if monitor != nil {
		// The UI owns the foreground; a signal still unblocks shutdown.
		go func() {
			if err := monitor.Run(); err != nil {
				applog.Errorf("note monitor error: %v", err)
			}
			done <- syscall.SIGTERM
		}()
	} else {
		applog.Infof("%s listening on device %q", build.GetBuildFlags().Name, engine.Device().Name)
	}

	// Block until termination signal is received
	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	// Stop recording if active and save the file
	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		}
		fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
	}

	// Clean up audio engine resources
	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}
}

// buildTransports assembles the event fanout from the configuration. The
// returned monitor is non-nil only in TUI mode and is also registered as a
// transport.
func buildTransports(cfg *config.Config) (*transport.Fanout, *tui.Monitor, error) {
	fanout := transport.NewFanout()

	var monitor *tui.Monitor
	if cfg.TUIMode {
		monitor = tui.NewMonitor()
		fanout.Add(monitor)
	} else {
		fanout.Add(transport.NewLoggingTransport())
	}

	if cfg.Transport.WebSocketEnabled {
		fanout.Add(transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr))
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, nil, err
		}
		publisher, err := udp.NewEventPublisher(sender)
		if err != nil {
			return nil, nil, err
		}
		publisher.Start()
		fanout.Add(publisher)
	}

	return fanout, monitor, nil
}

// transcribe runs the detection pipeline over a WAV file and prints the
// resulting events.
func transcribe(cfg *config.Config) error {
	src, err := audio.OpenWAV(cfg.Audio.InputFile)
	if err != nil {
		return err
	}
	defer src.Close()

	fanout := transport.NewFanout(transport.NewLoggingTransport())
	defer fanout.Close()

	det, err := detector.New(cfg, src.SampleRate(), fanout)
	if err != nil {
		return err
	}

	if seconds, err := src.Duration(); err == nil {
		applog.Infof("Transcribing %s (%.0f Hz, %.1fs)", cfg.Audio.InputFile, src.SampleRate(), seconds)
	} else {
		applog.Infof("Transcribing %s (%.0f Hz)", cfg.Audio.InputFile, src.SampleRate())
	}
	return src.Stream(det.Push)
}
