// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"notedetect/internal/config"
	"notedetect/pkg/build"
)

func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	options := config.NewConfig()
	configPath := ""

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Config file first, explicit flags win over it.
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, options, loaded)
			if err := loaded.Validate(); err != nil {
				return err
			}
			*options = *loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.TUIMode = !options.Headless
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			options.TUIMode = false
		},
	}
	rootCmd.AddCommand(listCmd)

	// Transcribe command
	transcribeCmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Detect notes in a WAV file instead of live input",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "transcribe"
			options.Audio.InputFile = args[0]
			options.TUIMode = false
		},
	}
	rootCmd.AddCommand(transcribeCmd)

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Audio.InputDevice, "device", "d", config.MinDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&options.Detector.BufferSize, "buffer-size", "b", config.DefaultBufferSize,
		"Detection block size in frames (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&options.Audio.LowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Recording.Enabled, "record", "r", false,
		"Record audio from the specified input device")
	rootCmd.PersistentFlags().StringVarP(&options.Recording.OutputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Event Transports
	rootCmd.PersistentFlags().BoolVar(&options.Transport.WebSocketEnabled, "websocket", false,
		"Broadcast note events to WebSocket clients")
	rootCmd.PersistentFlags().StringVar(&options.Transport.WebSocketAddr, "websocket-addr", config.DefaultWebSocketAddr,
		"WebSocket listen address")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.UDPEnabled, "udp", false,
		"Publish note events as binary UDP packets")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPTargetAddress, "udp-target", config.DefaultUDPTargetAddress,
		"UDP target address for note event packets")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&options.Headless, "headless", false,
		"Disable the terminal UI, log events to the console instead")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	err := rootCmd.Execute()
	if err != nil {
		return nil, err
	}

	if options.Debug {
		options.LogLevel = "debug"
	}
	if options.Recording.Enabled && options.Recording.OutputFile == "" {
		options.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	return options, nil
}

// applyFlagOverrides copies every explicitly set flag from the flag-bound
// options onto the file-loaded configuration, so precedence is
// defaults < config file < environment < flags.
func applyFlagOverrides(cmd *cobra.Command, options, loaded *config.Config) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "device":
			loaded.Audio.InputDevice = options.Audio.InputDevice
		case "sample-rate":
			loaded.Audio.SampleRate = options.Audio.SampleRate
		case "buffer-size":
			loaded.Detector.BufferSize = options.Detector.BufferSize
		case "low-latency":
			loaded.Audio.LowLatency = options.Audio.LowLatency
		case "record":
			loaded.Recording.Enabled = options.Recording.Enabled
		case "output":
			loaded.Recording.OutputFile = options.Recording.OutputFile
		case "websocket":
			loaded.Transport.WebSocketEnabled = options.Transport.WebSocketEnabled
		case "websocket-addr":
			loaded.Transport.WebSocketAddr = options.Transport.WebSocketAddr
		case "udp":
			loaded.Transport.UDPEnabled = options.Transport.UDPEnabled
		case "udp-target":
			loaded.Transport.UDPTargetAddress = options.Transport.UDPTargetAddress
		case "verbose":
			loaded.Debug = options.Debug
		case "headless":
			loaded.Headless = options.Headless
		}
	})
}
