// ABOUTME: Player configuration from environment, .env files and flags
// ABOUTME: Environment supplies defaults, command line flags override them
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/output"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/queue"
)

// DefaultEnvFile is loaded when present
const DefaultEnvFile = ".env"

// PlayerConfig holds everything the player binary needs to start
type PlayerConfig struct {
	Layout      audio.ChannelLayout `env:"SPATIAL_LAYOUT, default=stereo"`
	Device      string              `env:"SPATIAL_DEVICE, default=malgo"`
	QueueFrames int                 `env:"SPATIAL_QUEUE_FRAMES, default=4096"`
	BitDepth    int                 `env:"SPATIAL_BIT_DEPTH, default=16"`
	ControlAddr string              `env:"SPATIAL_CONTROL_ADDR, default=:8928"`
	Name        string              `env:"SPATIAL_NAME"`
	NoMDNS      bool                `env:"SPATIAL_NO_MDNS"`
	LogFile     string              `env:"SPATIAL_LOG_FILE, default=spatial-player.log"`
	NoTUI       bool                `env:"SPATIAL_NO_TUI"`
}

// Load reads envFile into the process environment, then the SPATIAL_* variables.
// A missing default .env is not an error.
func Load(ctx context.Context, envFile string) (*PlayerConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !(envFile == DefaultEnvFile && errors.Is(err, os.ErrNotExist)) {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the configuration through lookuper
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*PlayerConfig, error) {
	var cfg PlayerConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// BindFlags registers flags whose defaults are the current values
func (c *PlayerConfig) BindFlags(fs *flag.FlagSet) {
	fs.VarP(&c.Layout, "layout", "l", "Channel layout of the input (stereo, mono, tbe_8_2, ambix_4, ...)")
	fs.StringVarP(&c.Device, "device", "d", c.Device, "Audio backend: malgo, oto or none")
	fs.IntVar(&c.QueueFrames, "queue-frames", c.QueueFrames, "Playback queue size in frames per channel")
	fs.IntVar(&c.BitDepth, "bit-depth", c.BitDepth, "Device sample format: 16, 24 or 32 (float)")
	fs.StringVar(&c.ControlAddr, "control", c.ControlAddr, "Remote control listen address, empty to disable")
	fs.StringVarP(&c.Name, "name", "n", c.Name, "Advertised name (default: hostname-spatial-player)")
	fs.BoolVar(&c.NoMDNS, "no-mdns", c.NoMDNS, "Do not advertise the control server")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path")
	fs.BoolVar(&c.NoTUI, "no-tui", c.NoTUI, "Disable TUI, use streaming logs instead")
}

// Validate checks the values the controller cannot correct itself
func (c *PlayerConfig) Validate() error {
	if c.Layout.Channels() == 0 {
		return fmt.Errorf("layout %s has no channels: %w", c.Layout, audio.ErrInvalidChannelMap)
	}
	switch c.Device {
	case output.KindMalgo, output.KindOto, output.KindNone:
	default:
		return fmt.Errorf("unknown device backend %q: %w", c.Device, audio.ErrInvalidParam)
	}
	if c.QueueFrames <= 0 {
		return fmt.Errorf("queue frames %d: %w", c.QueueFrames, audio.ErrInvalidBufferSize)
	}
	switch c.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("bit depth %d: %w", c.BitDepth, audio.ErrInvalidParam)
	}
	return nil
}

// UseDevice reports whether a sound device should be opened
func (c *PlayerConfig) UseDevice() bool {
	return c.Device != output.KindNone
}

// QueueFramesOrDefault returns the queue size, falling back to the queue default
func (c *PlayerConfig) QueueFramesOrDefault() int {
	if c.QueueFrames <= 0 {
		return queue.DefaultFramesPerChannel
	}
	return c.QueueFrames
}

// PlayerName returns Name or a hostname derived default
func (c *PlayerConfig) PlayerName() string {
	if c.Name != "" {
		return c.Name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-spatial-player", hostname)
}
