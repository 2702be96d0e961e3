// Package options reads process options from flags, JOYVIEW_* environment
// variables and an optional joyview.{yaml,toml,json} config file, in that
// order of precedence.
package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeLive     = "live"
	ModePlayback = "playback"

	DriverSDL      = "sdl"
	DriverJoystick = "joystick"
)

var ErrInvalid = errors.New("invalid option")

type Options struct {
	Addr         string `mapstructure:"addr"`
	Mode         string `mapstructure:"mode"`
	Driver       string `mapstructure:"driver"`
	MaxJoysticks int    `mapstructure:"max-joysticks"`
	Bus          string `mapstructure:"bus"`
	ServeBus     bool   `mapstructure:"serve-bus"`
	Recording    string `mapstructure:"recording"`
	Loop         bool   `mapstructure:"loop"`
	State        string `mapstructure:"state"`
	FPS          int    `mapstructure:"fps"`
	FrameID      string `mapstructure:"frame-id"`
	NoTray       bool   `mapstructure:"no-tray"`
	Debug        bool   `mapstructure:"debug"`
}

// ReadOnly reports whether the panel shows a recorded session.
func (o Options) ReadOnly() bool {
	return o.Mode == ModePlayback
}

// FrameInterval is the render and polling period.
func (o Options) FrameInterval() time.Duration {
	return time.Second / time.Duration(o.FPS)
}

func newFlagSet() (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("joyview", pflag.ContinueOnError)
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("mode", ModeLive, "panel mode: live (local controllers) or playback (recorded session)")
	fs.String("driver", DriverSDL, "controller driver in live mode: sdl or joystick")
	fs.Int("max-joysticks", 4, "number of device slots probed by the joystick driver")
	fs.String("bus", "", "topic bus websocket URL, e.g. ws://host:8080/bus")
	fs.Bool("serve-bus", false, "serve a topic bus at /bus")
	fs.String("recording", "", "recorded session (JSON lines) to play back")
	fs.Bool("loop", false, "restart the recording when it ends")
	fs.String("state", "", "panel state file (default: user config dir)")
	fs.Int("fps", 60, "render and polling rate")
	fs.String("frame-id", "", "frame_id stamped on published Joy messages")
	fs.Bool("no-tray", false, "do not show the system tray icon")
	fs.Bool("debug", false, "enable debug logging")
	config := fs.String("config", "", "config file (default: joyview.{yaml,toml,json} in . or the user config dir)")
	return fs, config
}

// Parse reads options from args (without the program name), the
// environment and the config file.
func Parse(args []string) (Options, error) {
	fs, configFile := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("JOYVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Options{}, err
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("joyview")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "joyview"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Options{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, fmt.Errorf("decoding options: %w", err)
	}
	return o, o.Validate()
}

func (o Options) Validate() error {
	switch o.Mode {
	case ModeLive:
		if o.Driver != DriverSDL && o.Driver != DriverJoystick {
			return fmt.Errorf("%w: driver %q", ErrInvalid, o.Driver)
		}
	case ModePlayback:
		if o.Recording == "" && o.Bus == "" {
			return fmt.Errorf("%w: playback needs --recording or --bus", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalid, o.Mode)
	}
	if o.Recording != "" && o.Bus != "" {
		return fmt.Errorf("%w: --recording and --bus are exclusive", ErrInvalid)
	}
	if o.FPS <= 0 || o.FPS > 1000 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, o.FPS)
	}
	if o.MaxJoysticks <= 0 {
		return fmt.Errorf("%w: max-joysticks %d", ErrInvalid, o.MaxJoysticks)
	}
	return nil
}
