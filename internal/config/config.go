package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"nearby_go/internal/platform"
)

const envPrefix = "NEARBY"

// Keys understood by Load. Flags carry the same names.
const (
	KeyConfigFile       = "config"
	KeyInitialPeriod    = "scan.initial-period"
	KeyStartTimeout     = "scan.start-timeout"
	KeyAlertCooldown    = "alert.cooldown"
	KeyPlatformOS       = "platform.os"
	KeyBackgroundScan   = "platform.background-scan"
	KeySchedule         = "beacon.schedule"
	KeyResolverURL      = "beacon.resolver-url"
	KeyResolverTimeout  = "beacon.resolver-timeout"
	KeyResolverRetries  = "beacon.resolver-retries"
	KeyLoop             = "beacon.loop"
	KeyHTTPAddr         = "http.addr"
	KeyIPCSocket        = "ipc.socket"
	KeyLogLevel         = "log.level"
	KeyLogFile          = "log.file"
	KeyHeadless         = "headless"
	KeyLaunchedFromNote = "launched-from-notification"
)

type Config struct {
	InitialScanPeriod time.Duration
	StartTimeout      time.Duration
	AlertCooldown     time.Duration

	PlatformOS     string
	BackgroundScan string

	SchedulePath    string
	ResolverURL     string
	ResolverTimeout time.Duration
	ResolverRetries int
	Loop            bool

	HTTPAddr  string
	IPCSocket string

	LogLevel string
	LogFile  string

	Headless                 bool
	LaunchedFromNotification bool
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyInitialPeriod, 8*time.Second)
	v.SetDefault(KeyStartTimeout, 15*time.Second)
	v.SetDefault(KeyAlertCooldown, 500*time.Millisecond)
	v.SetDefault(KeyPlatformOS, runtime.GOOS)
	v.SetDefault(KeyBackgroundScan, platform.ModeAuto)
	v.SetDefault(KeySchedule, "")
	v.SetDefault(KeyResolverURL, "")
	v.SetDefault(KeyResolverTimeout, 5*time.Second)
	v.SetDefault(KeyResolverRetries, 2)
	v.SetDefault(KeyLoop, true)
	v.SetDefault(KeyHTTPAddr, "")
	v.SetDefault(KeyIPCSocket, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "nearby.log")
	v.SetDefault(KeyHeadless, false)
	v.SetDefault(KeyLaunchedFromNote, false)
}

// RegisterFlags adds a flag per key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigFile, "", "Config file (yaml, json, toml or .env)")
	flags.Duration(KeyInitialPeriod, 8*time.Second, "How long the searching indicator stays up after a scan starts")
	flags.Duration(KeyStartTimeout, 15*time.Second, "Give up waiting for the scanner to start after this long (0 disables)")
	flags.Duration(KeyAlertCooldown, 500*time.Millisecond, "Quiet period after the network alert closes")
	flags.String(KeyPlatformOS, runtime.GOOS, "Platform to behave as (ios keeps scanning in the background)")
	flags.String(KeyBackgroundScan, platform.ModeAuto, "Keep scanning in the background: auto, on or off")
	flags.String(KeySchedule, "", "Advertisement schedule file (built-in demo when empty)")
	flags.String(KeyResolverURL, "", "Metadata resolver base URL (offline metadata when empty)")
	flags.Duration(KeyResolverTimeout, 5*time.Second, "Metadata request timeout")
	flags.Int(KeyResolverRetries, 2, "Metadata request retries")
	flags.Bool(KeyLoop, true, "Replay the schedule forever")
	flags.String(KeyHTTPAddr, "", "HTTP control API listen address (disabled when empty)")
	flags.String(KeyIPCSocket, "", "Unix socket for the host shell bridge (disabled when empty)")
	flags.String(KeyLogLevel, "info", "Log level: panic, fatal, error, warn, info, debug, trace")
	flags.String(KeyLogFile, "nearby.log", "Log file, - for stderr")
	flags.Bool(KeyHeadless, false, "Run without the terminal UI")
	flags.Bool(KeyLaunchedFromNote, false, "The app was opened by tapping a notification")
}

// Bind wires flags and the NEARBY_ environment into v and reads the config
// file named by the config key, if any.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	SetDefaults(v)
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	path := strings.TrimSpace(v.GetString(KeyConfigFile))
	if path == "" {
		return nil
	}
	if strings.ToLower(filepath.Ext(path)) == ".env" || filepath.Base(path) == ".env" {
		return LoadDotEnv(path)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load reads every key from v and clamps values into their valid ranges.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		InitialScanPeriod:        v.GetDuration(KeyInitialPeriod),
		StartTimeout:             v.GetDuration(KeyStartTimeout),
		AlertCooldown:            v.GetDuration(KeyAlertCooldown),
		PlatformOS:               strings.ToLower(strings.TrimSpace(v.GetString(KeyPlatformOS))),
		BackgroundScan:           strings.ToLower(strings.TrimSpace(v.GetString(KeyBackgroundScan))),
		SchedulePath:             strings.TrimSpace(v.GetString(KeySchedule)),
		ResolverURL:              strings.TrimSpace(v.GetString(KeyResolverURL)),
		ResolverTimeout:          v.GetDuration(KeyResolverTimeout),
		ResolverRetries:          v.GetInt(KeyResolverRetries),
		Loop:                     v.GetBool(KeyLoop),
		HTTPAddr:                 strings.TrimSpace(v.GetString(KeyHTTPAddr)),
		IPCSocket:                strings.TrimSpace(v.GetString(KeyIPCSocket)),
		LogLevel:                 strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFile:                  strings.TrimSpace(v.GetString(KeyLogFile)),
		Headless:                 v.GetBool(KeyHeadless),
		LaunchedFromNotification: v.GetBool(KeyLaunchedFromNote),
	}

	cfg.ResolverURL = strings.TrimRight(cfg.ResolverURL, "/")
	if cfg.PlatformOS == "" {
		cfg.PlatformOS = runtime.GOOS
	}
	if cfg.BackgroundScan == "" {
		cfg.BackgroundScan = platform.ModeAuto
	}
	if _, err := platform.Resolve(cfg.PlatformOS, cfg.BackgroundScan); err != nil {
		return Config{}, err
	}

	if cfg.InitialScanPeriod < 100*time.Millisecond {
		cfg.InitialScanPeriod = 100 * time.Millisecond
	}
	if cfg.StartTimeout < 0 {
		cfg.StartTimeout = 0
	}
	if cfg.StartTimeout > 0 && cfg.StartTimeout < time.Second {
		cfg.StartTimeout = time.Second
	}
	if cfg.AlertCooldown < 0 {
		cfg.AlertCooldown = 0
	}
	if cfg.ResolverTimeout < 500*time.Millisecond {
		cfg.ResolverTimeout = 500 * time.Millisecond
	}
	if cfg.ResolverRetries < 0 {
		cfg.ResolverRetries = 0
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "-"
	}

	return cfg, nil
}

// Capabilities resolves the platform behaviour cfg asks for.
func (c Config) Capabilities() platform.Capabilities {
	caps, _ := platform.Resolve(c.PlatformOS, c.BackgroundScan)
	return caps
}
