package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"nearby_go/internal/platform"
)

func load(t *testing.T, args ...string) Config {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	v := viper.New()
	if err := Bind(v, flags); err != nil {
		t.Fatalf("bind: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(t)

	if cfg.InitialScanPeriod != 8*time.Second {
		t.Fatalf("unexpected initial period: %s", cfg.InitialScanPeriod)
	}
	if cfg.StartTimeout != 15*time.Second {
		t.Fatalf("unexpected start timeout: %s", cfg.StartTimeout)
	}
	if cfg.AlertCooldown != 500*time.Millisecond {
		t.Fatalf("unexpected alert cooldown: %s", cfg.AlertCooldown)
	}
	if cfg.BackgroundScan != platform.ModeAuto {
		t.Fatalf("unexpected background mode: %q", cfg.BackgroundScan)
	}
	if cfg.ResolverRetries != 2 || !cfg.Loop {
		t.Fatalf("unexpected beacon defaults: retries=%d loop=%v", cfg.ResolverRetries, cfg.Loop)
	}
	if cfg.LogFile != "nearby.log" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected log defaults: %q %q", cfg.LogFile, cfg.LogLevel)
	}
	if cfg.HTTPAddr != "" || cfg.IPCSocket != "" || cfg.Headless {
		t.Fatalf("surfaces should be off by default: %+v", cfg)
	}
}

func TestLoadClamps(t *testing.T) {
	cfg := load(t,
		"--scan.initial-period=1ms",
		"--scan.start-timeout=10ms",
		"--alert.cooldown=-1s",
		"--beacon.resolver-timeout=1ms",
		"--beacon.resolver-retries=-3",
		"--beacon.resolver-url=http://resolver.local/api///",
	)

	if cfg.InitialScanPeriod != 100*time.Millisecond {
		t.Fatalf("initial period not clamped: %s", cfg.InitialScanPeriod)
	}
	if cfg.StartTimeout != time.Second {
		t.Fatalf("start timeout not clamped: %s", cfg.StartTimeout)
	}
	if cfg.AlertCooldown != 0 {
		t.Fatalf("cooldown not clamped: %s", cfg.AlertCooldown)
	}
	if cfg.ResolverTimeout != 500*time.Millisecond {
		t.Fatalf("resolver timeout not clamped: %s", cfg.ResolverTimeout)
	}
	if cfg.ResolverRetries != 0 {
		t.Fatalf("retries not clamped: %d", cfg.ResolverRetries)
	}
	if cfg.ResolverURL != "http://resolver.local/api" {
		t.Fatalf("resolver url not trimmed: %q", cfg.ResolverURL)
	}
}

func TestStartTimeoutZeroDisables(t *testing.T) {
	cfg := load(t, "--scan.start-timeout=0s")
	if cfg.StartTimeout != 0 {
		t.Fatalf("expected disabled start timeout, got %s", cfg.StartTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NEARBY_PLATFORM_OS", "ios")
	t.Setenv("NEARBY_HTTP_ADDR", "127.0.0.1:8099")
	t.Setenv("NEARBY_SCAN_INITIAL_PERIOD", "3s")

	cfg := load(t)
	if cfg.PlatformOS != "ios" || !cfg.Capabilities().KeepsBackgroundScanningAlive {
		t.Fatalf("ios should keep background scanning alive: %+v", cfg.Capabilities())
	}
	if cfg.HTTPAddr != "127.0.0.1:8099" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
	}
	if cfg.InitialScanPeriod != 3*time.Second {
		t.Fatalf("unexpected initial period: %s", cfg.InitialScanPeriod)
	}
}

func TestFlagBeatsEnv(t *testing.T) {
	t.Setenv("NEARBY_PLATFORM_BACKGROUND_SCAN", "off")
	cfg := load(t, "--platform.background-scan=on")
	if !cfg.Capabilities().KeepsBackgroundScanningAlive {
		t.Fatalf("flag should win over env")
	}
}

func TestLoadRejectsUnknownBackgroundMode(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyBackgroundScan, "sometimes")

	if _, err := Load(v); err == nil {
		t.Fatalf("expected error for unknown background mode")
	}
}

func TestYAMLConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nearby.yaml")
	body := "scan:\n  initial-period: 2s\nbeacon:\n  loop: false\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := load(t, "--config="+path)
	if cfg.InitialScanPeriod != 2*time.Second {
		t.Fatalf("unexpected initial period: %s", cfg.InitialScanPeriod)
	}
	if cfg.Loop {
		t.Fatalf("loop should be off")
	}
}

func TestMissingConfigFileIsIgnored(t *testing.T) {
	cfg := load(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.InitialScanPeriod != 8*time.Second {
		t.Fatalf("unexpected initial period: %s", cfg.InitialScanPeriod)
	}
}

func TestDotEnvConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nearby.env")
	body := "# comment\nexport NEARBY_IPC_SOCKET=\"/tmp/nearby.sock\"\nOTHER=ignored\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("NEARBY_IPC_SOCKET", "")
	os.Unsetenv("NEARBY_IPC_SOCKET")

	cfg := load(t, "--config="+path)
	if cfg.IPCSocket != "/tmp/nearby.sock" {
		t.Fatalf("unexpected ipc socket: %q", cfg.IPCSocket)
	}
	if _, set := os.LookupEnv("OTHER"); set {
		t.Fatalf("unprefixed keys must not be exported")
	}
}
