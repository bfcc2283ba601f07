package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SONAR_ROOT_DIR", root)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ConfigFile != "" {
		t.Fatalf("ConfigFile=%q, want empty", cfg.ConfigFile)
	}
	if cfg.Bridge.Addr != "127.0.0.1:8765" {
		t.Fatalf("Bridge.Addr=%q, want 127.0.0.1:8765", cfg.Bridge.Addr)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout=%v, want 5s", cfg.RequestTimeout)
	}
	if cfg.Mode != "" {
		t.Fatalf("Mode=%q, want empty", cfg.Mode)
	}
	if cfg.CorePropsPath != sonar.DefaultCorePropsPath() {
		t.Fatalf("CorePropsPath=%q, want %q", cfg.CorePropsPath, sonar.DefaultCorePropsPath())
	}
	if want := filepath.Join(root, "presets"); cfg.PresetsDir != want {
		t.Fatalf("PresetsDir=%q, want %q", cfg.PresetsDir, want)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level=%q, want info", cfg.Log.Level)
	}
}

func TestLoadDiscoversConfigFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SONAR_ROOT_DIR", root)
	writeFile(t, filepath.Join(root, "sonar.yaml"), "mode: streamer\ncore_props_path: engine/coreProps.json\n")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Mode != string(sonar.ModeStreamer) {
		t.Fatalf("Mode=%q, want %q", cfg.Mode, sonar.ModeStreamer)
	}
	if want := filepath.Join(root, "engine", "coreProps.json"); cfg.CorePropsPath != want {
		t.Fatalf("CorePropsPath=%q, want %q", cfg.CorePropsPath, want)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "mode: classic\nrequest_timeout: 3s\nbridge:\n  port: 9000\n")
	t.Setenv("SONAR_BRIDGE_PORT", "9100")
	t.Setenv("SONAR_REQUEST_TIMEOUT", "4s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	if err := flags.Parse([]string{"--mode", "stream", "--timeout", "2s"}); err != nil {
		t.Fatalf("flags.Parse error: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ConfigFile != path {
		t.Fatalf("ConfigFile=%q, want %q", cfg.ConfigFile, path)
	}
	if cfg.RootDir != dir {
		t.Fatalf("RootDir=%q, want %q", cfg.RootDir, dir)
	}
	if cfg.Bridge.Addr != "127.0.0.1:9100" {
		t.Fatalf("Bridge.Addr=%q, want env port 9100", cfg.Bridge.Addr)
	}
	if cfg.Mode != string(sonar.ModeStreamer) {
		t.Fatalf("Mode=%q, want flag value %q", cfg.Mode, sonar.ModeStreamer)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Fatalf("RequestTimeout=%v, want flag value 2s", cfg.RequestTimeout)
	}

	sc := cfg.SonarConfig()
	if sc.Mode != sonar.ModeStreamer || sc.Timeout != 2*time.Second {
		t.Fatalf("SonarConfig=%+v, want streamer mode and 2s timeout", sc)
	}
}

func TestLoadUnchangedFlagsKeepFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "mode: classic\nbridge:\n  addr: 127.0.0.1:7000\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Mode != string(sonar.ModeClassic) {
		t.Fatalf("Mode=%q, want %q", cfg.Mode, sonar.ModeClassic)
	}
	if cfg.Bridge.Addr != "127.0.0.1:7000" {
		t.Fatalf("Bridge.Addr=%q, want 127.0.0.1:7000", cfg.Bridge.Addr)
	}
}

func TestLoadInvalidMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "mode: party\n")

	if _, err := Load(path, nil); err == nil {
		t.Fatal("Load error=nil, want invalid mode error")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("Load error=nil, want error for missing file")
	}
}
