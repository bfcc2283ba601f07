package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	appdefaults "github.com/saker-ai/sonar-bridge/config"
	"github.com/saker-ai/sonar-bridge/internal/logger"
	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

const (
	envPrefix      = "sonar"
	configName     = "sonar"
	defaultTimeout = 5 * time.Second
	defaultPort    = 8765
)

// BridgeConfig is the listen address of the local REST bridge.
type BridgeConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Config is the merged application configuration.
type Config struct {
	RootDir        string        `mapstructure:"-" yaml:"root_dir"`
	ConfigFile     string        `mapstructure:"-" yaml:"config_file,omitempty"`
	CorePropsPath  string        `mapstructure:"core_props_path" yaml:"core_props_path"`
	Mode           string        `mapstructure:"mode" yaml:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	PresetsDir     string        `mapstructure:"presets_dir" yaml:"presets_dir"`
	Bridge         BridgeConfig  `mapstructure:"bridge" yaml:"bridge"`
	Log            logger.Config `mapstructure:"log" yaml:"log"`
}

// SonarConfig converts the application settings into client settings.
func (c Config) SonarConfig() sonar.Config {
	return sonar.Config{
		CorePropsPath: c.CorePropsPath,
		Mode:          sonar.Mode(c.Mode),
		Timeout:       c.RequestTimeout,
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"core-props": "core_props_path",
	"mode":       "mode",
	"timeout":    "request_timeout",
	"addr":       "bridge.addr",
	"presets":    "presets_dir",
	"log-level":  "log.level",
}

// RegisterFlags adds the flags Load knows how to bind.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("core-props", "", "path to SteelSeries Engine coreProps.json")
	fs.String("mode", "", "assume this mode instead of querying it (classic|stream)")
	fs.Duration("timeout", 0, "per-request timeout")
	fs.String("addr", "", "bridge listen address")
	fs.String("presets", "", "preset directory")
	fs.String("log-level", "", "log level (debug|info|warn|error)")
}

// Load merges, lowest first: embedded defaults, the YAML file at configPath
// (or sonar.yaml found from the working directory upwards), SONAR_* environment
// and flags. An explicitly named file must exist.
func Load(configPath string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return Config{}, fmt.Errorf("load embedded config: %w", err)
	}

	v.SetDefault("request_timeout", defaultTimeout)
	v.SetDefault("bridge.port", defaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	rootDir, configFile, err := mergeConfigFile(v, configPath)
	if err != nil {
		return Config{}, err
	}

	if err := bindFlags(v, flags); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RootDir = rootDir
	cfg.ConfigFile = configFile
	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	deriveBridgeAddr(&cfg)
	derivePaths(&cfg)

	return cfg, nil
}

func mergeConfigFile(v *viper.Viper, configPath string) (string, string, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		rootDir, err := resolveRootDir()
		if err != nil {
			return "", "", err
		}
		v.SetConfigName(configName)
		v.AddConfigPath(rootDir)
		if err := v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return "", "", err
			}
			return rootDir, "", nil
		}
		return rootDir, v.ConfigFileUsed(), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	rootDir := strings.TrimSpace(os.Getenv("SONAR_ROOT_DIR"))
	if rootDir == "" {
		rootDir = filepath.Dir(absPath)
	}

	v.SetConfigFile(absPath)
	if err := v.MergeInConfig(); err != nil {
		return "", "", fmt.Errorf("read config %s: %w", absPath, err)
	}
	return rootDir, absPath, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func normalize(cfg *Config) error {
	if mode := strings.TrimSpace(cfg.Mode); mode != "" {
		parsed, err := sonar.ParseMode(mode)
		if err != nil {
			return fmt.Errorf("invalid mode: %w", err)
		}
		cfg.Mode = string(parsed)
	} else {
		cfg.Mode = ""
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	return nil
}

func deriveBridgeAddr(cfg *Config) {
	if cfg.Bridge.Addr != "" {
		return
	}
	host := cfg.Bridge.Host
	port := cfg.Bridge.Port
	if port == 0 {
		port = defaultPort
	}
	if host == "" {
		host = "127.0.0.1"
	}
	cfg.Bridge.Addr = net.JoinHostPort(host, strconv.Itoa(port))
}

func resolveRootDir() (string, error) {
	if root := strings.TrimSpace(os.Getenv("SONAR_ROOT_DIR")); root != "" {
		return filepath.Abs(root)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for i := 0; i < 6; i++ {
		if fileExists(filepath.Join(dir, configName+".yaml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return wd, nil
}

func derivePaths(cfg *Config) {
	if strings.TrimSpace(cfg.CorePropsPath) == "" {
		cfg.CorePropsPath = sonar.DefaultCorePropsPath()
	} else {
		cfg.CorePropsPath = resolvePath(cfg.RootDir, cfg.CorePropsPath, "")
	}
	cfg.PresetsDir = resolvePath(cfg.RootDir, cfg.PresetsDir, "presets")
	cfg.Log.File.Path = resolvePath(cfg.RootDir, cfg.Log.File.Path, filepath.Join("data", "logs"))
}

func resolvePath(rootDir string, configured string, fallback string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
