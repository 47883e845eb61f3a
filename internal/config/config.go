package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	appdefaults "github.com/saker-ai/armscript/config"

	"github.com/saker-ai/armscript/internal/logger"
	"github.com/spf13/viper"
)

const envPrefix = "armscript"

// OutputConfig sets artifact destinations and the structured rendering.
type OutputConfig struct {
	StructuredPath   string `mapstructure:"structured_path"`
	ExecutablePath   string `mapstructure:"executable_path"`
	StructuredFormat string `mapstructure:"structured_format"`
}

// RobotConfig identifies the manipulator written into the script preamble.
type RobotConfig struct {
	Model   string `mapstructure:"model"`
	Group   string `mapstructure:"group"`
	Gripper string `mapstructure:"gripper"`
}

// SessionConfig tunes server-side sessions.
type SessionConfig struct {
	ExportMode string `mapstructure:"export_mode"`
	MaxActive  int    `mapstructure:"max_active"`
}

// TLSConfig enables HTTPS. Missing cert files fall back to an in-memory
// self-signed certificate.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertPath string `mapstructure:"cert_path"`
	KeyPath  string `mapstructure:"key_path"`
}

// Config represents a config.
type Config struct {
	RootDir  string        `mapstructure:"-"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	HTTPAddr string        `mapstructure:"http_addr"`
	DataDir  string        `mapstructure:"data_dir"`
	TLS      TLSConfig     `mapstructure:"tls"`
	Output   OutputConfig  `mapstructure:"output"`
	Robot    RobotConfig   `mapstructure:"robot"`
	Session  SessionConfig `mapstructure:"session"`
	Log      logger.Config `mapstructure:"log"`
}

// Load reads the embedded defaults, a conf.yaml found from the working
// directory upwards, and ARMSCRIPT_* environment overrides.
func Load() (Config, error) {
	rootDir, err := resolveRootDir()
	if err != nil {
		return Config{}, err
	}

	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	v.SetConfigName("conf")
	v.SetConfigType("yaml")
	v.AddConfigPath(rootDir)

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	return decode(v, rootDir)
}

// LoadConfig reads an explicit config file. An empty path behaves like Load.
func LoadConfig(configPath string) (Config, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		return Load()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, err
	}

	rootDir := strings.TrimSpace(os.Getenv("ARMSCRIPT_ROOT_DIR"))
	if rootDir == "" {
		rootDir = filepath.Dir(absPath)
		if filepath.Base(rootDir) == "config" {
			rootDir = filepath.Dir(rootDir)
		}
	}

	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	v.SetConfigFile(absPath)
	if err := v.MergeInConfig(); err != nil {
		return Config{}, err
	}

	return decode(v, rootDir)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return nil, fmt.Errorf("load embedded config: %w", err)
	}

	v.SetDefault("http_addr", "")
	v.SetDefault("output.structured_format", "json")
	v.SetDefault("session.export_mode", "manual")
	v.SetDefault("session.max_active", 0)
	v.SetDefault("tls.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

func decode(v *viper.Viper, rootDir string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RootDir = rootDir
	deriveHTTPAddr(&cfg)
	derivePaths(&cfg)
	return cfg, nil
}

func deriveHTTPAddr(cfg *Config) {
	if cfg.HTTPAddr != "" {
		return
	}
	port := cfg.Port
	if port == 0 {
		port = 8101
	}
	if cfg.Host == "" {
		cfg.HTTPAddr = fmt.Sprintf(":%d", port)
		return
	}
	cfg.HTTPAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

func resolveRootDir() (string, error) {
	if root := strings.TrimSpace(os.Getenv("ARMSCRIPT_ROOT_DIR")); root != "" {
		return filepath.Abs(root)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for i := 0; i < 6; i++ {
		if fileExists(filepath.Join(dir, "conf.yaml")) {
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
	cfg.DataDir = resolvePath(cfg.RootDir, cfg.DataDir, filepath.Join("data", "sessions"))
	cfg.Output.StructuredPath = resolvePath(cfg.RootDir, cfg.Output.StructuredPath, "generated_json_commands.json")
	cfg.Output.ExecutablePath = resolvePath(cfg.RootDir, cfg.Output.ExecutablePath, "generated_python_commands.py")
	cfg.TLS.CertPath = resolvePath(cfg.RootDir, cfg.TLS.CertPath, filepath.Join("certs", "server.crt"))
	cfg.TLS.KeyPath = resolvePath(cfg.RootDir, cfg.TLS.KeyPath, filepath.Join("certs", "server.key"))
	if cfg.Log.File.Path != "" {
		cfg.Log.File.Path = resolvePath(cfg.RootDir, cfg.Log.File.Path, "")
	}
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
