// Package config loads studymap settings from defaults, an optional YAML
// file, STUDYMAP_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/studymap/internal/llm"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// ConfigEnv names the variable that points at a config file.
const ConfigEnv = "STUDYMAP_CONFIG"

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the fully resolved application configuration.
type Config struct {
	DBPath    string        `mapstructure:"db_path"`
	Store     string        `mapstructure:"store"`
	Redis     RedisConfig   `mapstructure:"redis"`
	API       APIConfig     `mapstructure:"api"`
	UserScope bool          `mapstructure:"user_scope"`
	Server    ServerConfig  `mapstructure:"server"`
	Log       LogConfig     `mapstructure:"log"`
	LLM       llm.LLMConfig `mapstructure:"llm"`

	// File is the config file that was applied, empty when none was found.
	File string `mapstructure:"-"`
}

// Default returns the built-in configuration. Paths live under ~/.studymap.
func Default() Config {
	dir := ".studymap"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".studymap")
	}
	return Config{
		DBPath: filepath.Join(dir, "studymap.db"),
		Store:  StoreSQLite,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "studymap:",
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			TimeoutMs: 30000,
		},
		UserScope: true,
		Server:    ServerConfig{Addr: "127.0.0.1:8080"},
		Log:       LogConfig{Level: "info", Format: string(logging.FormatText)},
		LLM:       llm.DefaultConfig(),
	}
}

// setting ties a dotted config key to its environment variable and, for the
// commonly overridden ones, a persistent flag.
type setting struct {
	key     string
	env     string
	flag    string
	boolean bool
	usage   string
}

var settings = []setting{
	{key: "db_path", env: "STUDYMAP_DB_PATH", flag: "db", usage: "SQLite database path"},
	{key: "store", env: "STUDYMAP_STORE", flag: "store", usage: "progress store backend (sqlite|redis)"},
	{key: "redis.addr", env: "STUDYMAP_REDIS_ADDR", flag: "redis-addr", usage: "Redis address for the redis store"},
	{key: "redis.password", env: "STUDYMAP_REDIS_PASSWORD"},
	{key: "redis.db", env: "STUDYMAP_REDIS_DB"},
	{key: "redis.prefix", env: "STUDYMAP_REDIS_PREFIX"},
	{key: "api.base_url", env: "STUDYMAP_API_URL", flag: "api-url", usage: "study plan backend base URL"},
	{key: "api.timeout_ms", env: "STUDYMAP_API_TIMEOUT_MS"},
	{key: "user_scope", env: "STUDYMAP_USER_SCOPE", flag: "user-scope", boolean: true, usage: "scope stored plans and progress to the signed-in user"},
	{key: "server.addr", env: "STUDYMAP_SERVER_ADDR"},
	{key: "log.level", env: "STUDYMAP_LOG_LEVEL", flag: "log-level", usage: "log level (debug|info|warn|error)"},
	{key: "log.format", env: "STUDYMAP_LOG_FORMAT", flag: "log-format", usage: "log format (text|json)"},
	{key: "llm.enabled", env: "STUDYMAP_LLM_ENABLED", flag: "llm", boolean: true, usage: "generate offline roadmaps with a local Ollama model"},
	{key: "llm.log_calls", env: "STUDYMAP_LLM_LOG_CALLS"},
	{key: "llm.endpoint", env: "STUDYMAP_LLM_ENDPOINT"},
	{key: "llm.model", env: "STUDYMAP_LLM_MODEL"},
	{key: "llm.timeout_ms", env: "STUDYMAP_LLM_TIMEOUT_MS"},
	{key: "llm.max_retries", env: "STUDYMAP_LLM_MAX_RETRIES"},
}

// RegisterFlags adds the persistent configuration flags. Only flags
// that are explicitly set override lower layers.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default ~/.studymap/config.yaml)")
	for _, s := range settings {
		if s.flag == "" {
			continue
		}
		if s.boolean {
			flags.Bool(s.flag, false, s.usage)
			continue
		}
		flags.String(s.flag, "", s.usage)
	}
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	path, explicit := configPath(flags)
	if path != "" {
		layer, err := readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return cfg, err
		default:
			if err := decode(layer, &cfg); err != nil {
				return cfg, fmt.Errorf("applying %s: %w", path, err)
			}
			cfg.File = path
		}
	}

	if err := decode(envLayer(), &cfg); err != nil {
		return cfg, fmt.Errorf("applying environment: %w", err)
	}
	if err := decode(flagLayer(flags), &cfg); err != nil {
		return cfg, fmt.Errorf("applying flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("invalid store %q (must be sqlite or redis)", c.Store)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", c.Log.Format)
	}
	if c.API.TimeoutMs < 0 {
		return fmt.Errorf("api.timeout_ms must be non-negative")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be non-negative")
	}
	return nil
}

func configPath(flags *pflag.FlagSet) (string, bool) {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed && f.Value.String() != "" {
			return f.Value.String(), true
		}
	}
	if p := os.Getenv(ConfigEnv); p != "" {
		return p, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".studymap", "config.yaml"), false
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var layer map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &layer); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return layer, nil
}

func envLayer() map[string]any {
	layer := map[string]any{}
	for _, s := range settings {
		if v, ok := os.LookupEnv(s.env); ok {
			setPath(layer, s.key, v)
		}
	}
	return layer
}

func flagLayer(flags *pflag.FlagSet) map[string]any {
	layer := map[string]any{}
	if flags == nil {
		return layer
	}
	for _, s := range settings {
		if s.flag == "" {
			continue
		}
		if f := flags.Lookup(s.flag); f != nil && f.Changed {
			setPath(layer, s.key, f.Value.String())
		}
	}
	return layer
}

func setPath(m map[string]any, dotted string, v any) {
	parts := strings.Split(dotted, ".")
	for _, p := range parts[:len(parts)-1] {
		sub, ok := m[p].(map[string]any)
		if !ok {
			sub = map[string]any{}
			m[p] = sub
		}
		m = sub
	}
	m[parts[len(parts)-1]] = v
}

// decode merges layer into cfg. Keys absent from layer keep their value;
// strings are converted to the target field type.
func decode(layer map[string]any, cfg *Config) error {
	if len(layer) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(layer)
}
