package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvFileEnvVar      = "SCOPE_Z_ENV"
	SettingsPathEnvVar = "SETTINGS_PATH"
	EnginePathEnvVar   = "ENGINE_PATH"

	DefaultPollInterval = 50 * time.Millisecond
	DefaultPollTimeout  = 250 * time.Millisecond
	DefaultLogLevel     = "info"

	settingsFileName = "config.json"
)

// LoadOptions carry command-line overrides; they take precedence over .env and the environment.
type LoadOptions struct {
	SettingsPathOverride string
	EnginePathOverride   string
}

// Config is the application configuration. User-editable magnifier settings live in the
// settings file named by SettingsPath, not here.
type Config struct {
	SettingsPath      string
	EnginePath        string
	PollInterval      time.Duration
	PollTimeout       time.Duration
	EnableFileLogging bool
	LogLevel          string
	LogDir            string
	WatchSettings     bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, the file named by SCOPE_Z_ENV
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	appDir := executableDir()

	cfg := &Config{
		SettingsPath:      resolvePath(opts.SettingsPathOverride, dotenvValues, SettingsPathEnvVar, filepath.Join(appDir, settingsFileName)),
		EnginePath:        resolvePath(opts.EnginePathOverride, dotenvValues, EnginePathEnvVar, filepath.Join(appDir, DefaultEngineLibrary())),
		PollInterval:      getEnvMillis("POLL_INTERVAL_MS", DefaultPollInterval),
		PollTimeout:       getEnvMillis("POLL_TIMEOUT_MS", DefaultPollTimeout),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", DefaultLogLevel)),
		LogDir:            getEnvWithDefault("LOG_DIR", appDir),
		WatchSettings:     strings.ToLower(getEnvWithDefault("WATCH_SETTINGS", "true")) != "false",
	}

	return cfg, nil
}

// DefaultEngineLibrary is the platform file name of the magnifier engine.
func DefaultEngineLibrary() string {
	switch runtime.GOOS {
	case "windows":
		return "scope_z.dll"
	case "darwin":
		return "libscope_z.dylib"
	default:
		return "libscope_z.so"
	}
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

// resolvePath picks, from lowest to highest precedence: fallback, process env, .env file, override.
func resolvePath(override string, dotenvValues map[string]string, envVar, fallback string) string {
	p := fallback

	if envPath := strings.TrimSpace(os.Getenv(envVar)); envPath != "" {
		p = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[envVar]); dotenvPath != "" {
		p = dotenvPath
	}

	if overridePath := strings.TrimSpace(override); overridePath != "" {
		p = overridePath
	}

	return p
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return defaultValue
}
