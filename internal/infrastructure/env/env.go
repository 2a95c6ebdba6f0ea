package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"webchat-bridge/internal/application/port/output"
)

var _ output.ConfigPort = (*EnvService)(nil)

// EnvService reads settings from the process environment after loading
// .env and .env.<APP_ENV> from dir. Variables already set in the process
// win over .env; .env.<APP_ENV> wins over .env.
type EnvService struct {
	appEnv string
}

func NewEnvService(logger output.LoggerPort) *EnvService {
	return Load(".", logger)
}

func Load(dir string, logger output.LoggerPort) *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		logger.Debug("No .env file found", "dir", dir)
	}

	envFile := filepath.Join(dir, fmt.Sprintf(".env.%s", appEnv))
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Overload(envFile); err != nil {
			logger.Warn("Could not load env file", "file", envFile, "error", err.Error())
		}
	}

	logger.Debug("Environment loaded", "app_env", appEnv)
	return &EnvService{appEnv: appEnv}
}

func (e *EnvService) AppEnv() string {
	return e.appEnv
}

func (e *EnvService) Get(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	if val := e.Get(key); val != "" {
		return val
	}
	return defaultValue
}

// MustGet returns an error instead of exiting so callers can report which
// setting is missing.
func (e *EnvService) MustGet(key string) (string, error) {
	val := e.Get(key)
	if val == "" {
		return "", fmt.Errorf("env %s is missing", key)
	}
	return val, nil
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDuration accepts Go duration strings ("90s") or a plain number of
// seconds.
func (e *EnvService) GetDuration(key string, defaultValue time.Duration) time.Duration {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
