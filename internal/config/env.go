package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDB      = "SPEEDTYPE_DB"
	EnvUser    = "SPEEDTYPE_USER"
	EnvDebug   = "SPEEDTYPE_DEBUG"
	EnvLogFile = "SPEEDTYPE_LOG_FILE"
)

// Env holds settings read from the environment and an optional .env file.
type Env struct {
	DBPath  string
	User    string
	Debug   *bool
	LogFile string
}

// LoadEnv reads .env from the working directory when present, then the
// process environment. Variables already set in the environment win.
func LoadEnv() Env {
	_ = godotenv.Load()
	return Env{
		DBPath:  getEnv(EnvDB, DefaultDBPath()),
		User:    getEnv(EnvUser, ""),
		Debug:   getEnvBool(EnvDebug),
		LogFile: getEnv(EnvLogFile, ""),
	}
}

// Apply overlays non-empty environment values onto the file config.
func (e Env) Apply(cfg *FileConfig) {
	if e.User != "" {
		user := e.User
		cfg.Practice.User = &user
	}
	if e.Debug != nil {
		debug := *e.Debug
		cfg.Log.Debug = &debug
	}
	if e.LogFile != "" {
		file := e.LogFile
		cfg.Log.File = &file
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string) *bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &b
}
