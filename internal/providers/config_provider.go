package providers

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"seatcheck/internal/structures"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envBindings = map[string]string{
	"webServer.host":           "SEATCHECK_HOST",
	"webServer.port":           "SEATCHECK_PORT",
	"logger.level":             "SEATCHECK_LOG_LEVEL",
	"logger.dir":               "SEATCHECK_LOG_DIR",
	"presence.stalenessTTL":    "SEATCHECK_STALENESS_TTL",
	"presence.sweepInterval":   "SEATCHECK_SWEEP_INTERVAL",
	"storage.driver":           "SEATCHECK_STORAGE_DRIVER",
	"storage.sqlitePath":       "SEATCHECK_SQLITE_PATH",
	"storage.timeout":          "SEATCHECK_STORAGE_TIMEOUT",
	"persistence.filePath":     "SEATCHECK_SNAPSHOT_PATH",
	"persistence.saveInterval": "SEATCHECK_SAVE_INTERVAL",
	"cache.enabled":            "SEATCHECK_CACHE_ENABLED",
	"cache.size":               "SEATCHECK_CACHE_SIZE",
	"metrics.enabled":          "SEATCHECK_METRICS_ENABLED",
	"auth.jwtSecret":           "SEATCHECK_JWT_SECRET",
	"auth.allowHeader":         "SEATCHECK_AUTH_ALLOW_HEADER",
}

// NewConfigProvider reads the yaml file named by the flags. Variables from a
// .env file next to the working directory are loaded first so the bound
// SEATCHECK_* overrides see them.
func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "SeatCheck"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
