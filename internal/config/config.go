// Package config assembles the service settings. Sources are applied in
// increasing priority: built-in defaults, the JSON file named by CONFIG or -c,
// the .env file, environment variables and finally command line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

const (
	StorageTypeFile     = "file"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
)

// DefaultAuthSecretKey is the signing key used when none is configured. It
// is fine for local runs only.
const DefaultAuthSecretKey = "twitterapi-dev-secret"

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	UsersFileName       string        `env:"USERS_FILE_PATH" validate:"filepath"`
	PostsFileName       string        `env:"POSTS_FILE_PATH" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DatabaseDriver      string        `env:"DATABASE_DRIVER" validate:"oneof=pgx postgres"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	StorageType         string        `env:"STORAGE_TYPE" validate:"omitempty,oneof=file memory postgres"`
	AuthSecretKey       string        `env:"AUTH_SECRET_KEY" validate:"required"`
	AuthCookieName      string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	AuthTokenTTL        time.Duration `env:"AUTH_TOKEN_TTL" validate:"gt=0"`
	RequireAuth         bool          `env:"REQUIRE_AUTH"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	BcryptCost          int           `env:"BCRYPT_COST" validate:"min=4,max=31"`
	EnableGzip          bool          `env:"ENABLE_GZIP"`
	ReadTimeout         time.Duration `env:"SERVER_READ_TIMEOUT" validate:"gte=0"`
	WriteTimeout        time.Duration `env:"SERVER_WRITE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ConfigFile          string        `env:"CONFIG"`
}

// fileConfig mirrors Config in the JSON file. Absent keys leave the current
// value alone; durations are written the way time.ParseDuration reads them.
type fileConfig struct {
	RunAddr             *string `json:"server_address"`
	LogLevel            *string `json:"log_level"`
	UsersFileName       *string `json:"users_file_path"`
	PostsFileName       *string `json:"posts_file_path"`
	DatabaseDSN         *string `json:"database_dsn"`
	DatabaseDriver      *string `json:"database_driver"`
	DBConnectionTimeout *string `json:"db_connection_timeout"`
	StorageType         *string `json:"storage_type"`
	AuthSecretKey       *string `json:"auth_secret_key"`
	AuthCookieName      *string `json:"auth_cookie_name"`
	AuthTokenTTL        *string `json:"auth_token_ttl"`
	RequireAuth         *bool   `json:"require_auth"`
	TrustedSubnet       *string `json:"trusted_subnet"`
	BcryptCost          *int    `json:"bcrypt_cost"`
	EnableGzip          *bool   `json:"enable_gzip"`
	ReadTimeout         *string `json:"server_read_timeout"`
	WriteTimeout        *string `json:"server_write_timeout"`
	ShutdownTimeout     *string `json:"shutdown_timeout"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	UsersFileName:       "users.json",
	PostsFileName:       "posts.json",
	DatabaseDSN:         "",
	DatabaseDriver:      "pgx",
	DBConnectionTimeout: 10 * time.Second,
	StorageType:         "",
	AuthSecretKey:       DefaultAuthSecretKey,
	AuthCookieName:      "auth",
	AuthTokenTTL:        24 * time.Hour,
	RequireAuth:         false,
	TrustedSubnet:       "",
	BcryptCost:          10,
	EnableGzip:          true,
	ReadTimeout:         10 * time.Second,
	WriteTimeout:        10 * time.Second,
	ShutdownTimeout:     5 * time.Second,
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}

	info, err := os.Stat(path)
	if err != nil {
		return os.IsNotExist(err)
	}

	return !info.IsDir()
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":  true,
		"info":   true,
		"warn":   true,
		"error":  true,
		"dpanic": true,
		"panic":  true,
		"fatal":  true,
	}

	return allowedLogLevels[value]
}

// validateDistinctFiles rejects a users file that is also the posts file.
func validateDistinctFiles(structLevel validator.StructLevel) {
	cfg := structLevel.Current().Interface().(Config)
	if cfg.UsersFileName == "" || cfg.PostsFileName == "" {
		return
	}

	if filepath.Clean(cfg.UsersFileName) == filepath.Clean(cfg.PostsFileName) {
		structLevel.ReportError(cfg.PostsFileName, "PostsFileName", "PostsFileName", "nefield", "UsersFileName")
	}
}

func (cfg *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	validate.RegisterStructValidation(validateDistinctFiles, Config{})

	return validate.Struct(cfg)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing makes New ignore the command line.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs replaces os.Args[1:] as the command line to parse.
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func applyDefaults(cfg *Config, defaults Config) {
	*cfg = defaults
}

func parseDurationInto(dst *time.Duration, value *string, key string) error {
	if value == nil {
		return nil
	}

	parsed, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed

	return nil
}

func setIfPresent[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}

func (cfg *Config) loadJSON(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromFile fileConfig
	if err := json.Unmarshal(content, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	setIfPresent(&cfg.RunAddr, fromFile.RunAddr)
	setIfPresent(&cfg.LogLevel, fromFile.LogLevel)
	setIfPresent(&cfg.UsersFileName, fromFile.UsersFileName)
	setIfPresent(&cfg.PostsFileName, fromFile.PostsFileName)
	setIfPresent(&cfg.DatabaseDSN, fromFile.DatabaseDSN)
	setIfPresent(&cfg.DatabaseDriver, fromFile.DatabaseDriver)
	setIfPresent(&cfg.StorageType, fromFile.StorageType)
	setIfPresent(&cfg.AuthSecretKey, fromFile.AuthSecretKey)
	setIfPresent(&cfg.AuthCookieName, fromFile.AuthCookieName)
	setIfPresent(&cfg.RequireAuth, fromFile.RequireAuth)
	setIfPresent(&cfg.TrustedSubnet, fromFile.TrustedSubnet)
	setIfPresent(&cfg.BcryptCost, fromFile.BcryptCost)
	setIfPresent(&cfg.EnableGzip, fromFile.EnableGzip)

	return errors.Join(
		parseDurationInto(&cfg.DBConnectionTimeout, fromFile.DBConnectionTimeout, "db_connection_timeout"),
		parseDurationInto(&cfg.AuthTokenTTL, fromFile.AuthTokenTTL, "auth_token_ttl"),
		parseDurationInto(&cfg.ReadTimeout, fromFile.ReadTimeout, "server_read_timeout"),
		parseDurationInto(&cfg.WriteTimeout, fromFile.WriteTimeout, "server_write_timeout"),
		parseDurationInto(&cfg.ShutdownTimeout, fromFile.ShutdownTimeout, "shutdown_timeout"),
	)
}

// configPathFromArgs finds -c before the other flags are parsed, since the
// file it names sits below the flags in priority.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || (name != "c" && name != "config") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func (cfg *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet("twitterapi", flag.ContinueOnError)

	flags.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "JSON file with the configuration")
	flags.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "JSON file with the configuration")
	flags.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
	flags.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
	flags.StringVar(&cfg.UsersFileName, "u", cfg.UsersFileName, "JSON file with the users collection")
	flags.StringVar(&cfg.PostsFileName, "p", cfg.PostsFileName, "JSON file with the posts collection")
	flags.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "A string with the database connection details")
	flags.StringVar(&cfg.StorageType, "s", cfg.StorageType, "storage backend: file, memory or postgres")
	flags.StringVar(&cfg.TrustedSubnet, "t", cfg.TrustedSubnet, "CIDR of the clients allowed to read internal stats")

	return flags.Parse(args)
}

// New builds the configuration from all sources and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	cfg := &Config{}
	applyDefaults(cfg, defaultConfig)

	configPath := os.Getenv("CONFIG")
	if !options.disableFlagsParsing {
		if fromArgs := configPathFromArgs(options.args); fromArgs != "" {
			configPath = fromArgs
		}
	}
	if configPath != "" {
		if err := cfg.loadJSON(configPath); err != nil {
			return nil, err
		}
	}

	// A missing .env file is the normal case.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	if !options.disableFlagsParsing {
		if err := cfg.parseFlags(options.args); err != nil {
			return nil, err
		}
	}
	cfg.ConfigFile = configPath

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveStorageType picks the backend: the explicit STORAGE_TYPE, otherwise
// postgres when a DSN is set, otherwise the JSON files when both paths are
// set, otherwise memory.
func (cfg *Config) ResolveStorageType() int {
	switch cfg.StorageType {
	case StorageTypePostgres:
		return models.StorageTypePostgresql
	case StorageTypeFile:
		return models.StorageTypeFile
	case StorageTypeMemory:
		return models.StorageTypeMemory
	}

	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}
	if cfg.UsersFileName != "" && cfg.PostsFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}
