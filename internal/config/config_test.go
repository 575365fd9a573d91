package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

const testJSON = `{
	"server_address": ":3000",
	"log_level": "warn",
	"users_file_path": "json_users.json",
	"posts_file_path": "json_posts.json",
	"database_dsn": "json-dsn",
	"require_auth": true,
	"auth_token_ttl": "90m"
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// chdirTemp keeps a developer's .env file out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(wd))
	})
}

func TestDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "users.json", cfg.UsersFileName)
	assert.Equal(t, "posts.json", cfg.PostsFileName)
	assert.Equal(t, 10*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.False(t, cfg.RequireAuth)
	assert.Equal(t, models.StorageTypeFile, cfg.ResolveStorageType())
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json_users.json", cfg.UsersFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.True(t, cfg.RequireAuth)
	assert.Equal(t, 90*time.Minute, cfg.AuthTokenTTL)
	assert.Equal(t, "auth", cfg.AuthCookieName) // default, absent from JSON
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("REQUIRE_AUTH", "false")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.False(t, cfg.RequireAuth)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := New(WithArgs([]string{"-a", ":6000", "-s", "memory"}))
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
	assert.Equal(t, models.StorageTypeMemory, cfg.ResolveStorageType())
}

func TestConfigFileFromFlag(t *testing.T) {
	chdirTemp(t)
	fromEnv := writeTempJSON(t, `{"server_address": ":1111"}`)
	fromFlag := writeTempJSON(t, `{"server_address": ":2222"}`)
	t.Setenv("CONFIG", fromEnv)

	cfg, err := New(WithArgs([]string{"-c", fromFlag}))
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.RunAddr)
	assert.Equal(t, fromFlag, cfg.ConfigFile)

	cfg, err = New(WithArgs([]string{"-config=" + fromEnv}))
	require.NoError(t, err)
	assert.Equal(t, ":1111", cfg.RunAddr)
}

func TestDotEnv(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(".env", []byte("TRUSTED_SUBNET=10.0.0.0/8\nBCRYPT_COST=12\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TRUSTED_SUBNET")
		os.Unsetenv("BCRYPT_COST")
	})
	t.Setenv("BCRYPT_COST", "5")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.Equal(t, 5, cfg.BcryptCost) // real env beats .env
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "server address", key: "SERVER_ADDRESS", value: "no port here"},
		{name: "storage type", key: "STORAGE_TYPE", value: "redis"},
		{name: "database driver", key: "DATABASE_DRIVER", value: "mysql"},
		{name: "trusted subnet", key: "TRUSTED_SUBNET", value: "10.0.0.1"},
		{name: "bcrypt cost", key: "BCRYPT_COST", value: "2"},
		{name: "users file is a directory", key: "USERS_FILE_PATH", value: os.TempDir()},
		{name: "duration", key: "SHUTDOWN_TIMEOUT", value: "soon"},
		{name: "posts file equals users file", key: "POSTS_FILE_PATH", value: "./users.json"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(test.key, test.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestBrokenJSON(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG", writeTempJSON(t, `{"server_address": `))

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)

	t.Setenv("CONFIG", writeTempJSON(t, `{"shutdown_timeout": "later"}`))
	_, err = New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestResolveStorageType(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{name: "explicit postgres", cfg: Config{StorageType: StorageTypePostgres}, want: models.StorageTypePostgresql},
		{name: "explicit memory wins over dsn", cfg: Config{StorageType: StorageTypeMemory, DatabaseDSN: "dsn"}, want: models.StorageTypeMemory},
		{name: "explicit file", cfg: Config{StorageType: StorageTypeFile}, want: models.StorageTypeFile},
		{name: "dsn", cfg: Config{DatabaseDSN: "dsn", UsersFileName: "u.json", PostsFileName: "p.json"}, want: models.StorageTypePostgresql},
		{name: "files", cfg: Config{UsersFileName: "u.json", PostsFileName: "p.json"}, want: models.StorageTypeFile},
		{name: "one file only", cfg: Config{UsersFileName: "u.json"}, want: models.StorageTypeMemory},
		{name: "nothing", cfg: Config{}, want: models.StorageTypeMemory},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.cfg.ResolveStorageType())
		})
	}
}
