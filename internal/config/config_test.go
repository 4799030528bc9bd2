package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Sessions: SessionConfig{
			StaleAfter:      24 * time.Hour,
			StaleCap:        4 * time.Hour,
			Retention:       7 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validTestConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_SessionDurations(t *testing.T) {
	t.Run("zero stale-after rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Sessions.StaleAfter = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("retention shorter than stale-after rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Sessions.Retention = 12 * time.Hour
		assert.Error(t, cfg.Validate())
	})

	t.Run("retention equal to stale-after accepted", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Sessions.Retention = cfg.Sessions.StaleAfter
		assert.NoError(t, cfg.Validate())
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		def  string
		want string
	}{
		{"empty uses default", "", "/default", "/default"},
		{"tilde expands", "~/data", "", filepath.Join(home, "data")},
		{"absolute unchanged", "/abs/path", "", "/abs/path"},
		{"cleaned", "/abs//path/../path", "", "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.in, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandDataPath_Default(t *testing.T) {
	cfg := validTestConfig()
	cfg.Data.BasePath = ""

	require.NoError(t, cfg.expandDataPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "StudyDesk", "data"), cfg.Data.BasePath)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("STUDYDESK_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "STUDYDESK_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "STUDYDESK_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "STUDYDESK_TEST_MISSING", "default"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nSTUDYDESK_ENVFILE_A=hello\nSTUDYDESK_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Setenv("STUDYDESK_ENVFILE_A", "") // ensure unset semantics
	os.Unsetenv("STUDYDESK_ENVFILE_A")
	os.Unsetenv("STUDYDESK_ENVFILE_B")
	defer func() {
		os.Unsetenv("STUDYDESK_ENVFILE_A")
		os.Unsetenv("STUDYDESK_ENVFILE_B")
	}()

	require.NoError(t, loadEnvFile(envPath))

	assert.Equal(t, "hello", os.Getenv("STUDYDESK_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("STUDYDESK_ENVFILE_B"))
}

func TestLoadEnvFile_InvalidLine(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("not-a-pair\n"), 0o600))

	assert.Error(t, loadEnvFile(envPath))
}
