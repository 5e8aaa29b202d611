package config

import (
	"imagestudio/internal/entity"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	cfg, err := ParseConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, DriverReplicate, cfg.Driver())
	assert.Equal(t, 300, cfg.ProviderTimeoutSeconds)
	assert.Equal(t, "file", cfg.HistoryBackend)
	assert.Equal(t, 200, cfg.HistoryMaxRecords)
	assert.Equal(t, "~/.imagestudio/imageHistory.json", cfg.HistoryPath)
	assert.Equal(t, "r8_test", cfg.ProviderCredential())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		setting string
	}{
		{name: "replicate ok", cfg: Config{ReplicateAPIToken: "r8"}},
		{name: "volcengine ok", cfg: Config{ProviderDriver: "Volcengine", VolcengineAPIKey: "ak"}},
		{name: "replicate missing token", cfg: Config{ReplicateAPIToken: "  "}, setting: "REPLICATE_API_TOKEN"},
		{name: "volcengine missing key", cfg: Config{ProviderDriver: "volcengine", ReplicateAPIToken: "r8"}, setting: "VOLCENGINE_API_KEY"},
		{name: "unknown driver", cfg: Config{ProviderDriver: "dalle", ReplicateAPIToken: "r8"}, setting: "PROVIDER_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.setting == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *entity.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.setting, cerr.Setting)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, Config{LogLevel: "debug"}.ParseLogLevel())
	assert.Equal(t, logrus.InfoLevel, Config{LogLevel: "nonsense"}.ParseLogLevel())
}
