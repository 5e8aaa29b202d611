package llm

import (
	"imagestudio/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("replicate default", func(t *testing.T) {
		provider, err := NewProvider(config.Config{ReplicateAPIToken: "r8"})
		require.NoError(t, err)
		replicate, ok := provider.(*Replicate)
		require.True(t, ok)
		assert.True(t, replicate.Configured())
		assert.Equal(t, DefaultInferenceParams(), replicate.Params())
		assert.Equal(t, 5*time.Minute, replicate.timeout)
	})

	t.Run("provider timeout", func(t *testing.T) {
		cfg := config.Config{ReplicateAPIToken: "r8", ProviderTimeoutSeconds: 90}
		provider, err := NewProvider(cfg)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, provider.(*Replicate).timeout)

		cfg.ProviderDriver = "volcengine"
		cfg.VolcengineAPIKey = "ark"
		provider, err = NewProvider(cfg)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, provider.(*Volcengine).timeout)
	})

	t.Run("replicate model override", func(t *testing.T) {
		provider, err := NewProvider(config.Config{ProviderDriver: "Replicate", ReplicateModel: "owner/model"})
		require.NoError(t, err)
		assert.Equal(t, "owner/model", provider.(*Replicate).Params().Model)
		assert.False(t, provider.Configured())
	})

	t.Run("volcengine", func(t *testing.T) {
		provider, err := NewProvider(config.Config{ProviderDriver: "volcengine", VolcengineAPIKey: "ark"})
		require.NoError(t, err)
		assert.Equal(t, "volcengine", provider.Name())
		assert.True(t, provider.Configured())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewProvider(config.Config{ProviderDriver: "dall-e"})
		assert.Error(t, err)
	})
}
