package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

func TestGenerateConfig_Defaults(t *testing.T) {
	cfg := generateConfig(llm.DefaultGeneration())

	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(0), *cfg.Temperature)
	require.NotNil(t, cfg.TopP)
	assert.Equal(t, float32(1), *cfg.TopP)
	require.NotNil(t, cfg.TopK)
	assert.Equal(t, float32(40), *cfg.TopK)
	assert.Equal(t, int32(1024), cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	_, err := NewClient(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotConfigured))
}
