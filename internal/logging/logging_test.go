package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/config"
)

func TestNew(t *testing.T) {
	for _, env := range []config.Environment{config.Development, config.Test, config.Production} {
		logger, err := New(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}

func TestTestEnvironmentLogsWarningsOnly(t *testing.T) {
	logger, err := New(config.Test)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	logger := zap.NewExample()
	assert.Same(t, logger, OrNop(logger))
}
