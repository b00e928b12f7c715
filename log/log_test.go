package log

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spf13/viper"
)

func resetLogger() {
	baseLogger = zerolog.New(os.Stderr)
	baseLevel = zerolog.InfoLevel
	isLogInit = false
	viperConf = viper.New()
}

func createConfigAndSetEnv(t *testing.T, text string) {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "solsim_log")
	require.NoError(t, err)
	_, err = tmpfile.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	envKey := confEnvPrefix + "_" + confFilePathKey
	t.Setenv(envKey, tmpfile.Name())
}

func TestDefaultLogger(t *testing.T) {
	resetLogger()
	logger := Default()
	require.NotNil(t, logger)
	assert.Equal(t, "info", logger.Level())
	assert.False(t, logger.IsDebugEnabled())
}

func TestModuleLevelOverride(t *testing.T) {
	resetLogger()
	createConfigAndSetEnv(t, `
level = "warn"

[executor]
level = "debug"
`)

	base := NewLogger("bank")
	assert.Equal(t, "warn", base.Level())

	sub := NewLogger("executor")
	assert.Equal(t, "debug", sub.Level())
	assert.True(t, sub.IsDebugEnabled())
}
