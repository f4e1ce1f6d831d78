package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Silent(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultLogConfig()
	config.Console = &buf

	logger, err := NewLogger(config)
	require.NoError(t, err)

	logger.Error().Msg("不应该输出")
	logger.Info().Msg("不应该输出")
	assert.Zero(t, buf.Len(), "非详细模式下不应有任何日志输出")
}

func TestNewLogger_Verbose(t *testing.T) {
	tempDir := t.TempDir()
	var buf bytes.Buffer

	config := DefaultLogConfig()
	config.Verbose = true
	config.LogDir = tempDir
	config.Compress = false
	config.Console = &buf

	logger, err := NewLogger(config)
	require.NoError(t, err)

	logger.Info().Msg("测试信息日志")
	logger.Warn().Msg("测试警告日志")
	logger.Error().Msg("测试错误日志")

	assert.Contains(t, buf.String(), "测试信息日志")

	mainLog, err := os.ReadFile(filepath.Join(tempDir, "imgscrape.log"))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "测试信息日志")
	assert.Contains(t, string(mainLog), "测试错误日志")

	errorLog, err := os.ReadFile(filepath.Join(tempDir, "imgscrape_error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "测试错误日志")
	assert.NotContains(t, string(errorLog), "测试信息日志")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultLogConfig()
	config.Verbose = true
	config.Level = "warn"
	config.Console = &buf

	logger, err := NewLogger(config)
	require.NoError(t, err)

	logger.Debug().Msg("调试日志")
	logger.Warn().Msg("警告日志")

	assert.NotContains(t, buf.String(), "调试日志")
	assert.Contains(t, buf.String(), "警告日志")
}

func TestFilteredWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &FilteredWriter{Writer: &buf, MinLevel: zerolog.ErrorLevel}

	n, err := w.WriteLevel(zerolog.InfoLevel, []byte("info"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Zero(t, buf.Len())

	_, err = w.WriteLevel(zerolog.ErrorLevel, []byte("error"))
	require.NoError(t, err)
	assert.Equal(t, "error", buf.String())
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()
	assert.Equal(t, "debug", config.Level)
	assert.False(t, config.Verbose)
	assert.Empty(t, config.LogDir)
	assert.Equal(t, 10, config.MaxSize)
	assert.True(t, config.Compress)
}
