package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/RecoveryAshes/imgscrape/internal/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRun struct {
	called bool
	config *core.Config
	opts   core.RunOptions
}

func (r *recordedRun) runner(err error) Runner {
	return func(_ context.Context, config *core.Config, opts core.RunOptions, _ zerolog.Logger) error {
		r.called = true
		r.config = config
		r.opts = opts
		return err
	}
}

// runCLI 在隔离的HOME下执行命令,返回退出码和输出
func runCLI(t *testing.T, run Runner, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(run)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	code := execute(context.Background(), cmd, args)
	return code, stdout.String(), stderr.String()
}

func TestCLI_UnknownFlag(t *testing.T) {
	rec := &recordedRun{}
	code, _, stderr := runCLI(t, rec.runner(nil), "--bogus", "cats")

	assert.Equal(t, 1, code)
	assert.False(t, rec.called, "不能启动浏览器")
	assert.Contains(t, stderr, "unknown options")
	assert.Contains(t, stderr, "Usage:")
}

func TestCLI_NoQuery(t *testing.T) {
	rec := &recordedRun{}
	code, _, stderr := runCLI(t, rec.runner(nil))

	assert.Equal(t, 2, code)
	assert.False(t, rec.called)
	assert.Contains(t, stderr, "no query supplied")
	assert.Contains(t, stderr, "Usage:")

	code, _, _ = runCLI(t, rec.runner(nil), "-n", "3")
	assert.Equal(t, 2, code)
	assert.False(t, rec.called)

	for _, blank := range [][]string{{""}, {"  ", "\t"}} {
		code, _, stderr = runCLI(t, rec.runner(nil), blank...)
		assert.Equal(t, 2, code, "空白查询 %q", blank)
		assert.False(t, rec.called)
		assert.Contains(t, stderr, "no query supplied")
		assert.Contains(t, stderr, "Usage:")
	}
}

func TestCLI_Run(t *testing.T) {
	rec := &recordedRun{}
	code, _, stderr := runCLI(t, rec.runner(nil), "red", "panda", "-n", "3")

	require.Equal(t, 0, code, stderr)
	require.True(t, rec.called)
	assert.Equal(t, "red panda", rec.opts.Query.String())
	assert.Equal(t, 3, rec.opts.Target)
	assert.Equal(t, "images", rec.config.Output.BaseDir)
	assert.True(t, rec.config.Browser.Headless)
}

func TestCLI_Flags(t *testing.T) {
	rec := &recordedRun{}
	code, _, stderr := runCLI(t, rec.runner(nil),
		"-o", "out", "-s", "-v",
		"-H", "Accept-Language: en-US, en;q=0.9",
		"--log-level", "warn",
		"golden retriever",
	)

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "golden retriever", rec.opts.Query.String())
	assert.Equal(t, 5, rec.opts.Target)
	assert.Equal(t, "out", rec.config.Output.BaseDir)
	assert.False(t, rec.config.Browser.Headless)
	assert.Equal(t, "warn", rec.config.Logging.Level)
	assert.Equal(t, []string{"Accept-Language: en-US, en;q=0.9"}, rec.opts.Headers)
}

func TestCLI_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"数量为0", []string{"-n", "0", "cats"}},
		{"数量为负数", []string{"-n", "-2", "cats"}},
		{"无效日志级别", []string{"--log-level", "loud", "cats"}},
		{"配置文件不存在", []string{"-c", "/nonexistent/imgscrape.yaml", "cats"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordedRun{}
			code, _, stderr := runCLI(t, rec.runner(nil), tt.args...)
			assert.Equal(t, 1, code)
			assert.False(t, rec.called)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestCLI_RunnerErrors(t *testing.T) {
	rec := &recordedRun{}
	code, _, stderr := runCLI(t, rec.runner(errors.New("chrome not found")), "cats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "chrome not found")

	code, _, _ = runCLI(t, rec.runner(context.Canceled), "cats")
	assert.Equal(t, 130, code)
}

func TestCLI_ValidateConfig(t *testing.T) {
	rec := &recordedRun{}
	code, stdout, _ := runCLI(t, rec.runner(nil), "--validate-config", "-H", "Authorization: Bearer secret-token")

	assert.Equal(t, 0, code)
	assert.False(t, rec.called)
	assert.Contains(t, stdout, "Authorization: Bearer ***")
	assert.NotContains(t, stdout, "secret-token")

	code, _, stderr := runCLI(t, rec.runner(nil), "--validate-config", "-H", "Host: evil.example")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "配置验证失败")
}

func TestCLI_Version(t *testing.T) {
	rec := &recordedRun{}
	code, stdout, _ := runCLI(t, rec.runner(nil), "--version")

	assert.Equal(t, 0, code)
	assert.False(t, rec.called)
	assert.Contains(t, stdout, Version)
}

func TestValidateFlags(t *testing.T) {
	assert.NoError(t, ValidateFlags(1, ""))
	assert.NoError(t, ValidateFlags(10, "info"))
	assert.Error(t, ValidateFlags(0, ""))
	assert.Error(t, ValidateFlags(1, "verbose"))
}
