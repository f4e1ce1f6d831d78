package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/RecoveryAshes/imgscrape/internal/core"
	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/RecoveryAshes/imgscrape/internal/utils"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// 退出码
const (
	exitOK          = 0
	exitError       = 1
	exitBadFlags    = 1
	exitNoQuery     = 2
	exitInterrupted = 130
)

// Runner 执行一次抓取,测试中替换为假实现
type Runner func(ctx context.Context, config *core.Config, opts core.RunOptions, logger zerolog.Logger) error

// UsageError 命令行用法错误,Code为进程退出码
type UsageError struct {
	Code int
	Err  error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// rootFlags 命令行参数
type rootFlags struct {
	number         int
	outputDir      string
	showBrowser    bool
	verbose        bool
	configFile     string
	logLevel       string
	headers        []string
	validateConfig bool
}

func newRootCmd(run Runner) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "imgscrape [flags] <query words>...",
		Short: "从Google图片搜索下载图片",
		Long: `imgscrape - 从Google图片搜索下载图片

打开浏览器搜索关键词,逐个点击结果缩略图,下载大图并保存为JPEG:
  <输出目录>/<关键词,空格替换为下划线>/<内容SHA-1>.jpg

示例:
  imgscrape red panda
  imgscrape -n 20 -o pictures -s "golden retriever"
  imgscrape -H "Referer: https://www.google.com/" cats

版本: ` + Version + `
构建时间: ` + BuildTime,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, flags, run)
		},
	}

	cmd.Flags().IntVarP(&flags.number, "number", "n", 5, "要下载的图片数量")
	cmd.Flags().StringVarP(&flags.outputDir, "output-directory", "o", "images", "图片保存根目录")
	cmd.Flags().BoolVarP(&flags.showBrowser, "show-browser", "s", false, "下载过程中显示浏览器窗口")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "输出调试信息")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "配置文件路径")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	cmd.Flags().BoolVar(&flags.validateConfig, "validate-config", false, "验证配置和HTTP头部后退出")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(c.ErrOrStderr(), "unknown options %v\n", err)
		fmt.Fprint(c.ErrOrStderr(), c.UsageString())
		return &UsageError{Code: exitBadFlags, Err: err}
	})

	return cmd
}

func runRoot(cmd *cobra.Command, args []string, flags *rootFlags, run Runner) error {
	// 空白参数与没有参数一样
	query, queryErr := models.NewSearchQuery(args)
	if queryErr != nil && !flags.validateConfig {
		fmt.Fprintln(cmd.ErrOrStderr(), "no query supplied")
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return &UsageError{Code: exitNoQuery, Err: errors.New("no query supplied")}
	}

	if err := ValidateFlags(flags.number, flags.logLevel); err != nil {
		return err
	}

	config, err := core.LoadConfig(flags.configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 只有显式指定的参数覆盖配置文件
	opts := core.CLIOptions{
		ShowBrowser: flags.showBrowser,
		LogLevel:    flags.logLevel,
	}
	if cmd.Flags().Changed("output-directory") {
		opts.OutputDir = flags.outputDir
	}
	config.MergeCLIFlags(opts)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	if flags.validateConfig {
		return printHeaders(cmd, config, flags.headers)
	}

	logConfig := config.LogConfig(flags.verbose)
	logConfig.Console = cmd.OutOrStdout()
	logger, err := utils.NewLogger(logConfig)
	if err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	logger.Info().Msg("详细模式已启用")

	return run(cmd.Context(), config, core.RunOptions{
		Query:   query,
		Target:  flags.number,
		Headers: flags.headers,
		Out:     cmd.OutOrStdout(),
	}, logger)
}

// printHeaders 验证并显示合并后的HTTP头部(脱敏)
func printHeaders(cmd *cobra.Command, config *core.Config, cliHeaders []string) error {
	hm, err := core.NewHeaderManager(config.HTTP.Headers, cliHeaders)
	if err != nil {
		return fmt.Errorf("解析HTTP头部失败: %w", err)
	}
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safe := hm.GetSafeHeaders()
	names := make([]string, 0, len(safe))
	for name := range safe {
		names = append(names, name)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✅ 配置验证通过!")
	fmt.Fprintf(out, "当前有效的HTTP头部 (%d个):\n", len(safe))
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, safe[name])
	}
	return nil
}

// execute 运行命令并返回进程退出码
func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return usageErr.Code
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "已中断")
		return exitInterrupted
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "错误: %v\n", err)
	return exitError
}
