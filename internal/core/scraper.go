package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/imgscrape/internal/crawlers"
	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/RecoveryAshes/imgscrape/internal/storage"
	"github.com/RecoveryAshes/imgscrape/internal/utils"
	"github.com/rs/zerolog"
)

// SessionFactory 创建浏览器会话
type SessionFactory func(config models.BrowserConfig, headers models.HeaderProvider, logger zerolog.Logger) (crawlers.Session, error)

// RodSessionFactory 默认的go-rod会话
func RodSessionFactory(config models.BrowserConfig, headers models.HeaderProvider, logger zerolog.Logger) (crawlers.Session, error) {
	return crawlers.NewRodSession(config, headers, logger)
}

// RunOptions 一次运行的参数
type RunOptions struct {
	Query   models.SearchQuery
	Target  int
	Headers []string  // 命令行 -H
	Out     io.Writer // 进度条和结果摘要,默认os.Stdout
}

// Scraper 主协调器
type Scraper struct {
	config     *Config
	logger     zerolog.Logger
	newSession SessionFactory
	newFetcher func(headers models.HeaderProvider) crawlers.Fetcher
}

// NewScraper 创建协调器
func NewScraper(config *Config, logger zerolog.Logger) *Scraper {
	s := &Scraper{
		config:     config,
		logger:     logger,
		newSession: RodSessionFactory,
	}
	s.newFetcher = func(headers models.HeaderProvider) crawlers.Fetcher {
		return crawlers.NewHTTPFetcher(s.config.HTTP, headers, s.logger)
	}
	return s
}

// Run 使用默认会话执行一次抓取
func Run(ctx context.Context, config *Config, opts RunOptions, logger zerolog.Logger) (*models.RunReport, error) {
	return NewScraper(config, logger).Run(ctx, opts)
}

// Run 执行抓取任务
// 执行流程:
//  1. 合并并验证HTTP头部
//  2. 检查系统资源
//  3. 启动浏览器会话
//  4. 运行检索循环直到达到目标数量
//  5. 关闭会话,生成运行报告,输出结果摘要
//
// 结果耗尽(ErrResultsExhausted)不算失败,报告中Exhausted为true
func (s *Scraper) Run(ctx context.Context, opts RunOptions) (*models.RunReport, error) {
	startTime := time.Now()
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	runID := models.NewRunID()
	logger := s.logger.With().Str("run_id", runID).Logger()

	logger.Info().
		Str("query", opts.Query.String()).
		Int("target", opts.Target).
		Str("output", s.config.Output.BaseDir).
		Msg("🚀 开始抓取任务")

	headers, err := NewHeaderManager(s.config.HTTP.Headers, opts.Headers)
	if err != nil {
		return nil, fmt.Errorf("解析HTTP头部失败: %w", err)
	}
	if err := headers.Validate(); err != nil {
		return nil, fmt.Errorf("HTTP头部验证失败: %w", err)
	}
	logger.Debug().Interface("headers", headers.GetSafeHeaders()).Msg("HTTP头部")

	crawlers.NewResourceMonitor(s.config.Browser.MinFreeMemoryMB, logger).Preflight()

	session, err := s.newSession(s.config.Browser, headers, logger)
	if err != nil {
		return nil, fmt.Errorf("创建浏览器会话失败: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭浏览器失败")
		}
	}()

	sink := storage.NewSink(s.config.Sink, logger)
	bar := utils.NewProgressBar(out, opts.Target, "Fetching images")
	retriever := crawlers.NewRetriever(session, s.newFetcher(headers), sink, s.config.Search, bar, logger)

	stats, fetchErr := retriever.Fetch(ctx, opts.Query, opts.Target, s.config.Output.BaseDir)
	if err := bar.Close(); err != nil {
		logger.Debug().Err(err).Msg("关闭进度条失败")
	}

	report := &models.RunReport{
		RunID:     runID,
		Query:     opts.Query.String(),
		Folder:    filepath.Join(s.config.Output.BaseDir, opts.Query.FolderName()),
		StartTime: startTime,
		EndTime:   time.Now(),
		Stats:     stats,
		Search:    s.config.Search,
		Sink:      s.config.Sink,
	}

	if s.config.Output.Report {
		reportPath, err := utils.NewReporter(s.config.Output.BaseDir).GenerateReport(report)
		if err != nil {
			logger.Warn().Err(err).Msg("生成报告失败")
		} else {
			logger.Info().Str("path", reportPath).Msg("📄 报告已生成")
		}
	}

	if fetchErr != nil && !errors.Is(fetchErr, models.ErrResultsExhausted) {
		return report, fetchErr
	}

	logger.Info().
		Int("found", stats.Found).
		Int("attempted", stats.Attempted).
		Int("failures", stats.TotalFailures()).
		Bool("exhausted", stats.Exhausted).
		Float64("duration", stats.Duration).
		Msg("✅ 抓取任务完成")

	fmt.Fprintf(out, "Found: %d images, done!\n", stats.Found)
	return report, nil
}
