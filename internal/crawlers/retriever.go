package crawlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Fetcher 下载图片字节
type Fetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageSink 持久化图片字节
type ImageSink interface {
	Persist(data []byte, dir string) (models.StoredImage, error)
}

// Progress 进度显示
type Progress interface {
	Add(n int) error
	Close() error
}

type noopProgress struct{}

func (noopProgress) Add(int) error { return nil }
func (noopProgress) Close() error  { return nil }

// Retriever 检索循环: 反复查询缩略图,逐个点击、读取预览、下载并保存
type Retriever struct {
	session  Session
	fetcher  Fetcher
	sink     ImageSink
	config   models.SearchConfig
	progress Progress
	logger   zerolog.Logger
}

// NewRetriever 创建检索循环, progress可以为nil
func NewRetriever(session Session, fetcher Fetcher, sink ImageSink, config models.SearchConfig, progress Progress, logger zerolog.Logger) *Retriever {
	if progress == nil {
		progress = noopProgress{}
	}
	return &Retriever{
		session:  session,
		fetcher:  fetcher,
		sink:     sink,
		config:   config,
		progress: progress,
		logger:   logger,
	}
}

// Fetch 为query收集target张图片,写入 outputDir/<query_with_underscores>
// 返回时stats.Found == target,除非ctx被取消或结果耗尽(ErrResultsExhausted)
func (r *Retriever) Fetch(ctx context.Context, query models.SearchQuery, target int, outputDir string) (stats models.RunStats, err error) {
	startTime := time.Now()
	stats = models.NewRunStats(target)
	defer func() {
		stats.Duration = time.Since(startTime).Seconds()
	}()

	searchURL, err := query.SearchURL(r.config.URLTemplate)
	if err != nil {
		return stats, err
	}
	dir := filepath.Join(outputDir, query.FolderName())

	r.logger.Info().Str("query", query.String()).Int("target", target).Str("dir", dir).Msg("🔍 开始检索")

	if err := r.session.Navigate(ctx, searchURL); err != nil {
		return stats, fmt.Errorf("打开搜索页面失败: %w", err)
	}

	limiter := newInteractionLimiter(r.config.InteractionInterval)
	counters := models.ProgressCounters{Target: target}
	maxDiscovered := 0
	stalled := 0
	// 本次运行已保存内容的哈希,重复内容不计入Found
	saved := make(map[string]string)

	for !counters.Done() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		thumbs, queryErr := r.session.Thumbnails(ctx, r.config.ThumbnailSelector)
		if queryErr != nil {
			r.logger.Warn().Err(queryErr).Msg("查询缩略图失败")
			thumbs = nil
		} else {
			stats.Discovered = len(thumbs)
		}
		stats.Passes++

		batch := models.Batch(&counters, thumbs)
		foundBefore := counters.Found

		r.logger.Debug().
			Int("pass", stats.Passes).
			Int("discovered", len(thumbs)).
			Int("cursor", counters.Cursor).
			Int("batch", len(batch)).
			Msg("新一轮检索")

		for _, thumb := range batch {
			if err := limiter.Wait(ctx); err != nil {
				return stats, err
			}

			stats.Attempted++
			stored, err := r.processThumbnail(ctx, thumb, dir)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return stats, ctxErr
				}
				r.recordFailure(&stats, err)
				continue
			}
			if existing, ok := saved[stored.Hash]; ok {
				r.recordFailure(&stats, models.NewStepError(models.FailureDuplicate,
					fmt.Errorf("内容已保存为 %s", existing)))
				continue
			}
			saved[stored.Hash] = stored.Path

			counters.Found++
			stats.Found = counters.Found
			stats.Images = append(stats.Images, stored)
			if err := r.progress.Add(1); err != nil {
				r.logger.Debug().Err(err).Msg("更新进度失败")
			}

			if counters.Done() {
				r.logger.Info().Int("found", counters.Found).Msg("✅ 已达到目标数量")
				return stats, nil
			}
		}

		// 查询失败时保留游标,下一轮不重复点击已保存的缩略图
		if queryErr == nil {
			counters.Advance(len(thumbs))
		}

		if len(thumbs) > maxDiscovered || counters.Found > foundBefore {
			stalled = 0
		} else {
			stalled++
		}
		if len(thumbs) > maxDiscovered {
			maxDiscovered = len(thumbs)
		}

		if r.config.MaxStallPasses > 0 && stalled >= r.config.MaxStallPasses {
			stats.Exhausted = true
			r.logger.Warn().
				Int("found", counters.Found).
				Int("target", target).
				Int("passes", stalled).
				Msg("连续多轮没有新结果,停止检索")
			return stats, models.ErrResultsExhausted
		}

		if err := r.session.ScrollToBottom(ctx); err != nil {
			r.logger.Debug().Err(err).Msg("滚动到底部失败")
		}
		if err := sleepContext(ctx, r.config.ScrollPause); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// processThumbnail 处理单个缩略图: 滚动 -> 点击 -> 等待预览 -> 取来源 -> 获取字节 -> 保存
func (r *Retriever) processThumbnail(ctx context.Context, thumb Element, dir string) (models.StoredImage, error) {
	if err := thumb.ScrollIntoView(); err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailureScroll, err)
	}
	if err := thumb.Click(r.config.ClickTimeout); err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailureClick, err)
	}

	preview, err := r.session.WaitPreview(ctx, r.config.PreviewSelector, r.config.PreviewTimeout)
	if err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailurePreviewTimeout, err)
	}

	src, err := preview.Attribute("src")
	if err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailureSource, err)
	}

	markup := ""
	if r.config.InlinePayloads && !strings.HasPrefix(src, "data:") && !strings.Contains(src, "http") {
		if markup, err = preview.HTML(); err != nil {
			return models.StoredImage{}, models.NewStepError(models.FailureSource, err)
		}
	}

	revealed, err := ClassifySource(src, markup, r.config.InlinePayloads)
	if err != nil {
		return models.StoredImage{}, err
	}

	data, err := r.acquire(ctx, revealed)
	if err != nil {
		return models.StoredImage{}, err
	}

	stored, err := r.sink.Persist(data, dir)
	if err != nil {
		return models.StoredImage{}, err
	}
	stored.SourceURL = revealed.URL
	return stored, nil
}

// acquire 下载URL或解码内嵌数据
func (r *Retriever) acquire(ctx context.Context, revealed models.RevealedImage) ([]byte, error) {
	if revealed.IsInline() {
		return DecodeInlinePayload(revealed.Inline)
	}
	data, err := r.fetcher.GetBytes(ctx, revealed.URL)
	if err != nil {
		return nil, models.NewStepError(models.FailureFetch, err)
	}
	return data, nil
}

// recordFailure 统计并记录单个缩略图的失败,不中止运行
func (r *Retriever) recordFailure(stats *models.RunStats, err error) {
	kind := models.KindOf(err)
	if kind == "" {
		kind = models.FailureWrite
	}
	stats.RecordFailure(kind)

	event := r.logger.Warn()
	if kind == models.FailureDuplicate {
		event = r.logger.Debug()
	}
	event.Err(err).Str("kind", string(kind)).Msg("跳过缩略图")
}

// newInteractionLimiter interval为0时不限速
func newInteractionLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
