package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// ErrEmptyBody 响应成功但没有内容
var ErrEmptyBody = errors.New("响应体为空")

const (
	ctxKeyBody     = "body"
	ctxKeyEncoding = "encoding"
)

// HTTPFetcher 基于Colly的同步图片下载器
type HTTPFetcher struct {
	collector *colly.Collector
	headers   models.HeaderProvider
	logger    zerolog.Logger
}

// NewHTTPFetcher 创建下载器
func NewHTTPFetcher(config models.HTTPConfig, headers models.HeaderProvider, logger zerolog.Logger) *HTTPFetcher {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.MaxBodySize(config.MaxBodySize),
	)
	c.SetRequestTimeout(config.Timeout)

	f := &HTTPFetcher{
		collector: c,
		headers:   headers,
		logger:    logger,
	}
	f.setupCallbacks()

	logger.Debug().
		Dur("timeout", config.Timeout).
		Int("max_body_size", config.MaxBodySize).
		Msg("图片下载器已创建")

	return f
}

// setupCallbacks 设置Colly回调
func (f *HTTPFetcher) setupCallbacks() {
	f.collector.OnRequest(func(r *colly.Request) {
		if f.headers == nil {
			return
		}
		headers, err := f.headers.GetHeaders()
		if err != nil {
			f.logger.Warn().Err(err).Msg("获取HTTP头部失败")
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxKeyBody, r.Body)
		r.Ctx.Put(ctxKeyEncoding, r.Headers.Get("Content-Encoding"))
	})
}

// GetBytes 发起一次GET请求并返回响应体
// 请求是同步的,ctx只在请求开始前检查
func (f *HTTPFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	if err := f.collector.Request(http.MethodGet, url, nil, reqCtx, nil); err != nil {
		return nil, fmt.Errorf("请求失败 [%s]: %w", url, err)
	}

	body, _ := reqCtx.GetAny(ctxKeyBody).([]byte)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w [%s]", ErrEmptyBody, url)
	}

	encoding := reqCtx.Get(ctxKeyEncoding)
	if encoding != "" {
		decompressed, err := decompressResponse(encoding, body)
		if err != nil {
			// 解压失败,仍然尝试使用原始body
			f.logger.Debug().Err(err).Str("url", url).Str("encoding", encoding).Msg("解压响应失败,使用原始数据")
		} else {
			body = decompressed
		}
	}

	f.logger.Debug().Str("url", url).Int("bytes", len(body)).Msg("⬇️ 下载完成")
	return body, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// Colly可能已经解过gzip,此时gzip.NewReader失败,调用方回退到原始body
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	var reader io.Reader

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("创建gzip读取器失败: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(bytes.NewReader(body))
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	case "", "identity":
		return body, nil
	default:
		return nil, fmt.Errorf("不支持的压缩格式: %s", contentEncoding)
	}

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s读取失败: %w", contentEncoding, err)
	}
	return decompressed, nil
}
