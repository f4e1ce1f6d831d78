package crawlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/imgscrape/internal/models"
	"golang.org/x/net/html"
)

var (
	// ErrNoSource 预览元素既没有URL也没有可解码的内嵌数据
	ErrNoSource = errors.New("预览元素没有可用的图片来源")
	// ErrNoInlineImage 标记片段中找不到带src的img
	ErrNoInlineImage = errors.New("标记中没有img[src]")
)

// ClassifySource 根据预览元素的src判断图片来源
//   - data: 开头为内嵌数据
//   - 包含 http 的视为可下载URL
//   - 其余情况在允许内嵌解码时把整段标记交给DecodeInlinePayload
func ClassifySource(src, markup string, allowInline bool) (models.RevealedImage, error) {
	src = strings.TrimSpace(src)

	switch {
	case strings.HasPrefix(src, "data:"):
		if allowInline {
			return models.RevealedImage{Inline: src}, nil
		}
	case strings.Contains(src, "http"):
		return models.RevealedImage{URL: src}, nil
	case allowInline && strings.TrimSpace(markup) != "":
		return models.RevealedImage{Inline: markup}, nil
	}

	return models.RevealedImage{}, models.NewStepError(models.FailureSource,
		fmt.Errorf("%w (src=%q)", ErrNoSource, truncate(src, 64)))
}

// DecodeInlinePayload 解码内嵌的base64图片
// payload可以是data URI、裸base64,或包含img标签的HTML片段
func DecodeInlinePayload(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)

	if strings.HasPrefix(s, "<") {
		src, err := srcFromMarkup(s)
		if err != nil {
			return nil, models.NewStepError(models.FailureDecode, err)
		}
		s = src
	}

	if i := strings.Index(s, "base64,"); i >= 0 {
		s = s[i+len("base64,"):]
	} else if i := strings.Index(s, "/9"); i > 0 {
		// JPEG的base64总是以/9开头
		s = s[i:]
	}
	s = strings.TrimSpace(s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, models.NewStepError(models.FailureDecode, fmt.Errorf("base64解码失败: %w", err))
	}
	if len(data) == 0 {
		return nil, models.NewStepError(models.FailureDecode, errors.New("内嵌数据为空"))
	}
	return data, nil
}

// srcFromMarkup 取HTML片段中第一个img的src
func srcFromMarkup(markup string) (string, error) {
	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("解析标记失败: %w", err)
	}
	doc := goquery.NewDocumentFromNode(node)
	src, ok := doc.Find("img[src]").First().Attr("src")
	if !ok {
		return "", ErrNoInlineImage
	}
	return src, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
