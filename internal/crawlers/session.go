package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Element 结果网格中的一个元素句柄
// 页面变化后句柄可能失效,每轮都要重新查询
type Element interface {
	ScrollIntoView() error
	// Click 最多等待timeout直到元素可交互,超时后返回错误
	Click(timeout time.Duration) error
	// Attribute 属性不存在时返回空字符串
	Attribute(name string) (string, error)
	HTML() (string, error)
}

// Session 浏览器会话
type Session interface {
	Navigate(ctx context.Context, url string) error
	Thumbnails(ctx context.Context, selector string) ([]Element, error)
	WaitPreview(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	ScrollToBottom(ctx context.Context) error
	Close() error
}

// RodSession 基于go-rod的浏览器会话,只使用一个标签页
type RodSession struct {
	browser *rod.Browser
	page    *rod.Page
	logger  zerolog.Logger
}

// NewRodSession 启动浏览器并打开一个空白标签页
func NewRodSession(config models.BrowserConfig, headers models.HeaderProvider, logger zerolog.Logger) (*RodSession, error) {
	l := launcher.New().Headless(config.Headless)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}

	// 允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")
	logger.Debug().Bool("headless", config.Headless).Msg("浏览器启动参数: --ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	s := &RodSession{browser: browser, page: page, logger: logger}
	if err := s.applyHeaders(config.UserAgent, headers); err != nil {
		s.Close()
		return nil, err
	}

	logger.Debug().Str("control_url", controlURL).Msg("浏览器已启动")
	return s, nil
}

// applyHeaders 设置User-Agent覆盖和额外请求头
func (s *RodSession) applyHeaders(userAgent string, headers models.HeaderProvider) error {
	if userAgent != "" {
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
			return fmt.Errorf("设置User-Agent失败: %w", err)
		}
	}

	if headers == nil {
		return nil
	}
	h, err := headers.GetHeaders()
	if err != nil {
		return fmt.Errorf("获取HTTP头部失败: %w", err)
	}

	dict := make([]string, 0, len(h)*2)
	for name, values := range h {
		// 浏览器自己协商这些头部
		if name == "User-Agent" || name == "Accept" || name == "Accept-Encoding" || len(values) == 0 {
			continue
		}
		dict = append(dict, name, values[0])
	}
	if len(dict) == 0 {
		return nil
	}
	if _, err := s.page.SetExtraHeaders(dict); err != nil {
		return fmt.Errorf("设置额外请求头失败: %w", err)
	}
	return nil
}

// Navigate 打开URL并等待页面加载
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

// Thumbnails 查询当前DOM中所有匹配的缩略图
func (s *RodSession) Thumbnails(ctx context.Context, selector string) ([]Element, error) {
	found, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, len(found))
	for i, el := range found {
		elements[i] = &rodElement{el: el}
	}
	return elements, nil
}

// WaitPreview 最多等待timeout,直到预览元素出现
func (s *RodSession) WaitPreview(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

// ScrollToBottom 滚动到页面底部以触发懒加载
func (s *RodSession) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Evaluate(rod.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`))
	return err
}

// Close 关闭浏览器
func (s *RodSession) Close() error {
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	s.logger.Debug().Msg("浏览器已关闭")
	return err
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Click(timeout time.Duration) error {
	// Click内部会一直重试被遮挡的元素,直到el的context结束
	el := e.el.Timeout(timeout)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) HTML() (string, error) {
	return e.el.HTML()
}
