package models

import (
	"fmt"
	"strings"
	"time"
)

// SearchConfig 检索循环配置
type SearchConfig struct {
	URLTemplate         string        `mapstructure:"url_template" json:"url_template"`                 // 搜索URL模板,%s为编码后的查询
	ThumbnailSelector   string        `mapstructure:"thumbnail_selector" json:"thumbnail_selector"`     // 结果网格缩略图选择器
	PreviewSelector     string        `mapstructure:"preview_selector" json:"preview_selector"`         // 大图预览元素选择器
	PreviewTimeout      time.Duration `mapstructure:"preview_timeout" json:"preview_timeout"`           // 等待预览元素的超时 (默认:10s)
	ClickTimeout        time.Duration `mapstructure:"click_timeout" json:"click_timeout"`               // 单次点击(含等待元素可交互)的超时 (默认:5s)
	MaxStallPasses      int           `mapstructure:"max_stall_passes" json:"max_stall_passes"`         // 连续无进展轮数上限,0表示不限制
	InteractionInterval time.Duration `mapstructure:"interaction_interval" json:"interaction_interval"` // 两次缩略图交互的最小间隔,0表示不限速
	ScrollPause         time.Duration `mapstructure:"scroll_pause" json:"scroll_pause"`                 // 滚动到底部后等待懒加载的时间
	InlinePayloads      bool          `mapstructure:"inline_payloads" json:"inline_payloads"`           // 是否解码内嵌base64图片
}

// Validate 验证检索配置
func (c *SearchConfig) Validate() error {
	if !strings.Contains(c.URLTemplate, "%s") {
		return fmt.Errorf("搜索URL模板必须包含%%s占位符")
	}
	if c.ThumbnailSelector == "" || c.PreviewSelector == "" {
		return fmt.Errorf("缩略图和预览选择器不能为空")
	}
	if c.PreviewTimeout <= 0 {
		return fmt.Errorf("预览等待超时必须大于0")
	}
	if c.ClickTimeout <= 0 {
		return fmt.Errorf("点击超时必须大于0")
	}
	if c.MaxStallPasses < 0 {
		return fmt.Errorf("无进展轮数上限不能为负数")
	}
	if c.InteractionInterval < 0 || c.ScrollPause < 0 {
		return fmt.Errorf("交互间隔和滚动等待不能为负数")
	}
	return nil
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Headless        bool   `mapstructure:"headless" json:"headless"`                     // 无头模式 (默认:true)
	Bin             string `mapstructure:"bin" json:"bin"`                               // 浏览器可执行文件路径,为空时由launcher自动查找/下载
	UserAgent       string `mapstructure:"user_agent" json:"user_agent"`                 // 覆盖页面User-Agent
	MinFreeMemoryMB int    `mapstructure:"min_free_memory_mb" json:"min_free_memory_mb"` // 启动前要求的最小空闲内存(MB)
}

// HTTPConfig 图片下载配置
type HTTPConfig struct {
	Timeout     time.Duration     `mapstructure:"timeout" json:"timeout"`             // 单次请求超时,0表示不限制
	MaxBodySize int               `mapstructure:"max_body_size" json:"max_body_size"` // 响应体最大字节数
	Headers     map[string]string `mapstructure:"headers" json:"-"`                   // 配置文件中的自定义头部
}

// Validate 验证HTTP配置
func (c *HTTPConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("HTTP超时不能为负数")
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("响应体上限必须大于0")
	}
	return nil
}

// SinkConfig 图片写入配置
type SinkConfig struct {
	JPEGQuality  int `mapstructure:"jpeg_quality" json:"jpeg_quality"`   // JPEG质量 (默认:85)
	MaxDimension int `mapstructure:"max_dimension" json:"max_dimension"` // 最长边上限,0表示不缩放
}

// Validate 验证写入配置
func (c *SinkConfig) Validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG质量必须在1-100之间")
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("最长边上限不能为负数")
	}
	return nil
}

// RunStats 一次运行的统计
type RunStats struct {
	Target     int                 `json:"target"`     // 目标数量
	Found      int                 `json:"found"`      // 成功保存数量
	Attempted  int                 `json:"attempted"`  // 尝试处理的缩略图数
	Discovered int                 `json:"discovered"` // 最后一轮发现的缩略图总数
	Passes     int                 `json:"passes"`     // DOM查询轮数
	Failures   map[FailureKind]int `json:"failures"`   // 各失败类型计数
	Exhausted  bool                `json:"exhausted"`  // 是否因结果耗尽而提前结束
	Duration   float64             `json:"duration"`   // 总耗时(秒)
	Images     []StoredImage       `json:"images"`     // 已保存的图片
}

// NewRunStats 创建统计
func NewRunStats(target int) RunStats {
	return RunStats{
		Target:   target,
		Failures: make(map[FailureKind]int),
		Images:   make([]StoredImage, 0, target),
	}
}

// RecordFailure 记录一次失败
func (s *RunStats) RecordFailure(kind FailureKind) {
	if s.Failures == nil {
		s.Failures = make(map[FailureKind]int)
	}
	s.Failures[kind]++
}

// TotalFailures 失败总数
func (s *RunStats) TotalFailures() int {
	total := 0
	for _, n := range s.Failures {
		total += n
	}
	return total
}
