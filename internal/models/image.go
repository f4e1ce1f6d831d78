package models

import (
	"time"
)

// RevealedImage 点击缩略图后从预览元素中提取的图片引用
// URL与Inline二选一: URL可直接下载, Inline为页面内嵌的base64数据(或包含它的标记片段)
type RevealedImage struct {
	URL    string
	Inline string
}

// IsInline 是否为内嵌数据
func (r RevealedImage) IsInline() bool {
	return r.URL == "" && r.Inline != ""
}

// StoredImage 已写入磁盘的图片
type StoredImage struct {
	Path      string    `json:"path"`       // <output_dir>/<folder>/<sha1>.jpg
	Hash      string    `json:"hash"`       // 原始字节的SHA-1
	Format    string    `json:"format"`     // 原始编码格式(jpeg, png, webp...)
	Width     int       `json:"width"`      // 写入后的宽度
	Height    int       `json:"height"`     // 写入后的高度
	Size      int64     `json:"size"`       // 原始字节数
	SourceURL string    `json:"source_url"` // 来源URL(内嵌数据为空)
	SavedAt   time.Time `json:"saved_at"`
}

// ProgressCounters 检索循环的进度计数
//   - Found: 成功持久化的图片数
//   - Cursor: 已尝试过的缩略图下标
type ProgressCounters struct {
	Target int
	Found  int
	Cursor int
}

// Done 是否已达到目标数量
func (p *ProgressCounters) Done() bool {
	return p.Found >= p.Target
}

// Batch 返回本轮尚未尝试的缩略图快照 (从Cursor到末尾)
func Batch[T any](p *ProgressCounters, discovered []T) []T {
	if p.Cursor >= len(discovered) {
		return nil
	}
	batch := make([]T, len(discovered)-p.Cursor)
	copy(batch, discovered[p.Cursor:])
	return batch
}

// Advance 一轮结束后移动游标: Cursor = Found,且不超过已发现的缩略图数量
func (p *ProgressCounters) Advance(discovered int) {
	p.Cursor = p.Found
	if p.Cursor > discovered {
		p.Cursor = discovered
	}
}
