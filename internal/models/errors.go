package models

import (
	"errors"
	"fmt"
)

// FailureKind 单个缩略图处理步骤的失败类型
type FailureKind string

const (
	FailureScroll         FailureKind = "scroll"          // 滚动到元素失败
	FailureClick          FailureKind = "click"           // 点击缩略图失败
	FailurePreviewTimeout FailureKind = "preview_timeout" // 等待预览元素超时
	FailureSource         FailureKind = "source"          // 预览元素没有可用的src
	FailureFetch          FailureKind = "fetch"           // 下载图片失败
	FailureDecode         FailureKind = "decode"          // 图片解码失败
	FailureWrite          FailureKind = "write"           // 写入文件失败
	FailureDuplicate      FailureKind = "duplicate"       // 本次运行已保存过相同内容
)

// StepError 单步失败,携带失败类型
type StepError struct {
	Kind FailureKind
	Err  error
}

// NewStepError 创建步骤错误
func NewStepError(kind FailureKind, err error) *StepError {
	return &StepError{Kind: kind, Err: err}
}

// Error 实现error接口
func (e *StepError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap 支持errors.Unwrap
func (e *StepError) Unwrap() error {
	return e.Err
}

// KindOf 提取错误链中的失败类型,非StepError返回空字符串
func KindOf(err error) FailureKind {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return ""
}

// ErrResultsExhausted 连续多轮既没有发现新缩略图也没有保存新图片
var ErrResultsExhausted = errors.New("搜索结果已耗尽")
