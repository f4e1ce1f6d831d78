package models

import (
	"encoding/json"
	"time"
)

// RunReport 运行报告
type RunReport struct {
	// 运行信息
	RunID  string `json:"run_id"`
	Query  string `json:"query"`
	Folder string `json:"folder"` // 图片输出目录

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 统计信息
	Stats RunStats `json:"stats"`

	// 配置快照
	Search SearchConfig `json:"search"`
	Sink   SinkConfig   `json:"sink"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
