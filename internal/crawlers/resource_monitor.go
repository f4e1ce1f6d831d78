package crawlers

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const bytesPerMB = 1024 * 1024

// ResourceSnapshot 一次系统资源采样
type ResourceSnapshot struct {
	TotalMB     uint64
	AvailableMB uint64
	CPUPercent  float64
}

// ResourceMonitor 启动浏览器前的资源检查
// 浏览器单个标签页就可能占用数百MB,内存不足时提前告警
type ResourceMonitor struct {
	minFreeMB   int
	cpuInterval time.Duration
	logger      zerolog.Logger
}

// NewResourceMonitor 创建资源监控器, minFreeMB为0时不告警
func NewResourceMonitor(minFreeMB int, logger zerolog.Logger) *ResourceMonitor {
	return &ResourceMonitor{
		minFreeMB:   minFreeMB,
		cpuInterval: 200 * time.Millisecond,
		logger:      logger,
	}
}

// Snapshot 采样内存和CPU
func (rm *ResourceMonitor) Snapshot() (ResourceSnapshot, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return ResourceSnapshot{}, err
	}

	snap := ResourceSnapshot{
		TotalMB:     vmStat.Total / bytesPerMB,
		AvailableMB: vmStat.Available / bytesPerMB,
	}

	// CPU采样失败不影响内存结果
	if percents, err := cpu.Percent(rm.cpuInterval, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	return snap, nil
}

// Sufficient 可用内存是否满足下限
func (rm *ResourceMonitor) Sufficient(snap ResourceSnapshot) bool {
	return rm.minFreeMB <= 0 || snap.AvailableMB >= uint64(rm.minFreeMB)
}

// Preflight 采样并记录日志,资源不足只告警不阻止运行
func (rm *ResourceMonitor) Preflight() (ResourceSnapshot, bool) {
	snap, err := rm.Snapshot()
	if err != nil {
		rm.logger.Warn().Err(err).Msg("获取系统资源失败,跳过资源检查")
		return snap, true
	}

	rm.logger.Info().
		Uint64("total_mb", snap.TotalMB).
		Uint64("available_mb", snap.AvailableMB).
		Float64("cpu_percent", snap.CPUPercent).
		Msg("系统资源")

	ok := rm.Sufficient(snap)
	if !ok {
		rm.logger.Warn().
			Uint64("available_mb", snap.AvailableMB).
			Int("min_free_mb", rm.minFreeMB).
			Msg("⚠️ 可用内存低于下限,浏览器可能不稳定")
	}
	return snap, ok
}
