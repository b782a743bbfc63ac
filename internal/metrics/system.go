package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

/* SystemMetrics is the host snapshot reported by the health endpoint */
type SystemMetrics struct {
	Timestamp time.Time      `json:"timestamp"`
	CPU       CPUMetrics     `json:"cpu"`
	Memory    MemoryMetrics  `json:"memory"`
	Disk      *DiskMetrics   `json:"disk,omitempty"`
	Process   ProcessMetrics `json:"process"`
}

/* CPUMetrics contains CPU usage information */
type CPUMetrics struct {
	UsagePercent float64 `json:"usage_percent"`
	Count        int     `json:"count"`
}

/* MemoryMetrics contains memory usage information */
type MemoryMetrics struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
}

/* DiskMetrics contains usage of the volume holding a path */
type DiskMetrics struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

/* ProcessMetrics contains Go runtime information */
type ProcessMetrics struct {
	GoRoutines int    `json:"go_routines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	HeapInuse  uint64 `json:"heap_inuse"`
}

/*
 * CollectSystemMetrics collects a host snapshot. CPU usage is measured
 * since the previous call so the health endpoint never sleeps. Collector
 * failures leave the corresponding section zeroed.
 */
func CollectSystemMetrics(ctx context.Context, diskPath string) *SystemMetrics {
	metrics := &SystemMetrics{
		Timestamp: time.Now().UTC(),
	}

	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		metrics.CPU.UsagePercent = cpuPercent[0]
	}
	if cpuCount, err := cpu.CountsWithContext(ctx, true); err == nil {
		metrics.CPU.Count = cpuCount
	}

	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		metrics.Memory.Total = memStat.Total
		metrics.Memory.Used = memStat.Used
		metrics.Memory.Available = memStat.Available
		metrics.Memory.UsedPercent = memStat.UsedPercent
	}

	if diskPath != "" {
		if diskStat, err := disk.UsageWithContext(ctx, diskPath); err == nil {
			metrics.Disk = &DiskMetrics{
				Path:        diskPath,
				Total:       diskStat.Total,
				Used:        diskStat.Used,
				Free:        diskStat.Free,
				UsedPercent: diskStat.UsedPercent,
			}
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.Process.GoRoutines = runtime.NumGoroutine()
	metrics.Process.HeapAlloc = m.HeapAlloc
	metrics.Process.HeapSys = m.HeapSys
	metrics.Process.HeapInuse = m.HeapInuse

	return metrics
}
