package service

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
	"github.com/xigua-wiki/usage-reporter/internal/report"
)

// Health 生成健康检查报告：探测上游连通性，读取快照新鲜度与宿主机资源。
// 资源读取失败不影响报告生成，对应项按零值展示。
func (s *ReportService) Health(ctx context.Context) string {
	info := report.HealthInfo{SnapshotSavedAt: s.snap.SavedAt()}

	if latency, err := s.fetcher.Ping(ctx); err != nil {
		info.UpstreamError = err.Error()
	} else {
		info.UpstreamOK = true
		info.UpstreamLatencyMs = latency.Milliseconds()
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		info.CPUPercent = percents[0]
	} else if err != nil {
		logger.L().Debug("读取 CPU 占用失败", zap.Error(err))
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemUsedPercent = vm.UsedPercent
	} else {
		logger.L().Debug("读取内存占用失败", zap.Error(err))
	}
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		info.UptimeSeconds = uptime
	} else {
		logger.L().Debug("读取运行时长失败", zap.Error(err))
	}

	return report.Health(info)
}
