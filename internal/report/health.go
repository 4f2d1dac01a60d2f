package report

import (
	"fmt"
	"strings"
	"time"
)

// HealthInfo 健康检查物料，由服务层探测后填好。
type HealthInfo struct {
	UpstreamOK        bool
	UpstreamLatencyMs int64
	UpstreamError     string

	SnapshotSavedAt int64 // 最近一次快照落盘时间，0 表示没有快照

	CPUPercent     float64
	MemUsedPercent float64
	UptimeSeconds  uint64
}

// Health 健康检查报告：上游连通性、快照新鲜度、宿主机资源。
func Health(h HealthInfo) string {
	lines := []string{"--- 健康检查 ---"}

	if h.UpstreamOK {
		lines = append(lines, fmt.Sprintf("上游接口: ✅ 可用（%dms）", h.UpstreamLatencyMs))
	} else {
		msg := h.UpstreamError
		if msg == "" {
			msg = "未知错误"
		}
		lines = append(lines, "上游接口: ❌ 不可用（"+msg+"）")
	}

	if h.SnapshotSavedAt > 0 {
		lines = append(lines, fmt.Sprintf("本地快照: %s 保存", fmtTS(h.SnapshotSavedAt)))
	} else {
		lines = append(lines, "本地快照: 无")
	}

	lines = append(lines,
		fmt.Sprintf("宿主机 CPU: %.1f%%", h.CPUPercent),
		fmt.Sprintf("宿主机内存: %.1f%%", h.MemUsedPercent),
		fmt.Sprintf("运行时长: %s", formatUptime(h.UptimeSeconds)),
	)
	return strings.Join(lines, "\n")
}

func formatUptime(seconds uint64) string {
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%d天%d小时", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%d小时%d分钟", hours, minutes)
	}
	return fmt.Sprintf("%d分钟", minutes)
}
