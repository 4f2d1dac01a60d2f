package report

import (
	"fmt"
	"strings"

	"github.com/xigua-wiki/usage-reporter/internal/anomaly"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

const (
	anomalyErrSamples  = 5
	anomalySlowSamples = 8
)

// Anomaly 异常巡检报告：级别结论、关键指标、分布榜单、样本与处置建议。
func Anomaly(m stats.LogMetrics, result anomaly.Result) string {
	lines := []string{
		"--- 异常巡检报告 ---",
		fmt.Sprintf("严重级别: %s", result.Level),
		fmt.Sprintf("结论: %s", result.Reason),
		"",
		fmt.Sprintf("样本总数: %s", comma(m.Total)),
		fmt.Sprintf("错误率: %s（%s 条）", percent1(m.ErrRate), comma(m.ErrCount)),
		fmt.Sprintf("慢请求: %s 条（%s）", comma(m.SlowCount), percent1(m.SlowRate)),
		fmt.Sprintf("耗时 p50/p95/p99: %dms / %dms / %dms", m.P50Ms, m.P95Ms, m.P99Ms),
	}

	if len(m.CodeTop) > 0 {
		lines = append(lines, "", "状态码分布:")
		for _, kv := range m.CodeTop {
			lines = append(lines, fmt.Sprintf("  %s × %s", kv.Key, comma(kv.Count)))
		}
	}
	if len(m.ModelTop) > 0 {
		lines = append(lines, "", "模型分布:")
		for _, kv := range m.ModelTop {
			lines = append(lines, fmt.Sprintf("  %s × %s", kv.Key, comma(kv.Count)))
		}
	}
	if len(m.ChannelTop) > 0 {
		lines = append(lines, "", "渠道分布:")
		for _, kv := range m.ChannelTop {
			lines = append(lines, fmt.Sprintf("  %s × %s", kv.Key, comma(kv.Count)))
		}
	}

	if len(m.ErrItems) > 0 {
		lines = append(lines, "", "错误样本:")
		for i, r := range m.ErrItems {
			if i >= anomalyErrSamples {
				lines = append(lines, fmt.Sprintf("  （另有 %d 条错误未展示）", len(m.ErrItems)-anomalyErrSamples))
				break
			}
			lines = append(lines, "  "+formatErrItem(r))
		}
	}
	if len(m.SlowItems) > 0 {
		lines = append(lines, "", "慢请求样本:")
		for i, r := range m.SlowItems {
			if i >= anomalySlowSamples {
				break
			}
			lines = append(lines, "  "+formatSlowItem(r))
		}
	}

	lines = append(lines, "", "处置建议:")
	for _, a := range result.Actions {
		lines = append(lines, "  - "+a)
	}
	return strings.Join(lines, "\n")
}
