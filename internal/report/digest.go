package report

import (
	"fmt"
	"strings"

	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

// 日志明细最多展示的条数，超出部分以尾注说明。
const digestMaxEntries = 20

// LogDigest 日志摘要：统计头 + 明细块。items 是拉取到的原始日志序列，
// metrics 应当由同一批记录汇总得到。
func LogDigest(m stats.LogMetrics, items []record.Record) string {
	if len(items) == 0 {
		return "未获取到有效日志数据"
	}

	lines := []string{
		"📊 API 调用日志摘要",
		fmt.Sprintf("共 %s 条，错误 %s 条（%s），慢请求 %s 条（%s）",
			comma(m.Total), comma(m.ErrCount), percent1(m.ErrRate),
			comma(m.SlowCount), percent1(m.SlowRate)),
		fmt.Sprintf("耗时 avg %.0fms / p50 %dms / p95 %dms / p99 %dms",
			m.AvgMs, m.P50Ms, m.P95Ms, m.P99Ms),
		"",
	}

	shown := len(items)
	if shown > digestMaxEntries {
		shown = digestMaxEntries
	}
	for _, r := range items[:shown] {
		lines = append(lines, formatLogItem(r), "")
	}
	if omitted := len(items) - shown; omitted > 0 {
		lines = append(lines, fmt.Sprintf("（另有 %d 条未展示）", omitted))
	}
	lines = append(lines, fmt.Sprintf("✅ 共查询到 %d 条日志", len(items)))
	return strings.Join(lines, "\n")
}
