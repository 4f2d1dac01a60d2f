package report

import (
	"fmt"
	"strings"

	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

// Overview 用量概览报告。topN 取 [1,20]，模型块的 TPM/RPM
// 用窗口分钟数做分母，与总量口径一致。
func Overview(s stats.UsageStats, models []stats.GroupStat, topN int) string {
	lines := []string{
		"--- 数据分析报告 ---",
		fmt.Sprintf("计算时间跨度: %d 分钟", s.Minutes),
		fmt.Sprintf("数据范围: %s 至 %s", fmtTS(s.Window.Start), fmtTS(s.Window.End)),
		fmt.Sprintf("总使用量 (tokens): %s", comma(s.TotalTokens)),
		fmt.Sprintf("总请求次数: %s", comma(s.TotalRequests)),
		fmt.Sprintf("总配额: %s", comma(s.TotalQuota)),
		fmt.Sprintf("平均 RPM: %s", rate3(s.AvgRPM)),
		fmt.Sprintf("平均 TPM: %s", rate3(s.AvgTPM)),
		"-------------------------",
	}

	if len(models) > 0 {
		topN = clampTopN(topN)
		lines = append(lines, fmt.Sprintf("调用最多的前 %d 个模型：", topN))
		lines = append(lines, modelBlocks(models, topN, s.Minutes)...)
	}
	return strings.Join(lines, "\n")
}

// ModelRanking 纯模型排行报告。
func ModelRanking(s stats.UsageStats, models []stats.GroupStat, topN int) string {
	if len(models) == 0 {
		return "--- 模型排行 ---\n窗口内没有任何模型调用记录"
	}
	topN = clampTopN(topN)
	lines := []string{
		"--- 模型排行 ---",
		fmt.Sprintf("数据范围: %s 至 %s", fmtTS(s.Window.Start), fmtTS(s.Window.End)),
		fmt.Sprintf("按请求次数排序，前 %d 名：", topN),
	}
	for i, m := range models {
		if i >= topN {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s  请求 %s 次 / %s tokens / 配额 %s",
			i+1, m.Name, comma(m.Requests), comma(m.Tokens), comma(m.Quota)))
	}
	if len(models) > topN {
		lines = append(lines, fmt.Sprintf("（其余 %d 个模型已省略）", len(models)-topN))
	}
	return strings.Join(lines, "\n")
}

func modelBlocks(models []stats.GroupStat, topN int, minutes int64) []string {
	if minutes < 1 {
		minutes = 1
	}
	var lines []string
	for i, m := range models {
		if i >= topN {
			break
		}
		lines = append(lines,
			"",
			"模型: "+m.Name,
			fmt.Sprintf("  - Token总和: %s", comma(m.Tokens)),
			fmt.Sprintf("  - 请求总数: %s", comma(m.Requests)),
			fmt.Sprintf("  - 平均 TPM: %s", rate3(float64(m.Tokens)/float64(minutes))),
			fmt.Sprintf("  - 平均 RPM: %s", rate3(float64(m.Requests)/float64(minutes))),
			fmt.Sprintf("  - 配额: %s", comma(m.Quota)),
		)
	}
	return lines
}
