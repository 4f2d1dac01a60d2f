package report

import (
	"fmt"
	"strings"

	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

const compareTopN = 5

// WindowReport 对比报告的单侧物料：一个窗口独立聚合出的总量与榜单。
type WindowReport struct {
	Label    string
	Stats    stats.UsageStats
	Models   []stats.GroupStat
	Channels []stats.GroupStat
}

// Compare 双窗口对比报告（如 24h vs 2h）。两个窗口各自独立聚合；
// 当用量记录完全不带渠道字段时，退回用日志请求数呈现渠道集中度，
// 并明确标注口径差异。
func Compare(long, short WindowReport, logChannels []stats.KV) string {
	lines := []string{
		"--- 用量对比报告 ---",
		"",
	}
	lines = append(lines, windowSection(long)...)
	lines = append(lines, "")
	lines = append(lines, windowSection(short)...)

	if channelsAllUnknown(long.Channels) && channelsAllUnknown(short.Channels) {
		if len(logChannels) > 0 {
			lines = append(lines, "", "渠道集中度（注：用量数据不带渠道信息，以下按日志请求数统计，非 token 口径）:")
			for i, kv := range logChannels {
				if i >= compareTopN {
					break
				}
				lines = append(lines, fmt.Sprintf("  %s × %s 次请求", kv.Key, comma(kv.Count)))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func windowSection(w WindowReport) []string {
	s := w.Stats
	lines := []string{
		fmt.Sprintf("【%s】%s 至 %s", w.Label, fmtTS(s.Window.Start), fmtTS(s.Window.End)),
		fmt.Sprintf("  tokens %s / 请求 %s / 配额 %s", comma(s.TotalTokens), comma(s.TotalRequests), comma(s.TotalQuota)),
		fmt.Sprintf("  平均 RPM %s / TPM %s", rate3(s.AvgRPM), rate3(s.AvgTPM)),
	}

	if len(w.Models) > 0 {
		lines = append(lines, "  模型 Top:")
		for i, m := range w.Models {
			if i >= compareTopN {
				break
			}
			lines = append(lines, fmt.Sprintf("    %d. %s  %s 次 / %s tokens", i+1, m.Name, comma(m.Requests), comma(m.Tokens)))
		}
	}
	if len(w.Channels) > 0 && !channelsAllUnknown(w.Channels) {
		lines = append(lines, "  渠道 Top（按 token）:")
		for i, c := range w.Channels {
			if i >= compareTopN {
				break
			}
			lines = append(lines, fmt.Sprintf("    %d. %s  %s tokens", i+1, c.Name, comma(c.Tokens)))
		}
	}
	return lines
}

// channelsAllUnknown 用量侧渠道信息是否完全缺失（全部落在兜底标签）。
func channelsAllUnknown(channels []stats.GroupStat) bool {
	for _, c := range channels {
		if c.Name != record.UnknownChannel {
			return false
		}
	}
	return true
}
