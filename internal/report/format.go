package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/xigua-wiki/usage-reporter/internal/record"
)

// 报告统一使用东八区时间展示。
var cst = time.FixedZone("CST", 8*3600)

const noDataBanner = "[提示] 获取的数据为空"

// WithNoDataBanner 无数据时在报告前加醒目提示，报告本体仍然输出全零结构。
func WithNoDataBanner(report string) string {
	return noDataBanner + "\n" + report
}

func fmtTS(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).In(cst).Format("2006-01-02 15:04:05")
}

// comma 千分位整数。
func comma(v int64) string {
	return humanize.Comma(v)
}

// rate3 速率保留 3 位小数。
func rate3(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// percent1 百分比保留 1 位小数。
func percent1(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// logTypeName 日志 type 类别码的展示名。
func logTypeName(t int64) string {
	switch t {
	case 2:
		return "消费"
	case 5:
		return "错误"
	default:
		return "其他"
	}
}

// maskIP 只保留前两段，后两段打码。
func maskIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "无IP信息"
	}
	parts := strings.Split(ip, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1] + ".x.x"
	}
	return ip
}

// formatLogItem 单条日志的明细块。
func formatLogItem(r record.Record) string {
	lines := []string{
		"🕒 " + fmtTS(r.CreatedAt()),
		"📌 " + logTypeName(r.Int("type")),
		"🤖 " + r.Model(),
		fmt.Sprintf("📥 输入: %d", r.Int("prompt_tokens")),
		fmt.Sprintf("📤 输出: %d", r.Int("completion_tokens")),
		fmt.Sprintf("⏱️ 耗时: %dms", r.Int("use_time")),
		"🌐 IP: " + maskIP(r.Str("ip")),
	}
	return strings.Join(lines, "\n ")
}

// formatErrItem 错误样本的单行摘要。
func formatErrItem(r record.Record) string {
	return fmt.Sprintf("%s | %s | %s | code=%d | %dms",
		fmtTS(r.CreatedAt()), logTypeName(r.Int("type")), r.Model(), r.Int("code"), r.Int("use_time"))
}

// formatSlowItem 慢请求样本的单行摘要。
func formatSlowItem(r record.Record) string {
	return fmt.Sprintf("%s | %s | %s | %dms",
		fmtTS(r.CreatedAt()), r.Model(), r.Channel(), r.Int("use_time"))
}

// clampTopN 把 top-N 收敛到 [1,20]，聊天指令里传来的参数不可信。
func clampTopN(n int) int {
	if n < 1 {
		return 1
	}
	if n > 20 {
		return 20
	}
	return n
}
