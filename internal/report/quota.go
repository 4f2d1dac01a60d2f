package report

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// 上游配额换算汇率：quota / 500 = 美元额度。
const quotaPerDollar = 500

// Quota 用户信息/额度报告，输入为 /api/user/self 的原始响应。
func Quota(payload []byte) string {
	data := gjson.ParseBytes(payload).Get("data")

	username := stringOr(data.Get("username"), "-")
	displayName := stringOr(data.Get("display_name"), "-")
	group := stringOr(data.Get("group"), "-")
	requestCount := data.Get("request_count").Int()
	usedQuota := data.Get("used_quota").Int()
	quota := data.Get("quota").Int()

	var currentQuota float64
	if quota != 0 {
		currentQuota = float64(quota) / quotaPerDollar
	}

	lines := []string{
		"--- 用户信息 ---",
		"用户名: " + username,
		"昵称: " + displayName,
		"分组: " + group,
		fmt.Sprintf("请求次数: %s", comma(requestCount)),
		fmt.Sprintf("已用配额: %s", comma(usedQuota)),
		fmt.Sprintf("当前额度(配额/500): $%.2f", currentQuota),
	}
	return strings.Join(lines, "\n")
}

func stringOr(v gjson.Result, fallback string) string {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return fallback
	}
	return s
}
