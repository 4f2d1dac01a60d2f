package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xigua-wiki/usage-reporter/internal/anomaly"
	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

func sampleUsage() (stats.UsageStats, []stats.GroupStat) {
	s := stats.UsageStats{
		Window:        stats.Window{Start: 1700000000, End: 1700003600},
		TotalTokens:   1234567,
		TotalRequests: 890,
		TotalQuota:    4200,
		Minutes:       60,
		AvgRPM:        890.0 / 60,
		AvgTPM:        1234567.0 / 60,
	}
	models := []stats.GroupStat{
		{Name: "gpt-4o", Tokens: 1000000, Requests: 600, Quota: 3000},
		{Name: "claude-3.5", Tokens: 234567, Requests: 290, Quota: 1200},
	}
	return s, models
}

func TestOverview(t *testing.T) {
	s, models := sampleUsage()
	out := Overview(s, models, 5)

	require.Contains(t, out, "--- 数据分析报告 ---")
	require.Contains(t, out, "计算时间跨度: 60 分钟")
	require.Contains(t, out, "总使用量 (tokens): 1,234,567")
	require.Contains(t, out, "总请求次数: 890")
	require.Contains(t, out, "平均 RPM: 14.833")
	require.Contains(t, out, "调用最多的前 5 个模型：")
	require.Contains(t, out, "模型: gpt-4o")
	require.Contains(t, out, "  - Token总和: 1,000,000")
}

func TestOverviewTopNClamped(t *testing.T) {
	s, models := sampleUsage()
	out := Overview(s, models, 99)
	require.Contains(t, out, "调用最多的前 20 个模型：")

	out = Overview(s, models, 0)
	require.Contains(t, out, "调用最多的前 1 个模型：")
	require.NotContains(t, out, "claude-3.5")
}

func TestOverviewNoModels(t *testing.T) {
	s, _ := sampleUsage()
	out := Overview(s, nil, 5)
	require.NotContains(t, out, "调用最多")
}

func TestModelRanking(t *testing.T) {
	s, models := sampleUsage()
	out := ModelRanking(s, models, 1)
	require.Contains(t, out, "1. gpt-4o")
	require.Contains(t, out, "（其余 1 个模型已省略）")

	require.Contains(t, ModelRanking(s, nil, 5), "没有任何模型调用记录")
}

func TestLogDigestTruncation(t *testing.T) {
	var items []record.Record
	for i := 0; i < 25; i++ {
		items = append(items, record.FromJSON(fmt.Sprintf(
			`{"created_at":%d,"type":2,"code":200,"use_time":100,"model_name":"m%d"}`, 1700000000+i, i)))
	}
	m := stats.Summarize(items)

	out := LogDigest(m, items)
	require.Contains(t, out, "共 25 条")
	require.Contains(t, out, "（另有 5 条未展示）")
	require.Contains(t, out, "✅ 共查询到 25 条日志")
	require.Contains(t, out, "m19")
	require.NotContains(t, out, "🤖 m20")
}

func TestLogDigestEmpty(t *testing.T) {
	out := LogDigest(stats.Summarize(nil), nil)
	require.Equal(t, "未获取到有效日志数据", out)
}

func TestAnomalyReport(t *testing.T) {
	var items []record.Record
	for i := 0; i < 7; i++ {
		items = append(items, record.FromJSON(fmt.Sprintf(
			`{"created_at":1700000000,"type":5,"code":502,"use_time":20000,"model_name":"m%d"}`, i)))
	}
	m := stats.Summarize(items)
	result := anomaly.Classify(m.ErrRate, m.SlowCount, anomaly.DefaultThresholds())

	out := Anomaly(m, result)
	require.Contains(t, out, "严重级别: P0")
	require.Contains(t, out, "错误率: 100.0%（7 条）")
	require.Contains(t, out, "状态码分布:")
	require.Contains(t, out, "  502 × 7")
	require.Contains(t, out, "错误样本:")
	require.Contains(t, out, "（另有 2 条错误未展示）")
	require.Contains(t, out, "处置建议:")
}

func TestCompareChannelFallback(t *testing.T) {
	s, models := sampleUsage()
	long := WindowReport{
		Label: "近24小时", Stats: s, Models: models,
		Channels: []stats.GroupStat{{Name: record.UnknownChannel, Tokens: 100}},
	}
	short := WindowReport{Label: "近2小时", Stats: s, Models: models}

	logChannels := []stats.KV{{Key: "azure", Count: 40}, {Key: "openai", Count: 10}}
	out := Compare(long, short, logChannels)

	require.Contains(t, out, "【近24小时】")
	require.Contains(t, out, "【近2小时】")
	require.Contains(t, out, "按日志请求数统计，非 token 口径")
	require.Contains(t, out, "azure × 40 次请求")
	// 兜底渠道不单列渠道 Top
	require.NotContains(t, out, "渠道 Top（按 token）")
}

func TestCompareWithRealChannels(t *testing.T) {
	s, models := sampleUsage()
	long := WindowReport{
		Label: "近24小时", Stats: s, Models: models,
		Channels: []stats.GroupStat{{Name: "azure", Tokens: 999}},
	}
	short := WindowReport{Label: "近2小时", Stats: s}

	out := Compare(long, short, []stats.KV{{Key: "x", Count: 1}})
	require.Contains(t, out, "渠道 Top（按 token）")
	require.Contains(t, out, "azure  999 tokens")
	require.NotContains(t, out, "按日志请求数统计")
}

func TestQuota(t *testing.T) {
	payload := `{"success":true,"data":{"username":"feng","display_name":"枫",
		"group":"default","request_count":12345,"used_quota":500000,"quota":250000}}`

	out := Quota([]byte(payload))
	require.Contains(t, out, "用户名: feng")
	require.Contains(t, out, "昵称: 枫")
	require.Contains(t, out, "请求次数: 12,345")
	require.Contains(t, out, "已用配额: 500,000")
	require.Contains(t, out, "当前额度(配额/500): $500.00")
}

func TestQuotaMissingFields(t *testing.T) {
	out := Quota([]byte(`{}`))
	require.Contains(t, out, "用户名: -")
	require.Contains(t, out, "当前额度(配额/500): $0.00")
}

func TestHealth(t *testing.T) {
	out := Health(HealthInfo{
		UpstreamOK:        true,
		UpstreamLatencyMs: 120,
		SnapshotSavedAt:   1700000000,
		CPUPercent:        12.3,
		MemUsedPercent:    45.6,
		UptimeSeconds:     90061, // 1天1小时1分1秒
	})
	require.Contains(t, out, "上游接口: ✅ 可用（120ms）")
	require.Contains(t, out, "本地快照: 2023-11-15 06:13:20 保存")
	require.Contains(t, out, "宿主机 CPU: 12.3%")
	require.Contains(t, out, "运行时长: 1天1小时")

	out = Health(HealthInfo{UpstreamOK: false, UpstreamError: "连接超时"})
	require.Contains(t, out, "❌ 不可用（连接超时）")
	require.Contains(t, out, "本地快照: 无")
}

func TestBrief(t *testing.T) {
	s, models := sampleUsage()
	items := []record.Record{
		record.FromJSON(`{"type":5,"code":500,"use_time":100,"model_name":"m"}`),
		record.FromJSON(`{"type":2,"code":200,"use_time":100,"model_name":"m"}`),
	}
	m := stats.Summarize(items)
	result := anomaly.Classify(m.ErrRate, m.SlowCount, anomaly.DefaultThresholds())

	brief, err := Brief(s, models, m, result)
	require.NoError(t, err)

	parsed := gjson.ParseBytes(brief)
	require.EqualValues(t, 1234567, parsed.Get("usage.total_tokens").Int())
	require.EqualValues(t, 2, parsed.Get("logs.total").Int())
	require.InDelta(t, 0.5, parsed.Get("logs.err_rate").Float(), 1e-9)
	require.Equal(t, "P0", parsed.Get("anomaly.level").String())
	require.Equal(t, "gpt-4o", parsed.Get("top_models.0.name").String())
	require.Equal(t, "500", parsed.Get("code_top.0.code").String())
}
