package report

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/xigua-wiki/usage-reporter/internal/anomaly"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

const briefTopModels = 5

// Brief 把统计结果压成一份结构化 JSON 简报，交给外部的文本生成
// 接口做叙述性分析。字段顺序固定，便于 prompt 缓存命中。
func Brief(s stats.UsageStats, models []stats.GroupStat, m stats.LogMetrics, result anomaly.Result) ([]byte, error) {
	out := []byte(`{}`)

	sets := []struct {
		path  string
		value any
	}{
		{"window.start", s.Window.Start},
		{"window.end", s.Window.End},
		{"window.minutes", s.Minutes},
		{"usage.total_tokens", s.TotalTokens},
		{"usage.total_requests", s.TotalRequests},
		{"usage.total_quota", s.TotalQuota},
		{"usage.avg_rpm", s.AvgRPM},
		{"usage.avg_tpm", s.AvgTPM},
		{"logs.total", m.Total},
		{"logs.err_count", m.ErrCount},
		{"logs.err_rate", m.ErrRate},
		{"logs.slow_count", m.SlowCount},
		{"logs.avg_ms", m.AvgMs},
		{"logs.p50_ms", m.P50Ms},
		{"logs.p95_ms", m.P95Ms},
		{"logs.p99_ms", m.P99Ms},
		{"anomaly.level", result.Level.String()},
		{"anomaly.reason", result.Reason},
	}

	var err error
	for _, kv := range sets {
		out, err = sjson.SetBytes(out, kv.path, kv.value)
		if err != nil {
			return nil, fmt.Errorf("build brief: %w", err)
		}
	}

	for i, g := range models {
		if i >= briefTopModels {
			break
		}
		prefix := fmt.Sprintf("top_models.%d.", i)
		out, _ = sjson.SetBytes(out, prefix+"name", g.Name)
		out, _ = sjson.SetBytes(out, prefix+"requests", g.Requests)
		out, _ = sjson.SetBytes(out, prefix+"tokens", g.Tokens)
	}
	for i, kv := range m.CodeTop {
		prefix := fmt.Sprintf("code_top.%d.", i)
		out, _ = sjson.SetBytes(out, prefix+"code", kv.Key)
		out, _ = sjson.SetBytes(out, prefix+"count", kv.Count)
	}
	return out, nil
}
