package stats

import (
	"sort"

	"github.com/xigua-wiki/usage-reporter/internal/record"
)

// Window 闭区间时间窗 [Start, End]，单位秒。
type Window struct {
	Start int64
	End   int64
}

func (w Window) Contains(ts int64) bool {
	return ts >= w.Start && ts <= w.End
}

// Minutes 平均值分母使用的窗口分钟数，不足一分钟按一分钟算，避免除零。
func (w Window) Minutes() int64 {
	m := (w.End - w.Start) / 60
	if m < 1 {
		return 1
	}
	return m
}

// GroupStat 按分组键累加的用量。
type GroupStat struct {
	Name     string `json:"name"`
	Tokens   int64  `json:"tokens"`
	Requests int64  `json:"requests"`
	Quota    int64  `json:"quota"`
}

// UsageStats 单次聚合产出的窗口总量，只读。
type UsageStats struct {
	Window        Window  `json:"window"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalRequests int64   `json:"total_requests"`
	TotalQuota    int64   `json:"total_quota"`
	Minutes       int64   `json:"minutes"`
	AvgRPM        float64 `json:"avg_rpm"`
	AvgTPM        float64 `json:"avg_tpm"`
}

// Aggregate 过滤窗口内的用量记录并累加总量与按模型的明细。
// 模型明细按请求数降序排列，平局保持首次出现的顺序。
func Aggregate(records []record.Record, win Window) (UsageStats, []GroupStat) {
	stats := UsageStats{Window: win, Minutes: win.Minutes()}

	groups := newGroupAccumulator()
	for _, r := range records {
		if !win.Contains(r.CreatedAt()) {
			continue
		}
		tokens := r.Int("token_used")
		count := r.Int("count")
		quota := r.Int("quota")

		stats.TotalTokens += tokens
		stats.TotalRequests += count
		stats.TotalQuota += quota

		groups.add(r.Model(), tokens, count, quota)
	}

	stats.AvgRPM = float64(stats.TotalRequests) / float64(stats.Minutes)
	stats.AvgTPM = float64(stats.TotalTokens) / float64(stats.Minutes)

	models := groups.sorted(func(a, b *GroupStat) bool { return a.Requests > b.Requests })
	return stats, models
}

// AggregateByKeys 泛化分组键的聚合：每条记录按候选字段顺序取
// 第一个有值的作为分组键，全部缺失落到 fallback 标签。
// 结果按 token 降序排列——与 Aggregate 的按请求数排序是有意的不对称，
// 渠道榜单历史上一直按消耗量排。
func AggregateByKeys(records []record.Record, win Window, fallback string, keys ...string) []GroupStat {
	groups := newGroupAccumulator()
	for _, r := range records {
		if !win.Contains(r.CreatedAt()) {
			continue
		}
		name := r.Label(fallback, keys...)
		groups.add(name, r.Int("token_used"), r.Int("count"), r.Int("quota"))
	}
	return groups.sorted(func(a, b *GroupStat) bool { return a.Tokens > b.Tokens })
}

// groupAccumulator 保序的分组累加器：map 查找 + slice 保出现顺序，
// 稳定排序时平局按首次出现先后。
type groupAccumulator struct {
	index map[string]*GroupStat
	order []*GroupStat
}

func newGroupAccumulator() *groupAccumulator {
	return &groupAccumulator{index: make(map[string]*GroupStat)}
}

func (g *groupAccumulator) add(name string, tokens, requests, quota int64) {
	entry, ok := g.index[name]
	if !ok {
		entry = &GroupStat{Name: name}
		g.index[name] = entry
		g.order = append(g.order, entry)
	}
	entry.Tokens += tokens
	entry.Requests += requests
	entry.Quota += quota
}

func (g *groupAccumulator) sorted(less func(a, b *GroupStat) bool) []GroupStat {
	out := make([]GroupStat, len(g.order))
	for i, p := range g.order {
		out[i] = *p
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}
