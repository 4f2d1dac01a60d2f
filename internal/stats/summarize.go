package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/xigua-wiki/usage-reporter/internal/record"
)

// DefaultSlowMs 慢请求判定阈值（毫秒）。
const DefaultSlowMs = 15000

// 日志 type 字段里表示错误事件的类别码。
const logTypeError = 5

// KV 频次榜单的一项。
type KV struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// LogMetrics 一批日志记录的统计摘要。时间过滤不在这里做，
// 调用方拉取时已经限定了窗口。
type LogMetrics struct {
	Total      int64   `json:"total"`
	ErrCount   int64   `json:"err_count"`
	ErrRate    float64 `json:"err_rate"`
	SlowCount  int64   `json:"slow_count"`
	SlowRate   float64 `json:"slow_rate"`
	AvgMs      float64 `json:"avg_ms"`
	P50Ms      int64   `json:"p50_ms"`
	P95Ms      int64   `json:"p95_ms"`
	P99Ms      int64   `json:"p99_ms"`
	CodeTop    []KV    `json:"code_top"`
	ModelTop   []KV    `json:"model_top"`
	ChannelTop []KV    `json:"channel_top"`

	// ErrItems 保持原始顺序；SlowItems 按耗时降序取前 8 条。
	ErrItems  []record.Record `json:"-"`
	SlowItems []record.Record `json:"-"`
}

const (
	codeTopN    = 6
	modelTopN   = 5
	channelTopN = 5
	slowItemsN  = 8
)

// Summarize 按默认慢阈值汇总日志记录。
func Summarize(records []record.Record) LogMetrics {
	return SummarizeWithThreshold(records, DefaultSlowMs)
}

// SummarizeWithThreshold 汇总日志记录：错误/慢请求分类、耗时分位数、
// 状态码/模型/渠道分布。空输入返回全零结构，不是特殊哨兵。
func SummarizeWithThreshold(records []record.Record, slowMs int64) LogMetrics {
	m := LogMetrics{Total: int64(len(records))}

	codes := newCounter()
	models := newCounter()
	channels := newCounter()

	useTimes := make([]int64, 0, len(records))
	var totalMs int64

	for _, r := range records {
		useTime := r.Int("use_time")
		useTimes = append(useTimes, useTime)
		totalMs += useTime

		if r.Int("type") == logTypeError || r.Int("code") >= 400 {
			m.ErrCount++
			m.ErrItems = append(m.ErrItems, r)
		}
		if useTime >= slowMs {
			m.SlowItems = append(m.SlowItems, r)
		}

		codes.add(strconv.FormatInt(r.Int("code"), 10))
		models.add(r.Model())
		channels.add(r.Channel())
	}

	m.SlowCount = int64(len(m.SlowItems))

	denom := float64(max(int64(1), m.Total))
	m.ErrRate = float64(m.ErrCount) / denom
	m.SlowRate = float64(m.SlowCount) / denom
	m.AvgMs = float64(totalMs) / denom

	sort.Slice(useTimes, func(i, j int) bool { return useTimes[i] < useTimes[j] })
	m.P50Ms = Percentile(useTimes, 0.50)
	m.P95Ms = Percentile(useTimes, 0.95)
	m.P99Ms = Percentile(useTimes, 0.99)

	m.CodeTop = codes.top(codeTopN)
	m.ModelTop = models.top(modelTopN)
	m.ChannelTop = channels.top(channelTopN)

	// 慢请求样本按耗时降序，截前 8 条；平局保持原始顺序
	sort.SliceStable(m.SlowItems, func(i, j int) bool {
		return m.SlowItems[i].Int("use_time") > m.SlowItems[j].Int("use_time")
	})
	if len(m.SlowItems) > slowItemsN {
		m.SlowItems = m.SlowItems[:slowItemsN]
	}
	return m
}

// Percentile 最近秩分位数：在升序序列上取 round((n-1)*q) 位置的值，
// 不做线性插值，与上游面板的口径保持一致。
func Percentile(sortedAsc []int64, q float64) int64 {
	n := len(sortedAsc)
	if n == 0 {
		return 0
	}
	idx := int(math.Round(float64(n-1) * q))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sortedAsc[idx]
}

// counter 保序频次计数器，平局按首次出现顺序。
type counter struct {
	counts map[string]int64
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int64)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top(n int) []KV {
	out := make([]KV, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, KV{Key: k, Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
