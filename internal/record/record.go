package record

import (
	"strings"

	"github.com/tidwall/gjson"
)

// 兜底分组标签，与上游面板展示口径一致。
const (
	UnknownModel   = "未知模型"
	UnknownChannel = "未知渠道"
)

// ChannelFields 渠道分组键的候选字段，按优先级排列。
// 不同版本的 new-api 返回字段不一致，取第一个有值的。
var ChannelFields = []string{
	"channel_name",
	"channel",
	"channel_id",
	"provider_name",
	"provider",
	"provider_id",
}

// Record 一条未加工的用量/日志记录。字段访问统一走这里的 getter，
// 缺失、null、非数字一律当 0，空字符串标签落到兜底值，保证上游
// schema 漂移不会让统计崩掉。
type Record struct {
	raw gjson.Result
}

func FromResult(r gjson.Result) Record {
	return Record{raw: r}
}

// FromJSON 便于测试直接从字面量构造记录。
func FromJSON(s string) Record {
	return Record{raw: gjson.Parse(s)}
}

// Int 数值字段的宽松取值：缺失/null/非数字 → 0。
func (r Record) Int(field string) int64 {
	return r.raw.Get(field).Int()
}

// Str 字符串字段，缺失返回空串。
func (r Record) Str(field string) string {
	return r.raw.Get(field).String()
}

// Label 按候选顺序取第一个非空、非零的字段值作为分组键，否则兜底。
func (r Record) Label(fallback string, candidates ...string) string {
	for _, f := range candidates {
		v := r.raw.Get(f)
		if !v.Exists() {
			continue
		}
		s := strings.TrimSpace(v.String())
		if s == "" || s == "0" {
			continue
		}
		return s
	}
	return fallback
}

// Model 模型名，空值落到"未知模型"。
func (r Record) Model() string {
	return r.Label(UnknownModel, "model_name")
}

// Channel 渠道/供应商分组键。
func (r Record) Channel() string {
	return r.Label(UnknownChannel, ChannelFields...)
}

func (r Record) CreatedAt() int64 {
	return r.Int("created_at")
}

// Raw 暴露底层结果，格式化层需要偶尔读取额外字段（如 ip）。
func (r Record) Raw() gjson.Result {
	return r.raw
}
