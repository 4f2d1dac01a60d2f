package record

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Extract 把上游返回的各种包裹形态摊平成记录序列。
//
// 兼容的形态（按探测顺序）：
//   - 顶层就是数组
//   - {"data": [...]}
//   - {"data": {"data"|"list"|"items": [...]}}
//   - {"list": [...]} / {"items": [...]}
//
// 任何其它形态（含 success=false 的失败响应、{"error": ...} 失败标记）
// 都返回空序列。无数据是合法结果，这里从不报错；失败原因由调用方
// 通过 Failure 取出后自行记日志。
func Extract(payload []byte) []Record {
	root := gjson.ParseBytes(payload)

	if root.IsArray() {
		return toRecords(root)
	}
	if !root.IsObject() {
		return nil
	}
	if _, failed := failure(root); failed {
		return nil
	}

	if data := root.Get("data"); data.Exists() {
		if data.IsArray() {
			return toRecords(data)
		}
		if data.IsObject() {
			for _, key := range []string{"data", "list", "items"} {
				if inner := data.Get(key); inner.IsArray() {
					return toRecords(inner)
				}
			}
		}
	}
	for _, key := range []string{"list", "items"} {
		if v := root.Get(key); v.IsArray() {
			return toRecords(v)
		}
	}
	return nil
}

// Failure 识别上游的显式失败：success=false 且带 message，
// 或传输层写入的 {"error": ...} 标记。返回可读的失败原因。
func Failure(payload []byte) (string, bool) {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return "", false
	}
	if msg, ok := failure(root); ok {
		return msg, true
	}
	if e := root.Get("error"); e.Exists() && e.String() != "" {
		return e.String(), true
	}
	return "", false
}

func failure(root gjson.Result) (string, bool) {
	success := root.Get("success")
	if success.Type != gjson.False {
		return "", false
	}
	msg := strings.TrimSpace(root.Get("message").String())
	if msg == "" {
		return "", false
	}
	return msg, true
}

func toRecords(arr gjson.Result) []Record {
	items := arr.Array()
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, Record{raw: it})
	}
	return out
}
