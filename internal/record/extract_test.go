package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractShapes(t *testing.T) {
	rows := `[{"model_name":"gpt-4o","count":3},{"model_name":"claude","count":1}]`

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{name: "顶层数组", payload: rows, want: 2},
		{name: "data 数组", payload: `{"data":` + rows + `}`, want: 2},
		{name: "data.data 数组", payload: `{"data":{"data":` + rows + `}}`, want: 2},
		{name: "data.list 数组", payload: `{"data":{"list":` + rows + `}}`, want: 2},
		{name: "data.items 数组", payload: `{"data":{"items":` + rows + `}}`, want: 2},
		{name: "顶层 list", payload: `{"list":` + rows + `}`, want: 2},
		{name: "顶层 items", payload: `{"items":` + rows + `}`, want: 2},
		{name: "非对象非数组", payload: `"oops"`, want: 0},
		{name: "对象无列表", payload: `{"data":{"total":7}}`, want: 0},
		{name: "失败响应", payload: `{"success":false,"message":"无权访问"}`, want: 0},
		{name: "错误标记", payload: `{"error":"HTTP 502 Bad Gateway"}`, want: 0},
		{name: "空输入", payload: ``, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract([]byte(tt.payload))
			require.Len(t, got, tt.want)
		})
	}
}

func TestExtractPreservesOrderAndFields(t *testing.T) {
	payload := `{"data":[{"model_name":"a","count":1},{"model_name":"b","count":2}]}`
	records := Extract([]byte(payload))
	require.Len(t, records, 2)
	require.Equal(t, "a", records[0].Str("model_name"))
	require.Equal(t, "b", records[1].Str("model_name"))
	require.EqualValues(t, 2, records[1].Int("count"))
}

// success=false 但没有 message 的响应不按失败处理，继续探测数据。
func TestExtractSuccessFalseWithoutMessage(t *testing.T) {
	payload := `{"success":false,"data":[{"count":1}]}`
	require.Len(t, Extract([]byte(payload)), 1)
}

func TestFailure(t *testing.T) {
	msg, ok := Failure([]byte(`{"success":false,"message":"token 已过期"}`))
	require.True(t, ok)
	require.Equal(t, "token 已过期", msg)

	msg, ok = Failure([]byte(`{"error":"URL 错误"}`))
	require.True(t, ok)
	require.Equal(t, "URL 错误", msg)

	_, ok = Failure([]byte(`{"success":true,"data":[]}`))
	require.False(t, ok)

	_, ok = Failure([]byte(`[1,2,3]`))
	require.False(t, ok)
}
