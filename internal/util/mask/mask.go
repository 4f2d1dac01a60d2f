package mask

// Secret 凭证打码：保留前 4 后 2，其余省略。长度不足时全部打星，
// 避免短凭证被直接暴露。用于日志里出现的 Authorization / New-Api-User。
func Secret(v string) string {
	const left, right = 4, 2
	if len(v) <= left+right {
		out := make([]byte, len(v))
		for i := range out {
			out[i] = '*'
		}
		return string(out)
	}
	return v[:left] + "..." + v[len(v)-right:]
}
