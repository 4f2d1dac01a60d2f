package delivery

// 单条消息的最大长度（按字符数）。聊天端对超长消息会静默丢弃，
// 超出的部分切成多条发送。
const maxChunkRunes = 900

// Chunks 把报告正文切成可发送的片段。空文本返回一个占位片段，
// 保证调用方总有东西可发。
func Chunks(text string) []string {
	if text == "" {
		return []string{"(空)"}
	}
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+maxChunkRunes-1)/maxChunkRunes)
	for len(runes) > 0 {
		n := maxChunkRunes
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
