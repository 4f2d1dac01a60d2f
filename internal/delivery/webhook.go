package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

// WebhookPusher 把切片后的报告逐条推送到通用文本 webhook。
type WebhookPusher struct {
	http *req.Client
	url  string
	log  *zap.Logger
}

func NewWebhookPusher(url string, timeout time.Duration, log *zap.Logger) *WebhookPusher {
	c := req.C().
		SetTimeout(timeout).
		SetCommonRetryCount(2).
		SetCommonRetryFixedInterval(2 * time.Second)
	return &WebhookPusher{http: c, url: url, log: log}
}

type webhookMessage struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Part  int    `json:"part"`
	Parts int    `json:"parts"`
}

// Push 发送一份完整报告。超长文本按 Chunks 切分后顺序发送，
// 任一片段失败立即返回，不再继续发送后续片段。
func (p *WebhookPusher) Push(ctx context.Context, title, text string) error {
	chunks := Chunks(text)
	for i, chunk := range chunks {
		msg := webhookMessage{Title: title, Text: chunk, Part: i + 1, Parts: len(chunks)}
		resp, err := p.http.R().
			SetContext(ctx).
			SetBodyJsonMarshal(msg).
			Post(p.url)
		if err != nil {
			return fmt.Errorf("推送 webhook 失败: %w", err)
		}
		if resp.IsErrorState() {
			return fmt.Errorf("webhook 返回异常状态: %s", resp.Status)
		}
		p.log.Debug("webhook 片段已发送",
			zap.Int("part", i+1),
			zap.Int("parts", len(chunks)))
	}
	return nil
}
