package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
)

const chatCompletionsPath = "/v1/chat/completions"

// Client OpenAI 兼容 chat 端点的最小客户端，只覆盖单轮非流式补全。
type Client struct {
	http  *req.Client
	model string
}

func NewClient(cfg config.LLMConfig) *Client {
	c := req.C().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetCommonBearerAuthToken(cfg.APIKey)
	return &Client{http: c, model: cfg.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// Generate 发起一次 system+user 两条消息的补全，返回首个 choice 的文本。
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBodyJsonMarshal(body).
		Post(chatCompletionsPath)
	if err != nil {
		return "", fmt.Errorf("请求文本生成服务失败: %w", err)
	}
	raw := resp.Bytes()
	if resp.IsErrorState() {
		if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
			return "", fmt.Errorf("文本生成服务返回错误: %s", msg.String())
		}
		return "", fmt.Errorf("文本生成服务返回异常状态: %s", resp.Status)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("文本生成服务返回空内容")
	}
	logger.L().Debug("文本生成完成",
		zap.String("model", c.model),
		zap.Duration("cost", time.Since(start)))
	return content, nil
}
