package upstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
	"github.com/xigua-wiki/usage-reporter/internal/util/mask"
)

const (
	usagePath    = "/api/data/self"
	logPath      = "/api/log/"
	userSelfPath = "/api/user/self"
)

// Client new-api 网关的只读客户端。返回原始 JSON 字节，解析与容错
// 全部留给 record 层；这里只负责传输错误与非 JSON 响应的归错。
type Client struct {
	http        *req.Client
	logPageSize int
}

func NewClient(cfg config.UpstreamConfig) *Client {
	c := req.C().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetCommonHeader("Accept", "application/json")

	if cfg.Authorization != "" {
		c.SetCommonHeader("Authorization", cfg.Authorization)
	}
	if cfg.NewAPIUser != "" {
		c.SetCommonHeader("New-Api-User", cfg.NewAPIUser)
	}

	logger.L().Info("upstream client ready",
		zap.String("base_url", cfg.BaseURL),
		zap.String("authorization", mask.Secret(cfg.Authorization)),
		zap.String("new_api_user", mask.Secret(cfg.NewAPIUser)),
	)

	pageSize := cfg.LogPageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Client{http: c, logPageSize: pageSize}
}

// FetchUsage 拉取窗口内的用量数据。
func (c *Client) FetchUsage(ctx context.Context, win stats.Window) ([]byte, error) {
	return c.getJSON(ctx, usagePath, usageQuery(win))
}

// FetchUsageAnchored 拉取窗口数据，为空时回退：先不带窗口探测最新
// 一条记录的 created_at，再以它为右端点重拉一次。上游按"整点桶"返回
// 数据，窗口压在桶边界上时经常拉空，这个回退能救回来。
func (c *Client) FetchUsageAnchored(ctx context.Context, win stats.Window) ([]byte, error) {
	payload, err := c.FetchUsage(ctx, win)
	if err != nil {
		return nil, err
	}
	if len(record.Extract(payload)) > 0 {
		return payload, nil
	}

	probe, err := c.getJSON(ctx, usagePath, nil)
	if err != nil {
		return payload, nil // 探测失败就用原响应，不放大错误
	}
	var latest int64
	for _, r := range record.Extract(probe) {
		if ts := r.CreatedAt(); ts > latest {
			latest = ts
		}
	}
	if latest <= 0 {
		return payload, nil
	}

	span := win.End - win.Start
	anchored := stats.Window{Start: latest - span, End: latest}
	logger.FromContext(ctx).Debug("usage window empty, refetching anchored to latest record",
		zap.Int64("latest", latest), zap.Int64("span_seconds", span))

	payload2, err := c.getJSON(ctx, usagePath, usageQuery(anchored))
	if err != nil {
		return payload, nil
	}
	return payload2, nil
}

// FetchLogs 拉取窗口内的调用日志（第一页）。pageSize 不在 (0,100] 范围内
// 时回落到配置的默认页大小。
func (c *Client) FetchLogs(ctx context.Context, win stats.Window, pageSize int) ([]byte, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = c.logPageSize
	}
	return c.getJSON(ctx, logPath, map[string]string{
		"p":               "1",
		"page_size":       strconv.Itoa(pageSize),
		"type":            "0",
		"start_timestamp": strconv.FormatInt(win.Start, 10),
		"end_timestamp":   strconv.FormatInt(win.End, 10),
	})
}

// FetchUserSelf 拉取当前用户信息（额度查询）。
func (c *Client) FetchUserSelf(ctx context.Context) ([]byte, error) {
	return c.getJSON(ctx, userSelfPath, nil)
}

// Ping 探测上游连通性，返回耗时。
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.getJSON(ctx, userSelfPath, nil)
	return time.Since(start), err
}

func usageQuery(win stats.Window) map[string]string {
	return map[string]string{
		"username":        "",
		"start_timestamp": strconv.FormatInt(win.Start, 10),
		"end_timestamp":   strconv.FormatInt(win.End, 10),
		"default_time":    "hour",
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	r := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		r.SetQueryParams(query)
	}

	resp, err := r.Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	body := resp.Bytes()
	if !gjson.ValidBytes(body) {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		logger.FromContext(ctx).Debug("upstream returned non-JSON body",
			zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("snippet", snippet))
		return nil, fmt.Errorf("GET %s: non-JSON response (status %d)", path, resp.StatusCode)
	}
	return body, nil
}
