package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/pkg/response"
	"github.com/xigua-wiki/usage-reporter/internal/service"
)

// ReportHandler 报表 HTTP 入口。所有报表以纯文本正文通过统一包装返回，
// 方便聊天机器人等下游直接转发。
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Overview 数据概览报告。
// GET /api/report/overview?hours=25&top_n=5
func (h *ReportHandler) Overview(c *gin.Context) {
	minutes, topN, ok := h.parseSpanAndTopN(c)
	if !ok {
		return
	}

	text, err := h.svc.Overview(c.Request.Context(), minutes, topN)
	if err != nil {
		h.reportError(c, "overview", err)
		return
	}
	response.Text(c, text)
}

// Models 模型用量排名。
// GET /api/report/models?hours=25&top_n=5
func (h *ReportHandler) Models(c *gin.Context) {
	minutes, topN, ok := h.parseSpanAndTopN(c)
	if !ok {
		return
	}

	text, err := h.svc.ModelRanking(c.Request.Context(), minutes, topN)
	if err != nil {
		h.reportError(c, "models", err)
		return
	}
	response.Text(c, text)
}

// Logs 调用日志摘要。
// GET /api/report/logs?hours=2&page_size=20
func (h *ReportHandler) Logs(c *gin.Context) {
	minutes, ok := h.parseSpan(c)
	if !ok {
		return
	}
	pageSize, err := parseIntQuery(c, "page_size", 0, 0, 100)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	text, err := h.svc.LogDigest(c.Request.Context(), minutes, pageSize)
	if err != nil {
		h.reportError(c, "logs", err)
		return
	}
	response.Text(c, text)
}

// Anomaly 异常巡检报告。
// GET /api/report/anomaly?hours=2
func (h *ReportHandler) Anomaly(c *gin.Context) {
	minutes, ok := h.parseSpan(c)
	if !ok {
		return
	}

	text, err := h.svc.Anomaly(c.Request.Context(), minutes)
	if err != nil {
		h.reportError(c, "anomaly", err)
		return
	}
	response.Text(c, text)
}

// Compare 长短双窗口对比报告。
// GET /api/report/compare
func (h *ReportHandler) Compare(c *gin.Context) {
	text, err := h.svc.Comparison(c.Request.Context())
	if err != nil {
		h.reportError(c, "compare", err)
		return
	}
	response.Text(c, text)
}

// Quota 账户额度信息。
// GET /api/report/quota
func (h *ReportHandler) Quota(c *gin.Context) {
	text, err := h.svc.Quota(c.Request.Context())
	if err != nil {
		h.reportError(c, "quota", err)
		return
	}
	response.Text(c, text)
}

// Health 健康检查报告。探测失败也返回 200，失败详情在正文里。
// GET /api/report/health
func (h *ReportHandler) Health(c *gin.Context) {
	response.Text(c, h.svc.Health(c.Request.Context()))
}

// Narrative LLM 叙述性分析。要真实调一次文本生成，所以用 POST。
// POST /api/report/narrative?hours=25
func (h *ReportHandler) Narrative(c *gin.Context) {
	minutes, ok := h.parseSpan(c)
	if !ok {
		return
	}

	text, err := h.svc.Narrative(c.Request.Context(), minutes)
	if err != nil {
		if errors.Is(err, service.ErrNoGenerator) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		h.reportError(c, "narrative", err)
		return
	}
	response.Text(c, text)
}

// parseSpan 解析 hours 查询参数并换算成分钟，0 表示用配置默认窗口。
func (h *ReportHandler) parseSpan(c *gin.Context) (int, bool) {
	hours, err := parseIntQuery(c, "hours", 0, 0, 7*24)
	if err != nil {
		response.BadRequest(c, err.Error())
		return 0, false
	}
	return hours * 60, true
}

func (h *ReportHandler) parseSpanAndTopN(c *gin.Context) (int, int, bool) {
	minutes, ok := h.parseSpan(c)
	if !ok {
		return 0, 0, false
	}
	topN, err := parseIntQuery(c, "top_n", 0, 0, 20)
	if err != nil {
		response.BadRequest(c, err.Error())
		return 0, 0, false
	}
	return minutes, topN, true
}

func (h *ReportHandler) reportError(c *gin.Context, name string, err error) {
	requestLogger(c, "handler.report").Warn("报表生成失败",
		zap.String("report", name), zap.Error(err))
	response.ServiceUnavailable(c, err.Error())
}

// parseIntQuery 解析整数查询参数：缺省回落 def，越界直接报错而不是收敛，
// 让调用方知道参数没生效。
func parseIntQuery(c *gin.Context, name string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	if v < min || v > max {
		return 0, errors.New(name + " out of range")
	}
	return v, nil
}
