package service

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/anomaly"
	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/snapshot"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

// Fetcher 上游数据入口。按接口依赖便于测试时用假实现替换真实网关。
type Fetcher interface {
	FetchUsageAnchored(ctx context.Context, win stats.Window) ([]byte, error)
	FetchLogs(ctx context.Context, win stats.Window, pageSize int) ([]byte, error)
	FetchUserSelf(ctx context.Context) ([]byte, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// ReportService 报表编排层：拉取 → 解析 → 聚合 → 渲染。
// 所有报表方法返回可直接发送的纯文本。
type ReportService struct {
	fetcher Fetcher
	snap    *snapshot.Store
	cache   *gocache.Cache
	gen     TextGenerator

	reportCfg  config.ReportConfig
	anomalyCfg config.AnomalyConfig
}

func NewReportService(fetcher Fetcher, snap *snapshot.Store, gen TextGenerator, cfg *config.Config) *ReportService {
	var c *gocache.Cache
	if ttl := cfg.Report.PayloadCacheTTL; ttl > 0 {
		c = gocache.New(ttl, 2*ttl)
	}
	return &ReportService{
		fetcher:    fetcher,
		snap:       snap,
		cache:      c,
		gen:        gen,
		reportCfg:  cfg.Report,
		anomalyCfg: cfg.Anomaly,
	}
}

func (s *ReportService) thresholds() anomaly.Thresholds {
	th := anomaly.DefaultThresholds()
	if s.anomalyCfg.ErrRateP0 > 0 {
		th.ErrRateP0 = s.anomalyCfg.ErrRateP0
	}
	if s.anomalyCfg.ErrRateP1 > 0 {
		th.ErrRateP1 = s.anomalyCfg.ErrRateP1
	}
	if s.anomalyCfg.SlowCountP1 > 0 {
		th.SlowCountP1 = int64(s.anomalyCfg.SlowCountP1)
	}
	return th
}

func (s *ReportService) slowMs() int64 {
	if s.anomalyCfg.SlowMs > 0 {
		return s.anomalyCfg.SlowMs
	}
	return stats.DefaultSlowMs
}

// windowBack 以当前时刻为终点回溯 minutes 分钟。
func windowBack(minutes int) stats.Window {
	now := time.Now().Unix()
	return stats.Window{Start: now - int64(minutes)*60, End: now}
}

// usageRecords 拉取窗口内用量并解析成记录。上游失败或返回空时回落到
// 本地快照，快照也没有就把错误往上抛；拉取成功则顺手刷新快照。
func (s *ReportService) usageRecords(ctx context.Context, win stats.Window) ([]record.Record, bool, error) {
	payload, err := s.fetchUsagePayload(ctx, win)
	if err != nil {
		if cached, ok := s.snap.Load(); ok {
			logger.L().Warn("上游用量拉取失败，回落到本地快照", zap.Error(err))
			return record.Extract(cached), true, nil
		}
		return nil, false, err
	}

	if msg, failed := record.Failure(payload); failed {
		logger.L().Warn("上游返回业务失败", zap.String("message", msg))
		if cached, ok := s.snap.Load(); ok {
			return record.Extract(cached), true, nil
		}
		return nil, false, fmt.Errorf("上游返回失败: %s", msg)
	}

	records := record.Extract(payload)
	if len(records) > 0 {
		if err := s.snap.Save(payload); err != nil {
			logger.L().Warn("快照保存失败", zap.Error(err))
		}
	}
	return records, false, nil
}

func (s *ReportService) fetchUsagePayload(ctx context.Context, win stats.Window) ([]byte, error) {
	key := fmt.Sprintf("usage:%d", win.Minutes())
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]byte), nil
		}
	}
	payload, err := s.fetcher.FetchUsageAnchored(ctx, win)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetDefault(key, payload)
	}
	return payload, nil
}

// RefreshSnapshot 绕过缓存强制拉取一次用量并落盘快照。定时任务用，
// 空结果不覆盖已有快照。
func (s *ReportService) RefreshSnapshot(ctx context.Context) error {
	win := windowBack(s.reportCfg.TimeSpanMinutes)
	payload, err := s.fetcher.FetchUsageAnchored(ctx, win)
	if err != nil {
		return err
	}
	if msg, failed := record.Failure(payload); failed {
		return fmt.Errorf("上游返回失败: %s", msg)
	}
	if len(record.Extract(payload)) == 0 {
		return nil
	}
	return s.snap.Save(payload)
}

// logRecords 拉取窗口内日志。日志不做快照回落，失败直接报错。
func (s *ReportService) logRecords(ctx context.Context, win stats.Window, pageSize int) ([]record.Record, error) {
	key := fmt.Sprintf("logs:%d:%d", win.Minutes(), pageSize)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]record.Record), nil
		}
	}
	payload, err := s.fetcher.FetchLogs(ctx, win, pageSize)
	if err != nil {
		return nil, err
	}
	if msg, failed := record.Failure(payload); failed {
		return nil, fmt.Errorf("上游返回失败: %s", msg)
	}
	records := record.Extract(payload)
	if s.cache != nil {
		s.cache.SetDefault(key, records)
	}
	return records, nil
}
