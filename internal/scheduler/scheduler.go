package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
	"github.com/xigua-wiki/usage-reporter/internal/service"
)

// Pusher 定时报告的推送出口。
type Pusher interface {
	Push(ctx context.Context, title, text string) error
}

// Scheduler 定时任务：快照刷新与每日报告推送。cron 表达式留空的任务
// 不注册，两个都留空时 Scheduler 退化为空壳。
type Scheduler struct {
	cron   *cron.Cron
	svc    *service.ReportService
	pusher Pusher
	cfg    config.ScheduleConfig
}

const jobTimeout = 2 * time.Minute

func New(svc *service.ReportService, pusher Pusher, cfg config.ScheduleConfig) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		pusher: pusher,
		cfg:    cfg,
	}

	if spec := strings.TrimSpace(cfg.SnapshotRefresh); spec != "" {
		if _, err := s.cron.AddFunc(spec, s.refreshSnapshot); err != nil {
			return nil, fmt.Errorf("invalid snapshot_refresh cron %q: %w", spec, err)
		}
	}
	if spec := strings.TrimSpace(cfg.DailyReport); spec != "" {
		if pusher == nil {
			return nil, fmt.Errorf("daily_report 已配置但缺少 push_url")
		}
		if _, err := s.cron.AddFunc(spec, s.pushDailyReport); err != nil {
			return nil, fmt.Errorf("invalid daily_report cron %q: %w", spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待在跑的任务结束。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.svc.RefreshSnapshot(ctx); err != nil {
		logger.L().Warn("快照定时刷新失败", zap.Error(err))
		return
	}
	logger.L().Debug("快照定时刷新完成")
}

func (s *Scheduler) pushDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	overview, err := s.svc.Overview(ctx, 0, 0)
	if err != nil {
		logger.L().Warn("每日报告生成失败", zap.Error(err))
		return
	}
	anomaly, err := s.svc.Anomaly(ctx, 0)
	if err != nil {
		logger.L().Warn("每日巡检生成失败", zap.Error(err))
		anomaly = ""
	}

	text := overview
	if anomaly != "" {
		text = overview + "\n\n" + anomaly
	}
	if err := s.pusher.Push(ctx, "每日用量报告", text); err != nil {
		logger.L().Warn("每日报告推送失败", zap.Error(err))
		return
	}
	logger.L().Info("每日报告已推送")
}
