package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/report"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

// Overview 生成默认窗口的数据概览报告。spanMinutes/topN 传 0 用配置默认值。
func (s *ReportService) Overview(ctx context.Context, spanMinutes, topN int) (string, error) {
	if spanMinutes <= 0 {
		spanMinutes = s.reportCfg.TimeSpanMinutes
	}
	if topN <= 0 {
		topN = s.reportCfg.TopNModels
	}
	win := windowBack(spanMinutes)
	records, _, err := s.usageRecords(ctx, win)
	if err != nil {
		return "", err
	}
	usage, models := stats.Aggregate(records, win)
	text := report.Overview(usage, models, topN)
	if len(records) == 0 {
		text = report.WithNoDataBanner(text)
	}
	return text, nil
}

// ModelRanking 生成模型用量排名报告。
func (s *ReportService) ModelRanking(ctx context.Context, spanMinutes, topN int) (string, error) {
	if spanMinutes <= 0 {
		spanMinutes = s.reportCfg.TimeSpanMinutes
	}
	if topN <= 0 {
		topN = s.reportCfg.TopNModels
	}
	win := windowBack(spanMinutes)
	records, _, err := s.usageRecords(ctx, win)
	if err != nil {
		return "", err
	}
	usage, models := stats.Aggregate(records, win)
	text := report.ModelRanking(usage, models, topN)
	if len(records) == 0 {
		text = report.WithNoDataBanner(text)
	}
	return text, nil
}

// Comparison 生成长短双窗口对比报告。两个用量窗口与短窗日志并行拉取。
func (s *ReportService) Comparison(ctx context.Context) (string, error) {
	longWin := windowBack(s.reportCfg.CompareLongHours * 60)
	shortWin := windowBack(s.reportCfg.CompareShortHours * 60)

	var (
		longRecords  []record.Record
		shortRecords []record.Record
		logs         []record.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		longRecords, _, err = s.usageRecords(gctx, longWin)
		return err
	})
	g.Go(func() error {
		var err error
		shortRecords, _, err = s.usageRecords(gctx, shortWin)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.logRecords(gctx, shortWin, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	long := buildWindowReport(fmt.Sprintf("近 %d 小时", s.reportCfg.CompareLongHours), longRecords, longWin)
	short := buildWindowReport(fmt.Sprintf("近 %d 小时", s.reportCfg.CompareShortHours), shortRecords, shortWin)

	// 渠道兜底用日志口径：用量记录常不带渠道字段
	m := stats.SummarizeWithThreshold(logs, s.slowMs())
	return report.Compare(long, short, m.ChannelTop), nil
}

func buildWindowReport(label string, records []record.Record, win stats.Window) report.WindowReport {
	usage, models := stats.Aggregate(records, win)
	channels := stats.AggregateByKeys(records, win, record.UnknownChannel, record.ChannelFields...)
	return report.WindowReport{Label: label, Stats: usage, Models: models, Channels: channels}
}

// Quota 查询当前账户的配额与累计用量。
func (s *ReportService) Quota(ctx context.Context) (string, error) {
	payload, err := s.fetcher.FetchUserSelf(ctx)
	if err != nil {
		return "", err
	}
	if msg, failed := record.Failure(payload); failed {
		return "", fmt.Errorf("上游返回失败: %s", msg)
	}
	return report.Quota(payload), nil
}
