package service

import (
	"context"

	"github.com/xigua-wiki/usage-reporter/internal/anomaly"
	"github.com/xigua-wiki/usage-reporter/internal/report"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

// LogDigest 生成最近窗口的调用日志摘要。pageSize 传 0 用上游默认页大小。
func (s *ReportService) LogDigest(ctx context.Context, spanMinutes, pageSize int) (string, error) {
	if spanMinutes <= 0 {
		spanMinutes = s.reportCfg.CompareShortHours * 60
	}
	records, err := s.logRecords(ctx, windowBack(spanMinutes), pageSize)
	if err != nil {
		return "", err
	}
	m := stats.SummarizeWithThreshold(records, s.slowMs())
	return report.LogDigest(m, records), nil
}

// Anomaly 生成异常巡检报告：日志指标 + 分级结论 + 处置建议。
func (s *ReportService) Anomaly(ctx context.Context, spanMinutes int) (string, error) {
	m, result, err := s.classify(ctx, spanMinutes)
	if err != nil {
		return "", err
	}
	return report.Anomaly(m, result), nil
}

func (s *ReportService) classify(ctx context.Context, spanMinutes int) (stats.LogMetrics, anomaly.Result, error) {
	if spanMinutes <= 0 {
		spanMinutes = s.reportCfg.CompareShortHours * 60
	}
	records, err := s.logRecords(ctx, windowBack(spanMinutes), 0)
	if err != nil {
		return stats.LogMetrics{}, anomaly.Result{}, err
	}
	m := stats.SummarizeWithThreshold(records, s.slowMs())
	return m, anomaly.Classify(m.ErrRate, m.SlowCount, s.thresholds()), nil
}
