package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/xigua-wiki/usage-reporter/internal/anomaly"
	"github.com/xigua-wiki/usage-reporter/internal/record"
	"github.com/xigua-wiki/usage-reporter/internal/report"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

// TextGenerator 叙述性分析所用的文本生成接口。
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

const narrativeSystemPrompt = "你是 LLM 网关的运维分析助手。根据给出的 JSON 指标简报，" +
	"用中文写一段简短的运行情况分析：先给结论，再说明依据，最后给出建议。" +
	"不要复述原始数字列表，不要使用 markdown 格式。"

var ErrNoGenerator = errors.New("未配置文本生成服务")

// Narrative 生成 LLM 叙述性分析：拉取用量与日志，压缩成 JSON 简报后交给
// 文本生成服务解读。未配置生成服务时返回 ErrNoGenerator。
func (s *ReportService) Narrative(ctx context.Context, spanMinutes int) (string, error) {
	if s.gen == nil {
		return "", ErrNoGenerator
	}
	if spanMinutes <= 0 {
		spanMinutes = s.reportCfg.TimeSpanMinutes
	}
	win := windowBack(spanMinutes)

	var (
		usageRecords []record.Record
		logs         []record.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		usageRecords, _, err = s.usageRecords(gctx, win)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.logRecords(gctx, win, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	usage, models := stats.Aggregate(usageRecords, win)
	m := stats.SummarizeWithThreshold(logs, s.slowMs())
	result := anomaly.Classify(m.ErrRate, m.SlowCount, s.thresholds())

	brief, err := report.Brief(usage, models, m, result)
	if err != nil {
		return "", err
	}
	text, err := s.gen.Generate(ctx, narrativeSystemPrompt, string(brief))
	if err != nil {
		return "", err
	}
	return "--- 智能分析 ---\n" + text, nil
}
