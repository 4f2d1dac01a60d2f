package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xigua-wiki/usage-reporter/internal/config"
	"github.com/xigua-wiki/usage-reporter/internal/service"
	"github.com/xigua-wiki/usage-reporter/internal/snapshot"
	"github.com/xigua-wiki/usage-reporter/internal/stats"
)

type fakeGateway struct{}

func (fakeGateway) FetchUsageAnchored(_ context.Context, _ stats.Window) ([]byte, error) {
	now := time.Now().Unix()
	return []byte(fmt.Sprintf(
		`{"success":true,"data":[{"model_name":"gpt-4o","token_used":100,"count":2,"created_at":%d}]}`, now-60)), nil
}

func (fakeGateway) FetchLogs(_ context.Context, _ stats.Window, _ int) ([]byte, error) {
	return []byte(`{"success":true,"data":{"items":[]}}`), nil
}

func (fakeGateway) FetchUserSelf(_ context.Context) ([]byte, error) {
	return []byte(`{"success":true,"data":{}}`), nil
}

func (fakeGateway) Ping(_ context.Context) (time.Duration, error) { return 0, nil }

type recordingPusher struct {
	titles []string
	texts  []string
}

func (p *recordingPusher) Push(_ context.Context, title, text string) error {
	p.titles = append(p.titles, title)
	p.texts = append(p.texts, text)
	return nil
}

func newTestService(t *testing.T) *service.ReportService {
	t.Helper()
	cfg := &config.Config{
		Report: config.ReportConfig{
			TimeSpanMinutes:   1500,
			TopNModels:        5,
			CompareLongHours:  24,
			CompareShortHours: 2,
		},
	}
	snap := snapshot.NewStore(filepath.Join(t.TempDir(), "data.json"))
	return service.NewReportService(fakeGateway{}, snap, nil, cfg)
}

func TestNewRejectsInvalidCron(t *testing.T) {
	_, err := New(newTestService(t), nil, config.ScheduleConfig{SnapshotRefresh: "not a cron"})
	require.Error(t, err)
}

func TestNewRequiresPusherForDailyReport(t *testing.T) {
	_, err := New(newTestService(t), nil, config.ScheduleConfig{DailyReport: "0 9 * * *"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push_url")
}

func TestNewEmptySchedule(t *testing.T) {
	s, err := New(newTestService(t), nil, config.ScheduleConfig{})
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

func TestPushDailyReport(t *testing.T) {
	pusher := &recordingPusher{}
	s, err := New(newTestService(t), pusher, config.ScheduleConfig{DailyReport: "0 9 * * *"})
	require.NoError(t, err)

	s.pushDailyReport()

	require.Len(t, pusher.texts, 1)
	assert.Equal(t, "每日用量报告", pusher.titles[0])
	assert.Contains(t, pusher.texts[0], "--- 数据分析报告 ---")
	assert.Contains(t, pusher.texts[0], "异常")
}

func TestRefreshSnapshotJob(t *testing.T) {
	svc := newTestService(t)
	s, err := New(svc, nil, config.ScheduleConfig{SnapshotRefresh: "*/5 * * * *"})
	require.NoError(t, err)

	s.refreshSnapshot()

	// 再次生成报告时应能命中刚写入的快照数据
	text, err := svc.Overview(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "gpt-4o")
}
