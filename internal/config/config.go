package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务配置。启动时构造一次，之后只读传递，不做运行期热更新。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Report   ReportConfig   `mapstructure:"report"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// UpstreamConfig 上游 new-api 网关的访问配置。
// Authorization 与 NewAPIUser 为不透明凭证串，仅原样放入请求头。
type UpstreamConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Authorization string        `mapstructure:"authorization"`
	NewAPIUser    string        `mapstructure:"new_api_user"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LogPageSize   int           `mapstructure:"log_page_size"`
}

type ReportConfig struct {
	// 概览统计的默认回溯窗口（分钟），原始插件默认 1500 分钟 = 25 小时
	TimeSpanMinutes int `mapstructure:"time_span_minutes"`
	TopNModels      int `mapstructure:"top_n_models"`
	// 对比报告的两个窗口（小时）
	CompareLongHours  int `mapstructure:"compare_long_hours"`
	CompareShortHours int `mapstructure:"compare_short_hours"`
	// 拉取结果的进程内缓存 TTL，0 表示不缓存
	PayloadCacheTTL time.Duration `mapstructure:"payload_cache_ttl"`
}

// AnomalyConfig 异常分级阈值。默认值即产品口径，配置仅用于联调放宽。
type AnomalyConfig struct {
	ErrRateP0   float64 `mapstructure:"err_rate_p0"`
	ErrRateP1   float64 `mapstructure:"err_rate_p1"`
	SlowCountP1 int     `mapstructure:"slow_count_p1"`
	SlowMs      int64   `mapstructure:"slow_ms"`
}

type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

type ScheduleConfig struct {
	// cron 表达式，留空表示关闭对应任务
	SnapshotRefresh string `mapstructure:"snapshot_refresh"`
	DailyReport     string `mapstructure:"daily_report"`
	// 定时报告推送目标（webhook），留空仅刷新快照
	PushURL string `mapstructure:"push_url"`
}

// LLMConfig 叙述性分析所用的文本生成接口（OpenAI 兼容 chat 端点）。
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	FilePath string `mapstructure:"file_path"`
}

// Load 读取配置文件（可选）并叠加环境变量，返回带默认值的完整配置。
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8089")
	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.log_page_size", 20)
	v.SetDefault("report.time_span_minutes", 1500)
	v.SetDefault("report.top_n_models", 5)
	v.SetDefault("report.compare_long_hours", 24)
	v.SetDefault("report.compare_short_hours", 2)
	v.SetDefault("report.payload_cache_ttl", 30*time.Second)
	v.SetDefault("anomaly.err_rate_p0", 0.20)
	v.SetDefault("anomaly.err_rate_p1", 0.08)
	v.SetDefault("anomaly.slow_count_p1", 5)
	v.SetDefault("anomaly.slow_ms", 15000)
	v.SetDefault("snapshot.path", "data/data.json")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix("REPORTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Report.TimeSpanMinutes <= 0 {
		return fmt.Errorf("report.time_span_minutes must be > 0")
	}
	if c.Report.CompareShortHours <= 0 || c.Report.CompareLongHours <= c.Report.CompareShortHours {
		return fmt.Errorf("report compare windows invalid: long=%d short=%d",
			c.Report.CompareLongHours, c.Report.CompareShortHours)
	}
	// top_n 限制在 [1,20]，越界静默收敛而不是报错，便于聊天指令透传
	if c.Report.TopNModels < 1 {
		c.Report.TopNModels = 1
	}
	if c.Report.TopNModels > 20 {
		c.Report.TopNModels = 20
	}
	return nil
}
