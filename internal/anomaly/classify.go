package anomaly

// Level 异常严重级别，OK < P2 < P1 < P0。
type Level int

const (
	LevelOK Level = iota
	LevelP2
	LevelP1
	LevelP0
)

func (l Level) String() string {
	switch l {
	case LevelP0:
		return "P0"
	case LevelP1:
		return "P1"
	case LevelP2:
		return "P2"
	default:
		return "OK"
	}
}

// Thresholds 分级阈值。零值无意义，用 DefaultThresholds 起步。
type Thresholds struct {
	ErrRateP0   float64 // 错误率达到该值 → P0
	ErrRateP1   float64 // 错误率达到该值 → P1
	SlowCountP1 int64   // 慢请求条数达到该值 → P1
}

func DefaultThresholds() Thresholds {
	return Thresholds{ErrRateP0: 0.20, ErrRateP1: 0.08, SlowCountP1: 5}
}

// Result 分级结论：级别、一句话原因、该级别的固定处置建议。
type Result struct {
	Level   Level    `json:"level"`
	Reason  string   `json:"reason"`
	Actions []string `json:"actions"`
}

// 各级别的处置建议是固定文案，不从数据推导。
var actionsByLevel = map[Level][]string{
	LevelP0: {
		"立即检查上游渠道可用性，必要时切换备用渠道",
		"核对最近的配置/密钥变更并回滚可疑改动",
		"通知值班同学介入，保留现场日志",
	},
	LevelP1: {
		"排查错误集中的渠道与模型，评估是否临时摘除",
		"关注慢请求对应的上游，确认是否限流或降速",
		"加密度观察 30 分钟，恶化则升级处理",
	},
	LevelP2: {
		"记录异常样本，观察是否持续出现",
		"对高耗时模型评估超时与重试配置",
	},
	LevelOK: {
		"保持常规巡检即可",
	},
}

// Classify 按有序阈值规则给出严重级别，先命中先赢：
//
//	err_rate >= 0.20            → P0
//	err_rate >= 0.08 或 慢 >= 5 → P1
//	err_rate > 0  或 慢 > 0     → P2
//	否则                        → OK
//
// 边界取 >=，0.20 恰好命中 P0。
func Classify(errRate float64, slowCount int64, th Thresholds) Result {
	switch {
	case errRate >= th.ErrRateP0:
		return result(LevelP0, "错误率严重偏高，可用性已受显著影响")
	case errRate >= th.ErrRateP1 || slowCount >= th.SlowCountP1:
		return result(LevelP1, "稳定性下降，建议尽快处理")
	case errRate > 0 || slowCount > 0:
		return result(LevelP2, "存在零星异常，保持关注并优化")
	default:
		return result(LevelOK, "未发现明显异常")
	}
}

func result(level Level, reason string) Result {
	return Result{Level: level, Reason: reason, Actions: actionsByLevel[level]}
}
