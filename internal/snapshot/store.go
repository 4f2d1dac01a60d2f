package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/xigua-wiki/usage-reporter/internal/pkg/logger"
)

// savedAtKey 落盘时写入的元数据字段。记录本身不含下划线开头的
// 字段，不会和上游数据冲突。
const savedAtKey = "_saved_at"

// Store 最近一次成功拉取的原始 payload 的文件快照。
// 单读单写，整文件覆盖；写失败保留旧文件，绝不让快照坏掉报表。
type Store struct {
	path string

	mu       sync.Mutex
	lastHash uint64
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save 落盘一份 payload。内容与上次相同（按 xxhash）时跳过写入。
// 顶层是对象时顺手盖上 _saved_at 时间戳；数组原样保存。
func (s *Store) Save(payload []byte) error {
	if !gjson.ValidBytes(payload) {
		return fmt.Errorf("snapshot: refusing to save non-JSON payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum := xxhash.Sum64(payload)
	if sum == s.lastHash && s.lastHash != 0 {
		return nil
	}

	out := payload
	if gjson.ParseBytes(payload).IsObject() {
		if stamped, err := sjson.SetBytes(payload, savedAtKey, time.Now().Unix()); err == nil {
			out = stamped
		}
	}

	if err := s.writeAtomic(out); err != nil {
		return fmt.Errorf("snapshot: save %s: %w", s.path, err)
	}
	s.lastHash = sum

	logger.L().Debug("snapshot saved", zap.String("path", s.path), zap.Int("bytes", len(out)))
	return nil
}

// Load 读取快照，不存在或读失败返回 (nil, false)。
func (s *Store) Load() ([]byte, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.L().Warn("snapshot load failed", zap.String("path", s.path), zap.Error(err))
		}
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		logger.L().Warn("snapshot file corrupted, ignoring", zap.String("path", s.path))
		return nil, false
	}
	return data, true
}

// SavedAt 最近一次快照时间。优先读文件里的 _saved_at，
// 旧格式退回文件修改时间；没有快照返回 0。
func (s *Store) SavedAt() int64 {
	data, ok := s.Load()
	if !ok {
		return 0
	}
	if ts := gjson.GetBytes(data, savedAtKey).Int(); ts > 0 {
		return ts
	}
	if fi, err := os.Stat(s.path); err == nil {
		return fi.ModTime().Unix()
	}
	return 0
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
