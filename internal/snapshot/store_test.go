package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xigua-wiki/usage-reporter/internal/record"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data.json"))
}

func TestSaveAndLoad(t *testing.T) {
	s := newStore(t)
	payload := []byte(`{"success":true,"data":[{"created_at":100,"count":1}]}`)

	require.NoError(t, s.Save(payload))

	loaded, ok := s.Load()
	require.True(t, ok)
	require.Len(t, record.Extract(loaded), 1)

	// 落盘时盖了时间戳
	require.Greater(t, gjson.GetBytes(loaded, "_saved_at").Int(), int64(0))
	require.Greater(t, s.SavedAt(), int64(0))
}

func TestLoadMissingFile(t *testing.T) {
	s := newStore(t)
	_, ok := s.Load()
	require.False(t, ok)
	require.EqualValues(t, 0, s.SavedAt())
}

func TestSaveRejectsNonJSON(t *testing.T) {
	s := newStore(t)
	require.Error(t, s.Save([]byte("<html>")))
	_, ok := s.Load()
	require.False(t, ok)
}

func TestSaveSkipsUnchangedPayload(t *testing.T) {
	s := newStore(t)
	payload := []byte(`{"data":[1,2,3]}`)

	require.NoError(t, s.Save(payload))
	fi1, err := os.Stat(s.path)
	require.NoError(t, err)

	// 相同内容不重写文件
	require.NoError(t, s.Save(payload))
	fi2, err := os.Stat(s.path)
	require.NoError(t, err)
	require.Equal(t, fi1.ModTime(), fi2.ModTime())

	// 内容变化照常落盘
	require.NoError(t, s.Save([]byte(`{"data":[4]}`)))
	loaded, ok := s.Load()
	require.True(t, ok)
	require.Len(t, record.Extract(loaded), 1)
}

func TestSaveArrayPayloadAsIs(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save([]byte(`[{"created_at":1}]`)))

	loaded, ok := s.Load()
	require.True(t, ok)
	require.True(t, gjson.ParseBytes(loaded).IsArray())
	// 顶层数组没有 _saved_at，退回文件修改时间
	require.Greater(t, s.SavedAt(), int64(0))
}

func TestLoadCorruptedFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o755))
	require.NoError(t, os.WriteFile(s.path, []byte("not json"), 0o644))

	_, ok := s.Load()
	require.False(t, ok)
}
