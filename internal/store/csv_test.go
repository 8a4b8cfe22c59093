package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromCSV(t *testing.T) {
	path := writeTempCSV(t, "Type,StrContent,Sender,StrTime\n"+
		"1,你好,user_a,2023-05-01 12:00:00\n"+
		"3,<img/>,user_b,2023-05-01 12:01:00\n"+
		"1,大家好,user_b,2023-05-01 12:02:00\n")

	records, err := LoadFromCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "user_a", records[0].Sender)
	assert.Equal(t, "你好", records[0].Content)
	assert.Equal(t, 1, records[0].Type)
	assert.Equal(t, 2023, records[0].Time.Year())

	// 非文本消息也原样读出，由预处理阶段过滤
	assert.Equal(t, 3, records[1].Type)
}

func TestLoadFromCSV_ColumnOrderIndependent(t *testing.T) {
	path := writeTempCSV(t, "Sender,StrTime,StrContent,Type\n"+
		"user_a,2023-05-01 12:00:00,你好,1\n")

	records, err := LoadFromCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "user_a", records[0].Sender)
	assert.Equal(t, "你好", records[0].Content)
	assert.Equal(t, 1, records[0].Type)
}

func TestLoadFromCSV_MissingColumn(t *testing.T) {
	path := writeTempCSV(t, "Type,StrContent,Sender\n1,你好,user_a\n")

	_, err := LoadFromCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StrTime")
}

func TestLoadFromCSV_FileNotExist(t *testing.T) {
	_, err := LoadFromCSV(filepath.Join(t.TempDir(), "not-exist.csv"))
	assert.Error(t, err)
}

func TestLoadFromCSV_InvalidTypeTreatedAsNonText(t *testing.T) {
	path := writeTempCSV(t, "Type,StrContent,Sender,StrTime\n"+
		"abc,你好,user_a,2023-05-01 12:00:00\n")

	records, err := LoadFromCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Type)
}
