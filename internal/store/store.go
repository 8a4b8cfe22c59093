package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fachebot/chat-insight/internal/record"
)

// Load 根据文件扩展名选择读取方式：
// .csv 按 CSV 导出文件读取，.db/.sqlite/.sqlite3 按 SQLite 数据库读取。
func Load(ctx context.Context, filename string) ([]record.Record, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return LoadFromCSV(filename)
	case ".db", ".sqlite", ".sqlite3":
		return LoadFromSQLite(ctx, filename)
	default:
		return nil, fmt.Errorf("不支持的输入文件格式: %s", ext)
	}
}
