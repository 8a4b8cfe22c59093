package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/record"

	_ "github.com/mattn/go-sqlite3"
)

// LoadFromSQLite 从导出的 SQLite 数据库中读取聊天记录。
// 要求存在 MSG 表，包含 Sender、Type、StrContent、StrTime 列。
func LoadFromSQLite(ctx context.Context, filename string) ([]record.Record, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filename))
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT Sender, Type, StrContent, StrTime FROM MSG ORDER BY StrTime")
	if err != nil {
		return nil, fmt.Errorf("查询消息失败: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var (
			sender  sql.NullString
			msgType sql.NullInt64
			content sql.NullString
			timeStr sql.NullString
		)
		if err := rows.Scan(&sender, &msgType, &content, &timeStr); err != nil {
			return nil, fmt.Errorf("读取消息行失败: %w", err)
		}

		t, _ := record.ParseTime(timeStr.String)
		records = append(records, record.Record{
			Sender:  sender.String,
			Content: content.String,
			Type:    int(msgType.Int64),
			Time:    t,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历消息失败: %w", err)
	}

	logger.Infof("[Store] 成功读取数据，共 %d 条记录", len(records))
	return records, nil
}
