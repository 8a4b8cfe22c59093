package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/record"
)

// requiredColumns CSV 导出文件必须包含的列
var requiredColumns = []string{"Type", "StrContent", "Sender", "StrTime"}

// LoadFromCSV 从 CSV 导出文件中读取聊天记录。
// 表头必须包含 Type、StrContent、Sender、StrTime 四列，列顺序不限。
func LoadFromCSV(filename string) ([]record.Record, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	// 表头按列名寻址，兼容不同导出工具的列顺序
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := colIndex[name]; !ok {
			return nil, fmt.Errorf("缺少必需的列: %s", name)
		}
	}

	var records []record.Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line+1, err)
		}
		line++

		r, ok := rowToRecord(row, colIndex)
		if !ok {
			logger.Warnf("[Store] 第 %d 行列数不足，已跳过", line)
			continue
		}
		records = append(records, r)
	}

	logger.Infof("[Store] 成功读取数据，共 %d 条记录", len(records))
	return records, nil
}

func rowToRecord(row []string, colIndex map[string]int) (record.Record, bool) {
	get := func(name string) (string, bool) {
		idx := colIndex[name]
		if idx >= len(row) {
			return "", false
		}
		return row[idx], true
	}

	typeStr, ok1 := get("Type")
	content, ok2 := get("StrContent")
	sender, ok3 := get("Sender")
	timeStr, ok4 := get("StrTime")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return record.Record{}, false
	}

	msgType, err := strconv.Atoi(strings.TrimSpace(typeStr))
	if err != nil {
		// 类型列非数字时视为非文本消息，预处理阶段会将其过滤
		msgType = 0
	}

	t, _ := record.ParseTime(timeStr)
	return record.Record{
		Sender:  sender,
		Content: content,
		Type:    msgType,
		Time:    t,
	}, true
}
