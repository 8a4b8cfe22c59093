package chunker

import (
	"strings"

	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/record"
)

// Chunk 一个连续的、按时间排序的聊天记录分组，字符总数不超过配置上限。
// 仅当单条消息自身超过上限时，块中只含该条消息且允许超限。
type Chunk struct {
	Records   []record.Record
	CharCount int // 块内消息字符总数
}

// Text 将块内消息内容合并为文本，每条消息一行
func (c *Chunk) Text() string {
	lines := make([]string, len(c.Records))
	for i, r := range c.Records {
		lines[i] = r.Content
	}
	return strings.Join(lines, "\n")
}

// SplitByChars 将按时间排序的聊天记录按字符数量分割成多个块。
// 贪心线性扫描：加入下一条消息会超过上限且当前块非空时，先封存当前块；
// 消息不会被拆分到两个块中。maxChars <= 0 表示不分块，全部消息归入一个块。
func SplitByChars(records []record.Record, maxChars int) []Chunk {
	if len(records) == 0 {
		return nil
	}

	if maxChars <= 0 {
		total := 0
		for _, r := range records {
			total += r.CharCount
		}
		return []Chunk{{Records: records, CharCount: total}}
	}

	var chunks []Chunk
	var current []record.Record
	currentChars := 0

	for _, r := range records {
		// 如果添加当前消息会超过限制，先保存当前块
		if len(current) > 0 && currentChars+r.CharCount > maxChars {
			chunks = append(chunks, Chunk{Records: current, CharCount: currentChars})
			current = nil
			currentChars = 0
		}

		current = append(current, r)
		currentChars += r.CharCount

		// 当前块已达到限制，立即封存
		if currentChars >= maxChars {
			chunks = append(chunks, Chunk{Records: current, CharCount: currentChars})
			current = nil
			currentChars = 0
		}
	}

	// 最后一个未满的块
	if len(current) > 0 {
		chunks = append(chunks, Chunk{Records: current, CharCount: currentChars})
	}

	logger.Infof("[Chunker] 聊天记录已分割成 %d 个块", len(chunks))
	for i, chunk := range chunks {
		logger.Debugf("[Chunker] 第 %d 个块的字符数: %d", i+1, chunk.CharCount)
	}

	return chunks
}
