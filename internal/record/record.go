package record

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fachebot/chat-insight/internal/logger"
)

// TypeText 文本消息类型（导出表中 Type=1 表示文本消息）
const TypeText = 1

// Record 单条聊天记录
type Record struct {
	Sender    string    // 发送者ID
	Content   string    // 消息文本内容
	Type      int       // 消息类型
	Time      time.Time // 发送时间，解析失败时为零值
	CharCount int       // 消息字符数（按 rune 计）
}

// timeLayouts 常见的 StrTime 格式，按顺序尝试
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// xmlTagPattern 匹配 XML 标签内容
var xmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ParseTime 按常见格式解析时间字符串，全部失败时返回零值和 false
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StripMarkup 移除文本中所有 XML/HTML 标签
func StripMarkup(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	return xmlTagPattern.ReplaceAllString(text, "")
}

// Preprocess 预处理聊天记录：只保留非空文本消息，过滤 XML 标签内容，
// 解析时间并按时间排序，计算每条消息的字符数。
func Preprocess(records []Record) []Record {
	processed := make([]Record, 0, len(records))
	parseFailures := 0

	for _, r := range records {
		// 只保留文本消息
		if r.Type != TypeText {
			continue
		}
		// 去除空消息
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}

		// 过滤XML格式信息
		content = StripMarkup(content)

		// 过滤掉可能变成空字符串的消息
		if content == "" {
			continue
		}

		r.Content = content
		r.CharCount = utf8.RuneCountInString(content)
		if r.Time.IsZero() {
			parseFailures++
		}
		processed = append(processed, r)
	}

	if parseFailures > 0 {
		logger.Warnf("[Record] %d 条消息时间解析失败，将保持原有顺序参与排序", parseFailures)
	}

	// 按时间排序，时间相同或缺失时保持原有顺序
	sort.SliceStable(processed, func(i, j int) bool {
		return processed[i].Time.Before(processed[j].Time)
	})

	logger.Infof("[Record] 预处理后的文本消息数量: %d", len(processed))
	return processed
}
