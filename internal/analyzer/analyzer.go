package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/record"
)

// UserStats 单个发送者的消息统计
type UserStats struct {
	MessageCount     int     // 消息总数
	MessagesPerDay   float64 // 日均消息数，时间跨度不足一天按一天计
	AvgMessageLength float64 // 平均消息字符数
	MaxMessageLength int     // 最长消息字符数
}

// MessageStats 用户画像中的消息统计部分
type MessageStats struct {
	TotalMessages  int     `json:"total_messages"`
	AvgLength      float64 `json:"avg_length"`
	MessagesPerDay float64 `json:"messages_per_day"`
}

// Profile 用户画像
type Profile struct {
	UserID            string       `json:"user_id"`
	MessageStats      MessageStats `json:"message_stats"`
	PersonalityTraits []string     `json:"personality_traits"`
}

// summaryJSON 汇总报告结构
type summaryJSON struct {
	TotalUsers    int      `json:"total_users"`
	GeneratedTime string   `json:"generated_time"`
	Users         []string `json:"users"`
}

// AnalyzeChatContent 按发送者分组统计消息特征。
// 输入为空时返回空映射。
func AnalyzeChatContent(records []record.Record) map[string]UserStats {
	results := make(map[string]UserStats)

	grouped := make(map[string][]record.Record)
	for _, r := range records {
		grouped[r.Sender] = append(grouped[r.Sender], r)
	}

	for sender, msgs := range grouped {
		totalChars := 0
		maxChars := 0
		var minTime, maxTime time.Time
		for _, m := range msgs {
			totalChars += m.CharCount
			if m.CharCount > maxChars {
				maxChars = m.CharCount
			}
			if m.Time.IsZero() {
				continue
			}
			if minTime.IsZero() || m.Time.Before(minTime) {
				minTime = m.Time
			}
			if maxTime.IsZero() || m.Time.After(maxTime) {
				maxTime = m.Time
			}
		}

		// 时间跨度按天计，不足一天按一天，避免除零
		spanDays := 0
		if !minTime.IsZero() {
			spanDays = int(maxTime.Sub(minTime).Hours() / 24)
		}
		if spanDays < 1 {
			spanDays = 1
		}

		results[sender] = UserStats{
			MessageCount:     len(msgs),
			MessagesPerDay:   float64(len(msgs)) / float64(spanDays),
			AvgMessageLength: float64(totalChars) / float64(len(msgs)),
			MaxMessageLength: maxChars,
		}
	}

	return results
}

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GenerateUserProfile 根据统计结果推断用户画像。纯函数，不做任何 I/O。
// 特征阈值：平均消息长度 > 50 为"表达详细"，否则"简明扼要"；
// 日均消息数 > 10 为"非常活跃"，> 5 为"较为活跃"，否则"较为安静"。
func GenerateUserProfile(userID string, stats map[string]UserStats) (*Profile, error) {
	userStats, ok := stats[userID]
	if !ok {
		return nil, fmt.Errorf("未找到用户 %s 的分析结果", userID)
	}

	var traits []string
	if userStats.AvgMessageLength > 50 {
		traits = append(traits, "表达详细")
	} else {
		traits = append(traits, "简明扼要")
	}
	switch {
	case userStats.MessagesPerDay > 10:
		traits = append(traits, "非常活跃")
	case userStats.MessagesPerDay > 5:
		traits = append(traits, "较为活跃")
	default:
		traits = append(traits, "较为安静")
	}

	return &Profile{
		UserID: userID,
		MessageStats: MessageStats{
			TotalMessages:  userStats.MessageCount,
			AvgLength:      round2(userStats.AvgMessageLength),
			MessagesPerDay: round2(userStats.MessagesPerDay),
		},
		PersonalityTraits: traits,
	}, nil
}

// GenerateReport 为每个用户生成画像文件 <user>_profile.json，
// 并写入汇总文件 summary.json。用户按 ID 排序保证输出确定。
func GenerateReport(stats map[string]UserStats, outputDir string) error {
	users := make([]string, 0, len(stats))
	for user := range stats {
		users = append(users, user)
	}
	sort.Strings(users)

	for _, user := range users {
		profile, err := GenerateUserProfile(user, stats)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化用户 %s 的画像失败: %w", user, err)
		}

		outputFile := filepath.Join(outputDir, fmt.Sprintf("%s_profile.json", user))
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("保存用户 %s 的画像失败: %w", user, err)
		}
		logger.Infof("[Analyzer] 已生成用户 %s 的画像报告: %s", user, outputFile)
	}

	summary := summaryJSON{
		TotalUsers:    len(users),
		GeneratedTime: time.Now().Format("2006-01-02 15:04:05"),
		Users:         users,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化汇总报告失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("保存汇总报告失败: %w", err)
	}

	return nil
}

// ExportMergedChat 将所有聊天记录按时间顺序合并到 merged_chat.txt，
// 每隔一个月插入一条时间标记；时间缺失的消息不参与月份切换判断。
func ExportMergedChat(records []record.Record, outputDir string) error {
	var lines []string
	currentMonth := ""

	for _, r := range records {
		if !r.Time.IsZero() {
			month := r.Time.Format("2006年01月")
			if month != currentMonth {
				currentMonth = month
				lines = append(lines, fmt.Sprintf("\n===== %s =====\n", currentMonth))
			}
		}
		lines = append(lines, r.Content)
	}

	outputFile := filepath.Join(outputDir, "merged_chat.txt")
	if err := os.WriteFile(outputFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("合并聊天记录失败: %w", err)
	}

	logger.Infof("[Analyzer] 已将所有聊天记录合并到: %s", outputFile)
	return nil
}
